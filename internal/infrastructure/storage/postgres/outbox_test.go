package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOutboxRelay_Defaults(t *testing.T) {
	r := NewOutboxRelay(nil, nil, RelayOptions{})

	assert.Equal(t, 100, r.batchSize)
	assert.Equal(t, DefaultMaxRetries, r.maxRetries)
	assert.Nil(t, r.guard)

	r = NewOutboxRelay(nil, nil, RelayOptions{BatchSize: 10, MaxRetries: 3})
	assert.Equal(t, 10, r.batchSize)
	assert.Equal(t, 3, r.maxRetries)
}

func TestOutboxRouter_DispatchesByEventType(t *testing.T) {
	var handled []string
	router := NewOutboxRouter()
	router.Register("a", OutboxHandlerFunc(func(_ context.Context, msg *OutboxMessage) error {
		handled = append(handled, "a:"+msg.AggregateType)
		return nil
	}))
	router.Register("b", OutboxHandlerFunc(func(context.Context, *OutboxMessage) error {
		return errors.New("b failed")
	}))

	require.NoError(t, router.Handle(context.Background(), &OutboxMessage{EventType: "a", AggregateType: "goods_return"}))
	assert.EqualError(t, router.Handle(context.Background(), &OutboxMessage{EventType: "b"}), "b failed")
	assert.Error(t, router.Handle(context.Background(), &OutboxMessage{EventType: "c"}))
	assert.Equal(t, []string{"a:goods_return"}, handled)
}

type denyGuard struct{ err error }

func (g denyGuard) TryAcquire(context.Context) (func(), bool, error) {
	return nil, false, g.err
}

func TestOutboxRelay_DrainSkipsWhenGuardHeldElsewhere(t *testing.T) {
	// txManager is nil: any attempt to process a batch would panic.
	r := NewOutboxRelay(nil, nil, RelayOptions{Guard: denyGuard{}})

	stats, err := r.Drain(context.Background())

	require.NoError(t, err)
	assert.Zero(t, stats.Fetched)
}

func TestOutboxRelay_DrainReportsGuardError(t *testing.T) {
	r := NewOutboxRelay(nil, nil, RelayOptions{Guard: denyGuard{err: errors.New("redis down")}})

	_, err := r.Drain(context.Background())

	assert.ErrorContains(t, err, "acquire relay guard")
}
