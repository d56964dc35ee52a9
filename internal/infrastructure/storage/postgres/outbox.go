package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"stockreturn/internal/core/id"
	"stockreturn/pkg/logger"
)

// OutboxStatus represents the state of an outbox message.
type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusPublished OutboxStatus = "published"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// DefaultMaxRetries is how many failed deliveries mark a message failed.
const DefaultMaxRetries = 5

// OutboxMessage represents a message in the transactional outbox.
type OutboxMessage struct {
	ID            id.ID        `db:"id"`
	AggregateType string       `db:"aggregate_type"` // e.g. "goods_return"
	AggregateID   id.ID        `db:"aggregate_id"`   // ID of the entity
	EventType     string       `db:"event_type"`     // e.g. "stock.movement_requested"
	Payload       []byte       `db:"payload"`        // JSON payload
	Status        OutboxStatus `db:"status"`
	RetryCount    int          `db:"retry_count"`
	LastError     *string      `db:"last_error"`
	NextRetryAt   *time.Time   `db:"next_retry_at"`
	CreatedAt     time.Time    `db:"created_at"`
	PublishedAt   *time.Time   `db:"published_at"`
}

// DomainEvent represents an event to be published via outbox.
type DomainEvent struct {
	AggregateType string
	AggregateID   id.ID
	EventType     string
	Payload       any
}

// OutboxPublisher writes events to the outbox table.
type OutboxPublisher struct {
	txManager *TxManager
}

// NewOutboxPublisher creates a new outbox publisher.
func NewOutboxPublisher(txManager *TxManager) *OutboxPublisher {
	return &OutboxPublisher{txManager: txManager}
}

const insertOutboxSQL = `
	INSERT INTO sys_outbox (id, aggregate_type, aggregate_id, event_type, payload, status, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
`

// Publish writes an event to the outbox within the current transaction.
// MUST be called inside a transaction context.
func (p *OutboxPublisher) Publish(ctx context.Context, event DomainEvent) error {
	tx := p.txManager.GetTx(ctx)
	if tx == nil {
		return fmt.Errorf("outbox publish requires transaction context")
	}

	payloadBytes, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	_, err = tx.Exec(ctx, insertOutboxSQL,
		id.New(), event.AggregateType, event.AggregateID, event.EventType,
		payloadBytes, OutboxStatusPending, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert outbox message: %w", err)
	}

	return nil
}

// PublishIsolated is Publish inside a savepoint: if the insert fails, the
// surrounding transaction stays usable and keeps its other writes.
func (p *OutboxPublisher) PublishIsolated(ctx context.Context, event DomainEvent) error {
	return p.txManager.RunInSavepoint(ctx, func(ctx context.Context) error {
		return p.Publish(ctx, event)
	})
}

// OutboxHandler processes outbox messages.
type OutboxHandler interface {
	// Handle processes a message and returns error if failed.
	// It runs on the relay's transaction carried by ctx.
	Handle(ctx context.Context, msg *OutboxMessage) error
}

// OutboxHandlerFunc adapts a function to OutboxHandler.
type OutboxHandlerFunc func(ctx context.Context, msg *OutboxMessage) error

func (f OutboxHandlerFunc) Handle(ctx context.Context, msg *OutboxMessage) error {
	return f(ctx, msg)
}

// OutboxRouter dispatches messages by event type.
type OutboxRouter struct {
	handlers map[string]OutboxHandler
}

// NewOutboxRouter creates an empty router.
func NewOutboxRouter() *OutboxRouter {
	return &OutboxRouter{handlers: make(map[string]OutboxHandler)}
}

// Register binds a handler to an event type.
func (r *OutboxRouter) Register(eventType string, h OutboxHandler) {
	r.handlers[eventType] = h
}

// Handle implements OutboxHandler. Messages without a handler fail so they
// end up in the DLQ instead of being dropped.
func (r *OutboxRouter) Handle(ctx context.Context, msg *OutboxMessage) error {
	h, ok := r.handlers[msg.EventType]
	if !ok {
		return fmt.Errorf("no handler for event type %q", msg.EventType)
	}
	return h.Handle(ctx, msg)
}

// BatchGuard serializes relay batches across processes.
type BatchGuard interface {
	// TryAcquire returns ok=false when another process holds the guard.
	TryAcquire(ctx context.Context) (release func(), ok bool, err error)
}

// RelayOptions configures an OutboxRelay.
type RelayOptions struct {
	BatchSize  int
	MaxRetries int
	Guard      BatchGuard
}

// BatchStats summarizes one relay batch.
type BatchStats struct {
	Fetched   int
	Published int
	Failed    int
}

// OutboxRelay reads and processes messages from the outbox.
type OutboxRelay struct {
	txManager  *TxManager
	batchSize  int
	maxRetries int
	guard      BatchGuard
	handler    OutboxHandler
}

// NewOutboxRelay creates a new outbox relay.
func NewOutboxRelay(txManager *TxManager, handler OutboxHandler, opts RelayOptions) *OutboxRelay {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	return &OutboxRelay{
		txManager:  txManager,
		batchSize:  opts.BatchSize,
		maxRetries: opts.MaxRetries,
		guard:      opts.Guard,
		handler:    handler,
	}
}

// ProcessBatch fetches and processes pending messages in one transaction.
// Rows are locked with SKIP LOCKED so parallel relays never share a message.
// Each handler runs in its own savepoint.
func (r *OutboxRelay) ProcessBatch(ctx context.Context) (BatchStats, error) {
	var stats BatchStats

	err := r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var messages []*OutboxMessage
		err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &messages, `
			SELECT id, aggregate_type, aggregate_id, event_type, payload, status,
			       retry_count, last_error, next_retry_at, created_at, published_at
			FROM sys_outbox
			WHERE status = $1
			  AND (next_retry_at IS NULL OR next_retry_at <= NOW())
			ORDER BY created_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		`, OutboxStatusPending, r.batchSize)
		if err != nil {
			return fmt.Errorf("fetch outbox messages: %w", err)
		}
		stats.Fetched = len(messages)

		for _, msg := range messages {
			if err := r.processMessage(ctx, msg); err != nil {
				stats.Failed++
				logger.Warn(ctx, "outbox message failed",
					"message_id", msg.ID,
					"event_type", msg.EventType,
					"retry_count", msg.RetryCount+1,
					"error", err,
				)
				continue
			}
			stats.Published++
		}
		return nil
	})

	return stats, err
}

// processMessage handles a single outbox message.
func (r *OutboxRelay) processMessage(ctx context.Context, msg *OutboxMessage) error {
	querier := r.txManager.GetQuerier(ctx)

	err := r.txManager.RunInSavepoint(ctx, func(ctx context.Context) error {
		return r.handler.Handle(ctx, msg)
	})
	if err != nil {
		// Linear backoff: retry n waits n minutes.
		nextRetry := time.Now().UTC().Add(time.Duration(msg.RetryCount+1) * time.Minute)
		status := OutboxStatusPending
		if msg.RetryCount+1 >= r.maxRetries {
			status = OutboxStatusFailed
		}

		_, updateErr := querier.Exec(ctx, `
			UPDATE sys_outbox
			SET retry_count = retry_count + 1,
			    last_error = $1,
			    next_retry_at = $2,
			    status = $3
			WHERE id = $4
		`, err.Error(), nextRetry, status, msg.ID)
		if updateErr != nil {
			return fmt.Errorf("update failed message: %w", updateErr)
		}
		return err
	}

	_, err = querier.Exec(ctx, `
		UPDATE sys_outbox
		SET status = $1, published_at = $2
		WHERE id = $3
	`, OutboxStatusPublished, time.Now().UTC(), msg.ID)
	if err != nil {
		return fmt.Errorf("mark published: %w", err)
	}

	return nil
}

// Drain processes batches until the outbox has nothing due. When a guard is
// configured and held elsewhere it returns immediately.
func (r *OutboxRelay) Drain(ctx context.Context) (BatchStats, error) {
	var total BatchStats

	if r.guard != nil {
		release, ok, err := r.guard.TryAcquire(ctx)
		if err != nil {
			return total, fmt.Errorf("acquire relay guard: %w", err)
		}
		if !ok {
			return total, nil
		}
		defer release()
	}

	for {
		stats, err := r.ProcessBatch(ctx)
		total.Fetched += stats.Fetched
		total.Published += stats.Published
		total.Failed += stats.Failed
		if err != nil {
			return total, err
		}
		if stats.Fetched < r.batchSize || ctx.Err() != nil {
			return total, nil
		}
	}
}

// Run drains the outbox every interval until ctx is cancelled.
func (r *OutboxRelay) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		stats, err := r.Drain(ctx)
		if err != nil && ctx.Err() == nil {
			logger.Error(ctx, "outbox relay failed", "error", err)
			continue
		}
		if stats.Fetched > 0 {
			logger.Debug(ctx, "outbox relay batch",
				"fetched", stats.Fetched,
				"published", stats.Published,
				"failed", stats.Failed,
			)
		}
	}
}

// MoveToDLQ moves failed messages to dead letter queue.
func (r *OutboxRelay) MoveToDLQ(ctx context.Context) (int64, error) {
	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		WITH moved AS (
			DELETE FROM sys_outbox
			WHERE status = $1 AND retry_count >= $2
			RETURNING *
		)
		INSERT INTO sys_outbox_dlq
		SELECT *, NOW() AS failed_at, last_error AS failure_reason FROM moved
	`, OutboxStatusFailed, r.maxRetries)
	if err != nil {
		return 0, fmt.Errorf("move to DLQ: %w", err)
	}

	return result.RowsAffected(), nil
}

// PurgePublished deletes published messages older than retention.
func (r *OutboxRelay) PurgePublished(ctx context.Context, retention time.Duration) (int64, error) {
	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		DELETE FROM sys_outbox
		WHERE status = $1 AND published_at < $2
	`, OutboxStatusPublished, time.Now().UTC().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("purge published: %w", err)
	}

	return result.RowsAffected(), nil
}
