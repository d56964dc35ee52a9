package goods_return

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockreturn/internal/core/apperror"
)

func TestState_Transitions(t *testing.T) {
	allowed := map[State][]State{
		StatePendingApproval: {StateApproved, StateRejected, StateCancelled},
		StateApproved:        {StateProcessed, StateCancelled},
	}
	all := []State{StatePendingApproval, StateApproved, StateProcessed, StateRejected, StateCancelled}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, next := range allowed[from] {
				if next == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}

	assert.True(t, StateProcessed.IsTerminal())
	assert.True(t, StateRejected.IsTerminal())
	assert.True(t, StateCancelled.IsTerminal())
	assert.False(t, StateApproved.IsTerminal())
}

func TestState_DerivedViews(t *testing.T) {
	at := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		state    State
		approved bool
		approval ApprovalStatus
		ret      ReturnStatus
		status   DocumentStatus
		active   bool
	}{
		{"pending", StatePendingApproval, false, ApprovalPending, ReturnPending, StatusActive, true},
		{"approved", StateApproved, true, ApprovalApproved, ReturnApproved, StatusActive, true},
		{"processed", StateProcessed, true, ApprovalApproved, ReturnProcessed, StatusCompleted, true},
		{"rejected", StateRejected, true, ApprovalRejected, ReturnRejected, StatusCancelled, false},
		{"cancelled while pending", StateCancelled, false, ApprovalPending, ReturnCancelled, StatusCancelled, false},
		{"cancelled after approval", StateCancelled, true, ApprovalApproved, ReturnCancelled, StatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &GoodsReturn{State: tt.state}
			if tt.approved {
				g.Approval.At = &at
			}
			g.SyncViews()

			assert.Equal(t, tt.approval, g.Approval.Status)
			assert.Equal(t, tt.ret, g.ReturnStatus)
			assert.Equal(t, tt.status, g.Status)
			assert.Equal(t, tt.active, g.IsActive())
		})
	}
}

func TestGoodsReturn_InvalidTransitionError(t *testing.T) {
	g := &GoodsReturn{State: StateRejected}

	err := g.Approve("u", "", time.Now())
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidTransition, appErr.Code)
	assert.Equal(t, StateRejected, g.State)
}

func TestInitState(t *testing.T) {
	at := time.Now()

	pending := &GoodsReturn{}
	pending.initState(true, "u1", at)
	assert.Equal(t, StatePendingApproval, pending.State)
	assert.Nil(t, pending.Approval.At)

	auto := &GoodsReturn{}
	auto.initState(false, "u1", at)
	assert.Equal(t, StateApproved, auto.State)
	assert.Equal(t, "u1", auto.Approval.By)
	assert.Equal(t, ApprovalApproved, auto.Approval.Status)
}
