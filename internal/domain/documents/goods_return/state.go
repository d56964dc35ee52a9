package goods_return

import (
	"time"

	"stockreturn/internal/core/apperror"
)

// State is the canonical workflow state.
//
//	pending_approval -> approved | rejected | cancelled
//	approved         -> processed | cancelled
type State string

const (
	StatePendingApproval State = "pending_approval"
	StateApproved        State = "approved"
	StateProcessed       State = "processed"
	StateRejected        State = "rejected"
	StateCancelled       State = "cancelled"
)

// ApprovalStatus is the approval view.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// ReturnStatus is the processing view.
type ReturnStatus string

const (
	ReturnPending   ReturnStatus = "pending"
	ReturnApproved  ReturnStatus = "approved"
	ReturnProcessed ReturnStatus = "processed"
	ReturnRejected  ReturnStatus = "rejected"
	ReturnCancelled ReturnStatus = "cancelled"
)

// DocumentStatus is the coarse lifecycle view.
type DocumentStatus string

const (
	StatusActive    DocumentStatus = "active"
	StatusCompleted DocumentStatus = "completed"
	StatusCancelled DocumentStatus = "cancelled"
)

var transitions = map[State][]State{
	StatePendingApproval: {StateApproved, StateRejected, StateCancelled},
	StateApproved:        {StateProcessed, StateCancelled},
}

// ActiveStates are the states whose quantities count against stock.
var ActiveStates = []State{StatePendingApproval, StateApproved, StateProcessed}

// IsValid reports whether s is a known state.
func (s State) IsValid() bool {
	switch s {
	case StatePendingApproval, StateApproved, StateProcessed, StateRejected, StateCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the workflow allows s -> to.
func (s State) CanTransitionTo(to State) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// IsActive reports whether a return in this state is active or completed.
func (s State) IsActive() bool {
	switch s {
	case StatePendingApproval, StateApproved, StateProcessed:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions exist.
func (s State) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// syncViews recomputes the derived status fields from State.
// A cancelled return keeps the approval status it had.
func (g *GoodsReturn) syncViews() {
	switch g.State {
	case StatePendingApproval:
		g.Approval.Status = ApprovalPending
		g.ReturnStatus = ReturnPending
		g.Status = StatusActive
	case StateApproved:
		g.Approval.Status = ApprovalApproved
		g.ReturnStatus = ReturnApproved
		g.Status = StatusActive
	case StateProcessed:
		g.Approval.Status = ApprovalApproved
		g.ReturnStatus = ReturnProcessed
		g.Status = StatusCompleted
	case StateRejected:
		g.Approval.Status = ApprovalRejected
		g.ReturnStatus = ReturnRejected
		g.Status = StatusCancelled
	case StateCancelled:
		if g.Approval.At != nil {
			g.Approval.Status = ApprovalApproved
		} else {
			g.Approval.Status = ApprovalPending
		}
		g.ReturnStatus = ReturnCancelled
		g.Status = StatusCancelled
	}
}

// SyncViews recomputes the derived status fields after loading from storage.
func (g *GoodsReturn) SyncViews() {
	g.syncViews()
}

func (g *GoodsReturn) transition(to State) error {
	if !g.State.CanTransitionTo(to) {
		return apperror.NewInvalidTransition("goods return", string(g.State), string(to))
	}
	g.State = to
	g.syncViews()
	return nil
}

// Approve moves a pending return to approved.
func (g *GoodsReturn) Approve(actor, remarks string, at time.Time) error {
	if err := g.transition(StateApproved); err != nil {
		return err
	}
	g.Approval.By = actor
	g.Approval.At = &at
	g.Approval.Remarks = remarks
	return nil
}

// Reject moves a pending return to rejected.
func (g *GoodsReturn) Reject(actor, remarks string, at time.Time) error {
	if err := g.transition(StateRejected); err != nil {
		return err
	}
	g.Approval.By = actor
	g.Approval.At = &at
	g.Approval.Remarks = remarks
	return nil
}

// MarkProcessed completes an approved return.
func (g *GoodsReturn) MarkProcessed(actor string, at time.Time) error {
	if err := g.transition(StateProcessed); err != nil {
		return err
	}
	g.ProcessedAt = &at
	g.ProcessedBy = actor
	return nil
}

// Cancel withdraws a return that has not been processed.
func (g *GoodsReturn) Cancel(actor, reason string, at time.Time) error {
	if err := g.transition(StateCancelled); err != nil {
		return err
	}
	g.CancelledAt = &at
	g.CancelledBy = actor
	g.CancellationReason = reason
	return nil
}

// initState sets the state of a new return. Without an approval step the
// return is approved by its creator.
func (g *GoodsReturn) initState(approvalRequired bool, actor string, at time.Time) {
	if approvalRequired {
		g.State = StatePendingApproval
	} else {
		g.State = StateApproved
		g.Approval.By = actor
		g.Approval.At = &at
	}
	g.syncViews()
}
