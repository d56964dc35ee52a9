// Package audit defines the audit trail contract used by domain services
// and the actor attribution helpers that go with it.
package audit

import (
	"context"

	appctx "stockreturn/internal/core/context"
	"stockreturn/internal/core/id"
)

// SystemActor is recorded when no user is present in the context
// (background relay, seed).
const SystemActor = "system"

// Action is the kind of audited change.
type Action string

const (
	ActionCreate  Action = "create"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionProcess Action = "process"
	ActionCancel  Action = "cancel"
)

// Logger writes audit entries on the transaction carried by ctx.
type Logger interface {
	LogChange(ctx context.Context, entityType string, entityID id.ID, action Action, changes map[string]any) error
}

// Actor returns the user id from context, or SystemActor.
func Actor(ctx context.Context) string {
	if userID := appctx.GetUserID(ctx); userID != "" {
		return userID
	}
	return SystemActor
}

// NopLogger discards entries.
type NopLogger struct{}

func (NopLogger) LogChange(context.Context, string, id.ID, Action, map[string]any) error {
	return nil
}
