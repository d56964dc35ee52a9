// Package tx lets domain services group repository calls into one unit of
// work without knowing the database behind them.
package tx

import "context"

// Manager runs fn inside a transaction carried by ctx. An error from fn rolls
// everything back; a call made while a transaction is already in ctx joins it.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager is a Manager that can also open read-only transactions,
// used by list and summary reads so they see one consistent snapshot.
type ReadOnlyManager interface {
	Manager

	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
