// Package tx provides transaction management abstractions.
// Domain code depends on this interface; the implementation lives in
// internal/storage/postgres.
package tx

import (
	"context"
)

// Manager defines the contract for transaction management.
// Implementations handle BEGIN, COMMIT, ROLLBACK, and nested transaction support.
type Manager interface {
	// RunInTransaction executes fn within a database transaction.
	// If fn returns an error, the transaction is rolled back entirely.
	// Nested calls reuse the existing transaction from context.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Nop is a no-op Manager for backends without transactional semantics
// (the in-memory store).
type Nop struct{}

func (Nop) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
