package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"masterdata/internal/core/tx"
	"masterdata/pkg/logger"
)

var tracer = otel.Tracer("masterdata/tx")

// Compile-time check that TxManager implements tx.Manager interface.
var _ tx.Manager = (*TxManager)(nil)

// TxOptions configures transaction behavior.
type TxOptions struct {
	// IsolationLevel: pgx.Serializable, pgx.RepeatableRead, pgx.ReadCommitted
	IsolationLevel pgx.TxIsoLevel

	// AccessMode: pgx.ReadWrite, pgx.ReadOnly
	AccessMode pgx.TxAccessMode

	// StatementTimeout protects against long-running queries (default 30s)
	StatementTimeout time.Duration
}

// DefaultTxOptions returns production-safe defaults.
func DefaultTxOptions() TxOptions {
	return TxOptions{
		IsolationLevel:   pgx.ReadCommitted,
		AccessMode:       pgx.ReadWrite,
		StatementTimeout: 30 * time.Second,
	}
}

// TxManager manages database transactions with support for:
// - Nested transactions (reuse of the transaction from context)
// - Statement timeout protection
// - Distributed tracing integration
type TxManager struct {
	pool *pgxpool.Pool
}

// NewTxManager creates a new transaction manager.
func NewTxManager(pool *Pool) *TxManager {
	return &TxManager{pool: pool.Pool}
}

// txKey is the context key for active transaction.
type txKey struct{}

// RunInTransaction executes fn within a transaction.
// If a transaction already exists in ctx, it will be reused.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.RunInTransactionWithOptions(ctx, DefaultTxOptions(), fn)
}

// RunInTransactionWithOptions executes fn with custom transaction options.
func (m *TxManager) RunInTransactionWithOptions(ctx context.Context, opts TxOptions, fn func(ctx context.Context) error) error {
	ctx, span := tracer.Start(ctx, "transaction",
		trace.WithAttributes(
			attribute.String("tx.isolation", string(opts.IsolationLevel)),
		))
	defer span.End()

	// Nested call: reuse the outer transaction.
	if m.getTx(ctx) != nil {
		return fn(ctx)
	}

	dbTx, err := m.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   opts.IsolationLevel,
		AccessMode: opts.AccessMode,
	})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if opts.StatementTimeout > 0 {
		_, err = dbTx.Exec(ctx, fmt.Sprintf("SET LOCAL statement_timeout = '%dms'", opts.StatementTimeout.Milliseconds()))
		if err != nil {
			_ = dbTx.Rollback(ctx)
			return fmt.Errorf("set statement_timeout: %w", err)
		}
	}

	txCtx := context.WithValue(ctx, txKey{}, dbTx)

	if err := fn(txCtx); err != nil {
		// Use background context for rollback to ensure it completes
		// even if the original context was cancelled.
		if rbErr := dbTx.Rollback(context.Background()); rbErr != nil {
			logger.Error(ctx, "rollback failed", "error", rbErr, "original_error", err)
		}
		return err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ReadOnly executes fn in a read-only transaction.
func (m *TxManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	opts := DefaultTxOptions()
	opts.AccessMode = pgx.ReadOnly
	return m.RunInTransactionWithOptions(ctx, opts, fn)
}

func (m *TxManager) getTx(ctx context.Context) pgx.Tx {
	if dbTx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return dbTx
	}
	return nil
}

// Querier is the query surface shared by the pool and transactions.
// Repos work both inside and outside transactions through it.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// GetQuerier returns the transaction from context when present,
// otherwise the pool.
func (m *TxManager) GetQuerier(ctx context.Context) Querier {
	if dbTx := m.getTx(ctx); dbTx != nil {
		return dbTx
	}
	return m.pool
}
