// Package repokit holds the small seams repositories are written against,
// so repo code never imports a driver
package repokit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"socstream/internal/platform/store"
)

type (
	// Queryer is the read and write surface a bound repo uses
	Queryer = store.RowQuerier

	// TxRunner runs a function inside one transaction
	TxRunner = store.TxRunner

	// Rows is a result set
	Rows = store.Rows

	// Row is a single-row result
	Row = store.Row

	// CommandTag reports what a statement changed
	CommandTag = store.CommandTag
)

// Binder binds a domain repo to a Queryer, usually the one a tx hands out
type Binder[T any] interface {
	Bind(Queryer) T
}

// BindFunc adapts a plain function to Binder
type BindFunc[T any] func(Queryer) T

// Bind calls f
func (f BindFunc[T]) Bind(q Queryer) T { return f(q) }

// MustBind panics on a nil Queryer, then binds
func MustBind[T any](b Binder[T], q Queryer) T {
	if q == nil {
		panic("repokit: nil Queryer")
	}
	return b.Bind(q)
}

// WithTx runs fn in a transaction on tx and hands it the repo bound to that transaction
func WithTx[T any](ctx context.Context, tx TxRunner, b Binder[T], fn func(repo T) error) error {
	return tx.Tx(ctx, func(q Queryer) error {
		return fn(MustBind(b, q))
	})
}

// BeginHook runs first inside every transaction, on the tx-bound Queryer
type BeginHook func(ctx context.Context, q Queryer) error

// WithBeginHooks returns a TxRunner that runs hooks before fn in the same transaction.
// No hooks returns inner unchanged
func WithBeginHooks(inner TxRunner, hooks ...BeginHook) TxRunner {
	if len(hooks) == 0 {
		return inner
	}
	return hookedTx{TxRunner: inner, hooks: hooks}
}

type hookedTx struct {
	TxRunner
	hooks []BeginHook
}

func (h hookedTx) Tx(ctx context.Context, fn func(q Queryer) error) error {
	return h.TxRunner.Tx(ctx, func(q Queryer) error {
		for _, hk := range h.hooks {
			if err := hk(ctx, q); err != nil {
				return err
			}
		}
		return fn(q)
	})
}

// PGStatementTimeout bounds every statement of the transaction on Postgres. d <= 0 is a no-op
func PGStatementTimeout(d time.Duration) BeginHook {
	return func(ctx context.Context, q Queryer) error {
		if d <= 0 {
			return nil
		}
		ms := strconv.FormatInt(d.Milliseconds(), 10)
		if _, err := q.Exec(ctx, "SET LOCAL statement_timeout = "+ms); err != nil {
			return fmt.Errorf("set statement_timeout: %w", err)
		}
		return nil
	}
}

// PGSynchronousCommit forces a durable commit for the transaction on Postgres
func PGSynchronousCommit() BeginHook {
	return func(ctx context.Context, q Queryer) error {
		if _, err := q.Exec(ctx, "SET LOCAL synchronous_commit = on"); err != nil {
			return fmt.Errorf("set synchronous_commit: %w", err)
		}
		return nil
	}
}
