package store

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"socstream/internal/platform/store/sqlite"
	"socstream/internal/platform/store/trace"
)

// sqlDB is the database/sql surface shared by *sql.DB and *sql.Tx
type sqlDB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// sqliteAdapter wraps sqlite.DB and implements RowQuerier + TxRunner
type sqliteAdapter struct {
	db *sqlite.DB
	em *trace.Emitter
}

func newSQLiteAdapter(db *sqlite.DB) *sqliteAdapter {
	return &sqliteAdapter{db: db, em: db.Emitter()}
}

func (a *sqliteAdapter) Ping(ctx context.Context) error {
	if a == nil || a.db == nil || a.db.Pool == nil {
		return errors.New("sqlite: nil adapter")
	}
	return a.db.Pool.PingContext(ctx)
}

func (a *sqliteAdapter) Close() error { return a.db.Close() }

func (a *sqliteAdapter) Exec(ctx context.Context, query string, args ...any) (CommandTag, error) {
	return sqlQuerier{db: a.db.Pool, em: a.em}.Exec(ctx, query, args...)
}

func (a *sqliteAdapter) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	return sqlQuerier{db: a.db.Pool, em: a.em}.Query(ctx, query, args...)
}

func (a *sqliteAdapter) QueryRow(ctx context.Context, query string, args ...any) Row {
	return sqlQuerier{db: a.db.Pool, em: a.em}.QueryRow(ctx, query, args...)
}

// Tx runs fn inside BEGIN IMMEDIATE ... COMMIT; the commit is durable when Tx returns nil
func (a *sqliteAdapter) Tx(ctx context.Context, fn func(q RowQuerier) error) error {
	tx, err := a.db.Pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(sqlQuerier{db: tx, em: a.em}); err != nil {
		_ = tx.Rollback()
		return err
	}
	start := time.Now()
	err = tx.Commit()
	a.em.Emit(ctx, "COMMIT", nil, start, err)
	return err
}

// sqlQuerier adapts database/sql to RowQuerier, in or out of a transaction
type sqlQuerier struct {
	db sqlDB
	em *trace.Emitter
}

func (q sqlQuerier) Exec(ctx context.Context, query string, args ...any) (CommandTag, error) {
	start := time.Now()
	res, err := q.db.ExecContext(ctx, query, args...)
	q.em.Emit(ctx, query, args, start, err)
	if err != nil {
		return sqlTag{}, err
	}
	n, _ := res.RowsAffected()
	return sqlTag{n: n}, nil
}

func (q sqlQuerier) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	start := time.Now()
	rs, err := q.db.QueryContext(ctx, query, args...)
	q.em.Emit(ctx, query, args, start, err)
	if err != nil {
		return nil, err
	}
	return sqlRows{r: rs}, nil
}

func (q sqlQuerier) QueryRow(ctx context.Context, query string, args ...any) Row {
	start := time.Now()
	r := q.db.QueryRowContext(ctx, query, args...)
	return row{
		r: r,
		after: func(scanErr error) {
			q.em.Emit(ctx, query, args, start, scanErr)
		},
	}
}

type sqlRows struct{ r *sql.Rows }

func (x sqlRows) Next() bool            { return x.r.Next() }
func (x sqlRows) Scan(dst ...any) error { return x.r.Scan(dst...) }
func (x sqlRows) Err() error            { return x.r.Err() }
func (x sqlRows) Close()                { _ = x.r.Close() }
func (x sqlRows) Columns() []string {
	cols, _ := x.r.Columns()
	return cols
}

// sqlTag reports rows affected the way database/sql exposes it
type sqlTag struct{ n int64 }

func (t sqlTag) String() string      { return strconv.FormatInt(t.n, 10) }
func (t sqlTag) RowsAffected() int64 { return t.n }
