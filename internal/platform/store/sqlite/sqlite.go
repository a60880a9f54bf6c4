// Package sqlite provides an embedded SQLite client on modernc.org/sqlite
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"socstream/internal/platform/store/trace"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// Config configures the database file and connection pragmas
type Config struct {
	Path          string
	BusyTimeoutMs int
	SlowMs        int
}

// DB is a sqlite handle with an optional tracer
type DB struct {
	Pool   *sql.DB
	Path   string
	Tracer trace.QueryTracer
	SlowMs int
}

var openDB = sql.Open

// DSN builds the modernc connection string for cfg.
// Every commit is fsynced (synchronous=FULL) and writers take the lock up front
func DSN(cfg Config) string {
	busy := cfg.BusyTimeoutMs
	if busy <= 0 {
		busy = 5000
	}
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busy))
	q.Add("_pragma", "synchronous(FULL)")
	q.Add("_pragma", "foreign_keys(1)")
	q.Set("_txlock", "immediate")
	return "file:" + cfg.Path + "?" + q.Encode()
}

// Open opens the database file, creating it when absent, and pings it
func Open(ctx context.Context, cfg Config, tracer trace.QueryTracer) (*DB, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite: empty path")
	}
	pool, err := openDB("sqlite", DSN(cfg))
	if err != nil {
		return nil, err
	}

	// one writer; a second connection would only contend for the file lock
	pool.SetMaxOpenConns(1)

	pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.PingContext(pctx); err != nil {
		_ = pool.Close()
		return nil, err
	}

	return &DB{Pool: pool, Path: cfg.Path, Tracer: tracer, SlowMs: cfg.SlowMs}, nil
}

// Emitter returns the statement emitter for this handle
func (d *DB) Emitter() *trace.Emitter {
	if d == nil {
		return nil
	}
	return &trace.Emitter{Tracer: d.Tracer, SlowMs: d.SlowMs}
}

// Close closes the pool
func (d *DB) Close() error {
	if d == nil || d.Pool == nil {
		return nil
	}
	return d.Pool.Close()
}
