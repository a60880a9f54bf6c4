package store

import (
	"context"
	"fmt"
	"time"

	chx "socstream/internal/platform/store/ch"
	"socstream/internal/platform/store/pg"
	"socstream/internal/platform/store/sqlite"
	"socstream/internal/platform/store/trace"
)

// openSQLite opens the database file and wraps it with the database/sql adapter
func openSQLite(ctx context.Context, cfg Config, s *Store) (TxRunner, error) {
	var tracer trace.QueryTracer
	if cfg.SQLite.LogSQL {
		tracer = trace.Tracer(s.Log, "sqlite")
	}
	db, err := sqlite.Open(ctx, sqlite.Config{
		Path:          cfg.SQLite.Path,
		BusyTimeoutMs: cfg.SQLite.BusyTimeoutMs,
		SlowMs:        cfg.SQLite.SlowQueryMs,
	}, tracer)
	if err != nil {
		return nil, err
	}
	return newSQLiteAdapter(db), nil
}

// openPG opens pg and wraps it with our sql adapter once the pool answers a ping
func openPG(ctx context.Context, cfg Config, s *Store) (TxRunner, error) {
	var tracer trace.QueryTracer
	if cfg.PG.LogSQL {
		tracer = trace.Tracer(s.Log, "pg")
	}

	p, err := pg.Open(ctx, pg.Config{
		URL:      cfg.PG.URL,
		MaxConns: cfg.PG.MaxConns,
		SlowMs:   cfg.PG.SlowQueryMs,
	}, tracer, nil)
	if err != nil {
		return nil, err
	}

	maxAttempts := cfg.PG.ConnectRetries
	if maxAttempts <= 0 {
		maxAttempts = 6
	}
	pingTimeout := cfg.PG.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 3 * time.Second
	}
	const (
		backoffStart   = 150 * time.Millisecond
		backoffCeiling = 2 * time.Second
	)

	var lastErr error
	backoff := backoffStart
	for i := 0; i < maxAttempts; i++ {
		toCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		lastErr = p.Pool.Ping(toCtx)
		cancel()

		if lastErr == nil {
			return newPGAdapter(p), nil
		}
		if ctx.Err() != nil {
			p.Close()
			return nil, ctx.Err()
		}
		if i == maxAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			p.Close()
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, backoffCeiling)
	}

	p.Close()
	return nil, fmt.Errorf("postgres ping failed after %d attempts: %w", maxAttempts, lastErr)
}

func openCH(ctx context.Context, cfg Config, s *Store) (Clickhouse, error) {
	var tracer trace.QueryTracer
	if cfg.CH.LogSQL {
		tracer = trace.Tracer(s.Log, "clickhouse")
	}
	c, err := chx.Open(ctx, chx.Config{
		URL:    cfg.CH.URL,
		Role:   "enrich",
		Tag:    cfg.CH.ClientTag,
		SlowMs: cfg.CH.SlowQueryMs,
	}, tracer)
	if err != nil {
		return nil, err
	}
	return newCHAdapter(c), nil
}
