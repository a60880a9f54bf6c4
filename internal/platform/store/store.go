// Package store provides a unified interface to the output backends
package store

import (
	"context"
	"errors"
	"fmt"

	perr "socstream/internal/platform/errors"
	"socstream/internal/platform/logger"
)

// Store is the facade over the selected backend
// zero value is safe but does nothing
type Store struct {
	// Log is the logger used by subclients
	// zero means a no op zerolog logger
	Log logger.Logger

	// Backend names the backend Open selected
	Backend Backend

	// SQL is the sqlite or postgres seam, nil for clickhouse
	SQL TxRunner

	// CH is the clickhouse seam, nil unless Backend is clickhouse
	CH Clickhouse
}

// Row exposes the minimal scan contract a single row needs
type Row interface {
	Scan(dest ...any) error
}

// Rows exposes the minimal iteration and scan for a result set
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
	Columns() []string
}

// CommandTag is a tiny interface to inspect command results
type CommandTag interface {
	String() string
	RowsAffected() int64
}

// RowQuerier is the read and write surface repos use for sql
type RowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

// TxRunner wraps transaction execution around a function
type TxRunner interface {
	RowQuerier
	Tx(ctx context.Context, fn func(q RowQuerier) error) error
}

// Clickhouse is a tiny seam for columnar writes and queries
type Clickhouse interface {
	Exec(ctx context.Context, sql string, args ...any) error
	Insert(ctx context.Context, table string, data any) error
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	Close() error
}

// Pinger is any seam that can report readiness
type Pinger interface{ Ping(context.Context) error }

// Option mutates Store during Open
type Option func(*Store) error

// WithLogger sets the logger handed to the SQL tracers
func WithLogger(log logger.Logger) Option {
	return func(s *Store) error {
		s.Log = log
		return nil
	}
}

// Open constructs a Store for cfg.Backend
// only the selected backend is opened; the other seams stay nil
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	s := &Store{}
	for _, o := range opts {
		if err := o(s); err != nil {
			return nil, err
		}
	}

	// defaults for zero logger to avoid nil checks
	s.Log = s.Log.With().Logger()

	backend := cfg.Backend
	if backend == "" {
		backend = BackendSQLite
	}
	s.Backend = backend

	switch backend {
	case BackendSQLite:
		db, err := openSQLite(ctx, cfg, s)
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeDB, "open sqlite %s", cfg.SQLite.Path)
		}
		s.SQL = db
	case BackendPostgres:
		db, err := openPG(ctx, cfg, s)
		if err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeDB, "open postgres")
		}
		s.SQL = db
	case BackendClickhouse:
		c, err := openCH(ctx, cfg, s)
		if err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeDB, "open clickhouse")
		}
		s.CH = c
	default:
		return nil, perr.Configf("unknown store backend %q", backend)
	}

	return s, nil
}

// Guard pings every configured seam
func (s *Store) Guard(ctx context.Context) error {
	if s == nil {
		return errors.New("nil store")
	}
	var errs []error
	if p, ok := s.SQL.(Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Backend, err))
		}
	}
	if p, ok := s.CH.(Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("clickhouse: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Close closes all initialized backends gracefully
// nil backends are ignored
func (s *Store) Close(_ context.Context) error {
	if s == nil {
		return nil
	}
	var errs []error

	if s.CH != nil {
		if e := s.CH.Close(); e != nil {
			errs = append(errs, e)
		}
	}

	if c, ok := s.SQL.(interface{ Close() error }); ok {
		if e := c.Close(); e != nil {
			errs = append(errs, e)
		}
	}

	return errors.Join(errs...)
}
