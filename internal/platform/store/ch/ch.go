// Package ch provides a clickhouse client on clickhouse-go/v2
package ch

import (
	"context"
	"errors"
	"time"

	"socstream/internal/platform/store/trace"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// Config configures clickhouse client
type Config struct {
	URL    string
	Role   string
	Tag    string
	SlowMs int
}

// Rows is the minimal result set iteration for ch
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
	Columns() []string
}

// conn is the slice of driver.Conn this client uses
type conn interface {
	Exec(ctx context.Context, query string, args ...any) error
	PrepareBatch(ctx context.Context, query string, opts ...driver.PrepareBatchOption) (driver.Batch, error)
	Query(ctx context.Context, query string, args ...any) (driver.Rows, error)
	Ping(ctx context.Context) error
	Close() error
}

// CH wraps a native clickhouse connection
type CH struct {
	conn conn
	em   *trace.Emitter
}

var openConn = func(opts *clickhouse.Options) (conn, error) { return clickhouse.Open(opts) }

// Open parses the DSN, connects and pings
func Open(ctx context.Context, cfg Config, tracer trace.QueryTracer) (*CH, error) {
	opts, err := clickhouse.ParseDSN(cfg.URL)
	if err != nil {
		return nil, err
	}
	opts.ClientInfo = BuildClientInfo(cfg.Role, cfg.Tag)

	cn, err := openConn(opts)
	if err != nil {
		return nil, err
	}

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := cn.Ping(pctx); err != nil {
		_ = cn.Close()
		return nil, err
	}
	return &CH{conn: cn, em: &trace.Emitter{Tracer: tracer, SlowMs: cfg.SlowMs}}, nil
}

// Exec runs a statement without results (DDL)
func (c *CH) Exec(ctx context.Context, sql string, args ...any) error {
	start := time.Now()
	err := c.conn.Exec(ctx, sql, args...)
	c.em.Emit(ctx, sql, args, start, err)
	return err
}

// Insert appends rows to table with one synchronous batch
func (c *CH) Insert(ctx context.Context, table string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	sql := "INSERT INTO " + table
	start := time.Now()
	err := c.insert(ctx, sql, rows)
	c.em.Emit(ctx, sql, []any{len(rows)}, start, err)
	return err
}

func (c *CH) insert(ctx context.Context, sql string, rows [][]any) error {
	batch, err := c.conn.PrepareBatch(ctx, sql)
	if err != nil {
		return err
	}
	for _, r := range rows {
		if err := batch.Append(r...); err != nil {
			return errors.Join(err, batch.Abort())
		}
	}
	return batch.Send()
}

// Query runs a query and returns ch.Rows
func (c *CH) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	start := time.Now()
	rs, err := c.conn.Query(ctx, sql, args...)
	c.em.Emit(ctx, sql, args, start, err)
	if err != nil {
		return nil, err
	}
	return rs, nil
}

// Ping verifies the server answers
func (c *CH) Ping(ctx context.Context) error { return c.conn.Ping(ctx) }

// Close closes the connection
func (c *CH) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
