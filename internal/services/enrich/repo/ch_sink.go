package repo

import (
	"context"
	"time"

	perr "socstream/internal/platform/errors"
	"socstream/internal/platform/store"
	"socstream/internal/services/enrich/domain"
)

const chCreatePostings = `CREATE TABLE IF NOT EXISTS ` + domain.TableName + ` (
	body    String,
	title   Nullable(String),
	expired Nullable(Date),
	posted  Nullable(Date),
	state   Nullable(String),
	city    Nullable(String),
	onet    String,
	soc5    String,
	soc2    Nullable(String)
) ENGINE = MergeTree ORDER BY tuple()`

// CHSink writes to ClickHouse; every Append is its own synchronous insert
type CHSink struct {
	ch store.Clickhouse
}

var _ domain.Sink = (*CHSink)(nil)

// NewCHSink returns a sink over ch
func NewCHSink(ch store.Clickhouse) *CHSink {
	if ch == nil {
		panic("repo.CHSink requires a non nil Clickhouse")
	}
	return &CHSink{ch: ch}
}

// EnsureTable creates POSTINGS, dropping it first for OnExistsRecreate
func (s *CHSink) EnsureTable(ctx context.Context, mode domain.OnExists) error {
	if mode == domain.OnExistsRecreate {
		if err := s.ch.Exec(ctx, `DROP TABLE IF EXISTS `+domain.TableName); err != nil {
			return perr.Wrap(err, perr.ErrorCodeDB, "drop "+domain.TableName)
		}
	}
	if err := s.ch.Exec(ctx, chCreatePostings); err != nil {
		return perr.Wrap(err, perr.ErrorCodeDB, "create "+domain.TableName)
	}
	return nil
}

// Append inserts one row
func (s *CHSink) Append(ctx context.Context, e domain.Enriched) error {
	row := []any{e.Body, e.Title, e.Expired, e.Posted, e.State, e.City, e.Onet, e.Soc5, e.Soc2}
	if err := s.ch.Insert(ctx, domain.TableName, row); err != nil {
		return perr.Wrap(err, perr.ErrorCodeDB, "insert into "+domain.TableName)
	}
	return nil
}

// CountActive counts rows active on ref; NULL dates never match
func (s *CHSink) CountActive(ctx context.Context, ref time.Time) (int64, error) {
	day := ref.Format(time.DateOnly)
	rows, err := s.ch.Query(ctx,
		`SELECT count() FROM `+domain.TableName+` WHERE posted <= toDate(?) AND expired >= toDate(?)`,
		day, day,
	)
	if err != nil {
		return 0, perr.Wrap(err, perr.ErrorCodeDB, "count active")
	}
	defer rows.Close()

	var n uint64
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, perr.Wrap(err, perr.ErrorCodeDB, "count active")
		}
	}
	if err := rows.Err(); err != nil {
		return 0, perr.Wrap(err, perr.ErrorCodeDB, "count active")
	}
	return int64(n), nil
}
