// Package repo persists enriched postings to the configured backend
package repo

import (
	"context"
	"time"

	"socstream/internal/modkit/repokit"
	"socstream/internal/services/enrich/domain"
)

// The last column is soc2 on every create path
const createPostings = `CREATE TABLE IF NOT EXISTS ` + domain.TableName + ` (
	body    TEXT,
	title   TEXT,
	expired DATE,
	posted  DATE,
	state   TEXT,
	city    TEXT,
	onet    TEXT,
	soc5    TEXT,
	soc2    TEXT
)`

type queries struct {
	q repokit.Queryer
	d Dialect
}

// NewBinder returns a binder producing StorageRepo values for dialect d
func NewBinder(d Dialect) repokit.Binder[domain.StorageRepo] {
	return repokit.BindFunc[domain.StorageRepo](func(q repokit.Queryer) domain.StorageRepo {
		return &queries{q: q, d: d}
	})
}

// DropTable drops POSTINGS when present
func (r *queries) DropTable(ctx context.Context) error {
	_, err := r.q.Exec(ctx, `DROP TABLE IF EXISTS `+domain.TableName)
	return r.d.wrap(err, "drop "+domain.TableName)
}

// CreateTable creates POSTINGS unless it exists
func (r *queries) CreateTable(ctx context.Context) error {
	_, err := r.q.Exec(ctx, createPostings)
	return r.d.wrap(err, "create "+domain.TableName)
}

// InsertPosting appends one row
func (r *queries) InsertPosting(ctx context.Context, e domain.Enriched) error {
	sql := `INSERT INTO ` + domain.TableName +
		` (body, title, expired, posted, state, city, onet, soc5, soc2) VALUES (` + r.d.params(9) + `)`
	_, err := r.q.Exec(ctx, sql,
		e.Body, e.Title, r.d.date(e.Expired), r.d.date(e.Posted),
		e.State, e.City, e.Onet, e.Soc5, e.Soc2,
	)
	return r.d.wrap(err, "insert into "+domain.TableName)
}

// CountActive counts rows posted on or before ref that expire on or after it
func (r *queries) CountActive(ctx context.Context, ref time.Time) (int64, error) {
	sql := `SELECT count(*) FROM ` + domain.TableName +
		` WHERE posted <= ` + r.d.placeholder(1) + ` AND expired >= ` + r.d.placeholder(2)
	arg := r.d.date(&ref)
	var n int64
	if err := r.q.QueryRow(ctx, sql, arg, arg).Scan(&n); err != nil {
		return 0, r.d.wrap(err, "count active")
	}
	return n, nil
}
