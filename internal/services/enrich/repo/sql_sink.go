package repo

import (
	"context"
	"time"

	"socstream/internal/modkit/repokit"
	"socstream/internal/services/enrich/domain"
)

// SQLSink writes to sqlite or postgres, one transaction per row
type SQLSink struct {
	db     repokit.TxRunner
	binder repokit.Binder[domain.StorageRepo]
}

var _ domain.Sink = (*SQLSink)(nil)

// NewSQLSink returns a sink over db speaking dialect d
func NewSQLSink(db repokit.TxRunner, d Dialect) *SQLSink {
	if db == nil {
		panic("repo.SQLSink requires a non nil TxRunner")
	}
	return &SQLSink{db: db, binder: NewBinder(d)}
}

// EnsureTable creates POSTINGS; OnExistsRecreate drops it first in the same transaction
func (s *SQLSink) EnsureTable(ctx context.Context, mode domain.OnExists) error {
	return repokit.WithTx(ctx, s.db, s.binder, func(r domain.StorageRepo) error {
		if mode == domain.OnExistsRecreate {
			if err := r.DropTable(ctx); err != nil {
				return err
			}
		}
		return r.CreateTable(ctx)
	})
}

// Append commits e before returning
func (s *SQLSink) Append(ctx context.Context, e domain.Enriched) error {
	return repokit.WithTx(ctx, s.db, s.binder, func(r domain.StorageRepo) error {
		return r.InsertPosting(ctx, e)
	})
}

// CountActive runs outside a transaction
func (s *SQLSink) CountActive(ctx context.Context, ref time.Time) (int64, error) {
	return repokit.MustBind(s.binder, s.db).CountActive(ctx, ref)
}
