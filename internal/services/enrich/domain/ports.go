package domain

import (
	"context"
	"time"
)

// RunnerPort is what the binary calls
type RunnerPort interface {
	Run(ctx context.Context, rd LineReader) (Summary, error)
}

// LineReader yields raw input lines; Next returns io.EOF at the end
type LineReader interface {
	Next() ([]byte, error)
	Stats() (lines int, bytes int64)
}

// Sink persists enriched rows
type Sink interface {
	// EnsureTable creates POSTINGS, or drops and recreates it when asked
	EnsureTable(ctx context.Context, mode OnExists) error

	// Append writes one row in its own transaction and returns once it is durable
	Append(ctx context.Context, e Enriched) error

	// CountActive counts rows with posted <= ref and expired >= ref
	CountActive(ctx context.Context, ref time.Time) (int64, error)
}

// StorageRepo is the SQL surface a Sink binds to a transaction
type StorageRepo interface {
	DropTable(ctx context.Context) error
	CreateTable(ctx context.Context) error
	InsertPosting(ctx context.Context, e Enriched) error
	CountActive(ctx context.Context, ref time.Time) (int64, error)
}
