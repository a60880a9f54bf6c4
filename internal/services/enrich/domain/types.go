// Package domain holds the records and ports of the enrichment pipeline
package domain

import (
	"time"

	"github.com/google/uuid"
)

// TableName is the output table
const TableName = "POSTINGS"

// Posting is one input line as decoded from JSON. Pointer fields tell
// JSON null or a missing key apart from an empty string
type Posting struct {
	Body    *string `json:"body" validate:"required"`
	Title   *string `json:"title"`
	Expired *string `json:"expired" validate:"omitempty,isodate"`
	Posted  *string `json:"posted" validate:"omitempty,isodate"`
	State   *string `json:"state"`
	City    *string `json:"city"`
	Onet    *string `json:"onet" validate:"required"`
}

// Enriched is the row appended to POSTINGS
type Enriched struct {
	Body    string
	Title   *string
	Expired *time.Time
	Posted  *time.Time
	State   *string
	City    *string
	Onet    string
	Soc5    string
	Soc2    *string
}

// OnExists decides what EnsureTable does with an existing table
type OnExists string

const (
	// OnExistsSkip keeps the existing table and appends to it
	OnExistsSkip OnExists = "skip"

	// OnExistsRecreate drops the table and creates it empty
	OnExistsRecreate OnExists = "recreate"
)

// Summary reports one run
type Summary struct {
	RunID         uuid.UUID
	Lines         int
	HTMLStripped  int
	Active        int64
	ReferenceDate time.Time
	Bytes         int64
	Elapsed       time.Duration
}
