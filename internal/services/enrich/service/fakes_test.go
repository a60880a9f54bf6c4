package service

import (
	"context"
	"errors"
	"io"
	"time"

	"socstream/internal/core/soc"
	"socstream/internal/services/enrich/domain"
)

// sliceReader hands out lines from memory; after is called once line n is handed out
type sliceReader struct {
	lines []string
	i     int
	bytes int64
	after func(n int)
	err   error
	errAt int
}

func (r *sliceReader) Next() ([]byte, error) {
	if r.errAt > 0 && r.i+1 == r.errAt {
		return nil, r.err
	}
	if r.i >= len(r.lines) {
		return nil, io.EOF
	}
	l := r.lines[r.i]
	r.i++
	r.bytes += int64(len(l) + 1)
	if r.after != nil {
		r.after(r.i)
	}
	return []byte(l), nil
}

func (r *sliceReader) Stats() (int, int64) { return r.i, r.bytes }

// memSink keeps rows in memory and can fail on a given append
type memSink struct {
	mode      domain.OnExists
	ensured   int
	rows      []domain.Enriched
	refSeen   time.Time
	active    int64
	failAt    int
	appendErr error
	ensureErr error
	countErr  error
	appends   int
}

func (m *memSink) EnsureTable(_ context.Context, mode domain.OnExists) error {
	m.ensured++
	m.mode = mode
	if mode == domain.OnExistsRecreate {
		m.rows = nil
	}
	return m.ensureErr
}

func (m *memSink) Append(ctx context.Context, e domain.Enriched) error {
	m.appends++
	if m.failAt > 0 && m.appends == m.failAt {
		return m.appendErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.rows = append(m.rows, e)
	return nil
}

func (m *memSink) CountActive(_ context.Context, ref time.Time) (int64, error) {
	m.refSeen = ref
	if m.countErr != nil {
		return 0, m.countErr
	}
	var n int64
	for _, r := range m.rows {
		if r.Posted != nil && r.Expired != nil && !r.Posted.After(ref) && !r.Expired.Before(ref) {
			n++
		}
	}
	return n, nil
}

var errSink = errors.New("disk full")

func testResolver() *soc.Resolver {
	codes := soc.NewCodeTable(map[string]string{
		"43-3021.02": "43-3021",
		"15-1131.00": "15-1131",
	})
	h := soc.NewHierarchy(map[int]map[string]string{
		5: {"43-3021": "43-3020", "15-1131": "15-1130"},
		4: {"43-3020": "43-3000"},
		3: {"43-3000": "43-0000"},
		2: {},
		1: {},
	})
	return soc.NewResolver(codes, h)
}
