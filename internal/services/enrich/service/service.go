// Package service runs the enrichment pipeline: decode, clean, resolve, persist
package service

import (
	"context"
	"errors"
	"io"
	"time"

	"socstream/internal/core/normalize"
	"socstream/internal/core/soc"
	perr "socstream/internal/platform/errors"
	"socstream/internal/platform/logger"
	ptime "socstream/internal/platform/time"
	"socstream/internal/platform/validate"
	"socstream/internal/services/enrich/domain"
	"socstream/internal/services/enrich/guardrails"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// DefaultReferenceDate is the day active postings are counted on
var DefaultReferenceDate = time.Date(2017, time.February, 1, 0, 0, 0, 0, time.UTC)

// Config holds the knobs of one run
type Config struct {
	OnExists      domain.OnExists
	ReferenceDate time.Time

	// ProgressEvery logs a progress line every N records; <= 0 disables it
	ProgressEvery int

	// Timeouts bounds each sink call (DB) and the whole run (Run)
	Timeouts guardrails.Timeouts
}

// Service is single-goroutine: one line is fully persisted before the next is read
type Service struct {
	Sink     domain.Sink
	Resolver *soc.Resolver
	Cfg      Config

	// Lease wraps the run in an exclusive claim on the output; nil means none
	Lease guardrails.Lease
}

var _ domain.RunnerPort = (*Service)(nil)

// New constructs the service
func New(sink domain.Sink, r *soc.Resolver, cfg Config, lease guardrails.Lease) *Service {
	if sink == nil {
		panic("enrich.Service requires a non nil Sink")
	}
	if r == nil {
		panic("enrich.Service requires a non nil Resolver")
	}
	if cfg.OnExists == "" {
		cfg.OnExists = domain.OnExistsSkip
	}
	if cfg.ReferenceDate.IsZero() {
		cfg.ReferenceDate = DefaultReferenceDate
	}
	if lease == nil {
		lease = guardrails.NoLease
	}
	return &Service{Sink: sink, Resolver: r, Cfg: cfg, Lease: lease}
}

// Run drains rd into the sink and returns the run summary. The first fatal
// error stops the run; rows committed before it stay committed. The summary
// is filled in as far as the run got, error or not
func (s *Service) Run(ctx context.Context, rd domain.LineReader) (sum domain.Summary, err error) {
	start := time.Now()
	sum = domain.Summary{RunID: runID(ctx), ReferenceDate: s.Cfg.ReferenceDate}

	ctx, cancel := guardrails.ForRun(ctx, s.Cfg.Timeouts)
	defer cancel()

	log := logger.C(ctx)
	log.Info().
		Str("run", sum.RunID.String()).
		Str("on_exists", string(s.Cfg.OnExists)).
		Str("reference_date", s.Cfg.ReferenceDate.Format(time.DateOnly)).
		Msg("enrich: run started")

	err = s.Lease(ctx, func(ctx context.Context) error {
		return s.run(ctx, rd, &sum)
	})

	_, sum.Bytes = rd.Stats()
	sum.Elapsed = time.Since(start)

	if err != nil {
		log.Error().Err(err).
			Int("lines", sum.Lines).
			Int("line", perr.LineOf(err)).
			Str("kind", perr.CodeOf(err).String()).
			Msg("enrich: run failed")
		return sum, err
	}
	log.Info().
		Int("lines", sum.Lines).
		Int("html_stripped", sum.HTMLStripped).
		Int64("active", sum.Active).
		Str("bytes", humanize.Bytes(uint64(sum.Bytes))).
		Dur("elapsed", sum.Elapsed).
		Msg("enrich: run finished")
	return sum, nil
}

func (s *Service) run(ctx context.Context, rd domain.LineReader, sum *domain.Summary) error {
	if err := s.db(ctx, func(ctx context.Context) error {
		return s.Sink.EnsureTable(ctx, s.Cfg.OnExists)
	}); err != nil {
		return perr.Wrap(err, perr.ErrorCodeDB, "ensure table")
	}

	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return perr.Wrapf(err, perr.ErrorCodeCanceled, "stopped after %d lines", sum.Lines)
		}

		line, err := rd.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		e, stripped, err := s.enrich(line)
		if err != nil {
			return perr.WithLine(err, n)
		}

		if err := s.db(ctx, func(ctx context.Context) error { return s.Sink.Append(ctx, e) }); err != nil {
			if ctx.Err() != nil {
				return perr.WithLine(perr.Wrap(err, perr.ErrorCodeCanceled, "append canceled"), n)
			}
			return perr.WithLine(perr.Wrap(err, perr.ErrorCodeDB, "append"), n)
		}

		sum.Lines++
		if stripped {
			sum.HTMLStripped++
		}
		if s.Cfg.ProgressEvery > 0 && sum.Lines%s.Cfg.ProgressEvery == 0 {
			_, b := rd.Stats()
			logger.C(ctx).Info().
				Int("lines", sum.Lines).
				Int("html_stripped", sum.HTMLStripped).
				Str("bytes", humanize.Bytes(uint64(b))).
				Msg("enrich: progress")
		}
	}

	return s.db(ctx, func(ctx context.Context) error {
		n, err := s.Sink.CountActive(ctx, s.Cfg.ReferenceDate)
		if err != nil {
			return perr.Wrap(err, perr.ErrorCodeDB, "count active")
		}
		sum.Active = n
		return nil
	})
}

// enrich turns one raw line into a row. stripped reports whether markup was removed from the body
func (s *Service) enrich(line []byte) (e domain.Enriched, stripped bool, err error) {
	p, err := validate.DecodeJSON[domain.Posting](line)
	if err != nil {
		field := ""
		if pe, ok := perr.As(err); ok {
			field = pe.Field()
		}
		return e, false, perr.WithField(perr.Wrap(err, perr.ErrorCodeMalformedRecord, "malformed record"), field)
	}

	body, stripped := normalize.StripMarkup(*p.Body)

	res, err := s.Resolver.Resolve(*p.Onet)
	if err != nil {
		return e, false, err
	}

	expired, err := ptime.ParseDatePtr(p.Expired)
	if err != nil {
		return e, false, perr.WithField(perr.Wrap(err, perr.ErrorCodeMalformedRecord, "malformed record"), "expired")
	}
	posted, err := ptime.ParseDatePtr(p.Posted)
	if err != nil {
		return e, false, perr.WithField(perr.Wrap(err, perr.ErrorCodeMalformedRecord, "malformed record"), "posted")
	}

	return domain.Enriched{
		Body:    normalize.Sanitize(body),
		Title:   sanitizePtr(p.Title),
		Expired: expired,
		Posted:  posted,
		State:   sanitizePtr(p.State),
		City:    sanitizePtr(p.City),
		Onet:    *p.Onet,
		Soc5:    res.Soc5,
		Soc2:    res.Soc2,
	}, stripped, nil
}

// db bounds one sink call by the DB timeout
func (s *Service) db(ctx context.Context, fn func(context.Context) error) error {
	dbCtx, cancel := guardrails.ForDB(ctx, s.Cfg.Timeouts)
	defer cancel()
	return fn(dbCtx)
}

func sanitizePtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := normalize.Sanitize(*s)
	return &v
}

// runID reuses the id stamped on ctx by logger.WithRun when it is a UUID
func runID(ctx context.Context) uuid.UUID {
	if id, err := uuid.Parse(logger.RunID(ctx)); err == nil {
		return id
	}
	return uuid.New()
}
