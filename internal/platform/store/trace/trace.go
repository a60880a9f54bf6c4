// Package trace logs SQL statements issued by the store backends
package trace

import (
	"context"
	"time"

	"socstream/internal/platform/logger"

	"github.com/rs/zerolog"
)

// QueryEvent describes one finished statement
type QueryEvent struct {
	SQL       string
	Args      any
	ElapsedUS int64
	Err       error
	Slow      bool
}

// QueryTracer receives every statement a backend runs
type QueryTracer interface {
	OnQuery(ctx context.Context, ev QueryEvent)
}

// Tracer returns a tracer that prints every statement at info, slow ones at warn.
// It is only installed when SQL logging is requested so it ignores the root level
func Tracer(root logger.Logger, component string) QueryTracer {
	ll := root.Level(zerolog.DebugLevel).With().Str("component", component).Logger()
	return &zlTracer{log: ll, msg: component + " query"}
}

type zlTracer struct {
	log logger.Logger
	msg string
}

func (z *zlTracer) OnQuery(ctx context.Context, ev QueryEvent) {
	elapsedMs := float64(ev.ElapsedUS) / 1000.0
	evt := z.log.Info()
	if ev.Slow {
		evt = z.log.Warn()
	}
	if id := logger.RunID(ctx); id != "" {
		evt = evt.Str("run_id", id)
	}

	evt.Float64("elapsed_ms", elapsedMs).
		Bool("slow", ev.Slow).
		Str("sql", Compact(ev.SQL)).
		Interface("args", ev.Args).
		Err(ev.Err).
		Msg(z.msg)
}

// Emitter times statements for a backend and forwards them to a tracer.
// A nil Emitter or one without a tracer does nothing; SlowMs <= 0 never flags slow
type Emitter struct {
	Tracer QueryTracer
	SlowMs int
}

// Emit reports one statement started at start
func (e *Emitter) Emit(ctx context.Context, sql string, args []any, start time.Time, err error) {
	if e == nil || e.Tracer == nil {
		return
	}
	elapsedUS := time.Since(start).Microseconds()
	slow := e.SlowMs > 0 && elapsedUS >= int64(e.SlowMs)*1000
	e.Tracer.OnQuery(ctx, QueryEvent{
		SQL:       sql,
		Args:      args,
		ElapsedUS: elapsedUS,
		Err:       err,
		Slow:      slow,
	})
}

// Compact collapses whitespace runs into single spaces
func Compact(s string) string {
	out := make([]rune, 0, len(s))
	space := false
	for _, r := range s {
		if r == '\n' || r == '\t' || r == '\r' || r == ' ' {
			if !space {
				out = append(out, ' ')
				space = true
			}
			continue
		}
		space = false
		out = append(out, r)
	}
	return string(out)
}
