// Package guardrails holds the safety helpers around one enrichment run
package guardrails

import (
	"context"
	"time"
)

// Timeouts is an optional budget bundle for a run. Zero values mean no extra limit
type Timeouts struct {
	// Run caps the whole run, table setup through the final count
	Run time.Duration

	// DB caps each statement-level call into the sink
	DB time.Duration
}

// ForRun returns a context bounded by Run and any parent deadline
func ForRun(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Run)
}

// ForDB returns a context for one sink call
func ForDB(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.DB)
}

// Remaining returns the time left before ctx's deadline, zero when none or past
func Remaining(ctx context.Context) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 {
			return d
		}
	}
	return 0
}

// withChildTimeout takes the tighter of d and the parent's remainder; it never extends the parent.
// d <= 0 yields a plain cancelable child
func withChildTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	if rem := Remaining(parent); rem > 0 && rem < d {
		return context.WithTimeout(parent, rem)
	}
	return context.WithTimeout(parent, d)
}
