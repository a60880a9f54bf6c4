package guardrails

import (
	"context"
	"errors"
	"strings"

	perr "socstream/internal/platform/errors"
	"socstream/internal/platform/logger"

	"github.com/gofrs/flock"
)

// ErrLeaseHeld means another run is writing the same output
var ErrLeaseHeld = errors.New("enrich: output lease already held")

// Lease runs do while holding an exclusive claim on the run's output
type Lease func(ctx context.Context, do func(context.Context) error) error

// NoLease runs do directly
func NoLease(ctx context.Context, do func(context.Context) error) error { return do(ctx) }

// LockPath is the sidecar lock file used for target
func LockPath(target string) string { return strings.TrimSpace(target) + ".lock" }

// MakeFileLease returns a Lease backed by an advisory file lock next to target,
// normally the sqlite database file. A held lock fails fast with ErrLeaseHeld
func MakeFileLease(target string) Lease {
	return func(ctx context.Context, do func(context.Context) error) error {
		path := LockPath(target)
		fl := flock.New(path)
		ok, err := fl.TryLock()
		if err != nil {
			return perr.Wrapf(err, perr.ErrorCodeUnavailable, "lock %s", path)
		}
		if !ok {
			return perr.Wrapf(ErrLeaseHeld, perr.ErrorCodeUnavailable, "lock %s", path)
		}
		defer func() {
			if uerr := fl.Unlock(); uerr != nil {
				logger.C(ctx).Warn().Err(uerr).Str("lock", path).Msg("enrich: unlock failed")
			}
		}()
		return do(ctx)
	}
}
