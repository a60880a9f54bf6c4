package testkit

import (
	"sync"
	"testing"
)

// seams are package-level vars, so tests that swap them take this lock
var seams sync.Mutex

// Swap sets *target to v and restores the previous value on cleanup
func Swap[T any](t testing.TB, target *T, v T) {
	t.Helper()
	prev := *target
	*target = v
	t.Cleanup(func() { *target = prev })
}

// Serial holds the seam lock until t finishes. Call it before Swap
func Serial(t testing.TB) {
	t.Helper()
	seams.Lock()
	t.Cleanup(seams.Unlock)
}
