// Package testkit holds small test helpers shared across packages: panic and
// substring assertions, seam swapping, and gzip fixtures
package testkit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// MustPanic fails t unless fn panics
func MustPanic(t testing.TB, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatalf("want panic")
		}
	}()
	fn()
}

// MustContain fails t when s lacks sub. Long outputs are dumped to a temp file
// and the path is reported instead of the whole text
func MustContain(t testing.TB, s, sub string) {
	t.Helper()
	if strings.Contains(s, sub) {
		return
	}
	if len(s) <= 512 {
		t.Fatalf("%q not found in %q", sub, s)
	}
	dump := filepath.Join(t.TempDir(), "haystack.txt")
	_ = os.WriteFile(dump, []byte(s), 0o600)
	t.Fatalf("%q not found; output (%d bytes) in %s", sub, len(s), dump)
}
