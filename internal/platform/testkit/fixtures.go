package testkit

import (
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Gzip compresses lines joined by '\n'. A trailing newline is added unless
// the last line is empty
func Gzip(t testing.TB, lines ...string) []byte {
	t.Helper()
	return GzipBytes(t, []byte(JoinLines(lines...)))
}

// GzipBytes compresses raw bytes as-is
func GzipBytes(t testing.TB, raw []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

// JoinLines joins lines with '\n' and terminates the last one
func JoinLines(lines ...string) string {
	if len(lines) == 0 {
		return ""
	}
	s := strings.Join(lines, "\n")
	if lines[len(lines)-1] != "" {
		s += "\n"
	}
	return s
}

// WriteFile writes b into a file under t.TempDir and returns its path
func WriteFile(t testing.TB, name string, b []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, b, 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}
