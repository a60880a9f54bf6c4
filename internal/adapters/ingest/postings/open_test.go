package postings

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	perr "socstream/internal/platform/errors"
	kit "socstream/internal/platform/testkit"
)

func TestOpen_LocalFile(t *testing.T) {
	p := kit.WriteFile(t, "sample.gz", kit.Gzip(t, `{"onet":"x"}`))

	rc, err := Open(context.Background(), p)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	rd, err := NewReader(rc)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer rd.Close()
	if b, err := rd.Next(); err != nil || string(b) != `{"onet":"x"}` {
		t.Fatalf("Next = %q, %v", b, err)
	}
}

func TestOpen_Errors(t *testing.T) {
	ctx := context.Background()

	if _, err := Open(ctx, "  "); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("empty: %v", err)
	}
	missing := filepath.Join(t.TempDir(), "nope.gz")
	if _, err := Open(ctx, missing); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("missing: %v", err)
	}
}

func TestOpen_HTTP(t *testing.T) {
	payload := kit.Gzip(t, `{"onet":"remote"}`)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sample.gz":
			_, _ = w.Write(payload)
		case "/boom":
			w.WriteHeader(http.StatusBadGateway)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	o := NewOpener(5 * time.Second)
	ctx := context.Background()

	rc, err := o.Open(ctx, srv.URL+"/sample.gz")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	b, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil || len(b) != len(payload) {
		t.Fatalf("body = %d bytes, %v", len(b), err)
	}

	if _, err := o.Open(ctx, srv.URL+"/missing"); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("404: %v", err)
	}
	if _, err := o.Open(ctx, srv.URL+"/boom"); !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("502: %v", err)
	}

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := o.Open(cctx, srv.URL+"/sample.gz"); !perr.IsCode(err, perr.ErrorCodeCanceled) {
		t.Fatalf("canceled: %v", err)
	}
}

func TestIsRemote(t *testing.T) {
	for src, want := range map[string]bool{
		"https://x/y.gz": true,
		"HTTP://x":       true,
		"sample.gz":      false,
		"/tmp/http.gz":   false,
	} {
		if got := IsRemote(src); got != want {
			t.Fatalf("IsRemote(%q) = %v", src, got)
		}
	}
}
