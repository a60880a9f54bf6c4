package postings

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	perr "socstream/internal/platform/errors"
)

// HTTPFetcher downloads remote inputs
type HTTPFetcher struct {
	Client *http.Client
}

// NewHTTPFetcherWithTimeout returns a fetcher whose client gives up after d; 0 means no client timeout
func NewHTTPFetcherWithTimeout(d time.Duration) *HTTPFetcher {
	return &HTTPFetcher{Client: &http.Client{Timeout: d}}
}

// Fetch GETs url and returns the response body on 200
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "bad input url %s", url)
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeCanceled, "fetch %s", url)
		}
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "fetch %s", url)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		if resp.StatusCode == http.StatusNotFound {
			return nil, perr.NotFoundf("fetch %s: status %d", url, resp.StatusCode)
		}
		return nil, perr.Unavailablef("fetch %s: unexpected status %d", url, resp.StatusCode)
	}
	return resp.Body, nil
}

// Opener resolves an input reference to a byte stream
type Opener struct {
	HTTP *HTTPFetcher
}

// NewOpener returns an Opener whose remote fetches time out after httpTimeout (0 = none)
func NewOpener(httpTimeout time.Duration) Opener {
	return Opener{HTTP: NewHTTPFetcherWithTimeout(httpTimeout)}
}

// Open returns the raw (still compressed) stream for src: an http(s) URL or a local path
func (o Opener) Open(ctx context.Context, src string) (io.ReadCloser, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, perr.InvalidArgf("empty input")
	}
	if IsRemote(src) {
		f := o.HTTP
		if f == nil {
			f = &HTTPFetcher{}
		}
		return f.Fetch(ctx, src)
	}
	fh, err := os.Open(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, perr.Wrapf(err, perr.ErrorCodeNotFound, "open input %s", src)
		}
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "open input %s", src)
	}
	return fh, nil
}

// Open opens src with a default Opener
func Open(ctx context.Context, src string) (io.ReadCloser, error) {
	return NewOpener(0).Open(ctx, src)
}

// IsRemote reports whether src names an http(s) URL
func IsRemote(src string) bool {
	s := strings.ToLower(src)
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
