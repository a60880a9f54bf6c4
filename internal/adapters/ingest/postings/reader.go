package postings

import (
	"bufio"
	"compress/gzip"
	"errors"
	"io"
	"strings"

	perr "socstream/internal/platform/errors"
	"socstream/internal/platform/logger"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

const (
	// DefaultMaxLineBytes bounds a single record
	DefaultMaxLineBytes = 32 * 1024 * 1024
	initialBufBytes     = 512 * 1024
	sampleRawMax        = 2048
)

type options struct {
	encoding     string
	maxLineBytes int
}

// Option configures a Reader
type Option func(*options)

// WithEncoding sets the IANA charset of the decompressed text; "" or utf-8 means none
func WithEncoding(name string) Option {
	return func(o *options) { o.encoding = name }
}

// WithMaxLineBytes bounds one line; n <= 0 keeps the default
func WithMaxLineBytes(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxLineBytes = n
		}
	}
}

// Reader yields one raw line at a time from a gzip stream
type Reader struct {
	r       io.ReadCloser
	gz      *gzip.Reader
	count   *countingReader
	sc      *bufio.Scanner
	max     int
	err     error
	lines   int
	sampled bool
}

// NewReader wraps rc; rc is closed on error and by Close
func NewReader(rc io.ReadCloser, opts ...Option) (*Reader, error) {
	o := options{maxLineBytes: DefaultMaxLineBytes}
	for _, fn := range opts {
		fn(&o)
	}

	dec, err := decoderFor(o.encoding)
	if err != nil {
		_ = rc.Close()
		return nil, err
	}

	gz, err := gzip.NewReader(rc)
	if err != nil {
		if cerr := rc.Close(); cerr != nil {
			return nil, perr.Wrap(errors.Join(err, cerr), perr.ErrorCodeMalformedRecord, "input is not gzip")
		}
		return nil, perr.Wrap(err, perr.ErrorCodeMalformedRecord, "input is not gzip")
	}

	cr := &countingReader{r: gz}
	var src io.Reader = cr
	if dec != nil {
		src = dec.Reader(cr)
	}

	sc := bufio.NewScanner(src)
	bufSize := initialBufBytes
	if bufSize > o.maxLineBytes {
		bufSize = o.maxLineBytes
	}
	sc.Buffer(make([]byte, bufSize), o.maxLineBytes)

	return &Reader{r: rc, gz: gz, count: cr, sc: sc, max: o.maxLineBytes}, nil
}

// decoderFor returns nil for UTF-8, which passes through untouched
func decoderFor(name string) (*encoding.Decoder, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "utf-8") || strings.EqualFold(name, "utf8") {
		return nil, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeConfig, "unknown input encoding %q", name)
	}
	if enc == nil {
		return nil, perr.Configf("unsupported input encoding %q", name)
	}
	return enc.NewDecoder(), nil
}

// Next returns the next line without its terminator. The slice belongs to
// the caller. io.EOF marks the end of input; any other error is sticky
func (rd *Reader) Next() ([]byte, error) {
	if rd.err != nil {
		return nil, rd.err
	}
	if !rd.sc.Scan() {
		rd.err = rd.scanErr()
		return nil, rd.err
	}
	line := rd.sc.Bytes()
	cp := make([]byte, len(line))
	copy(cp, line)
	rd.lines++

	if !rd.sampled {
		rd.sampled = true
		l := logger.Named("postings")
		l.Debug().
			Int("line_bytes", len(cp)).
			Str("sample_raw", truncateUTF8(cp, sampleRawMax)).
			Msg("postings: sample raw line")
	}
	return cp, nil
}

func (rd *Reader) scanErr() error {
	err := rd.sc.Err()
	switch {
	case err == nil:
		return io.EOF
	case errors.Is(err, bufio.ErrTooLong):
		return perr.WithLine(perr.Malformedf("line longer than %d bytes", rd.max), rd.lines+1)
	case errors.Is(err, gzip.ErrChecksum), errors.Is(err, gzip.ErrHeader), errors.Is(err, io.ErrUnexpectedEOF):
		return perr.WithLine(perr.Wrap(err, perr.ErrorCodeMalformedRecord, "corrupt gzip stream"), rd.lines+1)
	default:
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "read input")
	}
}

// Stats returns lines handed out and decompressed bytes consumed so far
func (rd *Reader) Stats() (lines int, bytes int64) {
	return rd.lines, rd.count.n
}

// Close closes the gzip layer and then the source
func (rd *Reader) Close() error {
	var first error
	if rd.gz != nil {
		if err := rd.gz.Close(); err != nil {
			first = err
		}
	}
	if rd.r != nil {
		if err := rd.r.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// truncateUTF8 cuts b to at most max bytes on a rune boundary, adding "..." when cut
func truncateUTF8(b []byte, max int) string {
	if max <= 0 || len(b) <= max {
		return string(b)
	}
	i := max
	for i > 0 && (b[i]&0xC0) == 0x80 {
		i--
	}
	if i <= 0 {
		i = max
	}
	return string(b[:i]) + "..."
}
