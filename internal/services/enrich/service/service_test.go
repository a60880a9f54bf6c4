package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	perr "socstream/internal/platform/errors"
	"socstream/internal/platform/logger"
	kit "socstream/internal/platform/testkit"
	"socstream/internal/services/enrich/domain"
	"socstream/internal/services/enrich/guardrails"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func line(body, onet string, extra ...string) string {
	s := fmt.Sprintf(`{"body":%q,"onet":%q`, body, onet)
	for i := 0; i+1 < len(extra); i += 2 {
		s += fmt.Sprintf(`,%q:%q`, extra[i], extra[i+1])
	}
	return s + "}"
}

func str(s string) *string { return &s }

func date(s string) *time.Time {
	t, _ := time.Parse(time.DateOnly, s)
	return &t
}

func TestRun_WritesEveryLineInOrder(t *testing.T) {
	lines := []string{
		line("<p>Hello</p> world", "43-3021.02", "title", "Clerk", "posted", "2017-01-10", "expired", "2017-03-01", "state", "NY", "city", "Albany"),
		line("plain text", "15-1131.00", "posted", "2017-02-02", "expired", "2017-05-01"),
		line("a < b and c > d", "43-3021.02", "posted", "2017-02-01", "expired", "2017-02-01"),
		`{"body":"x\u0000y","onet":"15-1131.00","title":null,"posted":"","extra":{"nested":true}}`,
	}
	sink := &memSink{}
	rd := &sliceReader{lines: lines}

	sum, err := New(sink, testResolver(), Config{}, nil).Run(context.Background(), rd)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []domain.Enriched{
		{Body: "Hello world", Title: str("Clerk"), Posted: date("2017-01-10"), Expired: date("2017-03-01"),
			State: str("NY"), City: str("Albany"), Onet: "43-3021.02", Soc5: "43-3021", Soc2: str("43-0000")},
		{Body: "plain text", Posted: date("2017-02-02"), Expired: date("2017-05-01"),
			Onet: "15-1131.00", Soc5: "15-1131"},
		{Body: "a  d", Posted: date("2017-02-01"), Expired: date("2017-02-01"),
			Onet: "43-3021.02", Soc5: "43-3021", Soc2: str("43-0000")},
		{Body: "xy", Onet: "15-1131.00", Soc5: "15-1131"},
	}
	if diff := cmp.Diff(want, sink.rows); diff != "" {
		t.Fatalf("rows (-want +got):\n%s", diff)
	}

	if sum.Lines != len(lines) || sum.Lines != len(sink.rows) {
		t.Fatalf("Lines = %d, rows = %d", sum.Lines, len(sink.rows))
	}
	if sum.HTMLStripped != 2 {
		t.Fatalf("HTMLStripped = %d, want 2", sum.HTMLStripped)
	}
	if sum.Active != 2 {
		t.Fatalf("Active = %d, want 2", sum.Active)
	}
	if !sum.ReferenceDate.Equal(DefaultReferenceDate) || !sink.refSeen.Equal(DefaultReferenceDate) {
		t.Fatalf("reference date = %v / %v", sum.ReferenceDate, sink.refSeen)
	}
	if _, b := rd.Stats(); sum.Bytes != b || b == 0 {
		t.Fatalf("Bytes = %d, reader %d", sum.Bytes, b)
	}
	if sink.ensured != 1 || sink.mode != domain.OnExistsSkip {
		t.Fatalf("EnsureTable calls %d mode %q", sink.ensured, sink.mode)
	}
	if sum.RunID == uuid.Nil || sum.Elapsed <= 0 {
		t.Fatalf("summary identity not set: %+v", sum)
	}
}

func TestRun_EmptyInput(t *testing.T) {
	sink := &memSink{}
	sum, err := New(sink, testResolver(), Config{OnExists: domain.OnExistsRecreate}, nil).Run(context.Background(), &sliceReader{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Lines != 0 || sum.HTMLStripped != 0 || sum.Active != 0 {
		t.Fatalf("summary = %+v", sum)
	}
	if sink.mode != domain.OnExistsRecreate {
		t.Fatalf("mode = %q", sink.mode)
	}
}

func TestRun_HTMLCounterCountsOnlyChangedBodies(t *testing.T) {
	bodies := []string{"<b>x</b>", "no tags", "<<b>i>", "a<>b", "<br/>", "1 < 2", ""}
	var lines []string
	for _, b := range bodies {
		lines = append(lines, line(b, "15-1131.00"))
	}
	sink := &memSink{}
	sum, err := New(sink, testResolver(), Config{}, nil).Run(context.Background(), &sliceReader{lines: lines})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.HTMLStripped != 3 {
		t.Fatalf("HTMLStripped = %d, want 3", sum.HTMLStripped)
	}
	got := make([]string, len(sink.rows))
	for i, r := range sink.rows {
		got[i] = r.Body
	}
	if diff := cmp.Diff([]string{"x", "no tags", "", "a<>b", "", "1 < 2", ""}, got); diff != "" {
		t.Fatalf("bodies (-want +got):\n%s", diff)
	}
}

func TestRun_FatalErrors(t *testing.T) {
	good := line("ok", "43-3021.02")
	tests := []struct {
		name    string
		lines   []string
		sink    *memSink
		code    perr.ErrorCode
		line    int
		field   string
		written int
	}{
		{"not json", []string{good, good, "{not json"}, &memSink{}, perr.ErrorCodeMalformedRecord, 3, "", 2},
		{"blank line", []string{good, ""}, &memSink{}, perr.ErrorCodeMalformedRecord, 2, "", 1},
		{"missing body", []string{good, `{"onet":"43-3021.02"}`}, &memSink{}, perr.ErrorCodeMalformedRecord, 2, "body", 1},
		{"null onet", []string{`{"body":"x","onet":null}`}, &memSink{}, perr.ErrorCodeMalformedRecord, 1, "onet", 0},
		{"bad date", []string{good, line("x", "43-3021.02", "posted", "02/01/2017")}, &memSink{}, perr.ErrorCodeMalformedRecord, 2, "posted", 1},
		{"trailing data", []string{good + " {}"}, &memSink{}, perr.ErrorCodeMalformedRecord, 1, "", 0},
		{"unknown onet", []string{good, good, line("x", "99-9999.99")}, &memSink{}, perr.ErrorCodeUnresolvedCode, 3, "onet", 2},
		{"empty onet", []string{line("x", "")}, &memSink{}, perr.ErrorCodeUnresolvedCode, 1, "onet", 0},
		{"append fails", []string{good, good, good}, &memSink{failAt: 2, appendErr: errSink}, perr.ErrorCodeDB, 2, "", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sum, err := New(tt.sink, testResolver(), Config{}, nil).Run(context.Background(), &sliceReader{lines: tt.lines})
			if err == nil {
				t.Fatalf("expected error")
			}
			if got := perr.CodeOf(err); got != tt.code {
				t.Fatalf("code = %v, want %v (%v)", got, tt.code, err)
			}
			if got := perr.LineOf(err); got != tt.line {
				t.Fatalf("line = %d, want %d", got, tt.line)
			}
			if e, _ := perr.As(err); e.Field() != tt.field {
				t.Fatalf("field = %q, want %q", e.Field(), tt.field)
			}
			if len(tt.sink.rows) != tt.written || sum.Lines != tt.written {
				t.Fatalf("written = %d, Lines = %d, want %d", len(tt.sink.rows), sum.Lines, tt.written)
			}
			kit.MustContain(t, err.Error(), fmt.Sprintf("line %d: ", tt.line))
		})
	}
}

func TestRun_UnknownOnetMessageNamesValue(t *testing.T) {
	_, err := New(&memSink{}, testResolver(), Config{}, nil).Run(context.Background(), &sliceReader{lines: []string{line("x", "99-9999.99")}})
	kit.MustContain(t, err.Error(), `onet "99-9999.99" not in code table`)
	if perr.ExitCode(err) != perr.ExitDataErr {
		t.Fatalf("exit code = %d", perr.ExitCode(err))
	}
}

func TestRun_SinkSetupAndCountFailures(t *testing.T) {
	sink := &memSink{ensureErr: errSink}
	_, err := New(sink, testResolver(), Config{}, nil).Run(context.Background(), &sliceReader{lines: []string{line("x", "15-1131.00")}})
	if !perr.IsCode(err, perr.ErrorCodeDB) || !errors.Is(err, errSink) || sink.appends != 0 {
		t.Fatalf("ensure failure: %v (appends %d)", err, sink.appends)
	}

	sink = &memSink{countErr: errSink}
	sum, err := New(sink, testResolver(), Config{}, nil).Run(context.Background(), &sliceReader{lines: []string{line("x", "15-1131.00")}})
	if !perr.IsCode(err, perr.ErrorCodeDB) || sum.Lines != 1 {
		t.Fatalf("count failure: %v, lines %d", err, sum.Lines)
	}
}

func TestRun_ReaderErrorIsReturnedAsIs(t *testing.T) {
	readErr := perr.WithLine(perr.Malformedf("line longer than 16 bytes"), 2)
	rd := &sliceReader{lines: []string{line("x", "15-1131.00"), "y"}, err: readErr, errAt: 2}
	sum, err := New(&memSink{}, testResolver(), Config{}, nil).Run(context.Background(), rd)
	if err != readErr || sum.Lines != 1 {
		t.Fatalf("err = %v, lines %d", err, sum.Lines)
	}
}

func TestRun_CancelBetweenLines(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lines := []string{line("a", "15-1131.00"), line("b", "15-1131.00"), line("c", "15-1131.00")}
	rd := &sliceReader{lines: lines, after: func(n int) {
		if n == 2 {
			cancel()
		}
	}}
	sink := &memSink{}
	sum, err := New(sink, testResolver(), Config{}, nil).Run(ctx, rd)
	if !perr.IsCode(err, perr.ErrorCodeCanceled) {
		t.Fatalf("err = %v", err)
	}
	if perr.ExitCode(err) != perr.ExitCanceled {
		t.Fatalf("exit code = %d", perr.ExitCode(err))
	}
	if len(sink.rows) != 1 || sum.Lines != 1 {
		t.Fatalf("rows = %d, lines = %d; only the first line should be committed", len(sink.rows), sum.Lines)
	}
}

func TestRun_ConfigAndRunID(t *testing.T) {
	id := uuid.New()
	ctx := logger.WithRun(context.Background(), id.String(), "sample.gz")
	ref := time.Date(2017, 3, 1, 0, 0, 0, 0, time.UTC)

	leased := 0
	lease := guardrails.Lease(func(ctx context.Context, do func(context.Context) error) error {
		leased++
		return do(ctx)
	})
	sink := &memSink{}
	lines := []string{line("x", "15-1131.00", "posted", "2017-02-15", "expired", "2017-03-31")}
	cfg := Config{ReferenceDate: ref, ProgressEvery: 1, Timeouts: guardrails.Timeouts{DB: time.Second, Run: time.Minute}}

	sum, err := New(sink, testResolver(), cfg, lease).Run(ctx, &sliceReader{lines: lines})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.RunID != id {
		t.Fatalf("RunID = %v, want %v", sum.RunID, id)
	}
	if leased != 1 {
		t.Fatalf("lease used %d times", leased)
	}
	if !sink.refSeen.Equal(ref) || sum.Active != 1 {
		t.Fatalf("ref %v active %d", sink.refSeen, sum.Active)
	}
}

func TestRun_LeaseHeld(t *testing.T) {
	held := guardrails.Lease(func(context.Context, func(context.Context) error) error {
		return perr.Wrap(guardrails.ErrLeaseHeld, perr.ErrorCodeUnavailable, "lock output.db.lock")
	})
	sink := &memSink{}
	_, err := New(sink, testResolver(), Config{}, held).Run(context.Background(), &sliceReader{lines: []string{line("x", "15-1131.00")}})
	if !errors.Is(err, guardrails.ErrLeaseHeld) || sink.ensured != 0 {
		t.Fatalf("err = %v, ensured %d", err, sink.ensured)
	}
}

func TestNew_Guards(t *testing.T) {
	kit.MustPanic(t, func() { _ = New(nil, testResolver(), Config{}, nil) })
	kit.MustPanic(t, func() { _ = New(&memSink{}, nil, Config{}, nil) })
}
