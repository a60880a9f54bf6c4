package repokit

import (
	"context"
	"errors"
	"testing"
	"time"

	"socstream/internal/platform/store"
	kit "socstream/internal/platform/testkit"

	"github.com/google/go-cmp/cmp"
)

type fakeQ struct {
	execs   []string
	execErr error
}

func (f *fakeQ) Exec(_ context.Context, sql string, _ ...any) (store.CommandTag, error) {
	f.execs = append(f.execs, sql)
	return nil, f.execErr
}

func (f *fakeQ) Query(context.Context, string, ...any) (store.Rows, error) { return nil, nil }

func (f *fakeQ) QueryRow(context.Context, string, ...any) store.Row { return nil }

type fakeTx struct {
	fakeQ
	q      *fakeQ
	calls  int
	txErr  error
	gotErr error
}

func (f *fakeTx) Tx(_ context.Context, fn func(Queryer) error) error {
	f.calls++
	f.gotErr = fn(f.q)
	if f.gotErr != nil {
		return f.gotErr
	}
	return f.txErr
}

type repo struct{ q Queryer }

var bindRepo = BindFunc[repo](func(q Queryer) repo { return repo{q: q} })

func TestWithTx_BindsTxQueryer(t *testing.T) {
	t.Parallel()

	tx := &fakeTx{q: &fakeQ{}}
	var got repo
	err := WithTx(context.Background(), tx, bindRepo, func(r repo) error {
		got = r
		return nil
	})
	if err != nil {
		t.Fatalf("WithTx: %v", err)
	}
	if got.q != tx.q || tx.calls != 1 {
		t.Fatalf("repo bound to %v, calls %d", got.q, tx.calls)
	}
}

func TestWithTx_Errors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	tx := &fakeTx{q: &fakeQ{}}
	if err := WithTx(context.Background(), tx, bindRepo, func(repo) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("fn error not propagated: %v", err)
	}

	commit := errors.New("commit")
	tx = &fakeTx{q: &fakeQ{}, txErr: commit}
	if err := WithTx(context.Background(), tx, bindRepo, func(repo) error { return nil }); !errors.Is(err, commit) {
		t.Fatalf("tx error not propagated: %v", err)
	}
}

func TestMustBind_NilQueryer(t *testing.T) {
	t.Parallel()
	kit.MustPanic(t, func() { _ = MustBind[repo](bindRepo, nil) })
}

func TestWithBeginHooks_OrderAndShortCircuit(t *testing.T) {
	t.Parallel()

	inner := &fakeTx{q: &fakeQ{}}
	if WithBeginHooks(inner) != TxRunner(inner) {
		t.Fatalf("no hooks should return inner")
	}

	var order []string
	hook := func(name string, err error) BeginHook {
		return func(_ context.Context, q Queryer) error {
			if q != inner.q {
				t.Errorf("hook %s got a non-tx Queryer", name)
			}
			order = append(order, name)
			return err
		}
	}

	tx := WithBeginHooks(inner, hook("a", nil), hook("b", nil))
	if err := tx.Tx(context.Background(), func(Queryer) error { order = append(order, "fn"); return nil }); err != nil {
		t.Fatalf("Tx: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b", "fn"}, order); diff != "" {
		t.Fatalf("order (-want +got):\n%s", diff)
	}

	order = nil
	stop := errors.New("stop")
	tx = WithBeginHooks(inner, hook("a", stop), hook("b", nil))
	err := tx.Tx(context.Background(), func(Queryer) error { order = append(order, "fn"); return nil })
	if !errors.Is(err, stop) {
		t.Fatalf("hook error = %v", err)
	}
	if diff := cmp.Diff([]string{"a"}, order); diff != "" {
		t.Fatalf("order after failure (-want +got):\n%s", diff)
	}

	// non-Tx calls fall through to inner
	if _, err := tx.Exec(context.Background(), "SELECT 1"); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if diff := cmp.Diff([]string{"SELECT 1"}, inner.execs); diff != "" {
		t.Fatalf("Exec not delegated (-want +got):\n%s", diff)
	}
}

func TestPGHooks(t *testing.T) {
	t.Parallel()

	q := &fakeQ{}
	ctx := context.Background()
	if err := PGStatementTimeout(0)(ctx, q); err != nil || len(q.execs) != 0 {
		t.Fatalf("zero timeout should not exec: %v %v", q.execs, err)
	}
	if err := PGStatementTimeout(1500 * time.Millisecond)(ctx, q); err != nil {
		t.Fatalf("timeout hook: %v", err)
	}
	if err := PGSynchronousCommit()(ctx, q); err != nil {
		t.Fatalf("sync hook: %v", err)
	}
	want := []string{"SET LOCAL statement_timeout = 1500", "SET LOCAL synchronous_commit = on"}
	if diff := cmp.Diff(want, q.execs); diff != "" {
		t.Fatalf("statements (-want +got):\n%s", diff)
	}

	q.execErr = errors.New("denied")
	if err := PGSynchronousCommit()(ctx, q); !errors.Is(err, q.execErr) {
		t.Fatalf("exec error not wrapped: %v", err)
	}
}
