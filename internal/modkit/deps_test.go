package modkit

import (
	"testing"

	"socstream/internal/platform/config"
	"socstream/internal/platform/logger"
	"socstream/internal/platform/store"
)

func TestFromStore(t *testing.T) {
	t.Parallel()

	d := FromStore(logger.Logger{}, config.New(), nil)
	if d.SQL != nil || d.CH != nil || d.Backend != "" {
		t.Fatalf("nil store should leave seams empty: %+v", d)
	}
	if !d.ZeroOK() {
		t.Fatal("zero deps should be usable")
	}

	st := &store.Store{Backend: store.BackendClickhouse}
	d = FromStore(logger.Logger{}, config.New().Prefix("X_"), st)
	if d.Backend != store.BackendClickhouse || d.SQL != nil {
		t.Fatalf("unexpected deps: %+v", d)
	}
}
