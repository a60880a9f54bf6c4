// Package modkit provides module wiring and core deps
package modkit

import (
	"socstream/internal/modkit/repokit"
	"socstream/internal/platform/config"
	"socstream/internal/platform/logger"
	"socstream/internal/platform/store"
)

// Deps holds the shared dependencies handed to modules.
// Exactly one of SQL and CH is set by FromStore
type Deps struct {
	Log     logger.Logger
	Cfg     config.Conf
	Backend store.Backend
	SQL     repokit.TxRunner
	CH      store.Clickhouse
}

// FromStore copies the opened seams of st into Deps
func FromStore(log logger.Logger, cfg config.Conf, st *store.Store) Deps {
	d := Deps{Log: log, Cfg: cfg}
	if st != nil {
		d.Backend = st.Backend
		d.SQL = st.SQL
		d.CH = st.CH
	}
	return d
}

// ZeroOK reports that a zero Deps is usable in tests; consumers still nil check the stores
func (d Deps) ZeroOK() bool { return true }
