package store

import (
	"time"

	"socstream/internal/platform/config"
)

// Backend selects where enriched rows go
type Backend string

const (
	// BackendSQLite writes to an embedded database file
	BackendSQLite Backend = "sqlite"

	// BackendPostgres writes to a Postgres server
	BackendPostgres Backend = "postgres"

	// BackendClickhouse writes to a ClickHouse server
	BackendClickhouse Backend = "clickhouse"
)

// Config aggregates per backend configuration
type Config struct {
	AppName string
	Backend Backend

	SQLite SQLiteConfig
	PG     PGConfig
	CH     CHConfig
}

// SQLiteConfig configures the embedded database file
type SQLiteConfig struct {
	Path          string
	BusyTimeoutMs int
	LogSQL        bool
	SlowQueryMs   int
}

// PGConfig configures postgres connectivity and tracing
type PGConfig struct {
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int

	// boot knobs; zero picks the defaults in openPG
	ConnectRetries int
	PingTimeout    time.Duration
}

// CHConfig configures clickhouse connectivity
type CHConfig struct {
	URL         string
	LogSQL      bool
	SlowQueryMs int
	ClientTag   string
}

// ConfigFrom reads SERVICE_STORE_BACKEND and the SERVICE_SQLITE_, SERVICE_PGSQL_
// and SERVICE_CLICKHOUSE_ groups. Only the selected backend's required keys are enforced
func ConfigFrom(root config.Conf, appName string) Config {
	backend := Backend(root.Prefix("SERVICE_STORE_").MayEnum("BACKEND", string(BackendSQLite),
		string(BackendSQLite), string(BackendPostgres), string(BackendClickhouse)))

	lite := root.Prefix("SERVICE_SQLITE_")
	pg := root.Prefix("SERVICE_PGSQL_")
	ch := root.Prefix("SERVICE_CLICKHOUSE_")

	cfg := Config{
		AppName: appName,
		Backend: backend,
		SQLite: SQLiteConfig{
			Path:          lite.MayString("PATH", "output.db"),
			BusyTimeoutMs: lite.MayInt("BUSY_TIMEOUT_MS", 5000),
			LogSQL:        lite.MayBool("LOG_SQL", false),
			SlowQueryMs:   lite.MayInt("SLOW_MS", 500),
		},
		PG: PGConfig{
			MaxConns:       int32(pg.MayInt("MAX_CONNS", 2)),
			SlowQueryMs:    pg.MayInt("SLOW_MS", 500),
			LogSQL:         pg.MayBool("LOG_SQL", false),
			ConnectRetries: pg.MayInt("CONNECT_RETRIES", 0),
			PingTimeout:    pg.MayDuration("PING_TIMEOUT", 0),
		},
		CH: CHConfig{
			LogSQL:      ch.MayBool("LOG_SQL", false),
			SlowQueryMs: ch.MayInt("SLOW_MS", 500),
			ClientTag:   appName,
		},
	}

	switch backend {
	case BackendPostgres:
		cfg.PG.URL = pg.MustString("DBURL")
	case BackendClickhouse:
		cfg.CH.URL = ch.MustString("DBURL")
	}
	return cfg
}
