package repo

import (
	"strconv"
	"time"

	perr "socstream/internal/platform/errors"
)

// Dialect carries the SQL differences between the sqlite and postgres sinks
type Dialect struct {
	Name string

	// placeholder renders the n-th (1-indexed) bind parameter
	placeholder func(n int) string

	// date turns an optional date into a bind argument
	date func(t *time.Time) any

	// wrap maps a driver error to a coded error
	wrap func(err error, msg string) error
}

// SQLite stores dates as YYYY-MM-DD text so string comparison orders them
var SQLite = Dialect{
	Name:        "sqlite",
	placeholder: func(int) string { return "?" },
	date: func(t *time.Time) any {
		if t == nil {
			return nil
		}
		return t.Format(time.DateOnly)
	},
	wrap: perr.FromSQLite,
}

// Postgres binds dates natively into DATE columns
var Postgres = Dialect{
	Name:        "postgres",
	placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	date: func(t *time.Time) any {
		if t == nil {
			return nil
		}
		return *t
	},
	wrap: perr.FromPostgres,
}

// DialectFor returns the dialect named name
func DialectFor(name string) (Dialect, error) {
	switch name {
	case SQLite.Name:
		return SQLite, nil
	case Postgres.Name:
		return Postgres, nil
	}
	return Dialect{}, perr.Configf("no SQL dialect for backend %q", name)
}

func (d Dialect) params(n int) string {
	s := ""
	for i := 1; i <= n; i++ {
		if i > 1 {
			s += ", "
		}
		s += d.placeholder(i)
	}
	return s
}
