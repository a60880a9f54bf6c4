package module

import (
	"strings"
	"time"

	"socstream/internal/adapters/ingest/postings"
	"socstream/internal/core/soc"
	"socstream/internal/platform/config"
	perr "socstream/internal/platform/errors"
	"socstream/internal/platform/validate"
	"socstream/internal/services/enrich/domain"
)

// Options holds the enrichment settings read from CORE_ENRICH_*, CORE_INGEST_*
// and the sqlite lock keys
type Options struct {
	ReferenceDate string `json:"reference_date" validate:"required,isodate"`
	OnExists      string `json:"on_exists" validate:"oneof=skip recreate"`
	FromLevel     int    `json:"from_level" validate:"min=1,max=5"`
	ToLevel       int    `json:"to_level" validate:"min=1,max=5,ltefield=FromLevel"`
	ProgressEvery int    `json:"progress_every" validate:"min=0"`
	DBTimeout     time.Duration
	RunTimeout    time.Duration

	Encoding     string `json:"encoding"`
	MaxLineBytes int    `json:"max_line_bytes" validate:"min=1"`
	HTTPTimeout  time.Duration

	// Lock guards the sqlite output file with a sidecar lock
	Lock     bool
	LockPath string
}

// FromConfig reads Options; values are checked by Validate
func FromConfig(cfg config.Conf) Options {
	en := cfg.Prefix("CORE_ENRICH_")
	in := cfg.Prefix("CORE_INGEST_")
	sq := cfg.Prefix("SERVICE_SQLITE_")
	return Options{
		ReferenceDate: en.MayString("REFERENCE_DATE", "2017-02-01"),
		OnExists:      strings.ToLower(en.MayString("ON_EXISTS", string(domain.OnExistsSkip))),
		FromLevel:     en.MayInt("FROM_LEVEL", soc.LevelSOC5),
		ToLevel:       en.MayInt("TO_LEVEL", soc.LevelSOC2),
		ProgressEvery: en.MayInt("PROGRESS_EVERY", 100_000),
		DBTimeout:     en.MayDuration("DB_TIMEOUT", 0),
		RunTimeout:    en.MayDuration("RUN_TIMEOUT", 0),
		Encoding:      in.MayString("ENCODING", "utf-8"),
		MaxLineBytes:  in.MayInt("MAX_LINE_BYTES", postings.DefaultMaxLineBytes),
		HTTPTimeout:   time.Duration(in.MayInt("HTTP_TIMEOUT_SECONDS", 0)) * time.Second, // 0 == no client timeout
		Lock:          sq.MayBool("LOCK", true),
		LockPath:      sq.MayString("PATH", "output.db"),
	}
}

// Validate checks the struct rules; the failure is a Config error naming the field
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		field := ""
		if e, ok := perr.As(err); ok {
			field = e.Field()
		}
		return perr.WithField(perr.Wrap(err, perr.ErrorCodeConfig, "enrich options"), field)
	}
	return nil
}

// Reference parses ReferenceDate; call after Validate
func (o Options) Reference() time.Time {
	t, _ := time.Parse(time.DateOnly, o.ReferenceDate)
	return t
}
