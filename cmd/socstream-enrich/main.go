package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"socstream/internal/adapters/lookup"
	"socstream/internal/core/version"
	"socstream/internal/modkit"
	"socstream/internal/platform/config"
	perr "socstream/internal/platform/errors"
	"socstream/internal/platform/logger"
	"socstream/internal/platform/store"
	"socstream/internal/services/enrich/domain"
	enrichmod "socstream/internal/services/enrich/module"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

const soc2Query = "SELECT soc2, count(*) FROM " + domain.TableName + " GROUP BY soc2 ORDER BY count(*) DESC"

func mustSetEnv(k, v string) {
	if v != "" {
		_ = os.Setenv(k, v)
	}
}

func main() {
	var (
		fInput     = flag.String("input", "sample.gz", "gzip JSON-lines postings: local path or http(s) URL")
		fCodes     = flag.String("codes", "map_onet_soc.csv", "onet -> soc5 code table CSV")
		fHierarchy = flag.String("hierarchy", "soc_hierarchy.csv", "SOC hierarchy CSV (child, parent, level)")
		fConfig    = flag.String("config", "", "optional YAML overlay of KEY: value settings")
		fRecreate  = flag.Bool("recreate", false, "drop and recreate the postings table before loading")
		fVersion   = flag.Bool("version", false, "print build info and exit")
	)
	flag.Parse()

	if *fVersion {
		fmt.Println(version.Info().String())
		return
	}
	if *fRecreate {
		mustSetEnv("CORE_ENRICH_ON_EXISTS", string(domain.OnExistsRecreate))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Stdout, *fInput, *fCodes, *fHierarchy, *fConfig)
	stop()
	if err != nil {
		ev := logger.Get().Error().Err(err).Str("code", perr.CodeOf(err).String())
		if line := perr.LineOf(err); line > 0 {
			ev = ev.Int("line", line)
		}
		if e, ok := perr.As(err); ok && e.Field() != "" {
			ev = ev.Str("field", e.Field())
		}
		ev.Msg("enrich failed")
	}
	os.Exit(perr.ExitCode(err))
}

func run(ctx context.Context, out io.Writer, input, codesPath, hierPath, cfgPath string) error {
	root, err := config.New().WithFile(cfgPath)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeConfig, "load config file")
	}
	l := logger.Get()

	codes, hier, err := lookup.LoadFiles(codesPath, hierPath)
	if err != nil {
		return err
	}
	l.Info().Int("codes", codes.Len()).Int("links", hier.Len()).Ints("levels", hier.Levels()).Msg("lookup tables loaded")

	st, err := store.Open(ctx, store.ConfigFrom(root, version.Service), store.WithLogger(*l))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := st.Close(context.Background()); cerr != nil {
			l.Error().Err(cerr).Msg("failed to close store")
		}
	}()
	if err := st.Guard(ctx); err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "store not reachable")
	}

	m, err := enrichmod.New(modkit.FromStore(*l, root, st), codes, hier)
	if err != nil {
		return err
	}

	ctx = logger.WithRun(ctx, uuid.NewString(), input)
	rd, err := m.Input().Open(ctx, input)
	if err != nil {
		return err
	}
	defer rd.Close()

	sum, err := m.Runner().Run(ctx, rd)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Script complete (%s documents processed)\n", humanize.Comma(int64(sum.Lines)))
	fmt.Fprintf(out, "HTML stripped from %s documents\n", humanize.Comma(int64(sum.HTMLStripped)))
	fmt.Fprintf(out, "%s postings active on %s\n", humanize.Comma(sum.Active), sum.ReferenceDate.Format("2006-01-02"))
	fmt.Fprintf(out, "%s uncompressed in %s\n", humanize.Bytes(uint64(sum.Bytes)), sum.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(out, "SOC2 counts: %s\n", soc2Query)
	return nil
}
