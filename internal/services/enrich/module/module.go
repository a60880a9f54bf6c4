// Package module wires the enrichment service from shared deps
package module

import (
	"context"

	"socstream/internal/adapters/ingest/postings"
	"socstream/internal/core/soc"
	"socstream/internal/modkit"
	"socstream/internal/modkit/repokit"
	perr "socstream/internal/platform/errors"
	"socstream/internal/platform/store"
	"socstream/internal/services/enrich/domain"
	"socstream/internal/services/enrich/guardrails"
	"socstream/internal/services/enrich/repo"
	"socstream/internal/services/enrich/service"
)

// Ports defines the enrich module ports
type Ports struct {
	Runner domain.RunnerPort
	Input  *Input
}

// Module implements the enrich module
type Module struct {
	deps  modkit.Deps
	opts  Options
	ports Ports
}

var _ modkit.Module = (*Module)(nil)

// New wires sink, resolver, lease and input opener for the backend in deps
func New(deps modkit.Deps, codes soc.CodeTable, h soc.Hierarchy) (*Module, error) {
	opts := FromConfig(deps.Cfg)
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	resolver, err := soc.NewResolver(codes, h).WithLevels(opts.FromLevel, opts.ToLevel)
	if err != nil {
		return nil, perr.WithOp(err, "enrich levels")
	}

	sink, lease, err := buildSink(deps, opts)
	if err != nil {
		return nil, err
	}

	svc := service.New(sink, resolver, service.Config{
		OnExists:      domain.OnExists(opts.OnExists),
		ReferenceDate: opts.Reference(),
		ProgressEvery: opts.ProgressEvery,
		Timeouts:      guardrails.Timeouts{Run: opts.RunTimeout, DB: opts.DBTimeout},
	}, lease)

	m := &Module{deps: deps, opts: opts}
	m.ports = Ports{
		Runner: svc,
		Input: &Input{
			opener: postings.NewOpener(opts.HTTPTimeout),
			opts:   []postings.Option{postings.WithEncoding(opts.Encoding), postings.WithMaxLineBytes(opts.MaxLineBytes)},
		},
	}
	return m, nil
}

func buildSink(deps modkit.Deps, opts Options) (domain.Sink, guardrails.Lease, error) {
	switch deps.Backend {
	case store.BackendSQLite, "":
		if deps.SQL == nil {
			return nil, nil, perr.Configf("sqlite backend without a SQL store")
		}
		lease := guardrails.Lease(guardrails.NoLease)
		if opts.Lock {
			lease = guardrails.MakeFileLease(opts.LockPath)
		}
		return repo.NewSQLSink(deps.SQL, repo.SQLite), lease, nil
	case store.BackendPostgres:
		if deps.SQL == nil {
			return nil, nil, perr.Configf("postgres backend without a SQL store")
		}
		db := repokit.WithBeginHooks(deps.SQL, repokit.PGSynchronousCommit(), repokit.PGStatementTimeout(opts.DBTimeout))
		return repo.NewSQLSink(db, repo.Postgres), guardrails.NoLease, nil
	case store.BackendClickhouse:
		if deps.CH == nil {
			return nil, nil, perr.Configf("clickhouse backend without a client")
		}
		return repo.NewCHSink(deps.CH), guardrails.NoLease, nil
	}
	return nil, nil, perr.Configf("unknown store backend %q", deps.Backend)
}

// Name returns the module name
func (m *Module) Name() string { return "enrich" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Runner returns the typed runner port
func (m *Module) Runner() domain.RunnerPort { return m.ports.Runner }

// Input returns the typed input port
func (m *Module) Input() *Input { return m.ports.Input }

// Options returns the options the module was built with
func (m *Module) Options() Options { return m.opts }

// Input opens posting streams with the configured decoder settings
type Input struct {
	opener postings.Opener
	opts   []postings.Option
}

// Open resolves src (path or URL) and wraps it in a line reader
func (in *Input) Open(ctx context.Context, src string) (*postings.Reader, error) {
	rc, err := in.opener.Open(ctx, src)
	if err != nil {
		return nil, err
	}
	return postings.NewReader(rc, in.opts...)
}
