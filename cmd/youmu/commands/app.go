package commands

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/youmu/internal/cargo"
	"git.home.luguber.info/inful/youmu/internal/catalog"
	"git.home.luguber.info/inful/youmu/internal/config"
	derrors "git.home.luguber.info/inful/youmu/internal/errors"
	"git.home.luguber.info/inful/youmu/internal/events"
	"git.home.luguber.info/inful/youmu/internal/git"
	"git.home.luguber.info/inful/youmu/internal/logfields"
	"git.home.luguber.info/inful/youmu/internal/metrics"
	"git.home.luguber.info/inful/youmu/internal/orchestrator"
	"git.home.luguber.info/inful/youmu/internal/source"
	"git.home.luguber.info/inful/youmu/internal/workspace"
)

// App holds the components shared by every command.
type App struct {
	Orchestrator *orchestrator.Orchestrator
	Catalog      *catalog.Catalog
	Metrics      *prom.Registry

	events events.Publisher
}

type appOptions struct {
	// DryRun swaps cargo for a placeholder builder and skips the catalog.
	DryRun bool
	// Builder overrides the build engine, mainly for tests.
	Builder cargo.Builder
}

// newApp wires resolvers, fetchers, the build engine and the optional
// catalog, metrics and event sinks from cfg.
func newApp(cfg *config.Config, logger *slog.Logger, opts appOptions) (*App, error) {
	client := source.NewRegistryClient(cfg.Registry.IndexURL, &http.Client{Timeout: cfg.Registry.Timeout})
	cache := source.Cache{Dir: cfg.Cache.Dir}

	resolver := &source.MultiResolver{
		Registry: source.NewRegistryResolver(client, cache, logger),
		Git:      source.NewGitResolver(git.NewClient(cfg.Build.GitDepth, logger), cache, logger),
	}
	fetcher := &source.MultiFetcher{
		Registry: source.NewRegistryFetcher(client, logger),
		Git:      source.GitFetcher{},
	}

	var builder cargo.Builder = &cargo.Runner{Binary: cfg.Build.Cargo, Timeout: cfg.Build.Timeout}
	switch {
	case opts.Builder != nil:
		builder = opts.Builder
	case opts.DryRun:
		builder = cargo.NoopBuilder{}
	}

	reg := prom.NewRegistry()
	app := &App{Metrics: reg, events: events.NoopPublisher{}}
	orch := orchestrator.New(resolver, fetcher, builder).
		WithStager(workspace.Stager{BaseDir: cfg.Build.WorkspaceDir, TargetDir: cfg.Build.TargetDir}).
		WithRecorder(metrics.NewPrometheusRecorder(reg)).
		WithLogger(logger)

	if cfg.Events.NATSURL != "" {
		pub, err := events.NewNATSPublisher(cfg.Events.NATSURL, cfg.Events.Subject)
		if err != nil {
			// Builds still work without the event stream.
			logger.Warn("Build events disabled", logfields.URL(cfg.Events.NATSURL), logfields.Error(err))
		} else {
			app.events = pub
			orch.WithEvents(pub)
		}
	}

	if !opts.DryRun {
		cat, err := openCatalog(cfg.Catalog.Path)
		if err != nil {
			_ = app.events.Close()
			return nil, err
		}
		app.Catalog = cat
		orch.WithCatalog(cat)
	}

	app.Orchestrator = orch
	return app, nil
}

func openCatalog(path string) (*catalog.Catalog, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, derrors.WorkspaceError("create catalog dir", err)
		}
	}
	cat, err := catalog.Open(path)
	if err != nil {
		return nil, derrors.WorkspaceError("open catalog", err).WithContext("path", path)
	}
	return cat, nil
}

// Close releases the event connection and the catalog.
func (a *App) Close() error {
	var errs []error
	if a.events != nil {
		errs = append(errs, a.events.Close())
	}
	if a.Catalog != nil {
		errs = append(errs, a.Catalog.Close())
	}
	return errors.Join(errs...)
}
