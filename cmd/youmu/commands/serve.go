package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"git.home.luguber.info/inful/youmu/internal/batch"
	"git.home.luguber.info/inful/youmu/internal/config"
	"git.home.luguber.info/inful/youmu/internal/logfields"
	"git.home.luguber.info/inful/youmu/internal/metrics"
	"git.home.luguber.info/inful/youmu/internal/server"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Host string `help:"Address to bind (default: server.host, 0.0.0.0)"`
	Port int    `short:"p" help:"Port to bind (default: server.port, 8000)"`
	Docs string `help:"Directory generated docs are stored in (default: server.docs_path, ./docs)" type:"path"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	s.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return RunServer(ctx, cfg, g.Logger, appOptions{})
}

// apply lets flags override the configuration.
func (s *ServeCmd) apply(cfg *config.Config) {
	if s.Host != "" {
		cfg.Server.Host = s.Host
	}
	if s.Port != 0 {
		cfg.Server.Port = s.Port
	}
	if s.Docs != "" {
		if cfg.Batch.Output == config.DefaultBatchOutput(cfg.Server.DocsPath) {
			cfg.Batch.Output = config.DefaultBatchOutput(s.Docs)
		}
		cfg.Server.DocsPath = s.Docs
	}
}

// RunServer serves until ctx ends, then shuts down gracefully.
func RunServer(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts appOptions) error {
	app, err := newApp(cfg, logger, opts)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	srv := server.New(server.Options{
		Host:       cfg.Server.Host,
		Port:       cfg.Server.Port,
		DocsPath:   cfg.Server.DocsPath,
		Documenter: app.Orchestrator,
		Catalog:    app.Catalog,
		Queue:      app.Orchestrator.Gate(),
		Metrics:    metrics.HTTPHandler(app.Metrics, logger),
		Logger:     logger,
	})

	stopBatch, err := startBatch(ctx, cfg, app, logger)
	if err != nil {
		return err
	}
	defer stopBatch()

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http gateway: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("Shutdown signal received, stopping HTTP gateway...")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer stopCancel()
	if err := srv.Shutdown(stopCtx); err != nil {
		return fmt.Errorf("failed to stop HTTP gateway: %w", err)
	}
	logger.Info("HTTP gateway stopped")
	return nil
}

// startBatch runs the configured batch file once, then on its refresh
// interval and whenever it changes. The returned func stops all of it.
func startBatch(ctx context.Context, cfg *config.Config, app *App, logger *slog.Logger) (func(), error) {
	if cfg.Batch.File == "" {
		return func() {}, nil
	}
	refresher := batch.NewRefresher(cfg.Batch.File, batch.Runner{
		Docs:   app.Orchestrator,
		Output: cfg.Batch.Output,
		Logger: logger,
	})
	var stops []func()
	stop := func() {
		for i := len(stops) - 1; i >= 0; i-- {
			stops[i]()
		}
	}

	if cfg.Batch.RefreshInterval > 0 {
		sched, err := batch.NewScheduler()
		if err != nil {
			return nil, err
		}
		if _, err := sched.ScheduleRefresh(ctx, cfg.Batch.RefreshInterval, refresher); err != nil {
			_ = sched.Stop()
			return nil, err
		}
		sched.Start()
		stops = append(stops, func() {
			if err := sched.Stop(); err != nil {
				logger.Warn("Failed to stop batch scheduler", logfields.Error(err))
			}
		})
	}

	if cfg.Batch.Watch {
		w, err := batch.NewWatcher(cfg.Batch.File, 500*time.Millisecond, func(ctx context.Context) {
			refresher.Refresh(ctx)
		})
		if err != nil {
			stop()
			return nil, err
		}
		if err := w.Start(ctx); err != nil {
			_ = w.Stop()
			stop()
			return nil, err
		}
		stops = append(stops, func() { _ = w.Stop() })
	}

	logger.Info("Batch refresh enabled",
		logfields.Path(cfg.Batch.File),
		slog.Duration("interval", cfg.Batch.RefreshInterval),
		slog.Bool("watch", cfg.Batch.Watch))
	var initial sync.WaitGroup
	initial.Add(1)
	go func() {
		defer initial.Done()
		refresher.Refresh(ctx)
	}()
	return func() {
		stop()
		initial.Wait()
	}, nil
}
