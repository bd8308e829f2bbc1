package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/youmu/internal/cargo"
	"git.home.luguber.info/inful/youmu/internal/catalog"
	derrors "git.home.luguber.info/inful/youmu/internal/errors"
	"git.home.luguber.info/inful/youmu/internal/events"
	"git.home.luguber.info/inful/youmu/internal/logfields"
	"git.home.luguber.info/inful/youmu/internal/metrics"
	"git.home.luguber.info/inful/youmu/internal/request"
	"git.home.luguber.info/inful/youmu/internal/source"
	"git.home.luguber.info/inful/youmu/internal/workspace"
)

// Stager prepares the workspace for one build.
type Stager interface {
	Stage(publishDir string) (*workspace.Workspace, error)
}

// CatalogWriter records successful attempts.
type CatalogWriter interface {
	Record(ctx context.Context, e catalog.Entry) error
}

// Result describes a successful attempt.
type Result struct {
	AttemptID  string
	Resolved   source.ResolvedPackage
	PublishDir string
	Duration   time.Duration
}

// Orchestrator wires the resolver, fetcher, stager and builder together.
type Orchestrator struct {
	resolver source.Resolver
	fetcher  source.Fetcher
	builder  cargo.Builder
	stager   Stager
	gate     *Gate
	recorder metrics.Recorder
	events   events.Publisher
	catalog  CatalogWriter
	logger   *slog.Logger
}

// New returns an orchestrator using ephemeral workspaces below os.TempDir,
// with metrics, events and cataloguing disabled.
func New(resolver source.Resolver, fetcher source.Fetcher, builder cargo.Builder) *Orchestrator {
	return &Orchestrator{
		resolver: resolver,
		fetcher:  fetcher,
		builder:  builder,
		stager:   workspace.Stager{},
		gate:     NewGate(nil),
		recorder: metrics.NoopRecorder{},
		events:   events.NoopPublisher{},
		logger:   slog.Default(),
	}
}

func (o *Orchestrator) WithStager(s Stager) *Orchestrator {
	if s != nil {
		o.stager = s
	}
	return o
}

// WithGate shares a gate between orchestrators.
func (o *Orchestrator) WithGate(g *Gate) *Orchestrator {
	if g != nil {
		o.gate = g
	}
	return o
}

// WithRecorder sets the metrics recorder. The default gate records into it too.
func (o *Orchestrator) WithRecorder(r metrics.Recorder) *Orchestrator {
	if r != nil {
		o.recorder = r
		o.gate.recorder = r
	}
	return o
}

func (o *Orchestrator) WithEvents(p events.Publisher) *Orchestrator {
	if p != nil {
		o.events = p
	}
	return o
}

func (o *Orchestrator) WithCatalog(c CatalogWriter) *Orchestrator {
	o.catalog = c
	return o
}

func (o *Orchestrator) WithLogger(l *slog.Logger) *Orchestrator {
	if l != nil {
		o.logger = l
	}
	return o
}

// Gate returns the gate builds run under.
func (o *Orchestrator) Gate() *Gate { return o.gate }

// PublishPath is where a resolved package's docs live below docsRoot:
// <root>/<name>/<version> for registry packages and <root>/<name>/<source hash>
// for everything else.
func PublishPath(docsRoot string, pkg source.ResolvedPackage) string {
	leaf := pkg.Source.Hash()
	if pkg.Source.Kind == source.KindRegistry && pkg.Version != nil {
		leaf = pkg.Version.String()
	}
	return filepath.Join(docsRoot, pkg.Name, leaf)
}

// Document builds docs for req and publishes them at PublishPath(docsRoot, ...).
func (o *Orchestrator) Document(ctx context.Context, req request.PackageRequest, docsRoot string) (Result, error) {
	return o.run(ctx, req, func(pkg source.ResolvedPackage) string {
		return PublishPath(docsRoot, pkg)
	})
}

// DocumentTo builds docs for req and publishes them at dest.
func (o *Orchestrator) DocumentTo(ctx context.Context, req request.PackageRequest, dest string) (Result, error) {
	return o.run(ctx, req, func(source.ResolvedPackage) string { return dest })
}

func (o *Orchestrator) run(ctx context.Context, req request.PackageRequest, publishPath func(source.ResolvedPackage) string) (Result, error) {
	res := Result{AttemptID: uuid.NewString()}
	start := time.Now()
	log := o.logger.With(
		logfields.AttemptID(res.AttemptID),
		logfields.Package(req.Name()),
		logfields.Source(req.Source().String()))

	o.emit(ctx, log, events.BuildEvent{Type: events.BuildStarted, AttemptID: res.AttemptID, Package: req.Name(), Source: req.Source().String()})
	log.Info("Documentation attempt started")

	local, err := o.attempt(ctx, log, req, publishPath, &res)
	res.Duration = time.Since(start)
	o.recorder.ObserveBuildDuration(res.Duration)

	done := events.BuildEvent{
		AttemptID:  res.AttemptID,
		Package:    req.Name(),
		Source:     req.Source().String(),
		PublishDir: res.PublishDir,
		DurationMS: res.Duration.Milliseconds(),
	}
	if res.Resolved.Version != nil {
		done.Version = res.Resolved.Version.String()
	}

	if err != nil {
		outcome := metrics.BuildOutcomeFailed
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			outcome = metrics.BuildOutcomeCanceled
		}
		o.recorder.IncBuildOutcome(outcome)
		category := derrors.GetCategory(err)
		done.Type, done.Category, done.Error = events.BuildFailed, string(category), err.Error()
		o.emit(ctx, log, done)
		log.Error("Documentation attempt failed", logfields.Category(string(category)), logfields.Error(err), logfields.Duration(res.Duration))
		return res, err
	}

	o.recorder.IncBuildOutcome(metrics.BuildOutcomeSuccess)
	done.Type = events.BuildSucceeded
	o.emit(ctx, log, done)
	o.record(ctx, log, req, local, res)
	log.Info("Documentation attempt succeeded",
		logfields.Version(done.Version),
		logfields.Path(res.PublishDir),
		logfields.Duration(res.Duration))
	return res, nil
}

func (o *Orchestrator) attempt(ctx context.Context, log *slog.Logger, req request.PackageRequest, publishPath func(source.ResolvedPackage) string, res *Result) (source.LocalPackage, error) {
	var resolved source.ResolvedPackage
	err := o.stage(log, metrics.StageResolve, func() error {
		var err error
		resolved, err = o.resolver.Resolve(ctx, req)
		return classify(err, func(e error) error { return derrors.InternalError("resolution failed", e) })
	})
	if err != nil {
		return source.LocalPackage{}, err
	}
	res.Resolved = resolved

	var local source.LocalPackage
	err = o.stage(log, metrics.StageFetch, func() error {
		var err error
		local, err = o.fetcher.Fetch(ctx, resolved)
		return classify(err, func(e error) error { return derrors.FetchError(resolved.Source.URL, e) })
	})
	if err != nil {
		return local, err
	}

	publishDir := publishPath(resolved)
	err = o.gate.Do(ctx, func() error {
		// Once admitted the build runs to completion even if the caller goes away.
		buildCtx := context.WithoutCancel(ctx)

		var ws *workspace.Workspace
		if err := o.stage(log, metrics.StageStage, func() error {
			var err error
			ws, err = o.stager.Stage(publishDir)
			return classify(err, func(e error) error { return derrors.WorkspaceError("stage", e) })
		}); err != nil {
			return err
		}
		defer func() {
			if err := ws.Cleanup(); err != nil {
				log.Warn("Workspace cleanup failed", logfields.Path(ws.Root), logfields.Error(err))
			}
		}()

		if err := o.stage(log, metrics.StageBuild, func() error {
			return classify(o.builder.Build(buildCtx, local, req.BuildOptions(), ws), func(e error) error { return derrors.BuildError(e) })
		}); err != nil {
			return err
		}
		return o.stage(log, metrics.StagePublish, func() error {
			return classify(ws.Publish(), func(e error) error { return derrors.WorkspaceError("publish", e) })
		})
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return local, derrors.InternalError("abandoned while waiting for the build gate", err)
		}
		return local, err
	}
	res.PublishDir = publishDir
	return local, nil
}

// stage times fn and records its outcome.
func (o *Orchestrator) stage(log *slog.Logger, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	d := time.Since(start)
	o.recorder.ObserveStageDuration(name, d)
	result := metrics.ResultSuccess
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		result = metrics.ResultCanceled
	default:
		result = metrics.ResultFailed
	}
	o.recorder.IncStageResult(name, result)
	log.Debug("Stage finished", logfields.Stage(name), slog.String("result", string(result)), logfields.Duration(d))
	return err
}

// classify leaves categorised errors alone and wraps everything else.
func classify(err error, wrap func(error) error) error {
	if err == nil {
		return nil
	}
	if _, ok := derrors.As(err); ok {
		return err
	}
	return wrap(err)
}

func (o *Orchestrator) emit(ctx context.Context, log *slog.Logger, ev events.BuildEvent) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	if err := o.events.Publish(context.WithoutCancel(ctx), ev); err != nil {
		log.Warn("Failed to publish build event", slog.String("type", string(ev.Type)), logfields.Error(err))
	}
}

func (o *Orchestrator) record(ctx context.Context, log *slog.Logger, req request.PackageRequest, local source.LocalPackage, res Result) {
	if o.catalog == nil {
		return
	}
	entry := catalog.Entry{
		Name:       res.Resolved.Name,
		SourceKind: req.Source().Kind().String(),
		Source:     req.Source().String(),
		Features:   req.Features(),
		PublishDir: res.PublishDir,
		Revision:   res.Resolved.Revision,
		BuiltAt:    time.Now(),
	}
	if res.Resolved.Version != nil {
		entry.Version = res.Resolved.Version.String()
	}
	if m, err := source.ReadManifest(local.ManifestPath); err == nil {
		entry.Description = m.PackageDescription()
	}
	if err := o.catalog.Record(context.WithoutCancel(ctx), entry); err != nil {
		log.Warn("Failed to record catalog entry", logfields.Path(res.PublishDir), logfields.Error(err))
	}
}
