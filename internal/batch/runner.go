package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"git.home.luguber.info/inful/youmu/internal/logfields"
	"git.home.luguber.info/inful/youmu/internal/orchestrator"
	"git.home.luguber.info/inful/youmu/internal/request"
)

// Documenter runs one attempt publishing to an explicit directory.
type Documenter interface {
	DocumentTo(ctx context.Context, req request.PackageRequest, dest string) (orchestrator.Result, error)
}

// Failure is one failed entry.
type Failure struct {
	Package string
	Err     error
}

// Report summarizes a batch run.
type Report struct {
	Published []orchestrator.Result
	Failed    []Failure
	Skipped   int
}

// Runner documents batch entries sequentially below Output/<package>.
type Runner struct {
	Docs   Documenter
	Output string
	// KeepGoing continues past failed entries instead of stopping at the first.
	KeepGoing bool
	Logger    *slog.Logger
}

// Run documents every request. Without KeepGoing the first failure is
// returned as is; with it, all failures are joined.
func (r *Runner) Run(ctx context.Context, reqs []request.PackageRequest) (Report, error) {
	log := r.Logger
	if log == nil {
		log = slog.Default()
	}
	var rep Report
	for i, req := range reqs {
		if err := ctx.Err(); err != nil {
			rep.Skipped = len(reqs) - i
			return rep, err
		}
		dest := filepath.Join(r.Output, req.Name())
		res, err := r.Docs.DocumentTo(ctx, req, dest)
		if err != nil {
			rep.Failed = append(rep.Failed, Failure{Package: req.Name(), Err: err})
			if !r.KeepGoing {
				rep.Skipped = len(reqs) - i - 1
				return rep, err
			}
			log.Warn("Batch entry failed, continuing", logfields.Package(req.Name()), logfields.Error(err))
			continue
		}
		rep.Published = append(rep.Published, res)
	}

	log.Info("Batch finished",
		slog.Int("published", len(rep.Published)),
		slog.Int("failed", len(rep.Failed)))
	if len(rep.Failed) == 0 {
		return rep, nil
	}
	errs := make([]error, 0, len(rep.Failed))
	for _, f := range rep.Failed {
		errs = append(errs, fmt.Errorf("%s: %w", f.Package, f.Err))
	}
	return rep, errors.Join(errs...)
}

// RunFile loads path and runs it.
func (r *Runner) RunFile(ctx context.Context, path string) (Report, error) {
	entries, err := LoadFile(path)
	if err != nil {
		return Report{}, err
	}
	reqs, err := Requests(entries)
	if err != nil {
		return Report{}, err
	}
	return r.Run(ctx, reqs)
}
