package batch

import (
	"context"
	"log/slog"
	"sync"

	"git.home.luguber.info/inful/youmu/internal/logfields"
)

// Refresher re-runs one batch file on demand. Overlapping triggers are
// dropped while a run is in progress.
type Refresher struct {
	path   string
	runner *Runner
	mu     sync.Mutex
}

// NewRefresher returns a refresher for path. The runner keeps going past
// failed entries so one broken package does not block the rest.
func NewRefresher(path string, runner Runner) *Refresher {
	runner.KeepGoing = true
	return &Refresher{path: path, runner: &runner}
}

// Refresh runs the batch file unless a run is already in progress, and
// reports whether it ran.
func (r *Refresher) Refresh(ctx context.Context) bool {
	if !r.mu.TryLock() {
		slog.Debug("Batch refresh already running", logfields.Path(r.path))
		return false
	}
	defer r.mu.Unlock()

	slog.Info("Refreshing batch", logfields.Path(r.path))
	if _, err := r.runner.RunFile(ctx, r.path); err != nil {
		slog.Error("Batch refresh failed", logfields.Path(r.path), logfields.Error(err))
	}
	return true
}
