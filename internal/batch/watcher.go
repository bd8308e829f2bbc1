package batch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/youmu/internal/logfields"
)

// DefaultDebounce coalesces bursts of writes from editors.
const DefaultDebounce = 2 * time.Second

// Watcher calls a function when a file changes, debounced.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	onChange func(context.Context)
	debounce time.Duration

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewWatcher watches path and calls onChange after changes settle for debounce
// (DefaultDebounce when zero).
func NewWatcher(path string, debounce time.Duration, onChange func(context.Context)) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve batch path: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		path:     abs,
		watcher:  fw,
		onChange: onChange,
		debounce: debounce,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Start watches the file's directory, which survives editors replacing the file.
func (w *Watcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		close(w.done)
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}
	slog.Info("Watching batch file", logfields.Path(w.path))
	go w.loop(ctx)
	return nil
}

// Stop ends the watch loop and waits for it to exit.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stop)
		err = w.watcher.Close()
		<-w.done
	})
	return err
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)
	name := filepath.Base(w.path)
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				if ev.Op&fsnotify.Remove != 0 {
					slog.Warn("Batch file removed", logfields.Path(ev.Name))
				}
				continue
			}
			slog.Debug("Batch file change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			w.onChange(ctx)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Batch watcher error", logfields.Error(err))
		}
	}
}
