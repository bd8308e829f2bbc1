package workspace

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	derrors "git.home.luguber.info/inful/youmu/internal/errors"
	"git.home.luguber.info/inful/youmu/internal/logfields"
)

// Stager prepares a fresh workspace for each build attempt.
type Stager struct {
	// BaseDir holds ephemeral roots; os.TempDir when empty.
	BaseDir string
	// TargetDir, when set, is a persistent build target shared by all attempts.
	TargetDir string
}

// Workspace is the set of directories one build attempt works with.
type Workspace struct {
	Root       string
	TargetDir  string
	PublishDir string

	manager *Manager
}

// Stage allocates a root, clears stale doc fingerprints and previous output in
// the target directory and makes sure the publish directory's parent exists.
// The publish directory itself is not touched. On error nothing needs cleaning up.
func (s Stager) Stage(publishDir string) (*Workspace, error) {
	if publishDir == "" {
		return nil, derrors.InternalError("publish directory is empty", nil)
	}

	var mgr *Manager
	if s.TargetDir != "" {
		mgr = NewPersistentManager(s.TargetDir)
	} else {
		mgr = NewManager(s.BaseDir)
	}
	if err := mgr.Create(); err != nil {
		return nil, derrors.WorkspaceError("allocate workspace", err)
	}

	ws := &Workspace{Root: mgr.Path(), PublishDir: publishDir, manager: mgr}
	ws.TargetDir = s.TargetDir
	if ws.TargetDir == "" {
		ws.TargetDir = filepath.Join(ws.Root, "target")
	}

	fail := func(op string, err error) (*Workspace, error) {
		_ = ws.Cleanup()
		return nil, derrors.WorkspaceError(op, err)
	}

	if err := os.MkdirAll(ws.TargetDir, 0o750); err != nil {
		return fail("create target directory", err)
	}
	removed, err := CleanFingerprints(ws.TargetDir)
	if err != nil {
		return fail("clean fingerprints", err)
	}
	if err := os.MkdirAll(filepath.Dir(publishDir), 0o755); err != nil {
		return fail("create publish parent", err)
	}
	if err := os.RemoveAll(ws.DocDir()); err != nil {
		return fail("clear previous output", err)
	}

	slog.Debug("Workspace staged",
		logfields.Path(ws.Root),
		slog.String("target_dir", ws.TargetDir),
		slog.String("publish_dir", publishDir),
		slog.Int("fingerprints_removed", removed))
	return ws, nil
}

// DocDir is the conventional location the build engine writes documentation to.
func (w *Workspace) DocDir() string {
	return filepath.Join(w.TargetDir, "doc")
}

// Publish moves the build output into a staging sibling of the publish
// directory and swaps it into place. The previous publish directory, if any,
// is removed afterwards.
func (w *Workspace) Publish() error {
	src := w.DocDir()
	info, err := os.Stat(src)
	if err != nil {
		return derrors.WorkspaceError("locate build output", err)
	}
	if !info.IsDir() {
		return derrors.WorkspaceError("locate build output", fmt.Errorf("%s is not a directory", src))
	}

	stage := w.PublishDir + ".stage-" + uuid.NewString()
	if err := moveDir(src, stage); err != nil {
		_ = os.RemoveAll(stage)
		return derrors.WorkspaceError("stage output", err)
	}

	prev := w.PublishDir + ".prev"
	if err := os.RemoveAll(prev); err != nil {
		_ = os.RemoveAll(stage)
		return derrors.WorkspaceError("remove previous backup", err)
	}
	hadPrevious := false
	if _, err := os.Lstat(w.PublishDir); err == nil {
		if err := os.Rename(w.PublishDir, prev); err != nil {
			_ = os.RemoveAll(stage)
			return derrors.WorkspaceError("backup existing output", err)
		}
		hadPrevious = true
	} else if !errors.Is(err, os.ErrNotExist) {
		_ = os.RemoveAll(stage)
		return derrors.WorkspaceError("inspect publish directory", err)
	}

	if err := os.Rename(stage, w.PublishDir); err != nil {
		if hadPrevious {
			_ = os.Rename(prev, w.PublishDir)
		}
		_ = os.RemoveAll(stage)
		return derrors.WorkspaceError("promote output", err)
	}
	if hadPrevious {
		if err := os.RemoveAll(prev); err != nil {
			slog.Warn("Failed to remove previous output", logfields.Path(prev), logfields.Error(err))
		}
	}
	slog.Info("Published documentation", logfields.Path(w.PublishDir))
	return nil
}

// Cleanup releases the root. Persistent target directories are kept.
func (w *Workspace) Cleanup() error {
	if w.manager == nil {
		return nil
	}
	return w.manager.Cleanup()
}
