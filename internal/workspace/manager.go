package workspace

import (
	"fmt"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/youmu/internal/logfields"
)

// Manager owns the lifetime of one workspace root, either ephemeral
// (a fresh temp dir removed on Cleanup) or persistent (a fixed path that
// survives Cleanup).
type Manager struct {
	baseDir    string
	root       string
	persistent bool
}

// NewManager creates a manager for ephemeral roots below baseDir (os.TempDir when empty).
func NewManager(baseDir string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Manager{baseDir: baseDir}
}

// NewPersistentManager creates a manager whose root is dir and is never removed.
func NewPersistentManager(dir string) *Manager {
	return &Manager{baseDir: dir, root: dir, persistent: true}
}

// Create allocates the root. Ephemeral roots are unique per call.
func (m *Manager) Create() error {
	if m.persistent {
		if err := os.MkdirAll(m.root, 0o750); err != nil {
			return fmt.Errorf("failed to create persistent workspace directory: %w", err)
		}
		slog.Debug("Using persistent workspace", logfields.Path(m.root))
		return nil
	}

	if err := os.MkdirAll(m.baseDir, 0o750); err != nil {
		return fmt.Errorf("failed to create workspace base directory: %w", err)
	}
	root, err := os.MkdirTemp(m.baseDir, "youmu-*")
	if err != nil {
		return fmt.Errorf("failed to create workspace directory: %w", err)
	}
	m.root = root
	slog.Debug("Created workspace", logfields.Path(root))
	return nil
}

// Path returns the root, or "" before Create.
func (m *Manager) Path() string {
	return m.root
}

// Persistent reports whether Cleanup keeps the root.
func (m *Manager) Persistent() bool {
	return m.persistent
}

// Cleanup removes an ephemeral root. It is safe to call more than once.
func (m *Manager) Cleanup() error {
	if m.root == "" || m.persistent {
		return nil
	}
	if err := os.RemoveAll(m.root); err != nil {
		return fmt.Errorf("failed to cleanup workspace: %w", err)
	}
	slog.Debug("Cleaned up workspace", logfields.Path(m.root))
	m.root = ""
	return nil
}
