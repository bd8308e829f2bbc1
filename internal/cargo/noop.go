package cargo

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/youmu/internal/request"
	"git.home.luguber.info/inful/youmu/internal/source"
	"git.home.luguber.info/inful/youmu/internal/workspace"
)

// CrateDir is the directory rustdoc writes a crate's pages to.
func CrateDir(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

// IndexPath is the crate's entry page relative to the doc root.
func IndexPath(name string) string {
	return CrateDir(name) + "/index.html"
}

// NoopBuilder writes a placeholder page instead of running cargo.
type NoopBuilder struct{}

func (NoopBuilder) Build(_ context.Context, pkg source.LocalPackage, _ request.BuildOptions, ws *workspace.Workspace) error {
	name := pkg.Resolved.Name
	dir := filepath.Join(ws.DocDir(), CrateDir(name))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	version := ""
	if pkg.Resolved.Version != nil {
		version = pkg.Resolved.Version.String()
	}
	page := fmt.Sprintf("<!DOCTYPE html>\n<title>%s %s</title>\n<p>placeholder for %s %s</p>\n",
		html.EscapeString(name), version, html.EscapeString(name), version)
	slog.Debug("NoopBuilder writing placeholder", "dir", dir)
	return os.WriteFile(filepath.Join(dir, "index.html"), []byte(page), 0o644)
}
