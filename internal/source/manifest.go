package source

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// ManifestName is the file name of a Cargo package manifest.
const ManifestName = "Cargo.toml"

// Manifest is the subset of Cargo.toml youmu reads.
type Manifest struct {
	Package *struct {
		Name        string `toml:"name"`
		Version     any    `toml:"version"`
		Description any    `toml:"description"`
	} `toml:"package"`
	Workspace *struct {
		Package *struct {
			Version     string `toml:"version"`
			Description string `toml:"description"`
		} `toml:"package"`
	} `toml:"workspace"`
}

// ReadManifest parses the Cargo.toml at path.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &m, nil
}

// PackageVersion returns the package version, following `version.workspace = true`
// to the workspace root manifest. Manifests without a version default to 0.0.0.
func (m *Manifest) PackageVersion(workspace *Manifest) string {
	if m.Package == nil {
		return ""
	}
	switch v := m.Package.Version.(type) {
	case string:
		return v
	case map[string]any:
		if inherit, _ := v["workspace"].(bool); inherit && workspace != nil &&
			workspace.Workspace != nil && workspace.Workspace.Package != nil {
			return workspace.Workspace.Package.Version
		}
	}
	return "0.0.0"
}

// PackageDescription returns the description if it is a literal string.
func (m *Manifest) PackageDescription() string {
	if m.Package == nil {
		return ""
	}
	if s, ok := m.Package.Description.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

type manifestMatch struct {
	path     string
	manifest *Manifest
	version  string
}

// findPackage walks root in lexical order and returns the first manifest
// declaring a package called name. Hidden directories and target/ are skipped.
func findPackage(root, name string) (*manifestMatch, error) {
	var rootManifest *Manifest
	if m, err := ReadManifest(filepath.Join(root, ManifestName)); err == nil {
		rootManifest = m
	}

	var found *manifestMatch
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			base := d.Name()
			if path != root && (strings.HasPrefix(base, ".") || base == "target") {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() != ManifestName {
			return nil
		}
		m, perr := ReadManifest(path)
		if perr != nil || m.Package == nil || m.Package.Name != name {
			return nil
		}
		found = &manifestMatch{path: path, manifest: m, version: m.PackageVersion(rootManifest)}
		return fs.SkipAll
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// listPackages returns the names of all packages under root, sorted.
func listPackages(root string) []string {
	var names []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() && path != root && (strings.HasPrefix(d.Name(), ".") || d.Name() == "target") {
			return filepath.SkipDir
		}
		if d.Name() == ManifestName {
			if m, perr := ReadManifest(path); perr == nil && m.Package != nil {
				names = append(names, m.Package.Name)
			}
		}
		return nil
	})
	slices.Sort(names)
	return names
}
