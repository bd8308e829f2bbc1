package source

import (
	"context"
	"fmt"
	"path/filepath"
)

// LocalPackage is a resolved package whose sources exist on disk.
type LocalPackage struct {
	Resolved     ResolvedPackage
	Dir          string
	ManifestPath string
}

// Fetcher materializes a resolved package. Implementations must be safe to call
// repeatedly and must not retry on their own.
type Fetcher interface {
	Fetch(ctx context.Context, pkg ResolvedPackage) (LocalPackage, error)
}

// MultiFetcher dispatches on the source kind.
type MultiFetcher struct {
	Registry Fetcher
	Git      Fetcher
}

func (m *MultiFetcher) Fetch(ctx context.Context, pkg ResolvedPackage) (LocalPackage, error) {
	switch pkg.Source.Kind {
	case KindRegistry:
		if m.Registry != nil {
			return m.Registry.Fetch(ctx, pkg)
		}
	case KindGit:
		if m.Git != nil {
			return m.Git.Fetch(ctx, pkg)
		}
	}
	return LocalPackage{}, fmt.Errorf("no fetcher for %s sources", pkg.Source.Kind)
}

func localPackage(pkg ResolvedPackage) LocalPackage {
	return LocalPackage{
		Resolved:     pkg,
		Dir:          pkg.LocalPath,
		ManifestPath: filepath.Join(pkg.LocalPath, ManifestName),
	}
}
