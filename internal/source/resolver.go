package source

import (
	"context"
	"fmt"

	"github.com/Masterminds/semver/v3"

	derrors "git.home.luguber.info/inful/youmu/internal/errors"
	"git.home.luguber.info/inful/youmu/internal/request"
)

// ResolvedPackage uniquely identifies a fetchable, buildable package.
type ResolvedPackage struct {
	Name      string
	Version   *semver.Version
	Source    SourceID
	LocalPath string

	// Checksum is the registry's sha256 of the archive; empty for git sources.
	Checksum string
	// Revision is the checked-out commit for git sources.
	Revision string
}

func (p ResolvedPackage) String() string {
	return fmt.Sprintf("%s@%s (%s)", p.Name, p.Version, p.Source)
}

// Resolver turns a request into one concrete package.
type Resolver interface {
	Resolve(ctx context.Context, req request.PackageRequest) (ResolvedPackage, error)
}

// MultiResolver dispatches on the request's source kind.
type MultiResolver struct {
	Registry Resolver
	Git      Resolver
}

func (m *MultiResolver) Resolve(ctx context.Context, req request.PackageRequest) (ResolvedPackage, error) {
	var r Resolver
	switch req.Source().Kind() {
	case request.SourceRegistry:
		r = m.Registry
	case request.SourceURL:
		r = m.Git
	}
	if r == nil {
		return ResolvedPackage{}, derrors.ConfigError(fmt.Sprintf("no resolver for %s sources", req.Source().Kind()))
	}
	return r.Resolve(ctx, req)
}

// selectMax folds candidates to the highest version satisfying req.
func selectMax(req request.VersionReq, candidates []*semver.Version) *semver.Version {
	var best *semver.Version
	for _, v := range candidates {
		if !req.Matches(v) {
			continue
		}
		if best == nil || v.GreaterThan(best) {
			best = v
		}
	}
	return best
}
