package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"

	derrors "git.home.luguber.info/inful/youmu/internal/errors"
	"git.home.luguber.info/inful/youmu/internal/logfields"
	"git.home.luguber.info/inful/youmu/internal/request"
)

// Syncer brings a local checkout of a remote repository up to date and returns
// the checked-out revision. *git.Client implements it.
type Syncer interface {
	Sync(ctx context.Context, url, dir string) (string, error)
}

// GitResolver resolves direct-URL requests against git repositories.
type GitResolver struct {
	syncer Syncer
	cache  Cache
	logger *slog.Logger
	locks  keyedMutex
}

func NewGitResolver(syncer Syncer, cache Cache, logger *slog.Logger) *GitResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &GitResolver{syncer: syncer, cache: cache, logger: logger}
}

// Resolve updates the checkout for the request URL, snapshots the checked-out
// revision, then takes the first package named like the request from the
// snapshot.
func (r *GitResolver) Resolve(ctx context.Context, req request.PackageRequest) (ResolvedPackage, error) {
	if req.Source().Kind() != request.SourceURL {
		return ResolvedPackage{}, fmt.Errorf("git resolver cannot handle %s sources", req.Source().Kind())
	}
	rawURL := req.Source().URL()
	id := GitID(rawURL)
	dir := r.cache.GitCheckoutDir(id)

	unlock := r.locks.lock(dir)
	defer unlock()

	rev, err := r.syncer.Sync(ctx, rawURL, dir)
	if err != nil {
		return ResolvedPackage{}, derrors.FetchError(rawURL, err)
	}
	if !revisionName.MatchString(rev) {
		return ResolvedPackage{}, derrors.FetchError(rawURL, fmt.Errorf("unexpected revision %q", rev))
	}
	snap := r.cache.GitSnapshotDir(id, rev)
	if err := snapshot(dir, snap); err != nil {
		return ResolvedPackage{}, derrors.WorkspaceError("snapshot checkout", err).WithContext("revision", rev)
	}

	match, err := findPackage(snap, req.Name())
	if err != nil {
		return ResolvedPackage{}, derrors.WorkspaceError("scan checkout", err)
	}
	if match == nil {
		return ResolvedPackage{}, derrors.NotFound(req.Name()).
			WithContext("url", rawURL).
			WithContext("available", listPackages(snap))
	}
	version, err := semver.NewVersion(match.version)
	if err != nil {
		return ResolvedPackage{}, derrors.Wrap(err, derrors.CategoryResolution, derrors.SeverityError,
			"unable to determine version").WithContext("manifest", match.path)
	}

	pkgDir := filepath.Dir(match.path)
	r.logger.Debug("Resolved git package",
		logfields.Package(req.Name()),
		logfields.Version(version.String()),
		logfields.Source(id.String()),
		slog.String("commit", rev))

	return ResolvedPackage{
		Name:      req.Name(),
		Version:   version,
		Source:    id,
		LocalPath: pkgDir,
		Revision:  rev,
	}, nil
}

// GitFetcher is a no-op beyond checking the manifest: resolution already
// materialized the snapshot.
type GitFetcher struct{}

func (GitFetcher) Fetch(_ context.Context, pkg ResolvedPackage) (LocalPackage, error) {
	lp := localPackage(pkg)
	if _, err := os.Stat(lp.ManifestPath); err != nil {
		return LocalPackage{}, derrors.FetchError(pkg.Source.URL, fmt.Errorf("checkout is missing %s: %w", ManifestName, err))
	}
	return lp, nil
}
