package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	ggitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/youmu/internal/logfields"
)

// Client handles Git operations for package sources.
type Client struct {
	depth  int
	logger *slog.Logger
}

// NewClient creates a new Git client. depth > 0 makes clones and fetches shallow.
func NewClient(depth int, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{depth: depth, logger: logger}
}

// Sync makes dir a checkout of url at the remote's current default branch head and
// returns the checked-out commit. An existing checkout that cannot be updated is
// replaced by a fresh clone.
func (c *Client) Sync(ctx context.Context, url, dir string) (string, error) {
	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		rev, uerr := c.update(ctx, url, dir)
		if uerr == nil {
			return rev, nil
		}
		var nf *NotFoundError
		var ae *AuthError
		if errors.As(uerr, &nf) || errors.As(uerr, &ae) {
			return "", uerr
		}
		c.logger.Warn("Updating checkout failed, recloning", logfields.URL(url), logfields.Error(uerr))
	}
	return c.clone(ctx, url, dir)
}

func (c *Client) clone(ctx context.Context, url, dir string) (string, error) {
	c.logger.Debug("Cloning repository", logfields.URL(url), logfields.Path(dir))
	if err := os.RemoveAll(dir); err != nil {
		return "", fmt.Errorf("failed to remove existing directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return "", fmt.Errorf("failed to create checkout parent: %w", err)
	}

	opts := &git.CloneOptions{URL: url, Tags: git.NoTags}
	if c.depth > 0 {
		opts.Depth = c.depth
	}
	repository, err := git.PlainCloneContext(ctx, dir, false, opts)
	if err != nil {
		_ = os.RemoveAll(dir)
		return "", classifyError("clone", url, err)
	}
	ref, err := repository.Head()
	if err != nil {
		return "", fmt.Errorf("read HEAD after clone: %w", err)
	}
	c.logger.Info("Repository cloned", logfields.URL(url), slog.String("commit", short(ref.Hash())), logfields.Path(dir))
	return ref.Hash().String(), nil
}

func (c *Client) update(ctx context.Context, url, dir string) (string, error) {
	repository, err := git.PlainOpen(dir)
	if err != nil {
		return "", fmt.Errorf("open repo: %w", err)
	}
	wt, err := repository.Worktree()
	if err != nil {
		return "", fmt.Errorf("worktree: %w", err)
	}

	fetchOpts := &git.FetchOptions{
		RemoteName: "origin",
		Tags:       git.NoTags,
		Force:      true,
		RefSpecs:   []ggitcfg.RefSpec{"+refs/heads/*:refs/remotes/origin/*"},
	}
	if c.depth > 0 {
		fetchOpts.Depth = c.depth
	}
	if err := repository.FetchContext(ctx, fetchOpts); err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return "", classifyError("fetch", url, err)
	}

	branch, err := currentBranch(repository)
	if err != nil {
		return "", err
	}
	remoteRef, err := repository.Reference(plumbing.NewRemoteReferenceName("origin", branch), true)
	if err != nil {
		return "", fmt.Errorf("remote ref %s: %w", branch, err)
	}
	previous, _ := repository.Head()
	if err := wt.Reset(&git.ResetOptions{Commit: remoteRef.Hash(), Mode: git.HardReset}); err != nil {
		return "", fmt.Errorf("hard reset: %w", err)
	}
	if err := wt.Clean(&git.CleanOptions{Dir: true}); err != nil {
		c.logger.Warn("clean untracked failed", logfields.Error(err))
	}

	if previous != nil && previous.Hash() == remoteRef.Hash() {
		c.logger.Debug("Repository already up-to-date", logfields.URL(url), slog.String("commit", short(remoteRef.Hash())))
	} else {
		c.logger.Info("Repository updated", logfields.URL(url), slog.String("branch", branch), slog.String("commit", short(remoteRef.Hash())))
	}
	return remoteRef.Hash().String(), nil
}

// currentBranch returns the checked-out branch, falling back to origin/HEAD.
func currentBranch(repository *git.Repository) (string, error) {
	if headRef, err := repository.Head(); err == nil && headRef.Name().IsBranch() {
		return headRef.Name().Short(), nil
	}
	ref, err := repository.Reference(plumbing.ReferenceName("refs/remotes/origin/HEAD"), true)
	if err == nil && ref.Name().IsRemote() {
		return strings.TrimPrefix(ref.Name().Short(), "origin/"), nil
	}
	return "", fmt.Errorf("cannot determine branch of checkout")
}

func short(h plumbing.Hash) string { return h.String()[:8] }
