package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/youmu/internal/errors"
	"git.home.luguber.info/inful/youmu/internal/request"
)

// fakeSyncer writes a fixed tree into the checkout dir.
type fakeSyncer struct {
	t     *testing.T
	files map[string]string
	err   error
	calls atomic.Int32
}

func (f *fakeSyncer) Sync(_ context.Context, _, dir string) (string, error) {
	f.calls.Add(1)
	if f.err != nil {
		return "", f.err
	}
	for name, body := range f.files {
		writeFile(f.t, filepath.Join(dir, name), body)
	}
	return "abc1234", nil
}

func urlRequest(t *testing.T, name, u string) request.PackageRequest {
	t.Helper()
	in := request.DefaultInput(name)
	in.URL = u
	r, err := request.New(in)
	require.NoError(t, err)
	return r
}

func workspaceTree() map[string]string {
	return map[string]string{
		"Cargo.toml":             "[workspace]\nmembers = [\"crates/*\"]\n[workspace.package]\nversion = \"0.7.1\"\n",
		"crates/core/Cargo.toml": "[package]\nname = \"demo-core\"\nversion.workspace = true\n",
		"crates/cli/Cargo.toml":  "[package]\nname = \"demo-cli\"\nversion = \"0.2.0\"\n",
	}
}

func TestGitResolver_Resolve(t *testing.T) {
	syncer := &fakeSyncer{t: t, files: workspaceTree()}
	cache := Cache{Dir: t.TempDir()}
	r := NewGitResolver(syncer, cache, nil)
	const repo = "https://example.com/acme/demo.git"

	got, err := r.Resolve(t.Context(), urlRequest(t, "demo-core", repo))
	require.NoError(t, err)
	assert.Equal(t, "demo-core", got.Name)
	assert.Equal(t, "0.7.1", got.Version.String())
	assert.Equal(t, GitID(repo), got.Source)
	assert.Equal(t, filepath.Join(cache.GitSnapshotDir(GitID(repo), "abc1234"), "crates", "core"), got.LocalPath)
	assert.Equal(t, "abc1234", got.Revision)

	local, err := GitFetcher{}.Fetch(t.Context(), got)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(got.LocalPath, ManifestName), local.ManifestPath)

	cli, err := r.Resolve(t.Context(), urlRequest(t, "demo-cli", repo))
	require.NoError(t, err)
	assert.Equal(t, "0.2.0", cli.Version.String())
	assert.EqualValues(t, 2, syncer.calls.Load())
}

// rewritingSyncer replaces the checkout with a different tree on every call,
// the way a fetch of a moved branch does.
type rewritingSyncer struct {
	t     *testing.T
	trees []map[string]string
	revs  []string
	calls int
}

func (s *rewritingSyncer) Sync(_ context.Context, _, dir string) (string, error) {
	i := s.calls
	s.calls++
	require.NoError(s.t, os.RemoveAll(dir))
	for name, body := range s.trees[i] {
		writeFile(s.t, filepath.Join(dir, name), body)
	}
	writeFile(s.t, filepath.Join(dir, ".git", "HEAD"), s.revs[i]+"\n")
	return s.revs[i], nil
}

func TestGitResolver_SnapshotSurvivesLaterSync(t *testing.T) {
	first := map[string]string{
		"Cargo.toml": "[package]\nname = \"demo\"\nversion = \"1.0.0\"\n",
		"src/lib.rs": "//! first\n",
	}
	second := map[string]string{
		"Cargo.toml":  "[package]\nname = \"demo\"\nversion = \"2.0.0\"\n",
		"src/main.rs": "fn main() {}\n",
	}
	syncer := &rewritingSyncer{t: t, trees: []map[string]string{first, second}, revs: []string{"1111aaaa", "2222bbbb"}}
	cache := Cache{Dir: t.TempDir()}
	r := NewGitResolver(syncer, cache, nil)
	const repo = "https://example.com/acme/demo.git"

	old, err := r.Resolve(t.Context(), urlRequest(t, "demo", repo))
	require.NoError(t, err)
	assert.Equal(t, "1111aaaa", old.Revision)
	assert.Equal(t, cache.GitSnapshotDir(GitID(repo), "1111aaaa"), old.LocalPath)
	assert.NoDirExists(t, filepath.Join(old.LocalPath, ".git"))

	cur, err := r.Resolve(t.Context(), urlRequest(t, "demo", repo))
	require.NoError(t, err)
	assert.Equal(t, "2222bbbb", cur.Revision)
	assert.Equal(t, "2.0.0", cur.Version.String())
	assert.NotEqual(t, old.LocalPath, cur.LocalPath)

	local, err := GitFetcher{}.Fetch(t.Context(), old)
	require.NoError(t, err)
	manifest, err := os.ReadFile(local.ManifestPath)
	require.NoError(t, err)
	assert.Contains(t, string(manifest), `version = "1.0.0"`)
	lib, err := os.ReadFile(filepath.Join(old.LocalPath, "src", "lib.rs"))
	require.NoError(t, err)
	assert.Equal(t, "//! first\n", string(lib))
	assert.NoFileExists(t, filepath.Join(old.LocalPath, "src", "main.rs"))
}

func TestGitResolver_RejectsOddRevision(t *testing.T) {
	syncer := &rewritingSyncer{t: t, trees: []map[string]string{workspaceTree()}, revs: []string{"../escape"}}
	r := NewGitResolver(syncer, Cache{Dir: t.TempDir()}, nil)

	_, err := r.Resolve(t.Context(), urlRequest(t, "demo-core", "https://example.com/acme/demo"))
	require.Error(t, err)
	assert.True(t, derrors.IsCategory(err, derrors.CategoryFetch))
}

func TestGitResolver_NotFound(t *testing.T) {
	r := NewGitResolver(&fakeSyncer{t: t, files: workspaceTree()}, Cache{Dir: t.TempDir()}, nil)

	_, err := r.Resolve(t.Context(), urlRequest(t, "nope", "https://example.com/acme/demo"))
	require.Error(t, err)
	assert.True(t, derrors.HasReason(err, derrors.ReasonNotFound))
	ye, ok := derrors.As(err)
	require.True(t, ok)
	assert.Equal(t, []string{"demo-cli", "demo-core"}, ye.Context["available"])
}

func TestGitResolver_SyncFailureIsFetchError(t *testing.T) {
	r := NewGitResolver(&fakeSyncer{t: t, err: errors.New("connection refused")}, Cache{Dir: t.TempDir()}, nil)

	_, err := r.Resolve(t.Context(), urlRequest(t, "demo", "https://example.com/acme/demo"))
	require.Error(t, err)
	assert.True(t, derrors.IsCategory(err, derrors.CategoryFetch))
}

func TestMultiResolver_Dispatch(t *testing.T) {
	git := NewGitResolver(&fakeSyncer{t: t, files: workspaceTree()}, Cache{Dir: t.TempDir()}, nil)
	m := &MultiResolver{Git: git}

	_, err := m.Resolve(t.Context(), urlRequest(t, "demo-cli", "https://example.com/acme/demo"))
	require.NoError(t, err)

	_, err = m.Resolve(t.Context(), registryRequest(t, "demo", "*"))
	require.Error(t, err)
	assert.True(t, derrors.IsCategory(err, derrors.CategoryConfig))
}

func TestGitFetcher_MissingManifest(t *testing.T) {
	_, err := GitFetcher{}.Fetch(t.Context(), ResolvedPackage{Name: "demo", LocalPath: t.TempDir(), Source: GitID("https://example.com/x")})
	require.Error(t, err)
	assert.True(t, derrors.IsCategory(err, derrors.CategoryFetch))
}
