package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/youmu/internal/errors"
	"git.home.luguber.info/inful/youmu/internal/orchestrator"
	"git.home.luguber.info/inful/youmu/internal/request"
)

const sample = `
- package: serde
  version: "^1"
  features: [derive, std]
- package: demo
  url: https://example.com/acme/demo.git
  default-features: false
  include-deps: false
`

func TestParse(t *testing.T) {
	entries, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	reqs, err := Requests(entries)
	require.NoError(t, err)

	assert.Equal(t, "serde", reqs[0].Name())
	assert.Equal(t, request.SourceRegistry, reqs[0].Source().Kind())
	assert.Equal(t, []string{"derive", "std"}, reqs[0].Features())
	assert.True(t, reqs[0].DefaultFeatures())
	assert.True(t, reqs[0].IncludeDeps())

	assert.Equal(t, request.SourceURL, reqs[1].Source().Kind())
	assert.False(t, reqs[1].DefaultFeatures())
	assert.False(t, reqs[1].IncludeDeps())
}

func TestParse_Rejects(t *testing.T) {
	_, err := Parse(strings.NewReader("- package: a\n  colour: red\n"))
	require.Error(t, err)
	assert.True(t, derrors.IsCategory(err, derrors.CategoryConfig))

	entries, err := Parse(strings.NewReader("- package: a\n- version: '1'\n"))
	require.NoError(t, err)
	_, err = Requests(entries)
	require.Error(t, err)
	assert.True(t, derrors.IsCategory(err, derrors.CategoryConfig))
	assert.Contains(t, err.Error(), "batch entry 2")
}

func TestParse_Empty(t *testing.T) {
	entries, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "none.yaml"))
	require.Error(t, err)
	assert.True(t, derrors.IsCategory(err, derrors.CategoryConfig))
}

// fakeDocs records calls and fails for packages listed in fail.
type fakeDocs struct {
	mu    sync.Mutex
	calls []string
	dests []string
	fail  map[string]error
}

func (f *fakeDocs) DocumentTo(_ context.Context, req request.PackageRequest, dest string) (orchestrator.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req.Name())
	f.dests = append(f.dests, dest)
	if err := f.fail[req.Name()]; err != nil {
		return orchestrator.Result{}, err
	}
	return orchestrator.Result{PublishDir: dest}, nil
}

func requests(t *testing.T, names ...string) []request.PackageRequest {
	t.Helper()
	var out []request.PackageRequest
	for _, n := range names {
		req, err := request.New(request.DefaultInput(n))
		require.NoError(t, err)
		out = append(out, req)
	}
	return out
}

func TestRunner_StopsAtFirstFailure(t *testing.T) {
	docs := &fakeDocs{fail: map[string]error{"b": derrors.NotFound("b")}}
	r := &Runner{Docs: docs, Output: "/out"}

	rep, err := r.Run(t.Context(), requests(t, "a", "b", "c"))
	require.Error(t, err)
	assert.True(t, derrors.HasReason(err, derrors.ReasonNotFound))
	assert.Equal(t, []string{"a", "b"}, docs.calls)
	assert.Equal(t, []string{filepath.Join("/out", "a"), filepath.Join("/out", "b")}, docs.dests)
	assert.Len(t, rep.Published, 1)
	assert.Equal(t, 1, rep.Skipped)
}

func TestRunner_KeepGoing(t *testing.T) {
	boom := errors.New("boom")
	docs := &fakeDocs{fail: map[string]error{"a": boom, "c": derrors.BuildError(boom)}}
	r := &Runner{Docs: docs, Output: "/out", KeepGoing: true}

	rep, err := r.Run(t.Context(), requests(t, "a", "b", "c"))
	require.Error(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, docs.calls)
	assert.Len(t, rep.Published, 1)
	require.Len(t, rep.Failed, 2)
	assert.ErrorIs(t, err, boom)
	assert.True(t, derrors.IsCategory(err, derrors.CategoryBuild))
}

func TestRunner_AllSucceed(t *testing.T) {
	r := &Runner{Docs: &fakeDocs{}, Output: "/out"}
	rep, err := r.Run(t.Context(), requests(t, "a", "b"))
	require.NoError(t, err)
	assert.Len(t, rep.Published, 2)
}

func writeBatch(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "crates.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// blockingDocs blocks every call until release is closed.
type blockingDocs struct {
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func (b *blockingDocs) DocumentTo(_ context.Context, _ request.PackageRequest, dest string) (orchestrator.Result, error) {
	if b.calls.Add(1) == 1 {
		close(b.entered)
	}
	<-b.release
	return orchestrator.Result{PublishDir: dest}, nil
}

func TestRefresher_DropsOverlappingRuns(t *testing.T) {
	path := writeBatch(t, t.TempDir(), "- package: a\n")
	docs := &blockingDocs{entered: make(chan struct{}), release: make(chan struct{})}
	r := NewRefresher(path, Runner{Docs: docs, Output: t.TempDir()})

	first := make(chan bool)
	go func() { first <- r.Refresh(context.Background()) }()
	<-docs.entered

	assert.False(t, r.Refresh(context.Background()))
	close(docs.release)
	assert.True(t, <-first)
	assert.EqualValues(t, 1, docs.calls.Load())
}

func TestScheduler_RunsRefresh(t *testing.T) {
	path := writeBatch(t, t.TempDir(), "- package: a\n")
	docs := &fakeDocs{}
	r := NewRefresher(path, Runner{Docs: docs, Output: t.TempDir()})

	s, err := NewScheduler()
	require.NoError(t, err)
	id, err := s.ScheduleRefresh(t.Context(), 50*time.Millisecond, r)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	s.Start()
	defer func() { _ = s.Stop() }()

	require.Eventually(t, func() bool {
		docs.mu.Lock()
		defer docs.mu.Unlock()
		return len(docs.calls) >= 1
	}, 2*time.Second, 10*time.Millisecond)

	_, err = s.ScheduleRefresh(t.Context(), 0, r)
	assert.Error(t, err)
}

func TestWatcher_DebouncesChanges(t *testing.T) {
	dir := t.TempDir()
	path := writeBatch(t, dir, "- package: a\n")
	var fired atomic.Int32
	w, err := NewWatcher(path, 100*time.Millisecond, func(context.Context) { fired.Add(1) })
	require.NoError(t, err)
	require.NoError(t, w.Start(t.Context()))
	defer func() { _ = w.Stop() }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0o600))
	for i := range 3 {
		require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("- package: a\n", i+1)), 0o600))
	}

	require.Eventually(t, func() bool { return fired.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(250 * time.Millisecond)
	assert.EqualValues(t, 1, fired.Load())
}
