package catalog

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *Catalog {
	t.Helper()
	c, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func entry(name, version string) Entry {
	return Entry{
		Name:       name,
		Version:    version,
		SourceKind: "registry",
		Source:     "*",
		PublishDir: filepath.Join("/docs", name, version),
		BuiltAt:    time.Unix(1700000000, 0),
	}
}

func TestCatalog_RecordAndList(t *testing.T) {
	c := openMemory(t)
	ctx := t.Context()

	require.NoError(t, c.Record(ctx, entry("demo", "1.2.0")))
	require.NoError(t, c.Record(ctx, entry("demo", "1.10.0")))
	require.NoError(t, c.Record(ctx, entry("alpha", "0.1.0")))

	all, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "alpha", all[0].Name)
	assert.Equal(t, "1.10.0", all[1].Version)
	assert.Equal(t, "1.2.0", all[2].Version)
	assert.Empty(t, all[0].Features)

	n, err := c.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestCatalog_UpsertByPublishDir(t *testing.T) {
	c := openMemory(t)
	ctx := t.Context()

	e := entry("demo", "1.5.0")
	require.NoError(t, c.Record(ctx, e))
	e.Features = []string{"serde"}
	e.Description = "A demo crate"
	require.NoError(t, c.Record(ctx, e))

	versions, err := c.Versions(ctx, "demo")
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, []string{"serde"}, versions[0].Features)
	assert.Equal(t, "A demo crate", versions[0].Description)
	assert.Equal(t, e.BuiltAt.Unix(), versions[0].BuiltAt.Unix())

	none, err := c.Versions(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCatalog_RejectsIncompleteEntry(t *testing.T) {
	c := openMemory(t)
	assert.Error(t, c.Record(t.Context(), Entry{Name: "demo"}))
}

func TestCatalog_PersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	c, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, c.Record(t.Context(), entry("demo", "1.0.0")))
	require.NoError(t, c.Close())

	c, err = Open(path)
	require.NoError(t, err)
	defer c.Close()
	all, err := c.List(t.Context())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "demo", all[0].Name)
}

func TestCompareEntries_UnparsableVersionsLast(t *testing.T) {
	a := entry("demo", "deadbeef")
	b := entry("demo", "0.1.0")
	assert.Equal(t, 1, compareEntries(a, b))
	assert.Equal(t, -1, compareEntries(b, a))
}
