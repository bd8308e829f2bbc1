package source

import (
	"os"
	"path/filepath"
	"sync"
)

// Cache lays out materialized sources below one directory:
//
//	<dir>/registry/<source hash>/<name>-<version>
//	<dir>/git/<source hash>
//	<dir>/git-snapshots/<source hash>/<revision>
//
// Git checkouts are updated in place; builds read the per-revision snapshots.
type Cache struct {
	Dir string
}

// DefaultCacheDir returns the per-user cache location.
func DefaultCacheDir() string {
	if d, err := os.UserCacheDir(); err == nil {
		return filepath.Join(d, "youmu")
	}
	return filepath.Join(os.TempDir(), "youmu-cache")
}

func (c Cache) RegistryPackageDir(id SourceID, name, version string) string {
	return filepath.Join(c.Dir, "registry", id.Hash(), name+"-"+version)
}

func (c Cache) GitCheckoutDir(id SourceID) string {
	return filepath.Join(c.Dir, "git", id.Hash())
}

func (c Cache) GitSnapshotDir(id SourceID, revision string) string {
	return filepath.Join(c.Dir, "git-snapshots", id.Hash(), revision)
}

// keyedMutex serializes work on the same cache entry while letting distinct
// entries proceed in parallel.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()
	m.Lock()
	return m.Unlock
}
