package source

import (
	"archive/tar"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
)

// crateArchive builds a .crate style tar.gz with files below "<name>-<version>/".
func crateArchive(t *testing.T, top string, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(zw)
	for name, body := range files {
		path := name
		if top != "" {
			path = top + "/" + name
		}
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     path,
			Mode:     0o644,
			Size:     int64(len(body)),
			Typeflag: tar.TypeReg,
		}))
		_, err := tw.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func checksum(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// fakeRegistry is an in-memory sparse index plus download endpoint.
type fakeRegistry struct {
	mu        sync.Mutex
	entries   map[string][]IndexEntry
	crates    map[string][]byte
	downloads atomic.Int32
	status    int
	server    *httptest.Server
}

func newFakeRegistry(t *testing.T) *fakeRegistry {
	t.Helper()
	r := &fakeRegistry{entries: map[string][]IndexEntry{}, crates: map[string][]byte{}}
	mux := http.NewServeMux()
	mux.HandleFunc("/index/config.json", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(indexConfig{DL: r.server.URL + "/dl"})
	})
	mux.HandleFunc("/index/", func(w http.ResponseWriter, req *http.Request) {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.status != 0 {
			w.WriteHeader(r.status)
			return
		}
		name := req.URL.Path[strings.LastIndex(req.URL.Path, "/")+1:]
		entries, ok := r.entries[name]
		if !ok || req.URL.Path != "/index/"+IndexPath(name) {
			http.NotFound(w, req)
			return
		}
		for _, e := range entries {
			line, _ := json.Marshal(e)
			fmt.Fprintf(w, "%s\n", line)
		}
	})
	mux.HandleFunc("/dl/", func(w http.ResponseWriter, req *http.Request) {
		r.downloads.Add(1)
		parts := strings.Split(strings.TrimPrefix(req.URL.Path, "/dl/"), "/")
		if len(parts) != 3 || parts[2] != "download" {
			http.NotFound(w, req)
			return
		}
		r.mu.Lock()
		body, ok := r.crates[parts[0]+"-"+parts[1]]
		r.mu.Unlock()
		if !ok {
			http.NotFound(w, req)
			return
		}
		_, _ = w.Write(body)
	})
	r.server = httptest.NewServer(mux)
	t.Cleanup(r.server.Close)
	return r
}

func (r *fakeRegistry) indexURL() string { return r.server.URL + "/index/" }

// publish adds a version with a minimal crate archive.
func (r *fakeRegistry) publish(t *testing.T, name, version string) {
	t.Helper()
	top := name + "-" + version
	archive := crateArchive(t, top, map[string]string{
		"Cargo.toml": fmt.Sprintf("[package]\nname = %q\nversion = %q\n", name, version),
		"src/lib.rs": "//! docs\n",
	})
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = append(r.entries[name], IndexEntry{Name: name, Version: version, Checksum: checksum(archive)})
	r.crates[top] = archive
}

func (r *fakeRegistry) yank(name, version string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries[name] {
		if e.Version == version {
			r.entries[name][i].Yanked = true
		}
	}
}

func (r *fakeRegistry) fail(status int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = status
}
