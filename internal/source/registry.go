package source

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"

	derrors "git.home.luguber.info/inful/youmu/internal/errors"
	"git.home.luguber.info/inful/youmu/internal/logfields"
	"git.home.luguber.info/inful/youmu/internal/request"
)

// DefaultIndexURL is the crates.io sparse index.
const DefaultIndexURL = "https://index.crates.io/"

// IndexEntry is one line of a sparse index file.
type IndexEntry struct {
	Name     string `json:"name"`
	Version  string `json:"vers"`
	Checksum string `json:"cksum"`
	Yanked   bool   `json:"yanked"`
}

type indexConfig struct {
	DL  string `json:"dl"`
	API string `json:"api,omitempty"`
}

// RegistryClient talks the sparse index protocol.
type RegistryClient struct {
	indexURL string
	id       SourceID
	http     *http.Client

	mu  sync.Mutex
	cfg *indexConfig
}

// NewRegistryClient returns a client for the index at indexURL. A nil httpClient
// gets a client with a 30s timeout.
func NewRegistryClient(indexURL string, httpClient *http.Client) *RegistryClient {
	if indexURL == "" {
		indexURL = DefaultIndexURL
	}
	if !strings.HasSuffix(indexURL, "/") {
		indexURL += "/"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &RegistryClient{indexURL: indexURL, id: RegistryID(indexURL), http: httpClient}
}

// ID returns the registry's source identity.
func (c *RegistryClient) ID() SourceID { return c.id }

// IndexPath returns the index-relative path of a package's file.
func IndexPath(name string) string {
	n := strings.ToLower(name)
	switch len(n) {
	case 0:
		return ""
	case 1:
		return "1/" + n
	case 2:
		return "2/" + n
	case 3:
		return "3/" + n[:1] + "/" + n
	default:
		return n[:2] + "/" + n[2:4] + "/" + n
	}
}

// Entries fetches a fresh copy of the package's index file. It returns
// (nil, nil) when the registry does not know the package.
func (c *RegistryClient) Entries(ctx context.Context, name string) ([]IndexEntry, error) {
	target := c.indexURL + IndexPath(name)
	body, status, err := c.get(ctx, target)
	if err != nil {
		return nil, derrors.FetchError(target, err)
	}
	defer body.Close()
	switch status {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusGone, http.StatusUnavailableForLegalReasons:
		return nil, nil
	default:
		return nil, derrors.FetchError(target, fmt.Errorf("index returned HTTP %d", status))
	}

	var entries []IndexEntry
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var e IndexEntry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			return nil, derrors.FetchError(target, fmt.Errorf("malformed index line: %w", err))
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, derrors.FetchError(target, err)
	}
	return entries, nil
}

// DownloadURL expands the index's download template for one version.
func (c *RegistryClient) DownloadURL(ctx context.Context, name, version, checksum string) (string, error) {
	cfg, err := c.config(ctx)
	if err != nil {
		return "", err
	}
	dl := cfg.DL
	markers := []string{"{crate}", "{version}", "{prefix}", "{lowerprefix}", "{sha256-checksum}"}
	hasMarker := false
	for _, m := range markers {
		if strings.Contains(dl, m) {
			hasMarker = true
			break
		}
	}
	if !hasMarker {
		return strings.TrimSuffix(dl, "/") + "/" + url.PathEscape(name) + "/" + url.PathEscape(version) + "/download", nil
	}
	prefix := strings.TrimSuffix(IndexPath(name), "/"+strings.ToLower(name))
	r := strings.NewReplacer(
		"{crate}", name,
		"{version}", version,
		"{prefix}", prefix,
		"{lowerprefix}", strings.ToLower(prefix),
		"{sha256-checksum}", checksum,
	)
	return r.Replace(dl), nil
}

func (c *RegistryClient) config(ctx context.Context) (*indexConfig, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cfg != nil {
		return c.cfg, nil
	}
	target := c.indexURL + "config.json"
	body, status, err := c.get(ctx, target)
	if err != nil {
		return nil, derrors.FetchError(target, err)
	}
	defer body.Close()
	if status != http.StatusOK {
		return nil, derrors.FetchError(target, fmt.Errorf("index config returned HTTP %d", status))
	}
	var cfg indexConfig
	if err := json.NewDecoder(body).Decode(&cfg); err != nil {
		return nil, derrors.FetchError(target, fmt.Errorf("decode index config: %w", err))
	}
	if cfg.DL == "" {
		return nil, derrors.FetchError(target, fmt.Errorf("index config has no download url"))
	}
	c.cfg = &cfg
	return c.cfg, nil
}

func (c *RegistryClient) get(ctx context.Context, target string) (io.ReadCloser, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", "youmu (+https://git.home.luguber.info/inful/youmu)")
	req.Header.Set("Cache-Control", "no-cache")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	return resp.Body, resp.StatusCode, nil
}

// RegistryResolver resolves registry requests to the maximum matching version.
type RegistryResolver struct {
	client *RegistryClient
	cache  Cache
	logger *slog.Logger
}

func NewRegistryResolver(client *RegistryClient, cache Cache, logger *slog.Logger) *RegistryResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &RegistryResolver{client: client, cache: cache, logger: logger}
}

func (r *RegistryResolver) Resolve(ctx context.Context, req request.PackageRequest) (ResolvedPackage, error) {
	if req.Source().Kind() != request.SourceRegistry {
		return ResolvedPackage{}, fmt.Errorf("registry resolver cannot handle %s sources", req.Source().Kind())
	}
	entries, err := r.client.Entries(ctx, req.Name())
	if err != nil {
		return ResolvedPackage{}, err
	}
	if len(entries) == 0 {
		return ResolvedPackage{}, derrors.NotFound(req.Name())
	}

	versionReq := req.Source().VersionReq()
	byVersion := make(map[string]IndexEntry, len(entries))
	candidates := make([]*semver.Version, 0, len(entries))
	for _, e := range entries {
		if e.Yanked {
			continue
		}
		v, perr := semver.StrictNewVersion(e.Version)
		if perr != nil {
			r.logger.Debug("Skipping unparsable index version", logfields.Package(req.Name()), logfields.Version(e.Version))
			continue
		}
		candidates = append(candidates, v)
		byVersion[v.String()] = e
	}

	best := selectMax(versionReq, candidates)
	if best == nil {
		return ResolvedPackage{}, derrors.ConstraintUnsatisfiable(req.Name(), versionReq.String())
	}
	entry := byVersion[best.String()]
	name := entry.Name
	if name == "" {
		name = req.Name()
	}

	r.logger.Debug("Resolved registry package",
		logfields.Package(name),
		logfields.VersionReq(versionReq.String()),
		logfields.Version(best.String()),
		slog.Int("candidates", len(candidates)))

	return ResolvedPackage{
		Name:      name,
		Version:   best,
		Source:    r.client.ID(),
		LocalPath: r.cache.RegistryPackageDir(r.client.ID(), name, best.String()),
		Checksum:  entry.Checksum,
	}, nil
}
