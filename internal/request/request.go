package request

import (
	"net/url"
	"regexp"
	"slices"
	"strings"

	derrors "git.home.luguber.info/inful/youmu/internal/errors"
)

// SourceKind selects which resolution protocol runs for a request.
type SourceKind int

const (
	SourceRegistry SourceKind = iota
	SourceURL
)

func (k SourceKind) String() string {
	switch k {
	case SourceRegistry:
		return "registry"
	case SourceURL:
		return "url"
	default:
		return "unknown"
	}
}

// PackageSource is either a registry version requirement or a direct URL; exactly one is set.
type PackageSource struct {
	kind    SourceKind
	version VersionReq
	url     string
}

// Registry returns a source resolved against the central registry.
func Registry(req VersionReq) PackageSource {
	return PackageSource{kind: SourceRegistry, version: req}
}

// DirectURL returns a source fetched from an arbitrary URL.
func DirectURL(u string) PackageSource {
	return PackageSource{kind: SourceURL, url: u}
}

func (s PackageSource) Kind() SourceKind       { return s.kind }
func (s PackageSource) VersionReq() VersionReq { return s.version }
func (s PackageSource) URL() string            { return s.url }

func (s PackageSource) String() string {
	if s.kind == SourceURL {
		return s.url
	}
	return s.version.String()
}

// PackageRequest is one validated request for documentation.
type PackageRequest struct {
	name            string
	source          PackageSource
	features        []string
	defaultFeatures bool
	includeDeps     bool
}

func (r PackageRequest) Name() string          { return r.name }
func (r PackageRequest) Source() PackageSource { return r.source }
func (r PackageRequest) Features() []string    { return slices.Clone(r.features) }
func (r PackageRequest) DefaultFeatures() bool { return r.defaultFeatures }
func (r PackageRequest) IncludeDeps() bool     { return r.includeDeps }

// BuildOptions derives the options handed to the build engine.
func (r PackageRequest) BuildOptions() BuildOptions {
	return BuildOptions{
		Features:        r.Features(),
		DefaultFeatures: r.defaultFeatures,
		IncludeDeps:     r.includeDeps,
		Release:         false,
	}
}

// BuildOptions is passed opaquely to the build invoker.
type BuildOptions struct {
	Features        []string
	DefaultFeatures bool
	IncludeDeps     bool
	Release         bool
}

// Input carries raw gateway values.
type Input struct {
	Name            string
	URL             string
	Version         string
	Features        []string
	DefaultFeatures bool
	IncludeDeps     bool

	// RequireSource rejects input with neither URL nor Version instead of
	// treating it as "any version".
	RequireSource bool
	// AllowLocalURL permits file:// sources. Only trusted callers set it.
	AllowLocalURL bool
}

// DefaultInput returns an Input with the gateway defaults: default features on,
// dependencies documented.
func DefaultInput(name string) Input {
	return Input{Name: name, DefaultFeatures: true, IncludeDeps: true}
}

var (
	scpLikeURL = regexp.MustCompile(`^[A-Za-z0-9._-]+@[A-Za-z0-9.-]+:[^/].*$`)

	// packageName is the Cargo package name grammar. Names double as path
	// segments below the docs root and the cache.
	packageName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]{0,63}$`)
)

// New validates in and builds a PackageRequest. All failures are config errors.
// A non-empty URL takes precedence over a version.
func New(in Input) (PackageRequest, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return PackageRequest{}, derrors.ConfigError("expected package name")
	}
	if !packageName.MatchString(name) {
		return PackageRequest{}, derrors.ConfigError("invalid package name").WithContext("package", name)
	}

	var src PackageSource
	rawURL := strings.TrimSpace(in.URL)
	rawVersion := strings.TrimSpace(in.Version)
	switch {
	case rawURL != "":
		if err := validateURL(rawURL, in.AllowLocalURL); err != nil {
			return PackageRequest{}, err
		}
		src = DirectURL(rawURL)
	case rawVersion == "" && in.RequireSource:
		return PackageRequest{}, derrors.ConfigError("expected version or url")
	default:
		req, err := ParseVersionReq(rawVersion)
		if err != nil {
			return PackageRequest{}, derrors.WrapConfig(err, "malformed version requirement").
				WithContext("version", rawVersion)
		}
		src = Registry(req)
	}

	return PackageRequest{
		name:            name,
		source:          src,
		features:        NormalizeFeatures(in.Features),
		defaultFeatures: in.DefaultFeatures,
		includeDeps:     in.IncludeDeps,
	}, nil
}

func validateURL(raw string, allowLocal bool) error {
	if scpLikeURL.MatchString(raw) {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return derrors.WrapConfig(err, "malformed source url").WithContext("url", raw)
	}
	if u.Scheme == "file" {
		if !allowLocal {
			return derrors.ConfigError("local source urls are not allowed").WithContext("url", raw)
		}
		return nil
	}
	if u.Scheme == "" || u.Host == "" {
		return derrors.ConfigError("source url must be absolute").WithContext("url", raw)
	}
	return nil
}

// NormalizeFeatures splits entries on whitespace and commas, drops empties and
// duplicates, and sorts the result.
func NormalizeFeatures(in []string) []string {
	var out []string
	for _, entry := range in {
		for _, f := range strings.FieldsFunc(entry, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\n'
		}) {
			out = append(out, f)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
