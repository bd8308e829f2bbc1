package source

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Kind of a source identity.
type Kind string

const (
	KindRegistry Kind = "sparse"
	KindGit      Kind = "git"
)

// SourceID identifies where a package's content originates.
type SourceID struct {
	Kind Kind
	URL  string // canonical form
}

// RegistryID returns the identity of a sparse registry index.
func RegistryID(indexURL string) SourceID {
	return SourceID{Kind: KindRegistry, URL: canonicalURL(indexURL, false)}
}

// GitID derives the identity of a git source from its URL. It is a pure function
// of the URL string.
func GitID(rawURL string) SourceID {
	return SourceID{Kind: KindGit, URL: canonicalURL(rawURL, true)}
}

// String renders the identity as "<kind>+<url>".
func (id SourceID) String() string {
	return string(id.Kind) + "+" + id.URL
}

// Hash is a fixed-width (16 hex digit) digest of the identity.
func (id SourceID) Hash() string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(id.String()))
}

var scpLike = regexp.MustCompile(`^([A-Za-z0-9._-]+)@([A-Za-z0-9.-]+):(.*)$`)

// canonicalURL lowercases scheme and host and, for git sources, drops a
// trailing slash and ".git" suffix so equivalent spellings share an identity.
func canonicalURL(raw string, git bool) string {
	raw = strings.TrimSpace(raw)
	if m := scpLike.FindStringSubmatch(raw); m != nil && !strings.Contains(raw, "://") {
		raw = "ssh://" + m[1] + "@" + m[2] + "/" + strings.TrimPrefix(m[3], "/")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	if git {
		u.Path = strings.TrimSuffix(u.Path, "/")
		u.Path = strings.TrimSuffix(u.Path, ".git")
		if u.Host == "github.com" {
			u.Path = strings.ToLower(u.Path)
		}
	} else if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}
