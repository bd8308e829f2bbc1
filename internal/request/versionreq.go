package request

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// AnyVersion is the requirement used when the caller did not name one.
const AnyVersion = "*"

// VersionReq is a Cargo-style version requirement ("^1.2", ">=1.0, <2.0", "=9.9.9", "1.*").
// A bare version is a caret requirement, as in Cargo manifests.
type VersionReq struct {
	raw         string
	constraints *semver.Constraints
}

// ParseVersionReq parses a requirement string. An empty string means any version.
func ParseVersionReq(raw string) (VersionReq, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = AnyVersion
	}
	clauses := strings.Split(raw, ",")
	normalized := make([]string, 0, len(clauses))
	for _, clause := range clauses {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			return VersionReq{}, fmt.Errorf("empty clause in version requirement %q", raw)
		}
		normalized = append(normalized, normalizeClause(clause))
	}
	c, err := semver.NewConstraint(strings.Join(normalized, ", "))
	if err != nil {
		return VersionReq{}, fmt.Errorf("invalid version requirement %q: %w", raw, err)
	}
	return VersionReq{raw: raw, constraints: c}, nil
}

// MustParseVersionReq is ParseVersionReq for literals; it panics on error.
func MustParseVersionReq(raw string) VersionReq {
	r, err := ParseVersionReq(raw)
	if err != nil {
		panic(err)
	}
	return r
}

func normalizeClause(clause string) string {
	first := clause[0]
	if first < '0' || first > '9' {
		return clause
	}
	if strings.ContainsAny(clause, "*xX") {
		return clause
	}
	return "^" + clause
}

// Matches reports whether v satisfies the requirement. Pre-releases only match
// requirements that name a pre-release themselves.
func (r VersionReq) Matches(v *semver.Version) bool {
	if r.constraints == nil || v == nil {
		return false
	}
	return r.constraints.Check(v)
}

// String returns the requirement as the caller wrote it.
func (r VersionReq) String() string {
	if r.raw == "" {
		return AnyVersion
	}
	return r.raw
}

// IsZero reports whether the requirement was never parsed.
func (r VersionReq) IsZero() bool { return r.constraints == nil }
