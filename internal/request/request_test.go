package request

import (
	"strings"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/youmu/internal/errors"
)

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		in      Input
		wantErr string
	}{
		{"empty name", Input{Name: "  ", Version: "1.0"}, "expected package name"},
		{"missing source", Input{Name: "demo", RequireSource: true}, "expected version or url"},
		{"bad version", Input{Name: "demo", Version: ">=>1"}, "malformed version requirement"},
		{"empty clause", Input{Name: "demo", Version: ">=1.0,,<2"}, "malformed version requirement"},
		{"relative url", Input{Name: "demo", URL: "not a url"}, "source url must be absolute"},
		{"parent traversal", Input{Name: "../../escape", Version: "1"}, "invalid package name"},
		{"dot dot", Input{Name: "..", Version: "1"}, "invalid package name"},
		{"slash", Input{Name: "acme/demo", Version: "1"}, "invalid package name"},
		{"backslash", Input{Name: `acme\demo`, Version: "1"}, "invalid package name"},
		{"leading digit", Input{Name: "1demo", Version: "1"}, "invalid package name"},
		{"leading underscore", Input{Name: "_batch", Version: "1"}, "invalid package name"},
		{"too long", Input{Name: "a" + strings.Repeat("b", 64), Version: "1"}, "invalid package name"},
		{"local url", Input{Name: "demo", URL: "file:///srv/repos/demo"}, "local source urls are not allowed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.in)
			require.Error(t, err)
			assert.True(t, derrors.IsCategory(err, derrors.CategoryConfig))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNew_AcceptsCargoNames(t *testing.T) {
	for _, name := range []string{"demo", "serde_json", "tokio-util", "A", "x" + strings.Repeat("y", 63)} {
		_, err := New(Input{Name: name, Version: "1"})
		assert.NoError(t, err, name)
	}
}

func TestNew_LocalURLWhenAllowed(t *testing.T) {
	r, err := New(Input{Name: "demo", URL: "file:///srv/repos/demo", AllowLocalURL: true})
	require.NoError(t, err)
	assert.Equal(t, SourceURL, r.Source().Kind())
}

func TestNew_URLTakesPrecedence(t *testing.T) {
	r, err := New(Input{Name: "demo", URL: "https://github.com/acme/demo", Version: "1.0"})
	require.NoError(t, err)
	assert.Equal(t, SourceURL, r.Source().Kind())
	assert.Equal(t, "https://github.com/acme/demo", r.Source().URL())
	assert.True(t, r.Source().VersionReq().IsZero())
}

func TestNew_ScpLikeURL(t *testing.T) {
	r, err := New(Input{Name: "demo", URL: "git@github.com:acme/demo.git"})
	require.NoError(t, err)
	assert.Equal(t, SourceURL, r.Source().Kind())
}

func TestNew_EmptyVersionMeansAny(t *testing.T) {
	r, err := New(DefaultInput("demo"))
	require.NoError(t, err)
	assert.Equal(t, SourceRegistry, r.Source().Kind())
	assert.Equal(t, AnyVersion, r.Source().VersionReq().String())
	assert.True(t, r.DefaultFeatures())
	assert.True(t, r.IncludeDeps())
}

func TestBuildOptionsDerivedFromRequest(t *testing.T) {
	in := Input{Name: "demo", Version: "^1", Features: []string{"b a", "a,c"}, IncludeDeps: false}
	r, err := New(in)
	require.NoError(t, err)

	opts := r.BuildOptions()
	assert.Equal(t, []string{"a", "b", "c"}, opts.Features)
	assert.False(t, opts.DefaultFeatures)
	assert.False(t, opts.IncludeDeps)
	assert.False(t, opts.Release)

	// Returned slices are copies; the request stays immutable.
	opts.Features[0] = "mutated"
	assert.Equal(t, []string{"a", "b", "c"}, r.Features())
}

func TestVersionReq_Matches(t *testing.T) {
	tests := []struct {
		req     string
		version string
		want    bool
	}{
		{">=1.0, <2.0", "1.2.0", true},
		{">=1.0, <2.0", "2.0.0", false},
		{"1.2", "1.9.3", true},
		{"1.2", "2.0.0", false},
		{"1.2", "1.1.0", false},
		{"^0.2.3", "0.2.9", true},
		{"^0.2.3", "0.3.0", false},
		{"~1.2", "1.2.7", true},
		{"~1.2", "1.3.0", false},
		{"=9.9.9", "9.9.9", true},
		{"=9.9.9", "9.9.8", false},
		{"*", "0.0.1", true},
		{"", "3.1.4", true},
		{"1.*", "1.7.0", true},
		{"1.*", "2.0.0", false},
		{"*", "1.0.0-alpha.1", false},
	}
	for _, tt := range tests {
		t.Run(tt.req+"/"+tt.version, func(t *testing.T) {
			r := MustParseVersionReq(tt.req)
			assert.Equal(t, tt.want, r.Matches(semver.MustParse(tt.version)))
		})
	}
}

func TestMustParseVersionReq_PanicsOnMalformed(t *testing.T) {
	assert.Panics(t, func() { MustParseVersionReq("1.2, ,") })
}

func TestVersionReq_ZeroValueMatchesNothing(t *testing.T) {
	var r VersionReq
	assert.False(t, r.Matches(semver.MustParse("1.0.0")))
	assert.Equal(t, AnyVersion, r.String())
}
