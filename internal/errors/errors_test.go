package errors

import (
	"bytes"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYoumuError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *YoumuError
		expected string
	}{
		{
			name:     "error without cause",
			err:      New(CategoryConfig, SeverityFatal, "configuration invalid"),
			expected: "config: configuration invalid",
		},
		{
			name:     "error with cause",
			err:      Wrap(fmt.Errorf("exit status 101"), CategoryBuild, SeverityError, "build failed"),
			expected: "build: build failed: exit status 101",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, test.err.Error())
		})
	}
}

func TestClassificationThroughWrapping(t *testing.T) {
	err := fmt.Errorf("resolve demo: %w", ConstraintUnsatisfiable("demo", "=9.9.9"))

	assert.True(t, IsCategory(err, CategoryResolution))
	assert.True(t, HasReason(err, ReasonConstraintUnsatisfiable))
	assert.False(t, HasReason(err, ReasonNotFound))
	assert.Equal(t, CategoryResolution, GetCategory(err))
	assert.Equal(t, CategoryInternal, GetCategory(fmt.Errorf("plain")))
	assert.False(t, IsCategory(fmt.Errorf("plain"), CategoryConfig))
}

func TestRetryableOnlyForFetch(t *testing.T) {
	assert.True(t, IsRetryable(FetchError("https://index.crates.io", fmt.Errorf("timeout"))))
	assert.False(t, IsRetryable(BuildError(fmt.Errorf("exit status 101"))))
	assert.False(t, IsRetryable(fmt.Errorf("plain")))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusOK, HTTPStatus(nil))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(ConfigError("expected package name")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(NotFound("demo")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(WorkspaceError("mkdir", fmt.Errorf("denied"))))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(fmt.Errorf("plain")))
}

func TestCLIErrorAdapter_ExitCodes(t *testing.T) {
	a := NewCLIErrorAdapter(false, nil)
	cases := map[int]error{
		0:  nil,
		1:  fmt.Errorf("plain"),
		7:  ConfigError("bad"),
		3:  NotFound("demo"),
		8:  FetchError("u", fmt.Errorf("x")),
		11: BuildError(fmt.Errorf("x")),
		10: InternalError("x", nil),
	}
	for code, err := range cases {
		assert.Equal(t, code, a.ExitCodeFor(err), "error %v", err)
	}
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var out bytes.Buffer
	var exitCode int
	a := NewCLIErrorAdapter(false, nil)
	a.out = &out
	a.exit = func(c int) { exitCode = c }

	a.HandleError(ConstraintUnsatisfiable("demo", "=9.9.9"))

	require.Equal(t, 3, exitCode)
	assert.Equal(t, "unable to find specified version\n", out.String())
}
