package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	oldV, oldC, oldB := Version, GitCommit, BuildTime
	t.Cleanup(func() { Version, GitCommit, BuildTime = oldV, oldC, oldB })

	Version, GitCommit, BuildTime = "v1.2.3", "abc1234", "2026-01-02"
	assert.Equal(t, "youmu v1.2.3 (commit abc1234, built 2026-01-02)", String())
}

func TestDefaults(t *testing.T) {
	assert.NotEmpty(t, Version)
	assert.NotEmpty(t, BuildTime)
	assert.NotEmpty(t, GitCommit)
}
