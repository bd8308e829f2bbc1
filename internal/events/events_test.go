package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "youmu.builds.started", Subject(DefaultSubject, BuildStarted))
	assert.Equal(t, "ci.docs.failed", Subject("ci.docs", BuildFailed))
}

func TestBuildEventJSON(t *testing.T) {
	ev := BuildEvent{
		Type:      BuildSucceeded,
		AttemptID: "a1",
		Package:   "demo",
		Source:    "^1",
		Version:   "1.5.0",
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	data, err := json.Marshal(ev)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "succeeded", got["type"])
	assert.Equal(t, "1.5.0", got["version"])
	assert.NotContains(t, got, "error")
	assert.NotContains(t, got, "publish_dir")
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}
	require.NoError(t, p.Publish(t.Context(), BuildEvent{Type: BuildStarted}))
	require.NoError(t, p.Close())
}

func TestNewNATSPublisher_Unreachable(t *testing.T) {
	_, err := NewNATSPublisher("nats://127.0.0.1:1", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to NATS")
}
