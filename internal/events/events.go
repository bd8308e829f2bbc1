// Package events publishes build lifecycle notifications.
package events

import (
	"context"
	"time"
)

// Type names a build lifecycle transition.
type Type string

const (
	BuildStarted   Type = "started"
	BuildSucceeded Type = "succeeded"
	BuildFailed    Type = "failed"
)

// BuildEvent describes one transition of a documentation attempt.
type BuildEvent struct {
	Type       Type      `json:"type"`
	AttemptID  string    `json:"attempt_id"`
	Package    string    `json:"package"`
	Source     string    `json:"source"`
	Version    string    `json:"version,omitempty"`
	PublishDir string    `json:"publish_dir,omitempty"`
	Category   string    `json:"category,omitempty"`
	Error      string    `json:"error,omitempty"`
	DurationMS int64     `json:"duration_ms,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Publisher delivers build events. Delivery is best effort; callers log and
// otherwise ignore errors.
type Publisher interface {
	Publish(ctx context.Context, ev BuildEvent) error
	Close() error
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, BuildEvent) error { return nil }
func (NoopPublisher) Close() error                              { return nil }
