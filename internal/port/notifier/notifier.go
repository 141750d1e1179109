// Package notifier defines the port for publishing pipeline completion events.
package notifier

import (
	"context"
	"time"
)

// Event announces a completed repository analysis.
type Event struct {
	Type      string    `json:"type"`
	RepoURL   string    `json:"repo_url"`
	RoadmapID string    `json:"roadmap_id,omitempty"`
	Cached    bool      `json:"cached"`
	At        time.Time `json:"at"`
}

// EventRoadmapAnalyzed is published after each successful analyze operation.
const EventRoadmapAnalyzed = "roadmap.analyzed"

// Notifier publishes events to interested consumers. Publishing is
// best-effort; failures are logged, never surfaced to the pipeline caller.
type Notifier interface {
	Publish(ctx context.Context, ev Event) error
}
