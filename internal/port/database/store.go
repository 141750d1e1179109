// Package database defines the storage port for roadmap documents.
package database

import (
	"context"

	"github.com/openroad-dev/openroad/internal/domain/roadmap"
)

// Store persists Roadmap documents. Implementations assign their native
// identifier on save and must keep repoUrl usable as a lookup key with
// createdAt as the recency sort key.
type Store interface {
	// SaveRoadmap inserts r and returns the stored copy with its
	// identifier assigned.
	SaveRoadmap(ctx context.Context, r *roadmap.Roadmap) (*roadmap.Roadmap, error)

	// GetRoadmapByURL returns the most recently created roadmap for the
	// URL, or domain.ErrNotFound.
	GetRoadmapByURL(ctx context.Context, repoURL string) (*roadmap.Roadmap, error)

	// ListRecentRoadmaps returns up to limit roadmaps, most recent first.
	ListRecentRoadmaps(ctx context.Context, limit int) ([]roadmap.Roadmap, error)

	// UpdateRoadmap applies a partial merge and refreshes updatedAt.
	// Returns domain.ErrNotFound when no document has the identifier.
	UpdateRoadmap(ctx context.Context, id string, u roadmap.Update) error

	// DeleteRoadmap removes a roadmap and returns the removed document,
	// or domain.ErrNotFound.
	DeleteRoadmap(ctx context.Context, id string) (*roadmap.Roadmap, error)
}
