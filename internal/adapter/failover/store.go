// Package failover implements the database.Store port as a dual-tier
// store: a durable primary tier with automatic demotion to an in-process
// fallback tier when the primary is unreachable.
package failover

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/openroad-dev/openroad/internal/domain"
	"github.com/openroad-dev/openroad/internal/domain/roadmap"
	"github.com/openroad-dev/openroad/internal/port/database"
)

// ConnectFunc lazily establishes the durable tier. It is invoked on
// first use and again on later operations while the tier is down; that
// re-attempt is the only recovery path (no background health check).
type ConnectFunc func(ctx context.Context) (database.Store, error)

// Store routes operations to the durable tier while it is reachable and
// to the fallback tier otherwise. Save and read failures on the durable
// tier are retried transparently against the fallback; update and delete
// failures propagate to the caller.
type Store struct {
	mu        sync.Mutex
	connect   ConnectFunc
	primary   database.Store
	available bool
	fallback  database.Store
	log       *slog.Logger
}

// NewStore creates a dual-tier store. connect may be nil when no durable
// tier is configured; everything then runs on the fallback.
func NewStore(connect ConnectFunc, fallback database.Store, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{connect: connect, fallback: fallback, log: log}
}

// Durable reports whether the durable tier is currently serving
// operations.
func (s *Store) Durable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.available && s.primary != nil
}

// acquire returns the durable store, or nil while it is unavailable.
// Connection establishment is serialized so the first successful caller
// wins and later callers reuse the connection.
func (s *Store) acquire(ctx context.Context) database.Store {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.available && s.primary != nil {
		return s.primary
	}
	if s.connect == nil {
		return nil
	}

	st, err := s.connect(ctx)
	if err != nil {
		s.available = false
		s.log.Warn("durable store unavailable, routing to in-memory tier", "error", err)
		return nil
	}

	s.primary = st
	s.available = true
	s.log.Info("durable store connected")
	return st
}

// demote clears the availability flag after an operation failure so the
// next operation re-attempts the connection.
func (s *Store) demote(op string, err error) {
	s.mu.Lock()
	s.available = false
	s.primary = nil
	s.mu.Unlock()
	s.log.Warn("durable store operation failed, falling back to in-memory tier",
		"op", op, "error", err)
}

// SaveRoadmap writes to the durable tier, falling back to the in-memory
// tier on any failure. Callers never observe a raw storage failure here.
func (s *Store) SaveRoadmap(ctx context.Context, r *roadmap.Roadmap) (*roadmap.Roadmap, error) {
	if st := s.acquire(ctx); st != nil {
		stored, err := st.SaveRoadmap(ctx, r)
		if err == nil {
			return stored, nil
		}
		s.demote("save", err)
	}
	return s.fallback.SaveRoadmap(ctx, r)
}

// GetRoadmapByURL reads from the durable tier; a NotFound result is a
// result, not a failure, and does not consult the fallback.
func (s *Store) GetRoadmapByURL(ctx context.Context, repoURL string) (*roadmap.Roadmap, error) {
	if st := s.acquire(ctx); st != nil {
		r, err := st.GetRoadmapByURL(ctx, repoURL)
		if err == nil || errors.Is(err, domain.ErrNotFound) {
			return r, err
		}
		s.demote("get", err)
	}
	return s.fallback.GetRoadmapByURL(ctx, repoURL)
}

// ListRecentRoadmaps lists from the durable tier, falling back on failure.
func (s *Store) ListRecentRoadmaps(ctx context.Context, limit int) ([]roadmap.Roadmap, error) {
	if st := s.acquire(ctx); st != nil {
		out, err := st.ListRecentRoadmaps(ctx, limit)
		if err == nil {
			return out, nil
		}
		s.demote("list", err)
	}
	return s.fallback.ListRecentRoadmaps(ctx, limit)
}

// UpdateRoadmap updates whichever tier is active. Durable-tier failures
// propagate; fallback does not apply to updates.
func (s *Store) UpdateRoadmap(ctx context.Context, id string, u roadmap.Update) error {
	if st := s.acquire(ctx); st != nil {
		return st.UpdateRoadmap(ctx, id, u)
	}
	return s.fallback.UpdateRoadmap(ctx, id, u)
}

// DeleteRoadmap deletes from whichever tier is active. Durable-tier
// failures propagate; fallback does not apply to deletes.
func (s *Store) DeleteRoadmap(ctx context.Context, id string) (*roadmap.Roadmap, error) {
	if st := s.acquire(ctx); st != nil {
		return st.DeleteRoadmap(ctx, id)
	}
	return s.fallback.DeleteRoadmap(ctx, id)
}
