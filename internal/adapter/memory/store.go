// Package memory implements the database.Store port with a
// process-lifetime map. It is the fallback tier when the durable store is
// unavailable: data does not survive a restart.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/openroad-dev/openroad/internal/domain"
	"github.com/openroad-dev/openroad/internal/domain/roadmap"
)

// Store keeps roadmaps keyed by repository URL, so a save replaces any
// prior entry for the same URL. Identifiers are locally unique timestamps
// since no external id authority exists in this tier.
type Store struct {
	mu     sync.RWMutex
	byURL  map[string]roadmap.Roadmap
	lastID int64
	now    func() time.Time // for testing
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		byURL: make(map[string]roadmap.Roadmap),
		now:   time.Now,
	}
}

// nextID returns a monotonically increasing timestamp identifier.
func (s *Store) nextID() string {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return strconv.FormatInt(id, 10)
}

// SaveRoadmap stores a copy of r under its repository URL.
func (s *Store) SaveRoadmap(_ context.Context, r *roadmap.Roadmap) (*roadmap.Roadmap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *r
	stored.ID = s.nextID()
	s.byURL[stored.RepoURL] = stored

	out := stored
	return &out, nil
}

// GetRoadmapByURL returns the stored roadmap for the URL.
func (s *Store) GetRoadmapByURL(_ context.Context, repoURL string) (*roadmap.Roadmap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.byURL[repoURL]
	if !ok {
		return nil, fmt.Errorf("roadmap for %s: %w", repoURL, domain.ErrNotFound)
	}
	out := r
	return &out, nil
}

// ListRecentRoadmaps returns up to limit roadmaps, most recent first.
func (s *Store) ListRecentRoadmaps(_ context.Context, limit int) ([]roadmap.Roadmap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]roadmap.Roadmap, 0, len(s.byURL))
	for _, r := range s.byURL {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// UpdateRoadmap applies a partial merge to the roadmap with the given id.
func (s *Store) UpdateRoadmap(_ context.Context, id string, u roadmap.Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for url, r := range s.byURL {
		if r.ID == id {
			u.Apply(&r, s.now())
			s.byURL[url] = r
			return nil
		}
	}
	return fmt.Errorf("update roadmap %s: %w", id, domain.ErrNotFound)
}

// DeleteRoadmap removes and returns the roadmap with the given id.
func (s *Store) DeleteRoadmap(_ context.Context, id string) (*roadmap.Roadmap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for url, r := range s.byURL {
		if r.ID == id {
			delete(s.byURL, url)
			out := r
			return &out, nil
		}
	}
	return nil, fmt.Errorf("delete roadmap %s: %w", id, domain.ErrNotFound)
}
