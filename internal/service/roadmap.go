package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/openroad-dev/openroad/internal/domain/roadmap"
	"github.com/openroad-dev/openroad/internal/port/cache"
	"github.com/openroad-dev/openroad/internal/port/database"
)

// defaultRecentRoadmaps is the list size when the caller does not ask
// for one; maxRecentRoadmaps bounds list queries.
const (
	defaultRecentRoadmaps = 10
	maxRecentRoadmaps     = 50
)

// RoadmapService wraps the roadmap store with an L1 cache and read-time
// freshness checks keyed on createdAt.
type RoadmapService struct {
	store  database.Store
	cache  cache.Cache
	maxAge time.Duration
	log    *slog.Logger
	now    func() time.Time
}

func NewRoadmapService(store database.Store, c cache.Cache, maxAge time.Duration, log *slog.Logger) *RoadmapService {
	if log == nil {
		log = slog.Default()
	}
	return &RoadmapService{
		store:  store,
		cache:  c,
		maxAge: maxAge,
		log:    log,
		now:    time.Now,
	}
}

// Save persists a roadmap and populates the L1 cache with the stored
// copy. Cache failures are logged, never surfaced.
func (s *RoadmapService) Save(ctx context.Context, r *roadmap.Roadmap) (*roadmap.Roadmap, error) {
	stored, err := s.store.SaveRoadmap(ctx, r)
	if err != nil {
		return nil, err
	}
	s.cachePut(ctx, stored)
	return stored, nil
}

// ByURL returns the most recent roadmap for the URL regardless of age.
func (s *RoadmapService) ByURL(ctx context.Context, repoURL string) (*roadmap.Roadmap, error) {
	return s.store.GetRoadmapByURL(ctx, repoURL)
}

// Recent lists up to limit roadmaps, most recent first. Non-positive
// limits take the default; larger ones are clamped to a fixed ceiling.
func (s *RoadmapService) Recent(ctx context.Context, limit int) ([]roadmap.Roadmap, error) {
	if limit <= 0 {
		limit = defaultRecentRoadmaps
	}
	if limit > maxRecentRoadmaps {
		limit = maxRecentRoadmaps
	}
	return s.store.ListRecentRoadmaps(ctx, limit)
}

// Update applies a partial merge to the identified roadmap.
func (s *RoadmapService) Update(ctx context.Context, id string, u roadmap.Update) error {
	return s.store.UpdateRoadmap(ctx, id, u)
}

// Delete removes a roadmap and invalidates its cache entry.
func (s *RoadmapService) Delete(ctx context.Context, id string) error {
	removed, err := s.store.DeleteRoadmap(ctx, id)
	if err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, removed.RepoURL); err != nil {
			s.log.Warn("cache invalidation failed", "url", removed.RepoURL, "error", err)
		}
	}
	return nil
}

// Cached returns the roadmap for the URL only when one exists and its
// age is within maxAge. An entry strictly older than maxAge is a miss;
// exactly maxAge old is still fresh. Returns nil on a miss.
func (s *RoadmapService) Cached(ctx context.Context, repoURL string) *roadmap.Roadmap {
	if r := s.cacheGet(ctx, repoURL); r != nil {
		if s.fresh(r) {
			return r
		}
	}

	r, err := s.store.GetRoadmapByURL(ctx, repoURL)
	if err != nil {
		return nil
	}
	if !s.fresh(r) {
		return nil
	}
	s.cachePut(ctx, r)
	return r
}

func (s *RoadmapService) fresh(r *roadmap.Roadmap) bool {
	return s.now().Sub(r.CreatedAt) <= s.maxAge
}

func (s *RoadmapService) cacheGet(ctx context.Context, repoURL string) *roadmap.Roadmap {
	if s.cache == nil {
		return nil
	}
	data, ok, err := s.cache.Get(ctx, repoURL)
	if err != nil || !ok {
		return nil
	}
	var r roadmap.Roadmap
	if err := json.Unmarshal(data, &r); err != nil {
		return nil
	}
	return &r
}

func (s *RoadmapService) cachePut(ctx context.Context, r *roadmap.Roadmap) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(r)
	if err != nil {
		return
	}
	ttl := s.maxAge - s.now().Sub(r.CreatedAt)
	if ttl <= 0 {
		return
	}
	if err := s.cache.Set(ctx, r.RepoURL, data, ttl); err != nil {
		s.log.Warn("cache write failed", "url", r.RepoURL, "error", err)
	}
}
