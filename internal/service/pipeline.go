package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/openroad-dev/openroad/internal/domain/roadmap"
	"github.com/openroad-dev/openroad/internal/port/notifier"
	"github.com/openroad-dev/openroad/internal/port/repohost"

	appmetrics "github.com/openroad-dev/openroad/internal/adapter/otel"
)

// Result is the outcome of an analyze run, flagging whether it was
// served from cache.
type Result struct {
	Roadmap *roadmap.Roadmap `json:"roadmap"`
	Cached  bool             `json:"cached"`
}

// PipelineService coordinates the full analyze flow: cache lookup,
// context fetch, provider analysis, health metrics, persistence, and
// completion notification.
type PipelineService struct {
	fetcher  repohost.Fetcher
	analysis *AnalysisService
	metrics  *MetricsService
	roadmaps *RoadmapService
	notifier notifier.Notifier
	instr    *appmetrics.Metrics
	log      *slog.Logger
	now      func() time.Time
}

func NewPipelineService(
	fetcher repohost.Fetcher,
	analysis *AnalysisService,
	metrics *MetricsService,
	roadmaps *RoadmapService,
	n notifier.Notifier,
	instr *appmetrics.Metrics,
	log *slog.Logger,
) *PipelineService {
	if log == nil {
		log = slog.Default()
	}
	return &PipelineService{
		fetcher:  fetcher,
		analysis: analysis,
		metrics:  metrics,
		roadmaps: roadmaps,
		notifier: n,
		instr:    instr,
		log:      log,
		now:      time.Now,
	}
}

// Analyze runs the pipeline for a repository URL. Unless force is set, a
// fresh stored roadmap short-circuits the run. Stages execute strictly in
// order and the first failure aborts the whole run; nothing partial is
// persisted.
func (s *PipelineService) Analyze(ctx context.Context, repoURL string, force bool) (*Result, error) {
	runID := uuid.NewString()
	log := s.log.With("run_id", runID, "url", repoURL)
	start := s.now()

	if s.instr != nil {
		s.instr.AnalysesStarted.Add(ctx, 1)
	}

	if !force {
		if r := s.roadmaps.Cached(ctx, repoURL); r != nil {
			log.Info("analysis served from cache", "roadmap_id", r.ID)
			if s.instr != nil {
				s.instr.CacheHits.Add(ctx, 1)
			}
			s.notify(ctx, repoURL, r.ID, true)
			return &Result{Roadmap: r, Cached: true}, nil
		}
	}

	rc, err := s.fetcher.Fetch(ctx, repoURL)
	if err != nil {
		return nil, s.fail(ctx, log, "context fetch", err)
	}
	log.Info("repository context fetched", "repo", rc.RepoName, "files", len(rc.FileTree))

	analysis, err := s.analysis.Analyze(ctx, rc)
	if err != nil {
		return nil, s.fail(ctx, log, "analysis", err)
	}

	files := make([]string, 0, len(analysis.EntryPoints))
	for _, ep := range analysis.EntryPoints {
		files = append(files, ep.File)
	}
	health := s.metrics.ForFiles(ctx, rc.RepoName, files)

	now := s.now().UTC()
	stored, err := s.roadmaps.Save(ctx, &roadmap.Roadmap{
		RepoURL:       repoURL,
		RepoName:      rc.RepoName,
		Owner:         rc.Owner,
		Analysis:      *analysis,
		HealthMetrics: health,
		FileTree:      rc.FileTree,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return nil, s.fail(ctx, log, "persistence", err)
	}

	log.Info("analysis complete", "roadmap_id", stored.ID, "entry_points", len(stored.Analysis.EntryPoints))
	if s.instr != nil {
		s.instr.AnalysesCompleted.Add(ctx, 1)
		s.instr.PipelineDuration.Record(ctx, s.now().Sub(start).Seconds())
	}
	s.notify(ctx, repoURL, stored.ID, false)

	return &Result{Roadmap: stored, Cached: false}, nil
}

func (s *PipelineService) fail(ctx context.Context, log *slog.Logger, stage string, err error) error {
	log.Error("pipeline stage failed", "stage", stage, "error", err)
	if s.instr != nil {
		s.instr.AnalysesFailed.Add(ctx, 1)
	}
	return err
}

func (s *PipelineService) notify(ctx context.Context, repoURL, roadmapID string, cached bool) {
	if s.notifier == nil {
		return
	}
	ev := notifier.Event{
		Type:      notifier.EventRoadmapAnalyzed,
		RepoURL:   repoURL,
		RoadmapID: roadmapID,
		Cached:    cached,
		At:        s.now().UTC(),
	}
	if err := s.notifier.Publish(ctx, ev); err != nil {
		s.log.Warn("completion event publish failed", "url", repoURL, "error", err)
	}
}
