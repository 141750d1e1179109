package service

import (
	"context"
	"log/slog"

	"github.com/openroad-dev/openroad/internal/domain/roadmap"
	"github.com/openroad-dev/openroad/internal/port/analytics"
)

// MetricsService resolves health metrics from a live analytics source
// with a deterministic synthetic fallback. The live source is optional;
// when nil every call is served synthetically.
type MetricsService struct {
	live      analytics.Source
	synthetic analytics.Source
	log       *slog.Logger
}

func NewMetricsService(live, synthetic analytics.Source, log *slog.Logger) *MetricsService {
	if log == nil {
		log = slog.Default()
	}
	return &MetricsService{live: live, synthetic: synthetic, log: log}
}

// ForFiles resolves one HealthMetric per requested file, in request
// order. Any live-source failure falls back to synthetic data for the
// whole call, never per file. This method does not fail.
func (s *MetricsService) ForFiles(ctx context.Context, repoName string, files []string) []roadmap.HealthMetric {
	stats := s.fileStats(ctx, repoName, files)

	byPath := make(map[string]analytics.FileStats, len(stats))
	for _, st := range stats {
		byPath[st.Path] = st
	}

	out := make([]roadmap.HealthMetric, 0, len(files))
	for _, f := range files {
		st := byPath[f]
		out = append(out, roadmap.HealthMetric{
			File:         f,
			Churn:        st.Churn,
			BugFrequency: st.BugFrequency,
			Status:       roadmap.StatusFor(st.Churn, st.BugFrequency),
		})
	}
	return out
}

// Overview resolves repository-level aggregates with the same live or
// synthetic duality as ForFiles.
func (s *MetricsService) Overview(ctx context.Context, repoName string) *roadmap.RepoOverview {
	if s.live != nil {
		ov, err := s.live.Overview(ctx, repoName)
		if err == nil {
			return &roadmap.RepoOverview{
				TotalCommits:       ov.TotalCommits,
				ActiveContributors: ov.ActiveContributors,
				AvgFileChurn:       ov.AvgFileChurn,
			}
		}
		s.log.Warn("analytics source unavailable, using synthetic overview", "repo", repoName, "error", err)
	}

	ov, _ := s.synthetic.Overview(ctx, repoName)
	return &roadmap.RepoOverview{
		TotalCommits:       ov.TotalCommits,
		ActiveContributors: ov.ActiveContributors,
		AvgFileChurn:       ov.AvgFileChurn,
	}
}

func (s *MetricsService) fileStats(ctx context.Context, repoName string, files []string) []analytics.FileStats {
	if s.live != nil {
		stats, err := s.live.FileStats(ctx, repoName, files)
		if err == nil {
			return stats
		}
		s.log.Warn("analytics source unavailable, using synthetic metrics", "repo", repoName, "error", err)
	}

	stats, _ := s.synthetic.FileStats(ctx, repoName, files)
	return stats
}
