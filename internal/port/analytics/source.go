// Package analytics defines the port for churn/defect analytics sources.
package analytics

import "context"

// FileStats is one row of raw per-file activity data. Health status is
// not part of the row; it is derived downstream so it can never drift
// from its inputs.
type FileStats struct {
	Path         string
	Churn        int
	BugFrequency int
}

// OverviewStats is raw repository-level activity data.
type OverviewStats struct {
	TotalCommits       int
	ActiveContributors int
	AvgFileChurn       int
}

// Source supplies activity data for a repository. Rows may cover only a
// subset of the requested files; callers zero-fill the gaps.
type Source interface {
	FileStats(ctx context.Context, repoName string, files []string) ([]FileStats, error)
	Overview(ctx context.Context, repoName string) (*OverviewStats, error)
}
