package roadmap

// HealthStatus classifies a file's churn/defect signal.
type HealthStatus string

const (
	StatusHot      HealthStatus = "hot"
	StatusStable   HealthStatus = "stable"
	StatusModerate HealthStatus = "moderate"
)

// HealthMetric is the churn/defect-frequency signal for one file.
// Status is always derived from Churn and BugFrequency via StatusFor,
// never stored independently of its inputs.
type HealthMetric struct {
	File         string       `json:"file"`
	Churn        int          `json:"churn"`
	BugFrequency int          `json:"bugFrequency"`
	Status       HealthStatus `json:"status"`
}

// StatusFor derives the health status from churn and bug frequency.
// The hot check runs first: at boundary values like (36, 0) the result
// is hot, not moderate.
func StatusFor(churn, bugFrequency int) HealthStatus {
	switch {
	case churn > 35 || bugFrequency > 15:
		return StatusHot
	case churn < 15 && bugFrequency < 5:
		return StatusStable
	default:
		return StatusModerate
	}
}

// RepoOverview aggregates repository-level activity counts.
type RepoOverview struct {
	TotalCommits       int `json:"totalCommits"`
	ActiveContributors int `json:"activeContributors"`
	AvgFileChurn       int `json:"avgFileChurn"`
}
