// Package roadmap contains the domain models for repository roadmaps:
// the fetched repository context, the AI analysis, per-file health
// metrics, and the persisted Roadmap aggregate.
package roadmap

import "time"

// FileKind distinguishes files from directories in a fetched tree.
type FileKind string

const (
	KindFile FileKind = "file"
	KindDir  FileKind = "dir"
)

// FileEntry is a single node of a filtered repository file tree.
type FileEntry struct {
	Path      string   `json:"path"`
	Kind      FileKind `json:"kind"`
	Name      string   `json:"name"`
	SizeBytes int64    `json:"sizeBytes,omitempty"`
}

// RepoContext is the description document plus filtered file tree fetched
// for one repository. Produced fresh per request, never cached on its own.
type RepoContext struct {
	Description string      `json:"description"`
	FileTree    []FileEntry `json:"fileTree"`
	RepoName    string      `json:"repoName"`
	Owner       string      `json:"owner"`
}

// Difficulty tags an entry point for new contributors.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// CoerceDifficulty maps arbitrary provider output onto the three-valued
// enum. Anything unrecognized becomes intermediate.
func CoerceDifficulty(s string) Difficulty {
	switch Difficulty(s) {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return Difficulty(s)
	default:
		return DifficultyIntermediate
	}
}

// EntryPoint is a file nominated as a good starting task for a new
// contributor.
type EntryPoint struct {
	File        string     `json:"file"`
	Description string     `json:"description"`
	Difficulty  Difficulty `json:"difficulty"`
}

// Analysis is the repaired, invariant-safe result of an AI analysis call.
type Analysis struct {
	TechStack           []string     `json:"techStack"`
	ArchitectureSummary string       `json:"architectureSummary"`
	DataFlow            string       `json:"dataFlow"`
	EntryPoints         []EntryPoint `json:"entryPoints"`
}

// Roadmap is the aggregate persisted per analyzed repository.
type Roadmap struct {
	ID            string         `json:"id,omitempty"`
	RepoURL       string         `json:"repoUrl"`
	RepoName      string         `json:"repoName"`
	Owner         string         `json:"owner"`
	Analysis      Analysis       `json:"analysis"`
	HealthMetrics []HealthMetric `json:"healthMetrics"`
	FileTree      []FileEntry    `json:"fileTree"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// Update is a partial field merge applied to a stored roadmap.
// Nil fields are left untouched; any update refreshes UpdatedAt.
type Update struct {
	Analysis      *Analysis      `json:"analysis,omitempty"`
	HealthMetrics []HealthMetric `json:"healthMetrics,omitempty"`
	FileTree      []FileEntry    `json:"fileTree,omitempty"`
}

// Apply merges u into r and refreshes UpdatedAt.
func (u Update) Apply(r *Roadmap, now time.Time) {
	if u.Analysis != nil {
		r.Analysis = *u.Analysis
	}
	if u.HealthMetrics != nil {
		r.HealthMetrics = u.HealthMetrics
	}
	if u.FileTree != nil {
		r.FileTree = u.FileTree
	}
	r.UpdatedAt = now
}
