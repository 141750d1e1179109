package roadmap

import (
	"testing"
	"time"
)

func TestCoerceDifficulty(t *testing.T) {
	tests := []struct {
		in   string
		want Difficulty
	}{
		{"beginner", DifficultyBeginner},
		{"intermediate", DifficultyIntermediate},
		{"advanced", DifficultyAdvanced},
		{"expert", DifficultyIntermediate},
		{"Beginner", DifficultyIntermediate},
		{"", DifficultyIntermediate},
	}

	for _, tt := range tests {
		if got := CoerceDifficulty(tt.in); got != tt.want {
			t.Errorf("CoerceDifficulty(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUpdateApply(t *testing.T) {
	created := time.Unix(1700000000, 0)
	later := created.Add(time.Hour)

	r := Roadmap{
		Analysis:      Analysis{ArchitectureSummary: "original"},
		HealthMetrics: []HealthMetric{{File: "a.go"}},
		FileTree:      []FileEntry{{Path: "a.go", Kind: KindFile}},
		CreatedAt:     created,
		UpdatedAt:     created,
	}

	// Empty update touches nothing but the timestamp.
	Update{}.Apply(&r, later)
	if r.Analysis.ArchitectureSummary != "original" {
		t.Error("empty update modified analysis")
	}
	if len(r.HealthMetrics) != 1 || len(r.FileTree) != 1 {
		t.Error("empty update modified collections")
	}
	if !r.UpdatedAt.Equal(later) {
		t.Errorf("updatedAt = %v, want %v", r.UpdatedAt, later)
	}
	if !r.CreatedAt.Equal(created) {
		t.Error("createdAt changed")
	}

	// Partial update replaces only the named fields.
	Update{Analysis: &Analysis{ArchitectureSummary: "replaced"}}.Apply(&r, later.Add(time.Hour))
	if r.Analysis.ArchitectureSummary != "replaced" {
		t.Error("analysis not replaced")
	}
	if r.HealthMetrics[0].File != "a.go" {
		t.Error("health metrics modified by analysis-only update")
	}
}

func TestStatusForBoundaries(t *testing.T) {
	// Hot wins over stable conditions; exact thresholds are moderate.
	if got := StatusFor(36, 16); got != StatusHot {
		t.Errorf("StatusFor(36, 16) = %q, want hot", got)
	}
	if got := StatusFor(35, 15); got != StatusModerate {
		t.Errorf("StatusFor(35, 15) = %q, want moderate", got)
	}
	if got := StatusFor(14, 4); got != StatusStable {
		t.Errorf("StatusFor(14, 4) = %q, want stable", got)
	}
}
