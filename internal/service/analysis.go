package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/openroad-dev/openroad/internal/domain"
	"github.com/openroad-dev/openroad/internal/domain/roadmap"
	"github.com/openroad-dev/openroad/internal/port/llm"
)

// systemPrompt is the fixed instruction preamble sent with every
// analysis request.
const systemPrompt = `You are a Senior Open Source Maintainer with deep expertise in code architecture and onboarding new contributors.

Analyze the provided README and file structure. Output a JSON object containing:

1) techStack: An array of technologies, frameworks, and languages used in the project (inferred from file extensions, package files, and README content).

2) architectureSummary: A concise 2-sentence summary of the project's architecture and purpose.

3) dataFlow: A description of how data moves through the application, from entry points to storage/output.

4) entryPoints: An array of exactly 3 specific files/tasks suitable for a first-time contributor. Each entry point should have:
   - file: The path to the file
   - description: Why this is a good starting point and what could be improved
   - difficulty: One of "beginner", "intermediate", or "advanced"

Focus on identifying:
- Good first issues (documentation improvements, small bug fixes, test additions)
- Files that are well-documented and self-contained
- Areas where new contributors can make meaningful impact

IMPORTANT: Respond ONLY with valid JSON. No markdown, no code blocks, no explanations outside the JSON.`

// maxDescriptionBytes caps the description text included in a prompt to
// keep token cost bounded.
const maxDescriptionBytes = 8000

// Repair placeholders for missing or malformed analysis fields.
const (
	placeholderSummary     = "Architecture analysis not available."
	placeholderDataFlow    = "Data flow analysis not available."
	placeholderFile        = "Unknown file"
	placeholderDescription = "No description available"
)

var codeFencePattern = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)```")

// GenerationParams are the provider-agnostic generation settings applied
// to every analysis call.
type GenerationParams struct {
	Temperature     float64
	TopK            int
	TopP            float64
	MaxOutputTokens int
}

// AnalysisService drives the provider fallback chain and normalizes the
// first successful response into an invariant-safe Analysis.
type AnalysisService struct {
	providers []llm.Provider
	params    GenerationParams
	log       *slog.Logger
}

// NewAnalysisService creates an AnalysisService over an ordered provider
// chain. Providers are tried strictly in order, never raced.
func NewAnalysisService(providers []llm.Provider, params GenerationParams, log *slog.Logger) *AnalysisService {
	if log == nil {
		log = slog.Default()
	}
	return &AnalysisService{providers: providers, params: params, log: log}
}

// Analyze builds a prompt from the context and walks the provider chain.
// A transport failure or empty payload advances to the next provider; the
// first non-empty payload is parsed and repaired. A parse failure after a
// successful call surfaces domain.ErrParse without further advancement,
// since the cost of the call has already been paid.
func (s *AnalysisService) Analyze(ctx context.Context, rc *roadmap.RepoContext) (*roadmap.Analysis, error) {
	req := llm.Request{
		System:          systemPrompt,
		Prompt:          buildPrompt(rc),
		Temperature:     s.params.Temperature,
		TopK:            s.params.TopK,
		TopP:            s.params.TopP,
		MaxOutputTokens: s.params.MaxOutputTokens,
	}

	var lastErr error
	for _, p := range s.providers {
		text, err := p.Generate(ctx, req)
		if err != nil {
			s.log.Warn("analysis provider failed", "provider", p.Name(), "error", err)
			lastErr = err
			continue
		}
		s.log.Info("analysis provider succeeded", "provider", p.Name())
		return parseAnalysis(text)
	}

	return nil, fmt.Errorf("%w: last error: %v", domain.ErrProviderExhausted, lastErr)
}

// buildPrompt serializes the repository context: truncated description
// plus the file tree as a flat kind-annotated list.
func buildPrompt(rc *roadmap.RepoContext) string {
	var tree strings.Builder
	for _, f := range rc.FileTree {
		marker := "[file]"
		if f.Kind == roadmap.KindDir {
			marker = "[dir] "
		}
		tree.WriteString(marker)
		tree.WriteString(" ")
		tree.WriteString(f.Path)
		tree.WriteString("\n")
	}

	desc := rc.Description
	if len(desc) > maxDescriptionBytes {
		cut := maxDescriptionBytes
		for cut > 0 && !utf8.RuneStart(desc[cut]) {
			cut--
		}
		desc = desc[:cut]
	}

	return fmt.Sprintf(`Analyze this repository:

## Repository: %s/%s

## README Content:
%s

## File Structure:
%s
Provide your analysis as a JSON object.`, rc.Owner, rc.RepoName, desc, tree.String())
}

// parseAnalysis treats provider output as untrusted: it strips a Markdown
// code fence if present, requires valid JSON, then repairs every field
// rather than rejecting the result.
func parseAnalysis(text string) (*roadmap.Analysis, error) {
	raw := strings.TrimSpace(text)
	if m := codeFencePattern.FindStringSubmatch(raw); m != nil {
		raw = strings.TrimSpace(m[1])
	}

	var loose map[string]any
	if err := json.Unmarshal([]byte(raw), &loose); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}

	return repairAnalysis(loose), nil
}

// repairAnalysis fills missing or mistyped fields with safe defaults so
// the returned Analysis always satisfies its invariants.
func repairAnalysis(loose map[string]any) *roadmap.Analysis {
	a := &roadmap.Analysis{
		TechStack:           stringSlice(loose["techStack"]),
		ArchitectureSummary: stringOr(loose["architectureSummary"], placeholderSummary),
		DataFlow:            stringOr(loose["dataFlow"], placeholderDataFlow),
		EntryPoints:         []roadmap.EntryPoint{},
	}
	if len(a.TechStack) == 0 {
		a.TechStack = []string{"Unknown"}
	}

	eps, _ := loose["entryPoints"].([]any)
	for _, e := range eps {
		fields, ok := e.(map[string]any)
		if !ok {
			continue
		}
		diff, _ := fields["difficulty"].(string)
		a.EntryPoints = append(a.EntryPoints, roadmap.EntryPoint{
			File:        stringOr(fields["file"], placeholderFile),
			Description: stringOr(fields["description"], placeholderDescription),
			Difficulty:  roadmap.CoerceDifficulty(diff),
		})
	}

	return a
}

// stringOr returns v when it is a non-empty string, else fallback.
func stringOr(v any, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}

// stringSlice extracts the string elements of an untyped array.
func stringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
