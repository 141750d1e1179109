package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/openroad-dev/openroad/internal/adapter/memory"
	"github.com/openroad-dev/openroad/internal/adapter/synthetic"
	"github.com/openroad-dev/openroad/internal/domain"
	"github.com/openroad-dev/openroad/internal/domain/roadmap"
	"github.com/openroad-dev/openroad/internal/port/llm"
	"github.com/openroad-dev/openroad/internal/port/notifier"
)

// fakeFetcher returns a canned context or error and counts calls.
type fakeFetcher struct {
	rc    *roadmap.RepoContext
	err   error
	calls int
}

func (f *fakeFetcher) Fetch(_ context.Context, _ string) (*roadmap.RepoContext, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.rc, nil
}

// recordingNotifier captures published events.
type recordingNotifier struct {
	events []notifier.Event
	err    error
}

func (n *recordingNotifier) Publish(_ context.Context, ev notifier.Event) error {
	n.events = append(n.events, ev)
	return n.err
}

func newPipeline(fetcher *fakeFetcher, provider llm.Provider, store *memory.Store, n notifier.Notifier) *PipelineService {
	roadmaps := NewRoadmapService(store, newMapCache(), time.Hour, nil)
	analysis := NewAnalysisService([]llm.Provider{provider}, GenerationParams{}, nil)
	metrics := NewMetricsService(nil, synthetic.New(), nil)
	return NewPipelineService(fetcher, analysis, metrics, roadmaps, n, nil, nil)
}

func TestAnalyzeEndToEnd(t *testing.T) {
	fetcher := &fakeFetcher{rc: testContext()}
	provider := &scriptedProvider{name: "a", payload: validPayload}
	store := memory.NewStore()
	events := &recordingNotifier{}
	svc := newPipeline(fetcher, provider, store, events)

	result, err := svc.Analyze(context.Background(), "https://github.com/octocat/demo", false)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if result.Cached {
		t.Error("fresh run reported as cached")
	}

	r := result.Roadmap
	if r.ID == "" {
		t.Error("roadmap not persisted")
	}
	if r.RepoName != "demo" || r.Owner != "octocat" {
		t.Errorf("identity = %s/%s", r.Owner, r.RepoName)
	}
	if len(r.HealthMetrics) != len(r.Analysis.EntryPoints) {
		t.Errorf("got %d health metrics for %d entry points",
			len(r.HealthMetrics), len(r.Analysis.EntryPoints))
	}
	for i, m := range r.HealthMetrics {
		if m.File != r.Analysis.EntryPoints[i].File {
			t.Errorf("metric %d file = %q, want %q", i, m.File, r.Analysis.EntryPoints[i].File)
		}
	}
	if r.CreatedAt.Location() != time.UTC {
		t.Error("createdAt not UTC")
	}

	if len(events.events) != 1 {
		t.Fatalf("got %d events, want 1", len(events.events))
	}
	ev := events.events[0]
	if ev.Type != notifier.EventRoadmapAnalyzed || ev.Cached || ev.RoadmapID != r.ID {
		t.Errorf("event = %+v", ev)
	}

	// The roadmap must now be retrievable by URL.
	stored, err := store.GetRoadmapByURL(context.Background(), "https://github.com/octocat/demo")
	if err != nil {
		t.Fatalf("GetRoadmapByURL: %v", err)
	}
	if stored.ID != r.ID {
		t.Errorf("stored id = %s, want %s", stored.ID, r.ID)
	}
}

func TestAnalyzeServedFromCache(t *testing.T) {
	fetcher := &fakeFetcher{rc: testContext()}
	provider := &scriptedProvider{name: "a", payload: validPayload}
	store := memory.NewStore()
	events := &recordingNotifier{}
	svc := newPipeline(fetcher, provider, store, events)
	ctx := context.Background()

	first, _ := svc.Analyze(ctx, "https://github.com/octocat/demo", false)
	second, err := svc.Analyze(ctx, "https://github.com/octocat/demo", false)
	if err != nil {
		t.Fatalf("second Analyze: %v", err)
	}

	if !second.Cached {
		t.Error("second run not served from cache")
	}
	if second.Roadmap.ID != first.Roadmap.ID {
		t.Errorf("cached id = %s, want %s", second.Roadmap.ID, first.Roadmap.ID)
	}
	if fetcher.calls != 1 || provider.calls != 1 {
		t.Errorf("fetch/provider calls = %d/%d, want 1/1", fetcher.calls, provider.calls)
	}
	if len(events.events) != 2 || !events.events[1].Cached {
		t.Errorf("events = %+v", events.events)
	}
}

func TestAnalyzeForceBypassesCache(t *testing.T) {
	fetcher := &fakeFetcher{rc: testContext()}
	provider := &scriptedProvider{name: "a", payload: validPayload}
	store := memory.NewStore()
	svc := newPipeline(fetcher, provider, store, nil)
	ctx := context.Background()

	_, _ = svc.Analyze(ctx, "https://github.com/octocat/demo", false)
	result, err := svc.Analyze(ctx, "https://github.com/octocat/demo", true)
	if err != nil {
		t.Fatalf("forced Analyze: %v", err)
	}

	if result.Cached {
		t.Error("forced run reported as cached")
	}
	if fetcher.calls != 2 || provider.calls != 2 {
		t.Errorf("fetch/provider calls = %d/%d, want 2/2", fetcher.calls, provider.calls)
	}
}

func TestAnalyzeFetchFailureAborts(t *testing.T) {
	fetcher := &fakeFetcher{err: domain.ErrNotFound}
	provider := &scriptedProvider{name: "a", payload: validPayload}
	store := memory.NewStore()
	svc := newPipeline(fetcher, provider, store, nil)

	_, err := svc.Analyze(context.Background(), "https://github.com/octocat/gone", false)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if provider.calls != 0 {
		t.Error("provider called after fetch failure")
	}
	if _, err := store.GetRoadmapByURL(context.Background(), "https://github.com/octocat/gone"); !errors.Is(err, domain.ErrNotFound) {
		t.Error("partial roadmap persisted after failed run")
	}
}

func TestAnalyzeProviderFailureAborts(t *testing.T) {
	fetcher := &fakeFetcher{rc: testContext()}
	provider := &scriptedProvider{name: "a", err: errors.New("quota")}
	store := memory.NewStore()
	svc := newPipeline(fetcher, provider, store, nil)

	_, err := svc.Analyze(context.Background(), "https://github.com/octocat/demo", false)
	if !errors.Is(err, domain.ErrProviderExhausted) {
		t.Fatalf("err = %v, want ErrProviderExhausted", err)
	}
	if _, err := store.GetRoadmapByURL(context.Background(), "https://github.com/octocat/demo"); !errors.Is(err, domain.ErrNotFound) {
		t.Error("roadmap persisted despite analysis failure")
	}
}

func TestAnalyzeNotifierFailureIgnored(t *testing.T) {
	fetcher := &fakeFetcher{rc: testContext()}
	provider := &scriptedProvider{name: "a", payload: validPayload}
	events := &recordingNotifier{err: errors.New("nats down")}
	svc := newPipeline(fetcher, provider, memory.NewStore(), events)

	if _, err := svc.Analyze(context.Background(), "https://github.com/octocat/demo", false); err != nil {
		t.Fatalf("Analyze: %v, want publish failure swallowed", err)
	}
}

func TestAnalyzeNilNotifier(t *testing.T) {
	fetcher := &fakeFetcher{rc: testContext()}
	provider := &scriptedProvider{name: "a", payload: validPayload}
	svc := newPipeline(fetcher, provider, memory.NewStore(), nil)

	if _, err := svc.Analyze(context.Background(), "https://github.com/octocat/demo", false); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
}
