package snowflake

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/openroad-dev/openroad/internal/config"
)

func strptr(s string) *string { return &s }

// fakeWarehouse serves the token and statement endpoints.
type fakeWarehouse struct {
	t        *testing.T
	rows     [][]*string
	lastStmt map[string]any
}

func (f *fakeWarehouse) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/token":
			if err := r.ParseForm(); err != nil {
				f.t.Errorf("parse form: %v", err)
			}
			if r.PostForm.Get("grant_type") != "password" {
				f.t.Errorf("grant_type = %q", r.PostForm.Get("grant_type"))
			}
			_, _ = w.Write([]byte(`{"token":"tok-123"}`))
		case "/api/v2/statements":
			if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
				f.t.Errorf("authorization = %q", got)
			}
			if got := r.Header.Get("X-Snowflake-Authorization-Token-Type"); got != "OAUTH" {
				f.t.Errorf("token type header = %q", got)
			}
			_ = json.NewDecoder(r.Body).Decode(&f.lastStmt)
			_ = json.NewEncoder(w).Encode(statementResult{Data: f.rows})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func newTestSource(baseURL string) *Source {
	s := New(config.Snowflake{
		Account:   "acct",
		User:      "user",
		Password:  "pass",
		Database:  "GITHUB_ANALYTICS",
		Schema:    "PUBLIC",
		Warehouse: "COMPUTE_WH",
		Timeout:   5 * time.Second,
	})
	s.baseURL = baseURL
	return s
}

func TestFileStats(t *testing.T) {
	wh := &fakeWarehouse{t: t, rows: [][]*string{
		{strptr("src/main.go"), strptr("12"), strptr("3")},
		{strptr("README.md"), nil, strptr("0")},
	}}
	srv := httptest.NewServer(wh.handler())
	defer srv.Close()

	s := newTestSource(srv.URL)
	stats, err := s.FileStats(context.Background(), "demo", []string{"src/main.go", "README.md"})
	if err != nil {
		t.Fatalf("FileStats: %v", err)
	}

	if len(stats) != 2 {
		t.Fatalf("got %d rows, want 2", len(stats))
	}
	if stats[0].Path != "src/main.go" || stats[0].Churn != 12 || stats[0].BugFrequency != 3 {
		t.Errorf("row 0 = %+v", stats[0])
	}
	// NULL churn cell parses as zero.
	if stats[1].Churn != 0 {
		t.Errorf("row 1 churn = %d, want 0", stats[1].Churn)
	}

	// Statement carries one binding per file plus the repo name, all typed.
	bindings, ok := wh.lastStmt["bindings"].(map[string]any)
	if !ok {
		t.Fatalf("bindings missing from statement: %+v", wh.lastStmt)
	}
	if len(bindings) != 3 {
		t.Errorf("got %d bindings, want 3", len(bindings))
	}
	first, _ := bindings["1"].(map[string]any)
	if first["value"] != "demo" {
		t.Errorf("binding 1 = %+v, want repo name", first)
	}
}

func TestFileStatsEmptyInput(t *testing.T) {
	s := newTestSource("http://unused.invalid")
	stats, err := s.FileStats(context.Background(), "demo", nil)
	if err != nil {
		t.Fatalf("FileStats: %v", err)
	}
	if stats != nil {
		t.Errorf("stats = %+v, want nil without any network call", stats)
	}
}

func TestOverview(t *testing.T) {
	wh := &fakeWarehouse{t: t, rows: [][]*string{
		{strptr("412"), strptr("9"), strptr("17.5")},
	}}
	srv := httptest.NewServer(wh.handler())
	defer srv.Close()

	s := newTestSource(srv.URL)
	ov, err := s.Overview(context.Background(), "demo")
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if ov.TotalCommits != 412 || ov.ActiveContributors != 9 || ov.AvgFileChurn != 17 {
		t.Errorf("overview = %+v", ov)
	}
}

func TestOverviewNoRows(t *testing.T) {
	wh := &fakeWarehouse{t: t}
	srv := httptest.NewServer(wh.handler())
	defer srv.Close()

	s := newTestSource(srv.URL)
	ov, err := s.Overview(context.Background(), "demo")
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if ov.TotalCommits != 0 || ov.ActiveContributors != 0 || ov.AvgFileChurn != 0 {
		t.Errorf("overview = %+v, want zeros", ov)
	}
}

func TestTokenExchangeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := newTestSource(srv.URL)
	if _, err := s.FileStats(context.Background(), "demo", []string{"a.go"}); err == nil {
		t.Fatal("expected auth error")
	}
}

func TestCellInt(t *testing.T) {
	tests := []struct {
		cell *string
		want int
	}{
		{nil, 0},
		{strptr("42"), 42},
		{strptr("17.9"), 17},
		{strptr("not a number"), 0},
	}
	for _, tt := range tests {
		if got := cellInt(tt.cell); got != tt.want {
			t.Errorf("cellInt(%v) = %d, want %d", tt.cell, got, tt.want)
		}
	}
}
