package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/openroad-dev/openroad/internal/config"
	"github.com/openroad-dev/openroad/internal/domain"
	"github.com/openroad-dev/openroad/internal/domain/roadmap"
)

func TestParseRepoURL(t *testing.T) {
	tests := []struct {
		raw       string
		owner     string
		repo      string
		wantError bool
	}{
		{"https://github.com/octocat/hello-world", "octocat", "hello-world", false},
		{"https://github.com/octocat/hello-world.git", "octocat", "hello-world", false},
		{"https://github.com/octocat/hello-world/", "octocat", "hello-world", false},
		{"git@gitlab.com:group/project.git", "", "", true},
		{"https://example.com/octocat/hello-world", "", "", true},
		{"not a url", "", "", true},
	}

	for _, tt := range tests {
		owner, repo, err := ParseRepoURL(tt.raw)
		if tt.wantError {
			if !errors.Is(err, domain.ErrInvalidReference) {
				t.Errorf("ParseRepoURL(%q) error = %v, want ErrInvalidReference", tt.raw, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseRepoURL(%q) unexpected error: %v", tt.raw, err)
			continue
		}
		if owner != tt.owner || repo != tt.repo {
			t.Errorf("ParseRepoURL(%q) = %s/%s, want %s/%s", tt.raw, owner, repo, tt.owner, tt.repo)
		}
	}
}

// fakeRepo serves a minimal slice of the GitHub contents API.
type fakeRepo struct {
	readme string
	// dirs maps a directory path ("" for root) to its children.
	dirs map[string][]ghContent
}

func (f *fakeRepo) handler(t *testing.T) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/repos/octocat/demo")
		switch {
		case path == "":
			fmt.Fprint(w, `{"full_name":"octocat/demo"}`)
		case path == "/readme":
			if f.readme == "" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			enc := base64.StdEncoding.EncodeToString([]byte(f.readme))
			_ = json.NewEncoder(w).Encode(map[string]string{
				"content": enc, "encoding": "base64",
			})
		case strings.HasPrefix(path, "/contents"):
			dir := strings.TrimPrefix(strings.TrimPrefix(path, "/contents"), "/")
			children, ok := f.dirs[dir]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_ = json.NewEncoder(w).Encode(children)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func newTestFetcher(baseURL string, depth int) *Fetcher {
	return NewFetcher(config.GitHub{
		APIBaseURL:   baseURL,
		MaxTreeDepth: depth,
		TreeFanout:   2,
		Timeout:      5 * time.Second,
	})
}

func TestFetchHappyPath(t *testing.T) {
	repo := &fakeRepo{
		readme: "# Demo\nA demo repository.",
		dirs: map[string][]ghContent{
			"": {
				{Path: "README.md", Type: "file", Name: "README.md", Size: 24},
				{Path: "src", Type: "dir", Name: "src"},
				{Path: "logo.png", Type: "file", Name: "logo.png", Size: 1024},
			},
			"src": {
				{Path: "src/main.go", Type: "file", Name: "main.go", Size: 512},
			},
		},
	}
	srv := httptest.NewServer(repo.handler(t))
	defer srv.Close()

	f := newTestFetcher(srv.URL, 3)
	rc, err := f.Fetch(context.Background(), "https://github.com/octocat/demo")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if rc.Owner != "octocat" || rc.RepoName != "demo" {
		t.Errorf("owner/repo = %s/%s, want octocat/demo", rc.Owner, rc.RepoName)
	}
	if rc.Description != "# Demo\nA demo repository." {
		t.Errorf("description = %q", rc.Description)
	}

	// logo.png filtered out; directories sort before files.
	want := []string{"src", "README.md", "src/main.go"}
	if len(rc.FileTree) != len(want) {
		t.Fatalf("tree has %d entries, want %d: %+v", len(rc.FileTree), len(want), rc.FileTree)
	}
	for i, p := range want {
		if rc.FileTree[i].Path != p {
			t.Errorf("tree[%d] = %q, want %q", i, rc.FileTree[i].Path, p)
		}
	}
	if rc.FileTree[0].Kind != roadmap.KindDir {
		t.Errorf("tree[0].Kind = %q, want dir", rc.FileTree[0].Kind)
	}
}

func TestFetchMissingReadme(t *testing.T) {
	repo := &fakeRepo{
		dirs: map[string][]ghContent{
			"": {{Path: "main.go", Type: "file", Name: "main.go"}},
		},
	}
	srv := httptest.NewServer(repo.handler(t))
	defer srv.Close()

	f := newTestFetcher(srv.URL, 1)
	rc, err := f.Fetch(context.Background(), "https://github.com/octocat/demo")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if rc.Description != "No description found for this repository." {
		t.Errorf("description = %q, want sentinel", rc.Description)
	}
}

func TestFetchRepoStatuses(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, domain.ErrNotFound},
		{http.StatusForbidden, domain.ErrAccessDenied},
		{http.StatusInternalServerError, domain.ErrUpstream},
	}

	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tt.status)
		}))
		f := newTestFetcher(srv.URL, 1)
		_, err := f.Fetch(context.Background(), "https://github.com/octocat/demo")
		if !errors.Is(err, tt.want) {
			t.Errorf("status %d: error = %v, want %v", tt.status, err, tt.want)
		}
		srv.Close()
	}
}

func TestFetchDepthBound(t *testing.T) {
	// Directory chain a/b/c/d; with maxDepth 3 only three levels are
	// listed, so d's contents never appear.
	repo := &fakeRepo{
		readme: "deep",
		dirs: map[string][]ghContent{
			"": {{Path: "a", Type: "dir", Name: "a"}},
			"a": {
				{Path: "a/one.go", Type: "file", Name: "one.go"},
				{Path: "a/b", Type: "dir", Name: "b"},
			},
			"a/b": {
				{Path: "a/b/two.go", Type: "file", Name: "two.go"},
				{Path: "a/b/c", Type: "dir", Name: "c"},
			},
			"a/b/c": {
				{Path: "a/b/c/three.go", Type: "file", Name: "three.go"},
			},
		},
	}
	srv := httptest.NewServer(repo.handler(t))
	defer srv.Close()

	f := newTestFetcher(srv.URL, 3)
	rc, err := f.Fetch(context.Background(), "https://github.com/octocat/demo")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	for _, e := range rc.FileTree {
		if e.Path == "a/b/c/three.go" {
			t.Error("entry beyond depth bound was listed")
		}
	}
	// The directory at the bound is still recorded as an entry.
	found := false
	for _, e := range rc.FileTree {
		if e.Path == "a/b/c" {
			found = true
		}
	}
	if !found {
		t.Error("directory at depth bound missing from tree")
	}
}

func TestFetchVanishedDirectory(t *testing.T) {
	// The root lists a directory whose contents 404 when walked. The
	// traversal treats it as empty rather than failing.
	repo := &fakeRepo{
		readme: "x",
		dirs: map[string][]ghContent{
			"": {
				{Path: "gone", Type: "dir", Name: "gone"},
				{Path: "main.go", Type: "file", Name: "main.go"},
			},
		},
	}
	srv := httptest.NewServer(repo.handler(t))
	defer srv.Close()

	f := newTestFetcher(srv.URL, 3)
	rc, err := f.Fetch(context.Background(), "https://github.com/octocat/demo")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(rc.FileTree) != 2 {
		t.Errorf("tree has %d entries, want 2: %+v", len(rc.FileTree), rc.FileTree)
	}
}
