// Package github implements the repohost.Fetcher port against the GitHub
// REST API: an existence probe, README retrieval, and a depth-bounded,
// filtered directory traversal.
package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/openroad-dev/openroad/internal/config"
	"github.com/openroad-dev/openroad/internal/domain"
	"github.com/openroad-dev/openroad/internal/domain/roadmap"
)

// noDescription is returned when a repository has no README.
const noDescription = "No description found for this repository."

const userAgent = "openroad/1.0"

var repoURLPattern = regexp.MustCompile(`github\.com/([^/]+)/([^/]+?)(?:\.git)?/?$`)

// ParseRepoURL extracts owner and repo from a GitHub URL. Trailing ".git"
// and a trailing slash are tolerated.
func ParseRepoURL(raw string) (owner, repo string, err error) {
	m := repoURLPattern.FindStringSubmatch(raw)
	if m == nil {
		return "", "", fmt.Errorf("parse %q: %w", raw, domain.ErrInvalidReference)
	}
	return m[1], m[2], nil
}

// Fetcher retrieves repository context from the GitHub REST API.
type Fetcher struct {
	baseURL    string
	token      string
	maxDepth   int
	fanout     int
	httpClient *http.Client
}

// NewFetcher creates a Fetcher from GitHub configuration.
func NewFetcher(cfg config.GitHub) *Fetcher {
	fanout := cfg.TreeFanout
	if fanout < 1 {
		fanout = 1
	}
	return &Fetcher{
		baseURL:    strings.TrimSuffix(cfg.APIBaseURL, "/"),
		token:      cfg.Token,
		maxDepth:   cfg.MaxTreeDepth,
		fanout:     fanout,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Fetch resolves repoURL, probes the repository, and retrieves its README
// and filtered file tree concurrently.
func (f *Fetcher) Fetch(ctx context.Context, repoURL string) (*roadmap.RepoContext, error) {
	owner, repo, err := ParseRepoURL(repoURL)
	if err != nil {
		return nil, err
	}

	if err := f.probe(ctx, owner, repo); err != nil {
		return nil, err
	}

	var (
		description string
		tree        []roadmap.FileEntry
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		description, err = f.readme(gctx, owner, repo)
		return err
	})
	g.Go(func() error {
		var err error
		tree, err = f.fileTree(gctx, owner, repo)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &roadmap.RepoContext{
		Description: description,
		FileTree:    tree,
		RepoName:    repo,
		Owner:       owner,
	}, nil
}

// probe verifies the repository exists and is accessible.
func (f *Fetcher) probe(ctx context.Context, owner, repo string) error {
	status, _, err := f.get(ctx, fmt.Sprintf("%s/repos/%s/%s", f.baseURL, owner, repo))
	if err != nil {
		return fmt.Errorf("probe %s/%s: %w", owner, repo, err)
	}
	switch {
	case status == http.StatusNotFound:
		return fmt.Errorf("repository %s/%s: %w", owner, repo, domain.ErrNotFound)
	case status == http.StatusForbidden:
		return fmt.Errorf("repository %s/%s: %w", owner, repo, domain.ErrAccessDenied)
	case status < 200 || status > 299:
		return fmt.Errorf("repository %s/%s: status %d: %w", owner, repo, status, domain.ErrUpstream)
	}
	return nil
}

// readme fetches the repository README. A missing README yields the
// noDescription sentinel rather than an error.
func (f *Fetcher) readme(ctx context.Context, owner, repo string) (string, error) {
	status, body, err := f.get(ctx, fmt.Sprintf("%s/repos/%s/%s/readme", f.baseURL, owner, repo))
	if err != nil {
		return "", fmt.Errorf("fetch readme: %w", err)
	}
	if status == http.StatusNotFound {
		return noDescription, nil
	}
	if status < 200 || status > 299 {
		return "", fmt.Errorf("fetch readme: status %d: %w", status, domain.ErrUpstream)
	}

	var doc struct {
		Content  string `json:"content"`
		Encoding string `json:"encoding"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", fmt.Errorf("decode readme: %w", err)
	}
	if doc.Encoding == "base64" {
		decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(doc.Content, "\n", ""))
		if err != nil {
			return "", fmt.Errorf("decode readme content: %w", err)
		}
		return string(decoded), nil
	}
	return doc.Content, nil
}

// dirItem is one pending directory listing in the traversal work list.
type dirItem struct {
	path      string
	remaining int
}

// fileTree walks the repository contents breadth-first with a hard depth
// bound, applying the exclusion filter before emitting each entry.
// Listings within a level run concurrently, bounded by the configured
// fanout. Output is sorted by kind then path.
func (f *Fetcher) fileTree(ctx context.Context, owner, repo string) ([]roadmap.FileEntry, error) {
	var (
		mu      sync.Mutex
		entries []roadmap.FileEntry
	)

	level := []dirItem{{path: "", remaining: f.maxDepth}}
	for len(level) > 0 {
		var (
			nextMu sync.Mutex
			next   []dirItem
		)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(f.fanout)
		for _, item := range level {
			g.Go(func() error {
				children, err := f.listDir(gctx, owner, repo, item.path)
				if err != nil {
					return err
				}
				for _, c := range children {
					if !includePath(c.Path) {
						continue
					}
					mu.Lock()
					entries = append(entries, c)
					mu.Unlock()
					if c.Kind == roadmap.KindDir && item.remaining > 1 {
						nextMu.Lock()
						next = append(next, dirItem{path: c.Path, remaining: item.remaining - 1})
						nextMu.Unlock()
					}
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		level = next
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Kind != entries[j].Kind {
			return entries[i].Kind < entries[j].Kind
		}
		return entries[i].Path < entries[j].Path
	})
	return entries, nil
}

// ghContent mirrors one element of the GitHub contents API response.
type ghContent struct {
	Path string `json:"path"`
	Type string `json:"type"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// listDir lists the immediate children of one directory. A directory that
// 404s (e.g. deleted mid-traversal) yields an empty listing.
func (f *Fetcher) listDir(ctx context.Context, owner, repo, path string) ([]roadmap.FileEntry, error) {
	reqURL := fmt.Sprintf("%s/repos/%s/%s/contents/%s", f.baseURL, owner, repo, escapePath(path))
	status, body, err := f.get(ctx, reqURL)
	if err != nil {
		return nil, fmt.Errorf("list %q: %w", path, err)
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("list %q: status %d: %w", path, status, domain.ErrUpstream)
	}

	var contents []ghContent
	if err := json.Unmarshal(body, &contents); err != nil {
		// A file path returns an object, not an array. Nothing to descend into.
		return nil, nil
	}

	out := make([]roadmap.FileEntry, 0, len(contents))
	for _, c := range contents {
		kind := roadmap.KindFile
		if c.Type == "dir" {
			kind = roadmap.KindDir
		}
		out = append(out, roadmap.FileEntry{
			Path:      c.Path,
			Kind:      kind,
			Name:      c.Name,
			SizeBytes: c.Size,
		})
	}
	return out, nil
}

// escapePath escapes each path segment while preserving separators.
func escapePath(path string) string {
	if path == "" {
		return ""
	}
	segs := strings.Split(path, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}

// get performs an authenticated GET and returns status plus body.
func (f *Fetcher) get(ctx context.Context, reqURL string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}
