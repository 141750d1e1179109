// Package snowflake implements the analytics.Source port against the
// Snowflake SQL REST API: a password-grant token exchange followed by
// parameterized statement execution.
package snowflake

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/openroad-dev/openroad/internal/config"
	"github.com/openroad-dev/openroad/internal/port/analytics"
)

// Source queries file and repository activity tables over the SQL API.
type Source struct {
	baseURL    string
	user       string
	password   string
	database   string
	schema     string
	warehouse  string
	httpClient *http.Client
}

// New creates a Source from Snowflake configuration.
func New(cfg config.Snowflake) *Source {
	return &Source{
		baseURL:    fmt.Sprintf("https://%s.snowflakecomputing.com", cfg.Account),
		user:       cfg.User,
		password:   cfg.Password,
		database:   cfg.Database,
		schema:     cfg.Schema,
		warehouse:  cfg.Warehouse,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// binding is one positional statement parameter.
type binding struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// statementResult mirrors the SQL API response; row values arrive as strings.
type statementResult struct {
	Data [][]*string `json:"data"`
}

// FileStats returns activity rows for the given files, constrained to one
// repository. Files with no matching row are simply absent from the result.
func (s *Source) FileStats(ctx context.Context, repoName string, files []string) ([]analytics.FileStats, error) {
	if len(files) == 0 {
		return nil, nil
	}

	token, err := s.token(ctx)
	if err != nil {
		return nil, fmt.Errorf("snowflake auth: %w", err)
	}

	placeholders := make([]string, len(files))
	bindings := map[string]binding{"1": {Type: "TEXT", Value: repoName}}
	for i, f := range files {
		placeholders[i] = "?"
		bindings[strconv.Itoa(i+2)] = binding{Type: "TEXT", Value: f}
	}

	stmt := fmt.Sprintf(
		`SELECT file_path, COALESCE(file_churn, 0), COALESCE(bug_frequency, 0)
		 FROM file_metrics WHERE repo_name = ? AND file_path IN (%s)`,
		strings.Join(placeholders, ", "))

	result, err := s.execute(ctx, token, stmt, bindings)
	if err != nil {
		return nil, fmt.Errorf("snowflake file stats: %w", err)
	}

	stats := make([]analytics.FileStats, 0, len(result.Data))
	for _, row := range result.Data {
		if len(row) < 3 || row[0] == nil {
			continue
		}
		stats = append(stats, analytics.FileStats{
			Path:         *row[0],
			Churn:        cellInt(row[1]),
			BugFrequency: cellInt(row[2]),
		})
	}
	return stats, nil
}

// Overview returns repository-level aggregate counts.
func (s *Source) Overview(ctx context.Context, repoName string) (*analytics.OverviewStats, error) {
	token, err := s.token(ctx)
	if err != nil {
		return nil, fmt.Errorf("snowflake auth: %w", err)
	}

	stmt := `SELECT COALESCE(SUM(commit_count), 0), COUNT(DISTINCT contributor), COALESCE(AVG(file_churn), 0)
		 FROM repo_metrics WHERE repo_name = ?`
	result, err := s.execute(ctx, token, stmt, map[string]binding{
		"1": {Type: "TEXT", Value: repoName},
	})
	if err != nil {
		return nil, fmt.Errorf("snowflake overview: %w", err)
	}

	if len(result.Data) == 0 || len(result.Data[0]) < 3 {
		return &analytics.OverviewStats{}, nil
	}
	row := result.Data[0]
	return &analytics.OverviewStats{
		TotalCommits:       cellInt(row[0]),
		ActiveContributors: cellInt(row[1]),
		AvgFileChurn:       cellInt(row[2]),
	}, nil
}

// token exchanges user credentials for a short-lived OAuth token.
func (s *Source) token(ctx context.Context) (string, error) {
	form := url.Values{
		"grant_type": {"password"},
		"username":   {s.user},
		"password":   {s.password},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("token exchange status %d: %s", resp.StatusCode, string(body))
	}

	var auth struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &auth); err != nil {
		return "", fmt.Errorf("decode token: %w", err)
	}
	return auth.Token, nil
}

// execute runs one parameterized statement.
func (s *Source) execute(ctx context.Context, token, stmt string, bindings map[string]binding) (*statementResult, error) {
	payload, err := json.Marshal(map[string]any{
		"statement": stmt,
		"timeout":   60,
		"database":  s.database,
		"schema":    s.schema,
		"warehouse": s.warehouse,
		"bindings":  bindings,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal statement: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/api/v2/statements", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Snowflake-Authorization-Token-Type", "OAUTH")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("statement status %d: %s", resp.StatusCode, string(body))
	}

	var result statementResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return &result, nil
}

// cellInt parses a numeric result cell; NULL or malformed cells become 0.
func cellInt(cell *string) int {
	if cell == nil {
		return 0
	}
	if n, err := strconv.Atoi(*cell); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(*cell, 64); err == nil {
		return int(f)
	}
	return 0
}
