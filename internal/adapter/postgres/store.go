package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openroad-dev/openroad/internal/domain"
	"github.com/openroad-dev/openroad/internal/domain/roadmap"
)

// Store implements database.Store using PostgreSQL. Analysis, health
// metrics, and the file tree are stored as JSONB payloads; repo_url is
// the lookup key and created_at the recency sort key. Repeated saves for
// one URL insert new rows; lookups take the most recent.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const roadmapColumns = `id, repo_url, repo_name, owner, analysis, health_metrics, file_tree, created_at, updated_at`

// scannable abstracts pgx.Row and pgx.Rows for the shared scan helper.
type scannable interface {
	Scan(dest ...any) error
}

func scanRoadmap(row scannable) (roadmap.Roadmap, error) {
	var (
		r           roadmap.Roadmap
		analysisRaw []byte
		metricsRaw  []byte
		treeRaw     []byte
	)
	if err := row.Scan(&r.ID, &r.RepoURL, &r.RepoName, &r.Owner,
		&analysisRaw, &metricsRaw, &treeRaw, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return roadmap.Roadmap{}, err
	}
	if err := json.Unmarshal(analysisRaw, &r.Analysis); err != nil {
		return roadmap.Roadmap{}, fmt.Errorf("unmarshal analysis: %w", err)
	}
	if err := json.Unmarshal(metricsRaw, &r.HealthMetrics); err != nil {
		return roadmap.Roadmap{}, fmt.Errorf("unmarshal health metrics: %w", err)
	}
	if err := json.Unmarshal(treeRaw, &r.FileTree); err != nil {
		return roadmap.Roadmap{}, fmt.Errorf("unmarshal file tree: %w", err)
	}
	return r, nil
}

func marshalPayloads(r *roadmap.Roadmap) (analysis, metrics, tree []byte, err error) {
	if analysis, err = json.Marshal(r.Analysis); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal analysis: %w", err)
	}
	if metrics, err = json.Marshal(orEmpty(r.HealthMetrics)); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal health metrics: %w", err)
	}
	if tree, err = json.Marshal(orEmpty(r.FileTree)); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal file tree: %w", err)
	}
	return analysis, metrics, tree, nil
}

// orEmpty ensures JSON serialization produces [] instead of null.
func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// SaveRoadmap inserts r and returns the stored row with its DB-assigned id.
func (s *Store) SaveRoadmap(ctx context.Context, r *roadmap.Roadmap) (*roadmap.Roadmap, error) {
	analysisJSON, metricsJSON, treeJSON, err := marshalPayloads(r)
	if err != nil {
		return nil, err
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO roadmaps (repo_url, repo_name, owner, analysis, health_metrics, file_tree, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+roadmapColumns,
		r.RepoURL, r.RepoName, r.Owner, analysisJSON, metricsJSON, treeJSON, r.CreatedAt, r.UpdatedAt)

	stored, err := scanRoadmap(row)
	if err != nil {
		return nil, fmt.Errorf("save roadmap: %w", err)
	}
	return &stored, nil
}

// GetRoadmapByURL returns the most recently created roadmap for the URL.
func (s *Store) GetRoadmapByURL(ctx context.Context, repoURL string) (*roadmap.Roadmap, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+roadmapColumns+` FROM roadmaps
		 WHERE repo_url = $1 ORDER BY created_at DESC LIMIT 1`, repoURL)

	r, err := scanRoadmap(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("roadmap for %s: %w", repoURL, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get roadmap by url: %w", err)
	}
	return &r, nil
}

// ListRecentRoadmaps returns up to limit roadmaps, most recent first.
func (s *Store) ListRecentRoadmaps(ctx context.Context, limit int) ([]roadmap.Roadmap, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+roadmapColumns+` FROM roadmaps
		 ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list roadmaps: %w", err)
	}
	defer rows.Close()

	var out []roadmap.Roadmap
	for rows.Next() {
		r, err := scanRoadmap(rows)
		if err != nil {
			return nil, fmt.Errorf("list roadmaps: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpdateRoadmap applies a partial merge and refreshes updated_at.
func (s *Store) UpdateRoadmap(ctx context.Context, id string, u roadmap.Update) error {
	sets := "updated_at = now()"
	args := []any{id}

	if u.Analysis != nil {
		data, err := json.Marshal(u.Analysis)
		if err != nil {
			return fmt.Errorf("marshal analysis: %w", err)
		}
		args = append(args, data)
		sets += fmt.Sprintf(", analysis = $%d", len(args))
	}
	if u.HealthMetrics != nil {
		data, err := json.Marshal(u.HealthMetrics)
		if err != nil {
			return fmt.Errorf("marshal health metrics: %w", err)
		}
		args = append(args, data)
		sets += fmt.Sprintf(", health_metrics = $%d", len(args))
	}
	if u.FileTree != nil {
		data, err := json.Marshal(u.FileTree)
		if err != nil {
			return fmt.Errorf("marshal file tree: %w", err)
		}
		args = append(args, data)
		sets += fmt.Sprintf(", file_tree = $%d", len(args))
	}

	tag, err := s.pool.Exec(ctx, `UPDATE roadmaps SET `+sets+` WHERE id = $1`, args...)
	if err != nil {
		return fmt.Errorf("update roadmap %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update roadmap %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// DeleteRoadmap removes a roadmap and returns the removed row.
func (s *Store) DeleteRoadmap(ctx context.Context, id string) (*roadmap.Roadmap, error) {
	row := s.pool.QueryRow(ctx,
		`DELETE FROM roadmaps WHERE id = $1 RETURNING `+roadmapColumns, id)

	r, err := scanRoadmap(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("delete roadmap %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("delete roadmap %s: %w", id, err)
	}
	return &r, nil
}
