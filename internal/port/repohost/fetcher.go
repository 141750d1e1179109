// Package repohost defines the port for fetching repository context from
// a source-control hosting platform.
package repohost

import (
	"context"

	"github.com/openroad-dev/openroad/internal/domain/roadmap"
)

// Fetcher resolves a repository URL into its description document and
// filtered, depth-bounded file tree.
//
// Fetch fails with domain.ErrInvalidReference when the URL cannot be
// parsed into owner/repo, domain.ErrNotFound or domain.ErrAccessDenied
// on upstream rejection, and domain.ErrUpstream on any other non-2xx
// response.
type Fetcher interface {
	Fetch(ctx context.Context, repoURL string) (*roadmap.RepoContext, error)
}
