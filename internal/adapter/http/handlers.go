package http

import (
	"net/http"
	"strconv"

	"github.com/openroad-dev/openroad/internal/domain/roadmap"
	"github.com/openroad-dev/openroad/internal/service"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// Handlers holds the service dependencies for all HTTP endpoints.
type Handlers struct {
	Pipeline *service.PipelineService
	Roadmaps *service.RoadmapService
	Metrics  *service.MetricsService

	// StorageDurable reports whether the durable storage tier is live.
	// Nil means no durable tier is configured.
	StorageDurable func() bool

	// ProviderNames lists the configured analysis providers in fallback
	// order.
	ProviderNames []string
}

type analyzeRequest struct {
	GitHubURL    string `json:"githubUrl"`
	ForceRefresh bool   `json:"forceRefresh"`
}

type analyzeResponse struct {
	Success bool             `json:"success"`
	Data    *roadmap.Roadmap `json:"data"`
	Cached  bool             `json:"cached"`
}

// AnalyzeRepo runs the analysis pipeline for a repository URL.
func (h *Handlers) AnalyzeRepo(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[analyzeRequest](w, r, maxBodyBytes)
	if !ok {
		return
	}
	if !requireField(w, req.GitHubURL, "githubUrl") {
		return
	}

	result, err := h.Pipeline.Analyze(r.Context(), req.GitHubURL, req.ForceRefresh)
	if err != nil {
		writeDomainError(w, err, "repository not found")
		return
	}

	writeJSON(w, http.StatusOK, analyzeResponse{
		Success: true,
		Data:    result.Roadmap,
		Cached:  result.Cached,
	})
}

type listResponse struct {
	Success bool              `json:"success"`
	Data    []roadmap.Roadmap `json:"data"`
}

// ListRoadmaps returns recent roadmaps, most recent first.
func (h *Handlers) ListRoadmaps(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	roadmaps, err := h.Roadmaps.Recent(r.Context(), limit)
	if err != nil {
		writeDomainError(w, err, "roadmaps not found")
		return
	}
	if roadmaps == nil {
		roadmaps = []roadmap.Roadmap{}
	}

	writeJSON(w, http.StatusOK, listResponse{Success: true, Data: roadmaps})
}

type roadmapResponse struct {
	Success bool             `json:"success"`
	Data    *roadmap.Roadmap `json:"data"`
}

// GetRoadmapByURL looks up the most recent roadmap for a repository URL.
func (h *Handlers) GetRoadmapByURL(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if !requireField(w, url, "url") {
		return
	}

	rm, err := h.Roadmaps.ByURL(r.Context(), url)
	if err != nil {
		writeDomainError(w, err, "roadmap not found")
		return
	}

	writeJSON(w, http.StatusOK, roadmapResponse{Success: true, Data: rm})
}

type deleteResponse struct {
	Success bool `json:"success"`
	Deleted bool `json:"deleted"`
}

// DeleteRoadmap removes a roadmap by identifier.
func (h *Handlers) DeleteRoadmap(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	if !requireField(w, id, "id") {
		return
	}

	if err := h.Roadmaps.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err, "roadmap not found or already deleted")
		return
	}

	writeJSON(w, http.StatusOK, deleteResponse{Success: true, Deleted: true})
}

type fileMetricsRequest struct {
	Files    []string `json:"files"`
	RepoName string   `json:"repoName"`
}

type fileMetricsResponse struct {
	Success bool                   `json:"success"`
	Data    []roadmap.HealthMetric `json:"data"`
}

// FileMetrics resolves health metrics for a list of files.
func (h *Handlers) FileMetrics(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[fileMetricsRequest](w, r, maxBodyBytes)
	if !ok {
		return
	}
	if len(req.Files) == 0 {
		writeError(w, http.StatusBadRequest, "files array is required")
		return
	}
	if !requireField(w, req.RepoName, "repoName") {
		return
	}

	metrics := h.Metrics.ForFiles(r.Context(), req.RepoName, req.Files)
	writeJSON(w, http.StatusOK, fileMetricsResponse{Success: true, Data: metrics})
}

type overviewResponse struct {
	Success bool                  `json:"success"`
	Data    *roadmap.RepoOverview `json:"data"`
}

// RepoOverview returns repository-level health aggregates.
func (h *Handlers) RepoOverview(w http.ResponseWriter, r *http.Request) {
	repoName := urlParam(r, "repoName")
	if !requireField(w, repoName, "repoName") {
		return
	}

	ov := h.Metrics.Overview(r.Context(), repoName)
	writeJSON(w, http.StatusOK, overviewResponse{Success: true, Data: ov})
}

type healthResponse struct {
	Status    string   `json:"status"`
	Storage   string   `json:"storage"`
	Providers []string `json:"providers"`
}

// Health reports service liveness, the active storage tier, and the
// configured analysis providers.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	storage := "memory"
	if h.StorageDurable != nil && h.StorageDurable() {
		storage = "durable"
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Storage:   storage,
		Providers: h.ProviderNames,
	})
}
