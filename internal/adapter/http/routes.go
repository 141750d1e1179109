package http

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Get("/health", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/analyze", h.AnalyzeRepo)

		r.Route("/roadmaps", func(r chi.Router) {
			r.Get("/", h.ListRoadmaps)
			r.Get("/url", h.GetRoadmapByURL)
			r.Delete("/{id}", h.DeleteRoadmap)
		})

		r.Route("/metrics", func(r chi.Router) {
			r.Post("/files", h.FileMetrics)
			r.Get("/repo/{repoName}", h.RepoOverview)
		})
	})
}
