// Package api exposes extraction sessions over HTTP: submit a target URL,
// poll job status, read aggregate stats.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/webdriftlab/ecom-scraper/internal/jobs"
	"github.com/webdriftlab/ecom-scraper/internal/platform"
)

type Handlers struct {
	jobs   *jobs.Manager
	logger *slog.Logger
}

func NewHandlers(manager *jobs.Manager, logger *slog.Logger) *Handlers {
	return &Handlers{
		jobs:   manager,
		logger: logger,
	}
}

// Routes mounts all handlers on a chi router.
func (h *Handlers) Routes(r chi.Router) {
	r.Get("/health", h.Health)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/sessions", h.CreateSession)
		r.Get("/sessions", h.ListSessions)
		r.Get("/sessions/{id}", h.GetSession)
		r.Get("/stats", h.GetStats)
		r.Get("/platforms", h.ListPlatforms)
	})
}

// CreateSessionRequest carries the target URL to extract.
type CreateSessionRequest struct {
	URL string `json:"url"`
}

func (h *Handlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		h.respondError(w, http.StatusBadRequest, "url is required")
		return
	}

	u, err := url.Parse(req.URL)
	if err != nil || u.Host == "" {
		h.respondError(w, http.StatusBadRequest, "url is not parseable")
		return
	}
	if platform.Detect(u.Host) == nil {
		h.respondError(w, http.StatusUnprocessableEntity, "url does not belong to a supported platform")
		return
	}

	job, err := h.jobs.Submit(req.URL)
	if err != nil {
		h.logger.Error("failed to submit job", "url", req.URL, "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to enqueue session")
		return
	}

	h.respondJSON(w, http.StatusAccepted, job)
}

func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	job, ok := h.jobs.Get(id)
	if !ok {
		h.respondError(w, http.StatusNotFound, "session not found")
		return
	}

	h.respondJSON(w, http.StatusOK, job)
}

func (h *Handlers) ListSessions(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": h.jobs.List(),
	})
}

func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	stats := h.jobs.Stats()
	stats["queued"] = h.jobs.QueueSize()
	h.respondJSON(w, http.StatusOK, stats)
}

// ListPlatforms reports the registered platforms and their pagination
// styles.
func (h *Handlers) ListPlatforms(w http.ResponseWriter, r *http.Request) {
	type entry struct {
		ID             string `json:"id"`
		DisplayName    string `json:"display_name"`
		Style          string `json:"pagination_style"`
		VariantSupport bool   `json:"variant_support"`
	}

	all := platform.All()
	out := make([]entry, 0, len(all))
	for _, d := range all {
		out = append(out, entry{
			ID:             d.ID,
			DisplayName:    d.DisplayName,
			Style:          string(d.Style),
			VariantSupport: d.VariantSupport,
		})
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"platforms": out,
	})
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
