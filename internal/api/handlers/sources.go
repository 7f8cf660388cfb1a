package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"OpportunityRadar/internal/domain"
	"OpportunityRadar/internal/fetcher"
	"OpportunityRadar/internal/registry"
)

// Sources serves source management and manual fetch triggering.
type Sources struct {
	registry *registry.Service
	fetcher  *fetcher.Manager
	logger   *slog.Logger
}

// NewSources wires the source handlers.
func NewSources(reg *registry.Service, fetch *fetcher.Manager, logger *slog.Logger) *Sources {
	return &Sources{registry: reg, fetcher: fetch, logger: logger}
}

// Routes mounts the handlers on a chi router.
func (h *Sources) Routes(r chi.Router) {
	r.Get("/sources", h.list)
	r.Post("/sources", h.create)
	r.Get("/sources/types", h.types)
	r.Post("/sources/fetch", h.fetch)
	r.Post("/sources/{id}/toggle", h.toggle)
	r.Delete("/sources/{id}", h.delete)
}

type createSourceRequest struct {
	Type string `json:"type"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

func (h *Sources) list(w http.ResponseWriter, r *http.Request) {
	sources, err := h.registry.List(r.Context())
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	if sources == nil {
		sources = []domain.Source{}
	}

	writeJSON(w, http.StatusOK, sources)
}

func (h *Sources) create(w http.ResponseWriter, r *http.Request) {
	var req createSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed json body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "name is required")
		return
	}

	src, err := h.registry.Create(r.Context(), req.Type, req.Name, strings.TrimSpace(req.URL))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, src)
}

func (h *Sources) types(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.registry.Types())
}

type fetchResponse struct {
	Status   string   `json:"status"`
	Message  string   `json:"message"`
	Inserted int      `json:"inserted"`
	Errors   []string `json:"errors,omitempty"`
}

// fetch triggers a synchronous fetch batch over all enabled sources and
// reports its outcome.
func (h *Sources) fetch(w http.ResponseWriter, r *http.Request) {
	summary := h.fetcher.FetchAll(r.Context())

	writeJSON(w, http.StatusOK, fetchResponse{
		Status:   summary.Status(),
		Message:  summary.Message(),
		Inserted: summary.Inserted,
		Errors:   summary.Errors,
	})
}

func (h *Sources) toggle(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sourceID(w, r)
	if !ok {
		return
	}

	src, err := h.registry.Toggle(r.Context(), id)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, src)
}

func (h *Sources) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sourceID(w, r)
	if !ok {
		return
	}

	if err := h.registry.Delete(r.Context(), id); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Sources) sourceID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "id must be an integer")
		return 0, false
	}
	return id, true
}
