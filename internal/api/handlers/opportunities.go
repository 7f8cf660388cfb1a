package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"OpportunityRadar/internal/domain"
	"OpportunityRadar/internal/ports"
)

// Opportunities serves read access to the opportunity store.
type Opportunities struct {
	store  ports.OpportunityStore
	logger *slog.Logger
}

// NewOpportunities wires the opportunity read handlers.
func NewOpportunities(store ports.OpportunityStore, logger *slog.Logger) *Opportunities {
	return &Opportunities{store: store, logger: logger}
}

// Routes mounts the handlers on a chi router.
func (h *Opportunities) Routes(r chi.Router) {
	r.Get("/opportunities", h.list)
	r.Get("/opportunities/stats", h.stats)
	r.Get("/opportunities/{id}", h.get)
}

// list handles GET /api/opportunities with min_score, source, limit and
// offset query parameters.
func (h *Opportunities) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := domain.OpportunityFilter{
		SourceType: q.Get("source"),
	}

	var ok bool
	if filter.MinScore, ok = intParam(w, q.Get("min_score"), "min_score"); !ok {
		return
	}
	if filter.Limit, ok = intParam(w, q.Get("limit"), "limit"); !ok {
		return
	}
	if filter.Offset, ok = intParam(w, q.Get("offset"), "offset"); !ok {
		return
	}

	opportunities, err := h.store.Query(r.Context(), filter)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	if opportunities == nil {
		opportunities = []domain.Opportunity{}
	}

	writeJSON(w, http.StatusOK, opportunities)
}

func (h *Opportunities) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "id must be an integer")
		return
	}

	opp, err := h.store.ByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, opp)
}

func (h *Opportunities) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// intParam parses a non-negative integer query parameter, writing a 400 and
// reporting false on garbage input. Empty input yields zero.
func intParam(w http.ResponseWriter, raw, name string) (int, bool) {
	if raw == "" {
		return 0, true
	}

	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", name+" must be a non-negative integer")
		return 0, false
	}
	return v, true
}
