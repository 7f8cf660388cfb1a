package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"OpportunityRadar/internal/domain"
	"OpportunityRadar/internal/report"
)

// Reports serves report generation and retrieval.
type Reports struct {
	service *report.Service
	logger  *slog.Logger
}

// NewReports wires the report handlers.
func NewReports(service *report.Service, logger *slog.Logger) *Reports {
	return &Reports{service: service, logger: logger}
}

// Routes mounts the handlers on a chi router. The /prompts routes are an
// alias that serves only the machine-facing artifact of a report.
func (h *Reports) Routes(r chi.Router) {
	r.Post("/reports/generate", h.generate)
	r.Post("/reports", h.create)
	r.Get("/reports", h.list)
	r.Get("/reports/{id}", h.get)
	r.Get("/reports/{id}/content", h.content)
	r.Get("/reports/{id}/prompt", h.prompt)
	r.Get("/prompts/{id}", h.prompt)
}

type generateRequest struct {
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
}

// generate builds a new report. The window comes from start/end query
// parameters (date or RFC 3339) or a JSON body; left empty it defaults to
// the trailing window ending now.
func (h *Reports) generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "malformed json body")
			return
		}
	}

	var ok bool
	if req.PeriodStart, ok = timeParam(w, r.URL.Query().Get("start"), "start", req.PeriodStart); !ok {
		return
	}
	if req.PeriodEnd, ok = timeParam(w, r.URL.Query().Get("end"), "end", req.PeriodEnd); !ok {
		return
	}

	rep, err := h.service.Generate(r.Context(), req.PeriodStart, req.PeriodEnd)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, rep)
}

type createRequest struct {
	OpportunityCount int    `json:"opportunity_count"`
	ContentPrompt    string `json:"content_prompt"`
}

// create imports a report row built by the client, carrying only the count
// and the prompt artifact.
func (h *Reports) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed json body")
		return
	}
	if req.OpportunityCount < 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "opportunity_count must not be negative")
		return
	}

	rep, err := h.service.Import(r.Context(), req.OpportunityCount, req.ContentPrompt)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, rep)
}

func (h *Reports) list(w http.ResponseWriter, r *http.Request) {
	limit, ok := intParam(w, r.URL.Query().Get("limit"), "limit")
	if !ok {
		return
	}

	reports, err := h.service.List(r.Context(), limit)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	if reports == nil {
		reports = []domain.Report{}
	}

	writeJSON(w, http.StatusOK, reports)
}

func (h *Reports) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.reportID(w, r)
	if !ok {
		return
	}

	rep, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, rep)
}

// content serves one rendered artifact as plain text. kind query parameter
// selects "human" (default) or "prompt".
func (h *Reports) content(w http.ResponseWriter, r *http.Request) {
	id, ok := h.reportID(w, r)
	if !ok {
		return
	}

	kind := r.URL.Query().Get("kind")
	if kind == "" {
		kind = "human"
	}
	if kind != "human" && kind != "prompt" {
		writeError(w, http.StatusBadRequest, "invalid_request", "kind must be human or prompt")
		return
	}

	h.writeContent(w, r, id, kind)
}

func (h *Reports) prompt(w http.ResponseWriter, r *http.Request) {
	id, ok := h.reportID(w, r)
	if !ok {
		return
	}

	h.writeContent(w, r, id, "prompt")
}

func (h *Reports) writeContent(w http.ResponseWriter, r *http.Request, id int64, kind string) {
	content, err := h.service.GetContent(r.Context(), id, kind)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = w.Write([]byte(content))
}

// timeParam parses an RFC 3339 timestamp or a plain date, keeping fallback
// when the parameter is absent.
func timeParam(w http.ResponseWriter, raw, name string, fallback time.Time) (time.Time, bool) {
	if raw == "" {
		return fallback, true
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}

	writeError(w, http.StatusBadRequest, "invalid_request", name+" must be RFC 3339 or YYYY-MM-DD")
	return time.Time{}, false
}

func (h *Reports) reportID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "id must be an integer")
		return 0, false
	}
	return id, true
}
