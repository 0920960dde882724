package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/starford/specgraph/internal/simulate"
	"github.com/starford/specgraph/internal/specservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *specservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *specservice.Service) *Handler {
	return &Handler{svc: svc}
}

// specID extracts the spec id from the URL (everything after /api/impact/).
// Supports encoded slashes from OpenAPI clients (e.g. platform%2Fauth).
func specID(r *http.Request) string {
	raw := strings.Trim(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// Graph handles GET /api/graph.
//
//	@Summary		Get the dependency graph
//	@Tags			graph
//	@Produce		json
//	@Success		200	{object}	GraphResponse
//	@Security		BearerAuth
//	@Router			/graph [get]
func (h *Handler) Graph(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Graph(r.Context())
	if err != nil {
		writeError(w, "graph", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Impact handles GET /api/impact/*.
//
//	@Summary		Analyse the impact of changing a spec
//	@Tags			analysis
//	@Produce		json
//	@Param			id	path		string	true	"Spec id"
//	@Success		200	{object}	impact.Result
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/impact/{id} [get]
func (h *Handler) Impact(w http.ResponseWriter, r *http.Request) {
	id := specID(r)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("spec id is required"))
		return
	}
	res, err := h.svc.Impact(r.Context(), id)
	if err != nil {
		writeError(w, "impact", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Simulate handles POST /api/simulate. The graph on disk is never modified.
//
//	@Summary		Simulate a set of proposed changes
//	@Tags			analysis
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SimulateRequest	true	"Target and changes"
//	@Success		200		{object}	simulate.Result
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/simulate [post]
func (h *Handler) Simulate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req SimulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	var (
		res *simulate.Result
		err error
	)
	if req.Proposal != "" {
		res, err = h.svc.SimulateProposal(r.Context(), req.Target, req.Proposal)
	} else {
		res, err = h.svc.Simulate(r.Context(), req.Target, req.Deltas)
	}
	if err != nil {
		writeError(w, "simulate", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Report handles GET /api/report.
//
//	@Summary		Project health report
//	@Tags			analysis
//	@Produce		json
//	@Success		200	{object}	health.Report
//	@Security		BearerAuth
//	@Router			/report [get]
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	rep, err := h.svc.Report(r.Context())
	if err != nil {
		writeError(w, "report", err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// Cycles handles GET /api/cycles.
//
//	@Summary		List dependency cycles
//	@Tags			analysis
//	@Produce		json
//	@Success		200	{array}	graph.Cycle
//	@Security		BearerAuth
//	@Router			/cycles [get]
func (h *Handler) Cycles(w http.ResponseWriter, r *http.Request) {
	cycles, err := h.svc.Cycles(r.Context())
	if err != nil {
		writeError(w, "cycles", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"cycles": cycles,
	})
}

// Search handles GET /api/search.
//
//	@Summary		Text search across specs
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Failure		503		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	hits, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: hits})
}
