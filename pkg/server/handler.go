// Package server exposes the explorer over HTTP: graph loads, named graph
// discovery, search over the current graph, health and metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/coolbeans/datamap/pkg/explorer"
	"github.com/coolbeans/datamap/pkg/graph"
	"github.com/coolbeans/datamap/pkg/metrics"
	"github.com/coolbeans/datamap/pkg/query"
	"github.com/coolbeans/datamap/pkg/sparql"
)

// Explorer loads graphs and remembers the current one.
// *explorer.Explorer satisfies it.
type Explorer interface {
	Load(ctx context.Context, req explorer.Request) (*graph.Model, error)
	Current() *graph.Model
}

// GraphLister lists the named graphs of the store. *sparql.Client
// satisfies it.
type GraphLister interface {
	NamedGraphs(ctx context.Context) ([]string, error)
}

// Config holds view defaults for requests that omit them.
type Config struct {
	// Hidden lists concepts removed from every response.
	Hidden []string
	// DisplaySchema is the view used when the schema parameter is absent.
	DisplaySchema bool
	// InstanceGraph is the named graph used when the graph parameter is absent.
	InstanceGraph string
}

// GraphsResponse is the body of GET /api/graphs.
type GraphsResponse struct {
	Graphs []string `json:"graphs"`
}

// SearchResponse is the body of GET /api/search.
type SearchResponse struct {
	Query   string   `json:"query"`
	Matches []string `json:"matches"`
}

// ErrorResponse is the body of every error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type handler struct {
	explorer Explorer
	graphs   GraphLister
	cfg      Config
	logger   *slog.Logger
}

// Handler creates the HTTP handler with all routes and middleware.
func Handler(exp Explorer, graphs GraphLister, m *metrics.Metrics, cfg Config, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &handler{explorer: exp, graphs: graphs, cfg: cfg, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.Handle("GET /metrics", m.Handler())
	mux.HandleFunc("GET /api/graph", h.handleGraph)
	mux.HandleFunc("GET /api/graphs", h.handleGraphs)
	mux.HandleFunc("GET /api/search", h.handleSearch)

	return applyMiddleware(mux,
		requestIDMiddleware,
		loggingMiddleware(logger),
		recoveryMiddleware(logger),
	)
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (h *handler) handleGraph(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	req := explorer.Request{
		Focus:      params.Get("focus"),
		NamedGraph: h.cfg.InstanceGraph,
		Schema:     h.cfg.DisplaySchema,
	}
	if params.Has("graph") {
		req.NamedGraph = params.Get("graph")
	}
	if params.Has("schema") {
		schema, err := strconv.ParseBool(params.Get("schema"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "schema must be true or false")
			return
		}
		req.Schema = schema
	}
	if req.Schema {
		req.NamedGraph = ""
	}

	model, err := h.explorer.Load(r.Context(), req)
	if err != nil {
		h.writeLoadError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, graph.HideConcepts(model, h.cfg.Hidden))
}

func (h *handler) handleGraphs(w http.ResponseWriter, r *http.Request) {
	graphs, err := h.graphs.NamedGraphs(r.Context())
	if err != nil {
		h.writeLoadError(w, r, err)
		return
	}
	if graphs == nil {
		graphs = []string{}
	}
	writeJSON(w, http.StatusOK, GraphsResponse{Graphs: graphs})
}

func (h *handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("q")

	current := h.explorer.Current()
	if current == nil {
		writeError(w, http.StatusConflict, "no_graph", "no graph has been loaded")
		return
	}

	matches := graph.Search(graph.HideConcepts(current, h.cfg.Hidden), keyword)
	if matches == nil {
		matches = []string{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Query: keyword, Matches: matches})
}

// writeLoadError maps load failures to HTTP statuses.
func (h *handler) writeLoadError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := http.StatusInternalServerError, "internal_error"
	switch {
	case errors.Is(err, query.ErrInvalidFocus):
		status, code = http.StatusBadRequest, "invalid_focus"
	case errors.Is(err, explorer.ErrUnresolvedBlank):
		status, code = http.StatusNotFound, "unresolved_blank"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status, code = http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, sparql.ErrQueryExecution):
		status, code = http.StatusBadGateway, "query_failed"
	}

	h.logger.Warn("Request failed",
		slog.String("path", r.URL.Path),
		slog.String("request_id", requestID(r)),
		slog.String("error", err.Error()))
	writeError(w, status, code, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}
