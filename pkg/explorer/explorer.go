// Package explorer loads focused neighborhoods from a triple store and keeps
// the state needed between loads: the last displayed graph, the last
// instance graph used to resolve blank foci, and the cached schema used to
// enrich instance views.
package explorer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/coolbeans/datamap/pkg/graph"
	"github.com/coolbeans/datamap/pkg/metrics"
	"github.com/coolbeans/datamap/pkg/query"
	"github.com/coolbeans/datamap/pkg/store"
)

// View names used in logs and metrics.
const (
	ViewSchema   = "schema"
	ViewInstance = "instance"
)

// ErrUnresolvedBlank is returned when a blank focus has no named ancestor
// within graph.MaxAncestorLevel hops in the last instance graph.
var ErrUnresolvedBlank = errors.New("blank focus has no named ancestor")

// TripleSource executes CONSTRUCT queries and lists named graphs.
// *sparql.Client satisfies it.
type TripleSource interface {
	Construct(ctx context.Context, queryText string) (*store.TripleSet, error)
	NamedGraphs(ctx context.Context) ([]string, error)
}

// Request selects what Load fetches.
type Request struct {
	// Focus is the IRI or blank id to center on. Empty loads everything.
	Focus string
	// NamedGraph restricts the query to one graph.
	NamedGraph string
	// Schema selects the schema view.
	Schema bool
	// Expansion is the starting expansion level. A resolved blank focus
	// replaces it with the ancestor's level.
	Expansion query.ExpansionLevel
}

func (r Request) view() string {
	if r.Schema {
		return ViewSchema
	}
	return ViewInstance
}

// Result is a successful load.
type Result struct {
	ID       string
	Request  Request
	Focus    string // effective focus after blank resolution
	Ancestor *graph.Ancestor
	Query    string
	Triples  *store.TripleSet
	Model    *graph.Model
}

// Explorer is the graph projection facade. Loads are serialized so that
// blank resolution always reads the graph of the preceding successful load.
type Explorer struct {
	source    TripleSource
	projector *graph.Projector
	logger    *slog.Logger
	metrics   *metrics.Metrics
	enrich    bool

	mu           sync.Mutex
	current      *graph.Model
	lastInstance *graph.Model
	schema       *graph.Model
}

// Option configures an Explorer.
type Option func(*Explorer)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Explorer) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics records load metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Explorer) {
		e.metrics = m
	}
}

// WithSchemaEnrichment relabels instance views with schema labels.
func WithSchemaEnrichment(enabled bool) Option {
	return func(e *Explorer) {
		e.enrich = enabled
	}
}

// New creates an Explorer reading from source.
func New(source TripleSource, options ...Option) *Explorer {
	e := &Explorer{
		source: source,
		logger: slog.Default(),
	}
	for _, option := range options {
		option(e)
	}
	e.projector = graph.NewProjector(e.logger)
	return e
}

// Load fetches and projects the neighborhood described by req. On success
// the model becomes the current graph. On failure the current graph is left
// unchanged.
func (e *Explorer) Load(ctx context.Context, req Request) (*graph.Model, error) {
	result, err := e.LoadResult(ctx, req)
	if err != nil {
		return nil, err
	}
	return result.Model, nil
}

// LoadResult is Load returning the query and raw triples alongside the model.
func (e *Explorer) LoadResult(ctx context.Context, req Request) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	result, err := e.load(ctx, req)
	e.metrics.RecordLoad(req.view(), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	e.current = result.Model
	if !req.Schema {
		e.lastInstance = result.Model
	}
	return result, nil
}

func (e *Explorer) load(ctx context.Context, req Request) (*Result, error) {
	result := &Result{ID: uuid.New().String(), Request: req}
	logger := e.logger.With(slog.String("load_id", result.ID), slog.String("view", req.view()))

	params, ancestor, err := e.plan(ctx, req)
	if err != nil {
		logger.Warn("Load planning failed", slog.String("focus", req.Focus), slog.String("error", err.Error()))
		return nil, err
	}
	result.Focus = params.Focus
	result.Ancestor = ancestor

	result.Query, err = query.Build(params)
	if err != nil {
		return nil, err
	}
	logger.Debug("Synthesized query", slog.String("query", result.Query))

	result.Triples, err = e.source.Construct(ctx, result.Query)
	if err != nil {
		logger.Error("Query execution failed", slog.String("error", err.Error()))
		return nil, err
	}

	if req.Schema {
		result.Model = e.projector.Schema(result.Triples)
		if params.Focus == "" && params.NamedGraph == "" {
			e.schema = result.Model
		}
	} else {
		result.Model = e.projector.Instances(result.Triples)
		if e.enrich {
			schema, err := e.schemaLocked(ctx)
			if err != nil {
				return nil, fmt.Errorf("load schema for enrichment: %w", err)
			}
			graph.EnrichWithSchema(result.Model, schema)
		}
	}

	logger.Info("Loaded graph",
		slog.String("focus", result.Focus),
		slog.Int("triples", result.Triples.Count()),
		slog.Int("nodes", len(result.Model.Nodes)),
		slog.Int("edges", len(result.Model.Edges)))

	return result, nil
}

// plan resolves a blank focus and discovers named graphs when needed.
func (e *Explorer) plan(ctx context.Context, req Request) (query.Params, *graph.Ancestor, error) {
	params := query.Params{
		Focus:      req.Focus,
		NamedGraph: req.NamedGraph,
		Schema:     req.Schema,
		Expansion:  req.Expansion,
	}

	var resolved *graph.Ancestor
	if store.IsBlankID(req.Focus) {
		ancestor, ok := graph.ResolveBlankAncestor(e.lastInstance, req.Focus)
		if !ok {
			return params, nil, fmt.Errorf("%w: %s", ErrUnresolvedBlank, req.Focus)
		}
		params.Focus = ancestor.URI
		params.Expansion = query.ExpansionLevel(ancestor.Level)
		resolved = &ancestor
	}

	if query.NeedsGraphDiscovery(params.NamedGraph, params.Schema) {
		graphs, err := e.source.NamedGraphs(ctx)
		if err != nil {
			return params, nil, err
		}
		params.Graphs = graphs
	}

	return params, resolved, nil
}

// Plan returns the query text Load would execute for req without running
// it. Graph discovery still queries the store.
func (e *Explorer) Plan(ctx context.Context, req Request) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	params, _, err := e.plan(ctx, req)
	if err != nil {
		return "", err
	}
	return query.Build(params)
}

// Schema returns the full schema model, loading it on first use.
func (e *Explorer) Schema(ctx context.Context) (*graph.Model, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.schemaLocked(ctx)
}

func (e *Explorer) schemaLocked(ctx context.Context) (*graph.Model, error) {
	if e.schema != nil {
		return e.schema, nil
	}

	queryText, err := query.Build(query.Params{Schema: true})
	if err != nil {
		return nil, err
	}
	triples, err := e.source.Construct(ctx, queryText)
	if err != nil {
		return nil, err
	}
	e.schema = e.projector.Schema(triples)
	return e.schema, nil
}

// Current returns the model of the last successful load, or nil.
func (e *Explorer) Current() *graph.Model {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// LastInstance returns the model of the last successful instance load, used
// to resolve blank foci.
func (e *Explorer) LastInstance() *graph.Model {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastInstance
}

// Reset forgets all loaded graphs and the cached schema.
func (e *Explorer) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.current = nil
	e.lastInstance = nil
	e.schema = nil
}
