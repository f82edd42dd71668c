package explorer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolbeans/datamap/pkg/graph"
	"github.com/coolbeans/datamap/pkg/label"
	"github.com/coolbeans/datamap/pkg/query"
	"github.com/coolbeans/datamap/pkg/store"
)

const (
	ex   = "http://example.org/onto#"
	data = "http://example.org/data/"
)

// fakeSource answers CONSTRUCT queries with a handler and records them.
type fakeSource struct {
	mu        sync.Mutex
	construct func(queryText string) (*store.TripleSet, error)
	graphs    []string
	graphsErr error
	queries   []string
	discovery int
}

func (f *fakeSource) Construct(_ context.Context, queryText string) (*store.TripleSet, error) {
	f.mu.Lock()
	f.queries = append(f.queries, queryText)
	f.mu.Unlock()
	return f.construct(queryText)
}

func (f *fakeSource) NamedGraphs(context.Context) ([]string, error) {
	f.mu.Lock()
	f.discovery++
	f.mu.Unlock()
	return f.graphs, f.graphsErr
}

func named(subject, predicate, object string) store.Triple {
	return store.NewTriple(store.ParseID(subject), store.Named(predicate), store.ParseID(object))
}

func literal(subject, predicate, value, language string) store.Triple {
	return store.NewTriple(store.ParseID(subject), store.Named(predicate), store.Literal(value, language))
}

func instanceTriples() *store.TripleSet {
	return store.NewTripleSetFrom([]store.Triple{
		named(data+"acme", store.RDFType, ex+"Company"),
		named(data+"acme", ex+"address", "_:b1"),
		named("_:b1", ex+"geo", "_:b0"),
		literal("_:b0", ex+"lat", "46.05", ""),
	})
}

func schemaTriples() *store.TripleSet {
	return store.NewTripleSetFrom([]store.Triple{
		named(ex+"Company", store.RDFType, store.OWLClass),
		literal(ex+"Company", store.RDFSLabel, "company", "en"),
		literal(ex+"Company", store.RDFSLabel, "podjetje", "sl"),
	})
}

func isSchemaQuery(queryText string) bool {
	return !strings.Contains(queryText, "FROM")
}

func TestLoad_Schema(t *testing.T) {
	source := &fakeSource{construct: func(string) (*store.TripleSet, error) { return schemaTriples(), nil }}
	e := New(source)

	model, err := e.Load(context.Background(), Request{Schema: true})
	require.NoError(t, err)

	require.Len(t, model.Nodes, 1)
	assert.Equal(t, ex+"Company", model.Nodes[0].ID)
	assert.Equal(t, 0, source.discovery, "schema mode never discovers graphs")
	assert.Equal(t, []string{"CONSTRUCT { ?s ?p ?o } WHERE { ?s ?p ?o }"}, source.queries)
	assert.Same(t, model, e.Current())
	assert.Nil(t, e.LastInstance())
}

func TestLoad_InstanceDiscoversGraphs(t *testing.T) {
	source := &fakeSource{
		construct: func(string) (*store.TripleSet, error) { return instanceTriples(), nil },
		graphs:    []string{"http://example.org/graph/a", "http://example.org/graph/b"},
	}
	e := New(source)

	result, err := e.LoadResult(context.Background(), Request{})
	require.NoError(t, err)

	assert.Equal(t, 1, source.discovery)
	assert.Equal(t,
		"CONSTRUCT { ?s ?p ?o } FROM <http://example.org/graph/a> FROM <http://example.org/graph/b> WHERE { ?s ?p ?o }",
		result.Query)
	assert.NotEmpty(t, result.ID)
	assert.Equal(t, 4, result.Triples.Count())
	assert.Len(t, result.Model.Nodes, 3)
	assert.Len(t, result.Model.Edges, 2)
	assert.Same(t, result.Model, e.LastInstance())
}

func TestLoad_NamedGraphSkipsDiscovery(t *testing.T) {
	source := &fakeSource{construct: func(string) (*store.TripleSet, error) { return instanceTriples(), nil }}
	e := New(source)

	result, err := e.LoadResult(context.Background(), Request{NamedGraph: "http://example.org/graph/a"})
	require.NoError(t, err)

	assert.Equal(t, 0, source.discovery)
	assert.Contains(t, result.Query, "FROM <http://example.org/graph/a>")
}

func TestLoad_BlankFocusResolvesToAncestor(t *testing.T) {
	source := &fakeSource{construct: func(string) (*store.TripleSet, error) { return instanceTriples(), nil }}
	e := New(source)

	_, err := e.Load(context.Background(), Request{NamedGraph: "http://example.org/graph/a"})
	require.NoError(t, err)

	result, err := e.LoadResult(context.Background(), Request{
		Focus:      "_:b0",
		NamedGraph: "http://example.org/graph/a",
	})
	require.NoError(t, err)

	require.NotNil(t, result.Ancestor)
	assert.Equal(t, graph.Ancestor{URI: data + "acme", Level: 2}, *result.Ancestor)
	assert.Equal(t, data+"acme", result.Focus)

	want, err := query.Build(query.Params{
		Focus:      data + "acme",
		NamedGraph: "http://example.org/graph/a",
		Expansion:  query.ExpandTwo,
	})
	require.NoError(t, err)
	assert.Equal(t, want, result.Query)
}

func TestLoad_UnresolvedBlankKeepsCurrent(t *testing.T) {
	source := &fakeSource{construct: func(string) (*store.TripleSet, error) { return instanceTriples(), nil }}
	e := New(source)

	before, err := e.Load(context.Background(), Request{NamedGraph: "http://example.org/graph/a"})
	require.NoError(t, err)
	queries := len(source.queries)

	_, err = e.Load(context.Background(), Request{Focus: "_:unknown"})
	assert.ErrorIs(t, err, ErrUnresolvedBlank)
	assert.Same(t, before, e.Current())
	assert.Len(t, source.queries, queries, "no query is sent for an unresolved blank")
}

func TestLoad_BlankFocusWithoutPreviousGraph(t *testing.T) {
	source := &fakeSource{construct: func(string) (*store.TripleSet, error) { return instanceTriples(), nil }}
	e := New(source)

	_, err := e.Load(context.Background(), Request{Focus: "_:b0"})
	assert.ErrorIs(t, err, ErrUnresolvedBlank)
	assert.Nil(t, e.Current())
}

func TestLoad_FailureKeepsCurrent(t *testing.T) {
	fail := false
	boom := errors.New("endpoint unreachable")
	source := &fakeSource{construct: func(string) (*store.TripleSet, error) {
		if fail {
			return nil, boom
		}
		return schemaTriples(), nil
	}}
	e := New(source)

	before, err := e.Load(context.Background(), Request{Schema: true})
	require.NoError(t, err)

	fail = true
	_, err = e.Load(context.Background(), Request{Schema: true, Focus: ex + "Company"})
	assert.ErrorIs(t, err, boom)
	assert.Same(t, before, e.Current())
}

func TestLoad_DiscoveryFailure(t *testing.T) {
	boom := errors.New("discovery failed")
	source := &fakeSource{
		construct: func(string) (*store.TripleSet, error) { return instanceTriples(), nil },
		graphsErr: boom,
	}
	e := New(source)

	_, err := e.Load(context.Background(), Request{})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, source.queries)
}

func TestLoad_InvalidFocus(t *testing.T) {
	source := &fakeSource{construct: func(string) (*store.TripleSet, error) { return schemaTriples(), nil }}
	e := New(source)

	_, err := e.Load(context.Background(), Request{Schema: true, Focus: "http://example.org/a b"})
	assert.ErrorIs(t, err, query.ErrInvalidFocus)
	assert.Empty(t, source.queries)
}

func TestLoad_EmptyResultIsSuccess(t *testing.T) {
	source := &fakeSource{construct: func(string) (*store.TripleSet, error) { return store.NewTripleSet(), nil }}
	e := New(source)

	model, err := e.Load(context.Background(), Request{Schema: true})
	require.NoError(t, err)
	assert.True(t, model.IsEmpty())
	assert.Same(t, model, e.Current())
}

func TestLoad_SchemaEnrichment(t *testing.T) {
	source := &fakeSource{construct: func(queryText string) (*store.TripleSet, error) {
		if isSchemaQuery(queryText) {
			return schemaTriples(), nil
		}
		return instanceTriples(), nil
	}}
	e := New(source, WithSchemaEnrichment(true))

	for i := 0; i < 2; i++ {
		model, err := e.Load(context.Background(), Request{NamedGraph: "http://example.org/graph/a"})
		require.NoError(t, err)

		acme, ok := model.Node(data + "acme")
		require.True(t, ok)
		assert.Equal(t, label.NewMultilingual("Company", "Podjetje"), acme.Classes[0].Label)
	}

	schemaQueries := 0
	for _, q := range source.queries {
		if isSchemaQuery(q) {
			schemaQueries++
		}
	}
	assert.Equal(t, 1, schemaQueries, "schema is fetched once and cached")
}

func TestLoad_SchemaEnrichmentFailure(t *testing.T) {
	boom := errors.New("schema unavailable")
	source := &fakeSource{construct: func(queryText string) (*store.TripleSet, error) {
		if isSchemaQuery(queryText) {
			return nil, boom
		}
		return instanceTriples(), nil
	}}
	e := New(source, WithSchemaEnrichment(true))

	_, err := e.Load(context.Background(), Request{NamedGraph: "http://example.org/graph/a"})
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, e.Current())
	assert.Nil(t, e.LastInstance())
}

func TestPlan(t *testing.T) {
	source := &fakeSource{graphs: []string{"http://example.org/graph/a"}}
	e := New(source)

	text, err := e.Plan(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "CONSTRUCT { ?s ?p ?o } FROM <http://example.org/graph/a> WHERE { ?s ?p ?o }", text)
	assert.Empty(t, source.queries)
}

func TestReset(t *testing.T) {
	source := &fakeSource{construct: func(string) (*store.TripleSet, error) { return instanceTriples(), nil }}
	e := New(source)

	_, err := e.Load(context.Background(), Request{NamedGraph: "http://example.org/graph/a"})
	require.NoError(t, err)

	e.Reset()
	assert.Nil(t, e.Current())
	assert.Nil(t, e.LastInstance())
}

func TestLoad_Serialized(t *testing.T) {
	source := &fakeSource{construct: func(string) (*store.TripleSet, error) { return instanceTriples(), nil }}
	e := New(source)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.Load(context.Background(), Request{NamedGraph: "http://example.org/graph/a"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, source.queries, 8)
	assert.NotNil(t, e.Current())
}
