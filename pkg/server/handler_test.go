package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolbeans/datamap/pkg/explorer"
	"github.com/coolbeans/datamap/pkg/graph"
	"github.com/coolbeans/datamap/pkg/metrics"
	"github.com/coolbeans/datamap/pkg/sparql"
	"github.com/coolbeans/datamap/pkg/store"
)

const ex = "http://example.org/onto#"

type fakeSource struct {
	triples   *store.TripleSet
	err       error
	graphs    []string
	graphsErr error
	queries   []string
}

func (f *fakeSource) Construct(_ context.Context, queryText string) (*store.TripleSet, error) {
	f.queries = append(f.queries, queryText)
	if f.err != nil {
		return nil, f.err
	}
	return f.triples, nil
}

func (f *fakeSource) NamedGraphs(context.Context) ([]string, error) {
	return f.graphs, f.graphsErr
}

func schemaTriples() *store.TripleSet {
	return store.NewTripleSetFrom([]store.Triple{
		store.NewTriple(store.Named(ex+"Company"), store.Named(store.RDFType), store.Named(store.OWLClass)),
		store.NewTriple(store.Named(ex+"Company"), store.Named(store.RDFSLabel), store.Literal("company", "en")),
		store.NewTriple(store.Named(ex+"Secret"), store.Named(store.RDFType), store.Named(store.OWLClass)),
	})
}

func newTestServer(t *testing.T, source *fakeSource, cfg Config) (*httptest.Server, *metrics.Metrics) {
	t.Helper()
	m := metrics.New()
	exp := explorer.New(source, explorer.WithMetrics(m))
	ts := httptest.NewServer(Handler(exp, source, m, cfg, nil))
	t.Cleanup(ts.Close)
	return ts, m
}

func get(t *testing.T, ts *httptest.Server, path string, params url.Values) (*http.Response, []byte) {
	t.Helper()
	target := ts.URL + path
	if params != nil {
		target += "?" + params.Encode()
	}
	resp, err := http.Get(target)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func decodeError(t *testing.T, body []byte) ErrorResponse {
	t.Helper()
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(body, &errResp))
	return errResp
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t, &fakeSource{}, Config{})

	resp, body := get(t, ts, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestGraph_SchemaHidesConcepts(t *testing.T) {
	source := &fakeSource{triples: schemaTriples()}
	ts, _ := newTestServer(t, source, Config{Hidden: []string{ex + "Secret"}})

	resp, body := get(t, ts, "/api/graph", url.Values{"schema": {"true"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var model graph.Model
	require.NoError(t, json.Unmarshal(body, &model))
	require.Len(t, model.Nodes, 1)
	assert.Equal(t, ex+"Company", model.Nodes[0].ID)
	assert.Equal(t, "company", model.Nodes[0].Label["en"])
}

func TestGraph_DefaultView(t *testing.T) {
	source := &fakeSource{triples: store.NewTripleSet()}
	ts, _ := newTestServer(t, source, Config{DisplaySchema: false, InstanceGraph: "http://example.org/graph/a"})

	resp, _ := get(t, ts, "/api/graph", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, source.queries, 1)
	assert.Contains(t, source.queries[0], "FROM <http://example.org/graph/a>")
}

func TestGraph_Errors(t *testing.T) {
	tests := []struct {
		name   string
		source *fakeSource
		params url.Values
		status int
		code   string
	}{
		{
			name:   "invalid schema flag",
			source: &fakeSource{},
			params: url.Values{"schema": {"maybe"}},
			status: http.StatusBadRequest,
			code:   "bad_request",
		},
		{
			name:   "invalid focus",
			source: &fakeSource{triples: store.NewTripleSet()},
			params: url.Values{"schema": {"true"}, "focus": {"http://example.org/a b"}},
			status: http.StatusBadRequest,
			code:   "invalid_focus",
		},
		{
			name:   "unresolved blank",
			source: &fakeSource{triples: store.NewTripleSet()},
			params: url.Values{"focus": {"_:b0"}},
			status: http.StatusNotFound,
			code:   "unresolved_blank",
		},
		{
			name: "endpoint failure",
			source: &fakeSource{err: &sparql.QueryExecutionError{
				Endpoint:   "http://example.org/sparql",
				StatusCode: http.StatusServiceUnavailable,
				Err:        errors.New("HTTP 503"),
			}},
			params: url.Values{"schema": {"true"}},
			status: http.StatusBadGateway,
			code:   "query_failed",
		},
		{
			name: "endpoint timeout",
			source: &fakeSource{err: &sparql.QueryExecutionError{
				Endpoint: "http://example.org/sparql",
				Err:      fmt.Errorf("Get: %w", context.DeadlineExceeded),
			}},
			params: url.Values{"schema": {"true"}},
			status: http.StatusGatewayTimeout,
			code:   "timeout",
		},
		{
			name:   "unexpected failure",
			source: &fakeSource{err: errors.New("boom")},
			params: url.Values{"schema": {"true"}},
			status: http.StatusInternalServerError,
			code:   "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, _ := newTestServer(t, tt.source, Config{})

			resp, body := get(t, ts, "/api/graph", tt.params)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.code, decodeError(t, body).Error)
		})
	}
}

func TestGraphs(t *testing.T) {
	source := &fakeSource{graphs: []string{"http://example.org/graph/a"}}
	ts, _ := newTestServer(t, source, Config{})

	resp, body := get(t, ts, "/api/graphs", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var graphs GraphsResponse
	require.NoError(t, json.Unmarshal(body, &graphs))
	assert.Equal(t, []string{"http://example.org/graph/a"}, graphs.Graphs)
}

func TestGraphs_Empty(t *testing.T) {
	ts, _ := newTestServer(t, &fakeSource{}, Config{})

	resp, body := get(t, ts, "/api/graphs", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"graphs":[]}`, string(body))
}

func TestGraphs_Failure(t *testing.T) {
	source := &fakeSource{graphsErr: &sparql.QueryExecutionError{Endpoint: "x", Err: errors.New("refused")}}
	ts, _ := newTestServer(t, source, Config{})

	resp, body := get(t, ts, "/api/graphs", nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "query_failed", decodeError(t, body).Error)
}

func TestSearch(t *testing.T) {
	source := &fakeSource{triples: schemaTriples()}
	ts, _ := newTestServer(t, source, Config{Hidden: []string{ex + "Secret"}})

	resp, body := get(t, ts, "/api/search", url.Values{"q": {"ecr"}})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "no_graph", decodeError(t, body).Error)

	resp, _ = get(t, ts, "/api/graph", url.Values{"schema": {"true"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = get(t, ts, "/api/search", url.Values{"q": {"comp"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result SearchResponse
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, []string{ex + "Company"}, result.Matches)

	_, body = get(t, ts, "/api/search", url.Values{"q": {"secret"}})
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Empty(t, result.Matches, "hidden concepts are not searchable")
}

func TestMetrics(t *testing.T) {
	source := &fakeSource{triples: schemaTriples()}
	ts, _ := newTestServer(t, source, Config{})

	resp, _ := get(t, ts, "/api/graph", url.Values{"schema": {"true"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := get(t, ts, "/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), `datamap_loads_total{status="success",view="schema"} 1`))
}

func TestRecovery(t *testing.T) {
	panicking := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })
	h := applyMiddleware(panicking, requestIDMiddleware, recoveryMiddleware(discardLogger()))

	recorder := httptest.NewRecorder()
	h.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
