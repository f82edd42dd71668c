// Package sparql talks to a SPARQL 1.1 protocol endpoint over HTTP:
// CONSTRUCT queries return triple sets decoded from N-Triples and SELECT
// queries return decoded JSON results.
package sparql

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/coolbeans/datamap/pkg/cache"
	"github.com/coolbeans/datamap/pkg/metrics"
	"github.com/coolbeans/datamap/pkg/query"
	"github.com/coolbeans/datamap/pkg/store"
)

// Defaults for ClientConfig.
const (
	DefaultUserAgent       = "datamap-sparql-client/1.0"
	DefaultTimeout         = 60 * time.Second
	DefaultRequestInterval = 0
)

// Media types requested from the endpoint.
const (
	AcceptNTriples = "application/n-triples"
	AcceptTurtle   = "text/turtle"
	AcceptResults  = "application/sparql-results+json"
)

// ClientConfig holds configuration for a Client.
type ClientConfig struct {
	// Endpoint is the SPARQL query URL.
	Endpoint string

	// Timeout bounds each HTTP request. Default: 60 seconds.
	Timeout time.Duration

	// RateLimit is the minimum interval between requests. Zero disables it.
	RateLimit time.Duration

	// UserAgent is the User-Agent header sent with requests.
	UserAgent string

	// HTTPClient is the underlying HTTP client. If nil, an *http.Client
	// with Timeout is used.
	HTTPClient HTTPClient
}

// DefaultConfig returns a ClientConfig for endpoint with default settings.
func DefaultConfig(endpoint string) ClientConfig {
	return ClientConfig{
		Endpoint:  endpoint,
		Timeout:   DefaultTimeout,
		RateLimit: DefaultRequestInterval,
		UserAgent: DefaultUserAgent,
	}
}

// Client executes queries against one endpoint.
type Client struct {
	endpoint   string
	httpClient HTTPClient
	userAgent  string
	cache      cache.Cache
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// Option configures optional Client collaborators.
type Option func(*Client)

// WithCache caches successful responses.
func WithCache(responseCache cache.Cache) Option {
	return func(client *Client) {
		if responseCache != nil {
			client.cache = responseCache
		}
	}
}

// WithMetrics records request metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(client *Client) {
		client.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(client *Client) {
		if logger != nil {
			client.logger = logger
		}
	}
}

// NewClient creates a client for config.Endpoint.
func NewClient(config ClientConfig, options ...Option) *Client {
	underlying := config.HTTPClient
	if underlying == nil {
		timeout := config.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		underlying = &http.Client{Timeout: timeout}
	}

	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	client := &Client{
		endpoint:   config.Endpoint,
		httpClient: NewRateLimitedHTTPClient(underlying, config.RateLimit),
		userAgent:  userAgent,
		cache:      cache.Nop{},
		logger:     slog.Default(),
	}
	for _, option := range options {
		option(client)
	}
	return client
}

// Endpoint returns the endpoint URL.
func (client *Client) Endpoint() string {
	return client.endpoint
}

// Construct runs a CONSTRUCT query and decodes the N-Triples response.
func (client *Client) Construct(ctx context.Context, queryText string) (*store.TripleSet, error) {
	start := time.Now()
	set, err := client.construct(ctx, queryText)
	client.metrics.RecordQuery(metrics.KindConstruct, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	client.metrics.RecordTriples(set.Count())
	return set, nil
}

func (client *Client) construct(ctx context.Context, queryText string) (*store.TripleSet, error) {
	body, err := client.execute(ctx, queryText, AcceptNTriples)
	if err != nil {
		return nil, err
	}
	set, err := DecodeNTriples(bytes.NewReader(body), client.logger)
	if err != nil {
		return nil, &QueryExecutionError{Endpoint: client.endpoint, Err: err}
	}
	return set, nil
}

// ConstructTurtle runs a CONSTRUCT query and returns the raw Turtle body.
func (client *Client) ConstructTurtle(ctx context.Context, queryText string) ([]byte, error) {
	start := time.Now()
	body, err := client.execute(ctx, queryText, AcceptTurtle)
	client.metrics.RecordQuery(metrics.KindConstruct, time.Since(start), err)
	return body, err
}

// Select runs a SELECT query and decodes the JSON results.
func (client *Client) Select(ctx context.Context, queryText string) (*Results, error) {
	start := time.Now()
	results, err := client.selectResults(ctx, queryText)
	client.metrics.RecordQuery(metrics.KindSelect, time.Since(start), err)
	return results, err
}

func (client *Client) selectResults(ctx context.Context, queryText string) (*Results, error) {
	body, err := client.execute(ctx, queryText, AcceptResults)
	if err != nil {
		return nil, err
	}
	results, err := DecodeResults(bytes.NewReader(body))
	if err != nil {
		return nil, &QueryExecutionError{Endpoint: client.endpoint, Err: err}
	}
	return results, nil
}

// NamedGraphs lists the named graphs of the endpoint.
func (client *Client) NamedGraphs(ctx context.Context) ([]string, error) {
	results, err := client.Select(ctx, query.NamedGraphsQuery)
	if err != nil {
		return nil, err
	}
	graphs := results.Values(query.NamedGraphVariable)
	client.logger.Debug("Discovered named graphs",
		slog.String("endpoint", client.endpoint),
		slog.Int("count", len(graphs)))
	return graphs, nil
}

// execute sends queryText as a GET request and returns the response body.
// Successful responses are cached by endpoint, media type and query.
func (client *Client) execute(ctx context.Context, queryText, accept string) ([]byte, error) {
	key := cache.Key(client.endpoint, accept, queryText)
	if body, found, err := client.cache.Get(ctx, key); err != nil {
		client.logger.Warn("Cache lookup failed", slog.String("error", err.Error()))
	} else {
		client.metrics.RecordCache(found)
		if found {
			client.logger.Debug("Serving query from cache", slog.String("endpoint", client.endpoint))
			return body, nil
		}
	}

	requestURL, err := client.requestURL(queryText)
	if err != nil {
		return nil, &QueryExecutionError{Endpoint: client.endpoint, Err: err}
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, &QueryExecutionError{Endpoint: client.endpoint, Err: err}
	}
	request.Header.Set("Accept", accept)
	request.Header.Set("User-Agent", client.userAgent)

	client.logger.Debug("Executing query",
		slog.String("endpoint", client.endpoint),
		slog.String("accept", accept),
		slog.String("query", queryText))

	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, &QueryExecutionError{Endpoint: client.endpoint, Err: err}
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, &QueryExecutionError{Endpoint: client.endpoint, StatusCode: response.StatusCode, Err: err}
	}

	if response.StatusCode >= 400 {
		return nil, &QueryExecutionError{
			Endpoint:   client.endpoint,
			StatusCode: response.StatusCode,
			Body:       truncateBody(body),
			Err:        fmt.Errorf("HTTP %d", response.StatusCode),
		}
	}

	if err := client.cache.Set(ctx, key, body); err != nil {
		client.logger.Warn("Cache store failed", slog.String("error", err.Error()))
	}
	return body, nil
}

func (client *Client) requestURL(queryText string) (string, error) {
	parsed, err := url.Parse(client.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", client.endpoint, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("invalid endpoint %q: missing scheme or host", client.endpoint)
	}
	values := parsed.Query()
	values.Set("query", queryText)
	parsed.RawQuery = values.Encode()
	return parsed.String(), nil
}
