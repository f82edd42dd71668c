package sparql

import (
	"net/http"
	"sync"
	"time"
)

// HTTPClient is an interface matching the Do method of *http.Client.
// This allows injection of mock clients for testing and custom transports.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// RateLimitedHTTPClient enforces a minimum interval between requests.
// Waiting honours the request context.
type RateLimitedHTTPClient struct {
	underlying      HTTPClient
	requestInterval time.Duration
	next            time.Time
	mu              sync.Mutex
}

// NewRateLimitedHTTPClient wraps underlying with the given minimum interval.
// A zero interval disables waiting.
func NewRateLimitedHTTPClient(underlying HTTPClient, requestInterval time.Duration) *RateLimitedHTTPClient {
	return &RateLimitedHTTPClient{
		underlying:      underlying,
		requestInterval: requestInterval,
	}
}

// Do reserves the next request slot, waits for it and sends the request.
func (rateLimitedClient *RateLimitedHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if rateLimitedClient.requestInterval > 0 {
		rateLimitedClient.mu.Lock()
		now := time.Now()
		slot := rateLimitedClient.next
		if slot.Before(now) {
			slot = now
		}
		rateLimitedClient.next = slot.Add(rateLimitedClient.requestInterval)
		rateLimitedClient.mu.Unlock()

		if wait := time.Until(slot); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-req.Context().Done():
				timer.Stop()
				return nil, req.Context().Err()
			case <-timer.C:
			}
		}
	}

	return rateLimitedClient.underlying.Do(req)
}
