// Package llmclient is the HTTP transport shared by the completion backends.
// Each call is a single attempt guarded by a circuit breaker; retry policy
// belongs to the caller. Compressed replies (gzip, deflate, br) are decoded
// before the body reaches the backend's parser.
package llmclient

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/aurelianware/hipaa-attachments-sub007/internal/core"
	"github.com/aurelianware/hipaa-attachments-sub007/internal/httpclient"
)

// MaxResponseBodySize caps a decoded backend reply.
const MaxResponseBodySize = 2 * 1024 * 1024

// acceptEncoding is advertised on every request. Setting it disables the
// transport's transparent gzip handling, so decodeBody covers gzip too.
const acceptEncoding = "gzip, br"

// Config holds configuration for the client
type Config struct {
	// ProviderName identifies the backend in error messages
	ProviderName string

	// BaseURL is the API base URL
	BaseURL string

	// CircuitBreaker is optional; nil disables breaking.
	CircuitBreaker *CircuitBreakerConfig
}

// CircuitBreakerConfig holds circuit breaker settings
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens the circuit
	FailureThreshold int
	// SuccessThreshold is the number of half-open successes that closes it again
	SuccessThreshold int
	// Timeout is how long the circuit stays open before a trial request
	Timeout time.Duration
}

// DefaultConfig returns default client configuration
func DefaultConfig(providerName, baseURL string) Config {
	return Config{
		ProviderName: providerName,
		BaseURL:      baseURL,
		CircuitBreaker: &CircuitBreakerConfig{
			FailureThreshold: 5,
			SuccessThreshold: 2,
			Timeout:          30 * time.Second,
		},
	}
}

// HeaderSetter sets backend-specific headers (auth, versioning) on a request.
type HeaderSetter func(req *http.Request)

// Client is the shared transport for completion backends
type Client struct {
	httpClient     *http.Client
	config         Config
	headerSetter   HeaderSetter
	circuitBreaker *circuitBreaker
}

// New creates a client on the shared pooled HTTP client.
func New(config Config, headerSetter HeaderSetter) *Client {
	return NewWithHTTPClient(httpclient.NewDefaultHTTPClient(), config, headerSetter)
}

// NewWithHTTPClient creates a client on a caller-supplied HTTP client.
// A nil httpClient means http.DefaultClient.
func NewWithHTTPClient(httpClient *http.Client, config Config, headerSetter HeaderSetter) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &Client{
		httpClient:   httpClient,
		config:       config,
		headerSetter: headerSetter,
	}
	if cb := config.CircuitBreaker; cb != nil {
		c.circuitBreaker = newCircuitBreaker(cb.FailureThreshold, cb.SuccessThreshold, cb.Timeout)
	}
	return c
}

// SetBaseURL updates the base URL
func (c *Client) SetBaseURL(url string) {
	c.config.BaseURL = url
}

// BaseURL returns the current base URL
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// Request describes one backend call.
type Request struct {
	Method   string
	Endpoint string
	Body     any // JSON-encoded when non-nil
	Headers  map[string]string
}

// Do sends req once and decodes the JSON reply into result (when non-nil).
// Every failure is a backend EngineError.
func (c *Client) Do(ctx context.Context, req Request, result any) error {
	if c.circuitBreaker != nil && !c.circuitBreaker.Allow() {
		return c.backendError(http.StatusBadGateway, "circuit breaker is open - backend temporarily unavailable", nil)
	}

	status, body, err := c.send(ctx, req)
	if err != nil {
		c.recordFailure()
		return err
	}
	if status != http.StatusOK {
		if status >= http.StatusInternalServerError {
			c.recordFailure()
		}
		return core.ParseBackendError(c.config.ProviderName, status, body, nil)
	}
	if c.circuitBreaker != nil {
		c.circuitBreaker.RecordSuccess()
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(body, result); err != nil {
		return c.backendError(http.StatusBadGateway, "failed to unmarshal response: "+err.Error(), err)
	}
	return nil
}

// send performs the HTTP exchange and returns the status plus the decoded body.
func (c *Client) send(ctx context.Context, req Request) (int, []byte, error) {
	httpReq, err := c.buildRequest(ctx, req)
	if err != nil {
		return 0, nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, nil, c.backendError(http.StatusBadGateway, "failed to send request: "+err.Error(), err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBodySize+1))
	if err != nil {
		return 0, nil, c.backendError(http.StatusBadGateway, "failed to read response: "+err.Error(), err)
	}
	body, err := decodeBody(raw, resp.Header.Get("Content-Encoding"))
	if err != nil {
		return 0, nil, c.backendError(http.StatusBadGateway, "failed to decode response: "+err.Error(), err)
	}
	if len(body) > MaxResponseBodySize {
		return 0, nil, c.backendError(http.StatusBadGateway, "response body exceeds size limit", nil)
	}
	return resp.StatusCode, body, nil
}

func (c *Client) buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	var bodyReader io.Reader
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, core.NewInvalidRequestError("failed to marshal request", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.config.BaseURL+req.Endpoint, bodyReader)
	if err != nil {
		return nil, core.NewInvalidRequestError("failed to create request", err)
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept-Encoding", acceptEncoding)
	if c.headerSetter != nil {
		c.headerSetter(httpReq)
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}
	return httpReq, nil
}

func (c *Client) recordFailure() {
	if c.circuitBreaker != nil {
		c.circuitBreaker.RecordFailure()
	}
}

func (c *Client) backendError(status int, msg string, err error) *core.EngineError {
	return core.NewBackendError(c.config.ProviderName, status, msg, err)
}

// decodeBody undoes the first listed content coding. Unknown codings are an
// error: handing compressed bytes to the JSON parser only hides the cause.
func decodeBody(body []byte, contentEncoding string) ([]byte, error) {
	encoding := strings.ToLower(strings.TrimSpace(strings.Split(contentEncoding, ",")[0]))
	if encoding == "" || encoding == "identity" || len(body) == 0 {
		return body, nil
	}

	var reader io.ReadCloser
	switch encoding {
	case "gzip", "x-gzip":
		gz, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		reader = gz
	case "deflate":
		reader = flate.NewReader(bytes.NewReader(body))
	case "br":
		reader = io.NopCloser(brotli.NewReader(bytes.NewReader(body)))
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", encoding)
	}
	defer func() {
		_ = reader.Close()
	}()

	return io.ReadAll(io.LimitReader(reader, MaxResponseBodySize+1))
}

// circuitBreaker is a consecutive-failure breaker with a half-open trial state.
type circuitBreaker struct {
	mu               sync.Mutex
	state            circuitState
	failures         int
	successes        int
	failureThreshold int
	successThreshold int
	timeout          time.Duration
	openedAt         time.Time
}

type circuitState int

const (
	circuitClosed circuitState = iota
	circuitOpen
	circuitHalfOpen
)

var circuitStateNames = map[circuitState]string{
	circuitClosed:   "closed",
	circuitOpen:     "open",
	circuitHalfOpen: "half-open",
}

func newCircuitBreaker(failureThreshold, successThreshold int, timeout time.Duration) *circuitBreaker {
	return &circuitBreaker{
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		timeout:          timeout,
	}
}

// Allow reports whether a request may go out. An open circuit turns
// half-open once the timeout has elapsed.
func (cb *circuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == circuitOpen {
		if time.Since(cb.openedAt) <= cb.timeout {
			return false
		}
		cb.state = circuitHalfOpen
		cb.successes = 0
	}
	return true
}

func (cb *circuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case circuitHalfOpen:
		cb.successes++
		if cb.successes >= cb.successThreshold {
			cb.state = circuitClosed
			cb.failures = 0
		}
	case circuitClosed:
		cb.failures = 0
	}
}

func (cb *circuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	switch cb.state {
	case circuitClosed:
		if cb.failures >= cb.failureThreshold {
			cb.trip()
		}
	case circuitHalfOpen:
		cb.trip()
	}
}

func (cb *circuitBreaker) trip() {
	cb.state = circuitOpen
	cb.openedAt = time.Now()
	cb.successes = 0
}

// State names the current circuit state.
func (cb *circuitBreaker) State() string {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return circuitStateNames[cb.state]
}
