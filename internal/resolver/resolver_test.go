package resolver

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurelianware/hipaa-attachments-sub007/internal/core"
	"github.com/aurelianware/hipaa-attachments-sub007/internal/scenario"
	"github.com/aurelianware/hipaa-attachments-sub007/internal/suggest"
)

type fakeProvider struct {
	items  []string
	tokens int
	err    error
	calls  atomic.Int32
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) GenerateSuggestions(ctx context.Context, s scenario.Scenario, payload *core.RejectionPayload) (suggest.Suggestions, error) {
	f.calls.Add(1)
	if f.err != nil {
		return suggest.Suggestions{}, f.err
	}
	return suggest.Suggestions{Items: f.items, TokenCount: f.tokens, Model: "fake-model"}, nil
}

type fixedClock struct{ t time.Time }

func (c *fixedClock) now() time.Time          { return c.t }
func (c *fixedClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fixedClock {
	return &fixedClock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func factoryFor(p suggest.Provider) LiveFactory {
	return func(Config) (suggest.Provider, error) { return p, nil }
}

func samplePayload() *core.RejectionPayload {
	return &core.RejectionPayload{
		TransactionID: "TX-1001",
		Payer:         "Acme Health",
		PayerID:       "ACME01",
		MemberID:      "M123456789",
		ErrorCode:     "ID001",
		ErrorDesc:     "Invalid member ID format",
	}
}

func liveConfig() Config {
	return Config{APIKey: "sk-test", MinInterval: time.Second}
}

func TestResolve_Mock(t *testing.T) {
	e := New()

	res, err := e.Resolve(context.Background(), samplePayload(), true, Config{})
	require.NoError(t, err)

	assert.Equal(t, "TX-1001", res.TransactionID)
	assert.Equal(t, string(scenario.MemberIDInvalid), res.Scenario)
	assert.Equal(t, suggest.MockModel, res.Model)
	assert.Equal(t, core.ModeMock, res.Mode)
	assert.Equal(t, MockConfidence, res.Confidence)
	assert.Zero(t, res.TokenCount)

	mentionsMember := false
	for _, s := range res.Suggestions {
		if strings.Contains(strings.ToLower(s), "member") {
			mentionsMember = true
		}
	}
	assert.True(t, mentionsMember, "expected a suggestion mentioning member: %v", res.Suggestions)

	m := e.Metrics()
	assert.Equal(t, int64(1), m.TotalRequests)
	assert.Equal(t, int64(1), m.MockModeRequests)
	assert.GreaterOrEqual(t, m.AverageProcessingTimeMs, 0.0)
}

func TestResolve_MockIgnoresRateLimit(t *testing.T) {
	clock := newClock()
	e := New(WithClock(clock.now))

	cfg := Config{MinInterval: time.Hour}
	for range 5 {
		_, err := e.Resolve(context.Background(), samplePayload(), true, cfg)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(5), e.Metrics().SuccessfulRequests)
	assert.Zero(t, e.Metrics().RateLimitHits)
}

func TestResolve_NilPayload(t *testing.T) {
	res, err := New().Resolve(context.Background(), nil, true, Config{})
	require.NoError(t, err)
	assert.Equal(t, string(scenario.General), res.Scenario)
}

func TestResolve_LiveMissingCredentials(t *testing.T) {
	fake := &fakeProvider{items: []string{"x"}}
	e := New(WithLiveFactory(factoryFor(fake)))

	_, err := e.Resolve(context.Background(), samplePayload(), false, Config{})
	var engineErr *core.EngineError
	require.ErrorAs(t, err, &engineErr)
	assert.Equal(t, core.ErrorTypeConfiguration, engineErr.Type)
	assert.Zero(t, fake.calls.Load(), "no fallback and no backend call")

	m := e.Metrics()
	assert.Equal(t, int64(1), m.FailedRequests)
	assert.Equal(t, int64(1), m.TotalRequests)
}

func TestResolve_LiveRateLimited(t *testing.T) {
	clock := newClock()
	fake := &fakeProvider{items: []string{"Verify the subscriber ID"}, tokens: 100}
	e := New(WithClock(clock.now), WithLiveFactory(factoryFor(fake)))

	_, err := e.Resolve(context.Background(), samplePayload(), false, liveConfig())
	require.NoError(t, err)

	clock.advance(400 * time.Millisecond)
	_, err = e.Resolve(context.Background(), samplePayload(), false, liveConfig())
	var engineErr *core.EngineError
	require.ErrorAs(t, err, &engineErr)
	assert.Equal(t, core.ErrorTypeRateLimit, engineErr.Type)
	assert.Equal(t, int64(600), engineErr.RetryAfterMs())

	clock.advance(600 * time.Millisecond)
	_, err = e.Resolve(context.Background(), samplePayload(), false, liveConfig())
	require.NoError(t, err)

	m := e.Metrics()
	assert.Equal(t, int64(1), m.RateLimitHits)
	assert.Equal(t, int64(1), m.FailedRequests)
	assert.Equal(t, int64(2), m.SuccessfulRequests)
	assert.Equal(t, int32(2), fake.calls.Load())
}

func TestResolve_LiveConfidence(t *testing.T) {
	tests := []struct {
		tokens int
		want   float64
	}{
		{0, 0.5},
		{300, 0.65},
		{900, 0.95},
		{5000, 0.95},
	}
	for _, tt := range tests {
		fake := &fakeProvider{items: []string{"Resubmit"}, tokens: tt.tokens}
		e := New(WithLiveFactory(factoryFor(fake)))

		res, err := e.Resolve(context.Background(), samplePayload(), false, Config{APIKey: "k"})
		require.NoError(t, err)
		assert.InDelta(t, tt.want, res.Confidence, 1e-9, "tokens=%d", tt.tokens)
		assert.Equal(t, "fake-model", res.Model)
		assert.Equal(t, core.ModeLive, res.Mode)
		assert.Equal(t, tt.tokens, res.TokenCount)
	}
}

func TestResolve_LiveOutputRedacted(t *testing.T) {
	fake := &fakeProvider{items: []string{
		"Call the member at 555-123-4567",
		"Confirm SSN 123-45-6789 with the payer",
	}}
	e := New(WithLiveFactory(factoryFor(fake)))

	res, err := e.Resolve(context.Background(), samplePayload(), false, Config{APIKey: "k"})
	require.NoError(t, err)
	for _, s := range res.Suggestions {
		assert.NotContains(t, s, "555-123-4567")
		assert.NotContains(t, s, "123-45-6789")
	}
}

func TestResolve_LiveBackendFailure(t *testing.T) {
	backendErr := core.NewBackendError("fake", http.StatusBadGateway, "upstream status 500", nil)
	fake := &fakeProvider{err: backendErr}
	e := New(WithLiveFactory(factoryFor(fake)))

	_, err := e.Resolve(context.Background(), samplePayload(), false, Config{APIKey: "k"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, backendErr))

	m := e.Metrics()
	assert.Equal(t, int64(1), m.FailedRequests)
	assert.Zero(t, m.SuccessfulRequests)
	assert.Zero(t, m.MockModeRequests)
}

func TestResolve_LiveFactoryError(t *testing.T) {
	e := New(WithLiveFactory(func(Config) (suggest.Provider, error) {
		return nil, core.NewConfigurationError("unknown provider type: carrier-pigeon")
	}))

	_, err := e.Resolve(context.Background(), samplePayload(), false, Config{APIKey: "k"})
	var engineErr *core.EngineError
	require.ErrorAs(t, err, &engineErr)
	assert.Equal(t, core.ErrorTypeConfiguration, engineErr.Type)
	assert.Equal(t, int64(1), e.Metrics().FailedRequests)
}

func TestResolve_LiveThroughOpenAIBackend(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		body, _ := io.ReadAll(r.Body)
		if strings.Contains(string(body), "M123456789") {
			t.Errorf("member id reached the backend: %s", body)
		}
		if !strings.Contains(string(body), "Invalid member ID format") {
			t.Errorf("error description missing from prompt: %s", body)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"model": "gpt-4o-mini",
			"choices": [{"message": {"role": "assistant", "content": "[\"Verify the member ID against the card\", \"Resubmit with the corrected ID\"]"}}],
			"usage": {"prompt_tokens": 180, "completion_tokens": 20, "total_tokens": 200}
		}`))
	}))
	defer server.Close()

	e := New()
	cfg := Config{Provider: "openai", BaseURL: server.URL, APIKey: "sk-test"}

	res, err := e.Resolve(context.Background(), samplePayload(), false, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"Verify the member ID against the card", "Resubmit with the corrected ID"}, res.Suggestions)
	assert.Equal(t, 200, res.TokenCount)
	assert.InDelta(t, 0.6, res.Confidence, 1e-9)
	assert.Equal(t, "gpt-4o-mini", res.Model)
	assert.Equal(t, int32(1), requests.Load())
}

func TestLiveProvider_Cached(t *testing.T) {
	e := New()
	cfg := Config{Provider: "anthropic", APIKey: "k"}

	first, err := e.liveProvider(cfg)
	require.NoError(t, err)
	second, err := e.liveProvider(cfg)
	require.NoError(t, err)
	assert.Same(t, first, second)

	cfg.Model = "claude-3-5-sonnet-latest"
	third, err := e.liveProvider(cfg)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
}

func TestConfig_Defaults(t *testing.T) {
	assert.Equal(t, "openai", Config{}.ProviderType())
	assert.Equal(t, "gpt-4o-mini", Config{}.ModelName())
	assert.Equal(t, "claude-3-5-haiku-latest", Config{Provider: "Anthropic"}.ModelName())
	assert.Equal(t, "claims-gpt", Config{Deployment: "claims-gpt"}.ModelName())

	a := Config{APIKey: "k", MinInterval: time.Second}
	b := Config{APIKey: "k", MinInterval: time.Minute}
	assert.Equal(t, a.fingerprint(), b.fingerprint())
	b.APIKey = "other"
	assert.NotEqual(t, a.fingerprint(), b.fingerprint())
}

func TestEngine_ResetMetrics(t *testing.T) {
	e := New()
	_, err := e.Resolve(context.Background(), samplePayload(), true, Config{})
	require.NoError(t, err)

	prev := e.ResetMetrics()
	assert.Equal(t, int64(1), prev.TotalRequests)
	assert.Zero(t, e.Metrics().TotalRequests)
}

func TestEngine_IndependentInstances(t *testing.T) {
	clock := newClock()
	fake := &fakeProvider{items: []string{"ok"}}
	a := New(WithClock(clock.now), WithLiveFactory(factoryFor(fake)))
	b := New(WithClock(clock.now), WithLiveFactory(factoryFor(fake)))

	_, err := a.Resolve(context.Background(), samplePayload(), false, liveConfig())
	require.NoError(t, err)
	_, err = b.Resolve(context.Background(), samplePayload(), false, liveConfig())
	require.NoError(t, err, "each engine has its own limiter")
}
