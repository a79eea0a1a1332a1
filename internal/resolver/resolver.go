// Package resolver composes classification, suggestion generation, rate
// limiting, redaction and metrics into a single Resolve call.
package resolver

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aurelianware/hipaa-attachments-sub007/internal/core"
	"github.com/aurelianware/hipaa-attachments-sub007/internal/metrics"
	"github.com/aurelianware/hipaa-attachments-sub007/internal/phi"
	"github.com/aurelianware/hipaa-attachments-sub007/internal/ratelimit"
	"github.com/aurelianware/hipaa-attachments-sub007/internal/scenario"
	"github.com/aurelianware/hipaa-attachments-sub007/internal/suggest"
)

const (
	// MockConfidence is reported for every mock-mode resolution.
	MockConfidence = 0.85

	liveConfidenceBase = 0.5
	liveConfidenceCap  = 0.95
	tokensPerPoint     = 2000.0
)

// State names a step of a resolution. States are only logged.
type State string

const (
	StateStart           State = "start"
	StateClassified      State = "classified"
	StateMockPath        State = "mock_path"
	StateRateLimitCheck  State = "rate_limit_check"
	StateLivePath        State = "live_path"
	StateRedacted        State = "redacted"
	StateMetricsRecorded State = "metrics_recorded"
	StateDone            State = "done"
	StateError           State = "error"
)

// Config carries the per-call live-mode settings. Mock mode ignores it.
type Config struct {
	// Provider is the backend type registered in internal/providers.
	// Empty selects "openai".
	Provider    string
	BaseURL     string
	APIKey      string
	Model       string
	Deployment  string
	APIVersion  string
	MaxTokens   int
	Temperature float64
	// MinInterval is the minimum spacing between live calls, process wide.
	MinInterval time.Duration
	// AllowedFields are payload paths sent to the backend unredacted.
	AllowedFields []string
	// Outbound HTTP timeouts. Zero uses the httpclient defaults.
	Timeout               time.Duration
	ResponseHeaderTimeout time.Duration
}

// LiveFactory builds the live suggestion provider for a config.
type LiveFactory func(Config) (suggest.Provider, error)

// Option configures an Engine.
type Option func(*Engine)

// WithLimiter replaces the in-process rate limiter.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(e *Engine) { e.limiter = l }
}

// WithAggregator shares an existing metrics aggregator.
func WithAggregator(a *metrics.Aggregator) Option {
	return func(e *Engine) { e.metrics = a }
}

// WithMock replaces the static mock provider.
func WithMock(p suggest.Provider) Option {
	return func(e *Engine) { e.mock = p }
}

// WithDetector selects the PHI vocabulary used for outbound payloads.
func WithDetector(d *phi.Detector) Option {
	return func(e *Engine) { e.detector = d }
}

// WithLiveFactory replaces backend construction. Providers built by a custom
// factory are not cached.
func WithLiveFactory(f LiveFactory) Option {
	return func(e *Engine) { e.liveFactory = f }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the logger used for state tracing.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// Engine resolves claim rejections. It owns its rate limiter and metrics, so
// several engines can coexist with independent limits.
type Engine struct {
	limiter     *ratelimit.Limiter
	metrics     *metrics.Aggregator
	mock        suggest.Provider
	detector    *phi.Detector
	liveFactory LiveFactory
	cacheLive   bool
	now         func() time.Time
	logger      *slog.Logger

	mu   sync.Mutex
	live map[uint64]suggest.Provider
}

// New creates an engine with an in-process limiter, a fresh aggregator and
// the static mock provider.
func New(opts ...Option) *Engine {
	e := &Engine{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	if e.limiter == nil {
		e.limiter = ratelimit.New(nil)
	}
	if e.metrics == nil {
		e.metrics = metrics.NewAggregator()
	}
	if e.mock == nil {
		e.mock = suggest.NewMock(0)
	}
	if e.detector == nil {
		e.detector = phi.Default()
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.liveFactory == nil {
		e.liveFactory = NewLiveFactory(e.detector)
		e.cacheLive = true
	}
	e.live = make(map[uint64]suggest.Provider)
	return e
}

// Resolve classifies the rejection and produces redacted suggestions. In live
// mode a missing APIKey is a configuration error, a call inside MinInterval of
// the previous live call is a rate limit error, and backend failures are
// backend errors; all three count as failed requests. Nothing is retried.
func (e *Engine) Resolve(ctx context.Context, payload *core.RejectionPayload, mock bool, cfg Config) (*core.ResolutionResult, error) {
	start := e.now()
	if payload == nil {
		payload = &core.RejectionPayload{}
	}
	log := e.logger.With("transaction_id", payload.TransactionID)
	e.trace(ctx, log, StateStart)

	s := scenario.Classify(payload.ErrorCode, payload.ErrorDesc)
	e.trace(ctx, log, StateClassified, "scenario", s.String())

	var (
		out  suggest.Suggestions
		err  error
		mode = core.ModeMock
	)
	if mock {
		e.trace(ctx, log, StateMockPath)
		out, err = e.mock.GenerateSuggestions(ctx, s, payload)
		if err == nil && out.Model == "" {
			out.Model = suggest.MockModel
		}
	} else {
		mode = core.ModeLive
		out, err = e.resolveLive(ctx, log, s, payload, cfg)
	}
	if err != nil {
		return nil, e.fail(ctx, log, err)
	}

	items := make([]string, 0, len(out.Items))
	for _, item := range out.Items {
		items = append(items, phi.RedactPatterns(item))
	}
	e.trace(ctx, log, StateRedacted, "suggestions", len(items))

	elapsed := e.now().Sub(start)
	if elapsed < 0 {
		elapsed = 0
	}
	e.metrics.RecordSuccess(int(elapsed.Milliseconds()), out.TokenCount, mock)
	e.trace(ctx, log, StateMetricsRecorded)

	result := &core.ResolutionResult{
		TransactionID:    payload.TransactionID,
		Suggestions:      items,
		Model:            out.Model,
		Mode:             mode,
		Confidence:       confidence(mock, out.TokenCount),
		ProcessingTimeMs: elapsed.Milliseconds(),
		TokenCount:       out.TokenCount,
		Scenario:         s.String(),
	}
	e.trace(ctx, log, StateDone,
		"mode", mode,
		"duration_ms", result.ProcessingTimeMs,
		"tokens", result.TokenCount,
	)
	return result, nil
}

func (e *Engine) resolveLive(ctx context.Context, log *slog.Logger, s scenario.Scenario, payload *core.RejectionPayload, cfg Config) (suggest.Suggestions, error) {
	if cfg.APIKey == "" {
		return suggest.Suggestions{}, core.NewConfigurationError("live mode requires backend credentials: api key is empty")
	}

	e.trace(ctx, log, StateRateLimitCheck)
	if err := e.limiter.CheckAndRecordContext(ctx, e.now(), cfg.MinInterval); err != nil {
		var engineErr *core.EngineError
		if errors.As(err, &engineErr) && engineErr.Type == core.ErrorTypeRateLimit {
			e.metrics.RecordRateLimitHit()
		}
		return suggest.Suggestions{}, err
	}

	provider, err := e.liveProvider(cfg)
	if err != nil {
		return suggest.Suggestions{}, err
	}

	e.trace(ctx, log, StateLivePath, "provider", provider.Name())
	return provider.GenerateSuggestions(ctx, s, payload)
}

func (e *Engine) liveProvider(cfg Config) (suggest.Provider, error) {
	if !e.cacheLive {
		return e.liveFactory(cfg)
	}

	key := cfg.fingerprint()
	e.mu.Lock()
	defer e.mu.Unlock()
	if p, ok := e.live[key]; ok {
		return p, nil
	}
	p, err := e.liveFactory(cfg)
	if err != nil {
		return nil, err
	}
	if len(e.live) >= maxCachedProviders {
		clear(e.live)
	}
	e.live[key] = p
	return p, nil
}

func (e *Engine) fail(ctx context.Context, log *slog.Logger, err error) error {
	e.metrics.RecordFailure()
	errType := "unknown"
	var engineErr *core.EngineError
	if errors.As(err, &engineErr) {
		errType = string(engineErr.Type)
	}
	log.WarnContext(ctx, "resolution failed", "state", StateError, "error_type", errType)
	return err
}

func (e *Engine) trace(ctx context.Context, log *slog.Logger, state State, args ...any) {
	if !log.Enabled(ctx, slog.LevelDebug) {
		return
	}
	log.DebugContext(ctx, "resolution state", append([]any{"state", state}, args...)...)
}

// Metrics returns a snapshot of the engine's counters.
func (e *Engine) Metrics() metrics.Snapshot {
	return e.metrics.Snapshot()
}

// ResetMetrics zeroes the counters and returns the window that was closed.
func (e *Engine) ResetMetrics() metrics.Snapshot {
	return e.metrics.Reset()
}

// Aggregator exposes the engine's metrics for collectors.
func (e *Engine) Aggregator() *metrics.Aggregator {
	return e.metrics
}

// Detector returns the PHI detector used for outbound payloads.
func (e *Engine) Detector() *phi.Detector {
	return e.detector
}

// Close releases the rate limiter store.
func (e *Engine) Close() error {
	return e.limiter.Close()
}

func confidence(mock bool, tokens int) float64 {
	if mock {
		return MockConfidence
	}
	return min(liveConfidenceBase+float64(tokens)/tokensPerPoint, liveConfidenceCap)
}
