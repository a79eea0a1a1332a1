package suggest

import (
	"context"
	"errors"
	"net/http"

	"github.com/aurelianware/hipaa-attachments-sub007/internal/core"
	"github.com/aurelianware/hipaa-attachments-sub007/internal/phi"
	"github.com/aurelianware/hipaa-attachments-sub007/internal/scenario"
)

const (
	DefaultMaxTokens   = 500
	DefaultTemperature = 0.3
)

// LiveConfig configures a Live provider.
type LiveConfig struct {
	// Name identifies the backend in errors, e.g. "openai".
	Name        string
	Model       string
	MaxTokens   int
	Temperature float64
	// Detector selects the vocabulary used to redact the payload. Nil uses
	// the built-in vocabulary.
	Detector *phi.Detector
	// AllowedFields are restored unredacted in the user message.
	AllowedFields []string
}

// Live generates suggestions through a completion backend.
type Live struct {
	backend core.Provider
	cfg     LiveConfig
}

// NewLive wraps backend. Zero MaxTokens or Temperature select the defaults.
func NewLive(backend core.Provider, cfg LiveConfig) *Live {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.Detector == nil {
		cfg.Detector = phi.Default()
	}
	return &Live{backend: backend, cfg: cfg}
}

// Name returns the backend name.
func (l *Live) Name() string {
	return l.cfg.Name
}

// GenerateSuggestions sends the scenario prompt and the redacted payload
// to the backend. Backend errors are returned as *core.EngineError.
func (l *Live) GenerateSuggestions(ctx context.Context, s scenario.Scenario, payload *core.RejectionPayload) (Suggestions, error) {
	if payload == nil {
		payload = &core.RejectionPayload{}
	}
	safe := l.cfg.Detector.CreateSafePayload(payload.ToMap(), l.cfg.AllowedFields, phi.MaskOptions{})
	userMsg, err := UserMessage(s, safe)
	if err != nil {
		return Suggestions{}, core.NewBackendError(l.cfg.Name, http.StatusBadGateway, "failed to build prompt", err)
	}

	maxTokens := l.cfg.MaxTokens
	temperature := l.cfg.Temperature
	req := &core.ChatRequest{
		Model:       l.cfg.Model,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
		Messages: []core.Message{
			{Role: "system", Content: SystemPrompt(s)},
			{Role: "user", Content: userMsg},
		},
	}

	resp, err := l.backend.ChatCompletion(ctx, req)
	if err != nil {
		var engineErr *core.EngineError
		if errors.As(err, &engineErr) {
			return Suggestions{}, engineErr
		}
		return Suggestions{}, core.NewBackendError(l.cfg.Name, http.StatusBadGateway, "completion request failed", err)
	}

	items := ParseSuggestions(resp.Content())
	if len(items) == 0 {
		return Suggestions{}, core.NewBackendError(l.cfg.Name, http.StatusBadGateway, "completion returned no usable suggestions", nil)
	}

	model := resp.Model
	if model == "" {
		model = l.cfg.Model
	}
	return Suggestions{
		Items:      items,
		TokenCount: resp.Usage.TotalTokens,
		Model:      model,
	}, nil
}
