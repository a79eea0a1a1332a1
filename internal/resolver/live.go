package resolver

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/aurelianware/hipaa-attachments-sub007/internal/phi"
	"github.com/aurelianware/hipaa-attachments-sub007/internal/providers"
	"github.com/aurelianware/hipaa-attachments-sub007/internal/suggest"

	// Backends register themselves with the providers factory.
	_ "github.com/aurelianware/hipaa-attachments-sub007/internal/providers/anthropic"
	_ "github.com/aurelianware/hipaa-attachments-sub007/internal/providers/openai"
)

const (
	DefaultProvider = "openai"

	maxCachedProviders = 16
)

var defaultModels = map[string]string{
	"openai":    "gpt-4o-mini",
	"anthropic": "claude-3-5-haiku-latest",
}

// ProviderType returns the configured backend type or the default.
func (c Config) ProviderType() string {
	if c.Provider == "" {
		return DefaultProvider
	}
	return strings.ToLower(c.Provider)
}

// ModelName returns the configured model. Azure deployments fall back to
// the deployment name, other backends to their default model.
func (c Config) ModelName() string {
	if c.Model != "" {
		return c.Model
	}
	if c.Deployment != "" {
		return c.Deployment
	}
	return defaultModels[c.ProviderType()]
}

// fingerprint identifies the backend a config builds. MinInterval is
// excluded since it belongs to the limiter.
func (c Config) fingerprint() uint64 {
	d := xxhash.New()
	for _, s := range []string{
		c.ProviderType(), c.BaseURL, c.APIKey, c.ModelName(), c.Deployment, c.APIVersion,
		strconv.Itoa(c.MaxTokens), strconv.FormatFloat(c.Temperature, 'g', -1, 64),
		strings.Join(c.AllowedFields, ","),
		c.Timeout.String(), c.ResponseHeaderTimeout.String(),
	} {
		_, _ = d.WriteString(s)
		_, _ = d.Write([]byte{0})
	}
	return d.Sum64()
}

// NewLiveFactory returns a factory that builds registered backends and wraps
// them in a suggest.Live that redacts payloads with detector.
func NewLiveFactory(detector *phi.Detector) LiveFactory {
	return func(cfg Config) (suggest.Provider, error) {
		backend, err := providers.Create(providers.BackendConfig{
			Type:       cfg.ProviderType(),
			BaseURL:    cfg.BaseURL,
			APIKey:     cfg.APIKey,
			Model:      cfg.ModelName(),
			Deployment: cfg.Deployment,
			APIVersion: cfg.APIVersion,

			Timeout:               cfg.Timeout,
			ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,
		})
		if err != nil {
			return nil, err
		}
		return suggest.NewLive(backend, suggest.LiveConfig{
			Name:          cfg.ProviderType(),
			Model:         cfg.ModelName(),
			MaxTokens:     cfg.MaxTokens,
			Temperature:   cfg.Temperature,
			Detector:      detector,
			AllowedFields: cfg.AllowedFields,
		}), nil
	}
}
