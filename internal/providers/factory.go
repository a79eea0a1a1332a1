// Package providers provides a factory for creating live completion backends.
package providers

import (
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/aurelianware/hipaa-attachments-sub007/internal/core"
	"github.com/aurelianware/hipaa-attachments-sub007/internal/httpclient"
)

// BackendConfig describes one live completion backend.
type BackendConfig struct {
	Type       string
	BaseURL    string
	APIKey     string
	Model      string
	Deployment string // Azure OpenAI deployment name; switches openai into Azure mode
	APIVersion string

	Timeout               time.Duration
	ResponseHeaderTimeout time.Duration

	// HTTPClient overrides the client built from the timeouts above.
	HTTPClient *http.Client
}

// NewHTTPClient returns cfg.HTTPClient when set, otherwise a pooled client
// honoring the configured timeouts.
func (cfg BackendConfig) NewHTTPClient() *http.Client {
	if cfg.HTTPClient != nil {
		return cfg.HTTPClient
	}
	hc := httpclient.WithTimeouts(cfg.Timeout, cfg.ResponseHeaderTimeout)
	return httpclient.NewHTTPClient(&hc)
}

// Builder creates a backend instance from configuration
type Builder func(cfg BackendConfig) (core.Provider, error)

// Factory maps backend type names to builders.
type Factory struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewFactory creates an empty factory.
func NewFactory() *Factory {
	return &Factory{builders: make(map[string]Builder)}
}

// Register adds or replaces the builder for providerType.
func (f *Factory) Register(providerType string, builder Builder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.builders[providerType] = builder
}

// Create instantiates a backend based on configuration
func (f *Factory) Create(cfg BackendConfig) (core.Provider, error) {
	f.mu.RLock()
	builder, ok := f.builders[cfg.Type]
	f.mu.RUnlock()
	if !ok {
		return nil, core.NewConfigurationError(fmt.Sprintf("unknown provider type: %s", cfg.Type))
	}
	return builder(cfg)
}

// ListRegistered returns the registered backend types, sorted.
func (f *Factory) ListRegistered() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	types := make([]string, 0, len(f.builders))
	for t := range f.builders {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

var defaultFactory = NewFactory()

// Register allows backend packages to register themselves.
// This should be called from init() functions in backend packages.
func Register(providerType string, builder Builder) {
	defaultFactory.Register(providerType, builder)
}

// Create instantiates a backend from the package-level registry.
func Create(cfg BackendConfig) (core.Provider, error) {
	return defaultFactory.Create(cfg)
}

// ListRegistered returns the backend types in the package-level registry.
func ListRegistered() []string {
	return defaultFactory.ListRegistered()
}
