package providers

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/aurelianware/hipaa-attachments-sub007/internal/core"
)

// factoryMockProvider is a test implementation of core.Provider
type factoryMockProvider struct{}

func (m *factoryMockProvider) ChatCompletion(ctx context.Context, req *core.ChatRequest) (*core.ChatResponse, error) {
	return &core.ChatResponse{}, nil
}

func TestFactory_Register(t *testing.T) {
	factory := NewFactory()

	factory.Register("test-provider", func(cfg BackendConfig) (core.Provider, error) {
		return nil, nil
	})

	registered := factory.ListRegistered()
	if len(registered) != 1 {
		t.Fatalf("expected 1 registered provider, got %d", len(registered))
	}
	if registered[0] != "test-provider" {
		t.Errorf("expected 'test-provider', got %q", registered[0])
	}
}

func TestFactory_Create_UnknownType(t *testing.T) {
	factory := NewFactory()

	_, err := factory.Create(BackendConfig{Type: "unknown-type", APIKey: "test-key"})
	if err == nil {
		t.Fatal("expected error for unknown provider type, got nil")
	}

	var engineErr *core.EngineError
	if !errors.As(err, &engineErr) || engineErr.Type != core.ErrorTypeConfiguration {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if engineErr.Message != "unknown provider type: unknown-type" {
		t.Errorf("unexpected message %q", engineErr.Message)
	}
}

func TestFactory_Create_PassesConfig(t *testing.T) {
	factory := NewFactory()

	var captured BackendConfig
	factory.Register("custom", func(cfg BackendConfig) (core.Provider, error) {
		captured = cfg
		return &factoryMockProvider{}, nil
	})

	cfg := BackendConfig{
		Type:       "custom",
		APIKey:     "test-key",
		BaseURL:    "https://custom.api.endpoint.com/v1",
		Deployment: "claims-gpt",
	}
	provider, err := factory.Create(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider == nil {
		t.Fatal("expected provider to be created, got nil")
	}
	if captured.BaseURL != cfg.BaseURL || captured.Deployment != cfg.Deployment {
		t.Errorf("builder received %+v", captured)
	}
}

func TestFactory_ListRegisteredSorted(t *testing.T) {
	factory := NewFactory()
	for _, name := range []string{"provider3", "provider1", "provider2"} {
		factory.Register(name, func(cfg BackendConfig) (core.Provider, error) { return nil, nil })
	}

	got := factory.ListRegistered()
	want := []string{"provider1", "provider2", "provider3"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ListRegistered() = %v, want %v", got, want)
		}
	}
}

func TestBackendConfig_NewHTTPClient(t *testing.T) {
	custom := &http.Client{}
	if got := (BackendConfig{HTTPClient: custom}).NewHTTPClient(); got != custom {
		t.Error("expected the configured client to be returned")
	}

	got := BackendConfig{Timeout: 12 * time.Second}.NewHTTPClient()
	if got.Timeout != 12*time.Second {
		t.Errorf("Timeout = %v, want 12s", got.Timeout)
	}
}
