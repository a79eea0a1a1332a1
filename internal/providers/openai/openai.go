// Package openai provides OpenAI and Azure OpenAI chat completion backends.
package openai

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/aurelianware/hipaa-attachments-sub007/internal/core"
	"github.com/aurelianware/hipaa-attachments-sub007/internal/llmclient"
	"github.com/aurelianware/hipaa-attachments-sub007/internal/providers"
)

const (
	defaultBaseURL         = "https://api.openai.com/v1"
	defaultAzureAPIVersion = "2024-06-01"
)

func init() {
	providers.Register("openai", Build)
	providers.Register("azure-openai", Build)
}

// Build creates a backend from configuration. A non-empty Deployment selects
// Azure mode, which requires BaseURL to be the resource endpoint.
func Build(cfg providers.BackendConfig) (core.Provider, error) {
	if cfg.Deployment == "" && cfg.Type != "azure-openai" {
		p := NewWithHTTPClient(cfg.APIKey, cfg.NewHTTPClient())
		if cfg.BaseURL != "" {
			p.SetBaseURL(cfg.BaseURL)
		}
		return p, nil
	}
	if cfg.Deployment == "" {
		return nil, core.NewConfigurationError("azure-openai requires a deployment name")
	}
	if cfg.BaseURL == "" {
		return nil, core.NewConfigurationError("azure-openai requires a base URL")
	}
	return NewAzure(cfg.APIKey, cfg.BaseURL, cfg.Deployment, cfg.APIVersion, cfg.NewHTTPClient()), nil
}

// Provider implements core.Provider for OpenAI-compatible chat completions
type Provider struct {
	client     *llmclient.Client
	apiKey     string
	deployment string
	apiVersion string
}

// New creates a new OpenAI provider.
func New(apiKey string) *Provider {
	return NewWithHTTPClient(apiKey, nil)
}

// NewWithHTTPClient creates a new OpenAI provider with a custom HTTP client.
// If httpClient is nil, http.DefaultClient is used.
func NewWithHTTPClient(apiKey string, httpClient *http.Client) *Provider {
	p := &Provider{apiKey: apiKey}
	p.client = llmclient.NewWithHTTPClient(httpClient, llmclient.DefaultConfig("openai", defaultBaseURL), p.setHeaders)
	return p
}

// NewAzure creates a provider addressing an Azure OpenAI deployment.
func NewAzure(apiKey, baseURL, deployment, apiVersion string, httpClient *http.Client) *Provider {
	if apiVersion == "" {
		apiVersion = defaultAzureAPIVersion
	}
	p := &Provider{apiKey: apiKey, deployment: deployment, apiVersion: apiVersion}
	cfg := llmclient.DefaultConfig("azure-openai", strings.TrimRight(baseURL, "/"))
	p.client = llmclient.NewWithHTTPClient(httpClient, cfg, p.setHeaders)
	return p
}

// SetBaseURL allows configuring a custom base URL for the provider
func (p *Provider) SetBaseURL(url string) {
	p.client.SetBaseURL(url)
}

func (p *Provider) isAzure() bool {
	return p.deployment != ""
}

// setHeaders sets the required headers for OpenAI API requests
func (p *Provider) setHeaders(req *http.Request) {
	if p.isAzure() {
		req.Header.Set("api-key", p.apiKey)
	} else {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	// OpenAI requires ASCII-only characters and max 512 bytes, otherwise returns 400.
	if requestID := core.GetRequestID(req.Context()); requestID != "" && isValidClientRequestID(requestID) {
		req.Header.Set("X-Client-Request-Id", requestID)
	}
}

// isValidClientRequestID checks if the request ID is valid for OpenAI's X-Client-Request-Id header.
func isValidClientRequestID(id string) bool {
	if len(id) > 512 {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] > 127 {
			return false
		}
	}
	return true
}

func (p *Provider) chatEndpoint() string {
	if !p.isAzure() {
		return "/chat/completions"
	}
	return "/openai/deployments/" + url.PathEscape(p.deployment) +
		"/chat/completions?api-version=" + url.QueryEscape(p.apiVersion)
}

// isOSeriesModel reports whether the model is an OpenAI o-series model
// (o1, o3, o4) that requires max_completion_tokens instead of max_tokens
// and does not support the temperature parameter.
func isOSeriesModel(model string) bool {
	m := strings.ToLower(model)
	return len(m) >= 2 && m[0] == 'o' && m[1] >= '0' && m[1] <= '9'
}

// oSeriesChatRequest is the JSON body sent to OpenAI for o-series models.
type oSeriesChatRequest struct {
	Model               string         `json:"model"`
	Messages            []core.Message `json:"messages"`
	MaxCompletionTokens *int           `json:"max_completion_tokens,omitempty"`
}

func adaptForOSeries(req *core.ChatRequest) *oSeriesChatRequest {
	return &oSeriesChatRequest{
		Model:               req.Model,
		Messages:            req.Messages,
		MaxCompletionTokens: req.MaxTokens,
	}
}

// ChatCompletion sends a chat completion request
func (p *Provider) ChatCompletion(ctx context.Context, req *core.ChatRequest) (*core.ChatResponse, error) {
	var body any = req
	if isOSeriesModel(req.Model) {
		body = adaptForOSeries(req)
	}

	var resp core.ChatResponse
	err := p.client.Do(ctx, llmclient.Request{
		Method:   http.MethodPost,
		Endpoint: p.chatEndpoint(),
		Body:     body,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Model == "" {
		resp.Model = req.Model
	}
	resp.Provider = "openai"
	if p.isAzure() {
		resp.Provider = "azure-openai"
	}
	return &resp, nil
}
