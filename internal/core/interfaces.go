package core

import "context"

// Provider defines the interface for text-completion backends used in live mode
type Provider interface {
	// ChatCompletion executes a two-message (system + user) completion request
	ChatCompletion(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
}
