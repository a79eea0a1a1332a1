// Package suggest produces remediation suggestions for a classified claim
// rejection, either from a static table or from a completion backend.
package suggest

import (
	"context"

	"github.com/aurelianware/hipaa-attachments-sub007/internal/core"
	"github.com/aurelianware/hipaa-attachments-sub007/internal/scenario"
)

// Suggestions is the output of a single generation.
type Suggestions struct {
	Items      []string
	TokenCount int
	Model      string
}

// Provider generates suggestions for a scenario. Implementations must
// return items that are already free of PHI patterns.
type Provider interface {
	Name() string
	GenerateSuggestions(ctx context.Context, s scenario.Scenario, payload *core.RejectionPayload) (Suggestions, error)
}
