package suggest

import (
	"context"
	"time"

	"github.com/aurelianware/hipaa-attachments-sub007/internal/core"
	"github.com/aurelianware/hipaa-attachments-sub007/internal/scenario"
)

// MockModel is the model name reported for static suggestions.
const MockModel = "mock"

var mockSuggestions = map[scenario.Scenario][]string{
	scenario.MemberIDInvalid: {
		"Verify the member ID against the card on file, including any alpha prefix or suffix",
		"Confirm the member ID format matches the payer's published specification",
		"Run a real-time eligibility inquiry to confirm the member is active with this payer",
		"Check whether the member was issued a new ID after a plan change or renewal",
	},
	scenario.EligibilityIssue: {
		"Run a real-time eligibility check for the date of service",
		"Confirm coverage effective and termination dates with the payer",
		"Check for coordination of benefits and whether another payer is primary",
		"Ask the patient for updated insurance information before resubmitting",
	},
	scenario.ProviderCredential: {
		"Confirm the rendering provider is credentialed and enrolled with the payer",
		"Verify the NPI and taxonomy code on the claim match the payer's enrollment record",
		"Check that the billing and rendering provider relationship is on file",
		"Contact provider relations to confirm the credentialing status and effective date",
	},
	scenario.ServiceNotCovered: {
		"Review the plan's benefit summary for exclusions covering this service",
		"Check whether an alternative covered procedure code applies",
		"Obtain a signed advance beneficiary notice before billing the patient",
		"Consider an appeal with documentation of medical necessity",
	},
	scenario.PriorAuthRequired: {
		"Check whether a prior authorization was obtained and attach the authorization number",
		"Submit a retroactive authorization request if the payer allows it",
		"Confirm the authorized service dates and units match the claim",
		"Review the payer's prior authorization list for this procedure code",
	},
	scenario.DuplicateClaim: {
		"Search for an earlier submission of this claim and check its status",
		"If this is a correction, resubmit as a replacement claim with the original reference number",
		"Verify that service dates and line items differ from the previously adjudicated claim",
	},
	scenario.TimelyFiling: {
		"Locate proof of timely filing such as clearinghouse acceptance reports",
		"Check the payer's filing limit and whether an exception applies",
		"File a reconsideration with evidence of the original submission date",
	},
	scenario.CodingError: {
		"Validate procedure and diagnosis codes against the current code set",
		"Check modifier usage and whether the code pair is bundled",
		"Confirm the diagnosis supports medical necessity for the billed procedure",
		"Review units and place of service for consistency with the procedure code",
	},
	scenario.MissingInformation: {
		"Review the rejection detail to identify the missing data element",
		"Complete required fields such as referring provider, onset date or attachments",
		"Attach supporting documentation requested by the payer and resubmit",
	},
	scenario.General: {
		"Review the full rejection reason and any payer-specific remark codes",
		"Contact the payer's provider services line for clarification",
		"Correct the identified issue and resubmit the claim",
	},
}

// Mock serves suggestions from a static scenario table. It is safe for
// concurrent use and never fails.
type Mock struct {
	// Latency is slept before returning to produce realistic timing metrics.
	Latency time.Duration
}

// NewMock returns a static provider with the given simulated latency.
func NewMock(latency time.Duration) *Mock {
	return &Mock{Latency: latency}
}

// Name returns the provider name.
func (m *Mock) Name() string {
	return MockModel
}

// GenerateSuggestions returns the static suggestions for s. Unknown
// scenarios get the General entries. A cancelled context cuts the simulated
// latency short but still returns the suggestions.
func (m *Mock) GenerateSuggestions(ctx context.Context, s scenario.Scenario, _ *core.RejectionPayload) (Suggestions, error) {
	if m.Latency > 0 {
		timer := time.NewTimer(m.Latency)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
		}
	}
	return Suggestions{Items: MockSuggestions(s), Model: MockModel}, nil
}

// MockSuggestions returns a copy of the static suggestions for s.
func MockSuggestions(s scenario.Scenario) []string {
	items, ok := mockSuggestions[s]
	if !ok {
		items = mockSuggestions[scenario.General]
	}
	out := make([]string, len(items))
	copy(out, items)
	return out
}
