package suggest

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aurelianware/hipaa-attachments-sub007/internal/scenario"
)

const basePrompt = `You are a healthcare revenue-cycle specialist helping a billing team resolve a rejected claim.
Identifiers in the claim data have been redacted; never ask for or guess them.
Reply with a JSON array of 3 to 5 short, actionable suggestions (each under 200 characters) and nothing else.`

var scenarioFocus = map[scenario.Scenario]string{
	scenario.MemberIDInvalid:    "Focus on member ID format checks, prefix and suffix rules, card verification and eligibility lookups that confirm the correct member identifier.",
	scenario.EligibilityIssue:   "Focus on verifying coverage dates, plan status, coordination of benefits and real-time eligibility inquiries.",
	scenario.ProviderCredential: "Focus on provider enrollment, credentialing status, NPI and taxonomy alignment and billing-rendering relationships.",
	scenario.ServiceNotCovered:  "Focus on benefit exclusions, alternative covered codes, advance beneficiary notices and medical-necessity appeals.",
	scenario.PriorAuthRequired:  "Focus on the prior authorization workflow: locating existing authorizations, retro-authorization requests and matching authorized dates and units.",
	scenario.DuplicateClaim:     "Focus on detecting prior submissions, replacement versus original claim frequency codes and distinguishing line items.",
	scenario.TimelyFiling:       "Focus on proof of timely filing, payer filing limits, exceptions and reconsideration requests.",
	scenario.CodingError:        "Focus on procedure and diagnosis code validity, modifiers, bundling edits and diagnosis-to-procedure linkage.",
	scenario.MissingInformation: "Focus on identifying the missing data element, required claim fields and supporting attachments.",
	scenario.General:            "Focus on interpreting the rejection reason and the most likely corrective resubmission steps.",
}

// SystemPrompt returns the system prompt for s.
func SystemPrompt(s scenario.Scenario) string {
	focus, ok := scenarioFocus[s]
	if !ok {
		focus = scenarioFocus[scenario.General]
	}
	return basePrompt + "\n" + focus
}

// UserMessage renders the redacted claim data shown to the backend.
func UserMessage(s scenario.Scenario, safePayload any) (string, error) {
	data, err := json.MarshalIndent(safePayload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode redacted payload: %w", err)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Rejection scenario: %s\n", s)
	b.WriteString("Redacted claim data:\n")
	b.Write(data)
	b.WriteString("\nProvide remediation suggestions.")
	return b.String(), nil
}
