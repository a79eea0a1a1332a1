// Package scenario maps claim rejection error fields onto a closed set of
// root-cause scenarios.
package scenario

import (
	"fmt"
	"strings"
)

// Scenario is a rejection root-cause category.
type Scenario string

const (
	MemberIDInvalid    Scenario = "MemberIdInvalid"
	EligibilityIssue   Scenario = "EligibilityIssue"
	ProviderCredential Scenario = "ProviderCredential"
	ServiceNotCovered  Scenario = "ServiceNotCovered"
	PriorAuthRequired  Scenario = "PriorAuthRequired"
	DuplicateClaim     Scenario = "DuplicateClaim"
	TimelyFiling       Scenario = "TimelyFiling"
	CodingError        Scenario = "CodingError"
	MissingInformation Scenario = "MissingInformation"
	General            Scenario = "General"
)

var all = []Scenario{
	MemberIDInvalid,
	EligibilityIssue,
	ProviderCredential,
	ServiceNotCovered,
	PriorAuthRequired,
	DuplicateClaim,
	TimelyFiling,
	CodingError,
	MissingInformation,
	General,
}

// All returns every scenario.
func All() []Scenario {
	out := make([]Scenario, len(all))
	copy(out, all)
	return out
}

// Valid reports whether s is one of the known scenarios.
func (s Scenario) Valid() bool {
	for _, known := range all {
		if s == known {
			return true
		}
	}
	return false
}

func (s Scenario) String() string {
	return string(s)
}

// Parse returns the scenario named by name, ignoring case.
func Parse(name string) (Scenario, error) {
	for _, known := range all {
		if strings.EqualFold(name, string(known)) {
			return known, nil
		}
	}
	return "", fmt.Errorf("unknown scenario: %q", name)
}

// rule matches when every group has at least one term present in the text.
type rule struct {
	scenario Scenario
	groups   [][]string
}

// rules are evaluated in order and the first match wins. Narrow rules sit
// before broad ones: "service not covered" must be caught before the
// generic eligibility rule sees "not covered".
var rules = []rule{
	{MemberIDInvalid, [][]string{{"member"}, {"invalid", "not found"}}},
	{ServiceNotCovered, [][]string{{"service"}, {"not covered"}}},
	{EligibilityIssue, [][]string{{"eligib", "not covered", "not active"}}},
	{ProviderCredential, [][]string{{"provider"}, {"credential", "not found"}}},
	{PriorAuthRequired, [][]string{{"prior auth", "authorization required"}}},
	{DuplicateClaim, [][]string{{"duplicate"}}},
	{TimelyFiling, [][]string{{"timely filing", "submission deadline"}}},
	{CodingError, [][]string{{"code"}, {"invalid", "incorrect"}}},
	{MissingInformation, [][]string{{"missing", "required", "incomplete"}}},
}

// Classify returns the scenario for a rejection's error code and
// description. The rules match the description case-insensitively; the code
// is only consulted for the DUP marker, since payer codes such as
// AUTH_REQUIRED would otherwise trip unrelated rules. Input that matches no
// rule yields General.
func Classify(errorCode, errorDesc string) Scenario {
	text := strings.ToLower(errorDesc)
	codeUpper := strings.ToUpper(errorCode)

	for _, r := range rules {
		if r.scenario == DuplicateClaim && strings.Contains(codeUpper, "DUP") {
			return DuplicateClaim
		}
		if r.matches(text) {
			return r.scenario
		}
	}
	return General
}

func (r rule) matches(text string) bool {
	for _, group := range r.groups {
		if !containsAny(text, group) {
			return false
		}
	}
	return true
}

func containsAny(text string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}
