package phi

import (
	"regexp"
)

// Category names a class of PHI recognized by value.
type Category string

const (
	CategoryURL        Category = "URL"
	CategoryEmail      Category = "EMAIL"
	CategoryCreditCard Category = "CC"
	CategorySSN        Category = "SSN"
	CategoryPhone      Category = "PHONE"
	CategoryDOB        Category = "DOB"
	CategoryIPAddress  Category = "IP"
	CategoryZIP        Category = "ZIP"
)

// Pattern is one entry of the detection table. The detector, the redactor
// and the validator all read the same table.
type Pattern struct {
	Category    Category
	Regexp      *regexp.Regexp
	Placeholder string
	// Isolated rejects matches that touch a digit on either side. RE2 has no
	// lookaround, so the boundary is checked after matching.
	Isolated bool
}

// patterns is ordered for substitution: URLs and emails first because they
// may contain addresses and digit runs that narrower patterns would split.
var patterns = []Pattern{
	{
		Category:    CategoryURL,
		Regexp:      regexp.MustCompile(`https?://[^\s"'<>]+`),
		Placeholder: "[URL-REDACTED]",
	},
	{
		Category:    CategoryEmail,
		Regexp:      regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`),
		Placeholder: "***@***.***",
	},
	// Matches: 1234-5678-9012-3456, 1234 5678 9012 3456
	{
		Category:    CategoryCreditCard,
		Regexp:      regexp.MustCompile(`\d{4}[\s\-]\d{4}[\s\-]\d{4}[\s\-]\d{4}`),
		Placeholder: "****-****-****-XXXX",
		Isolated:    true,
	},
	{
		Category:    CategorySSN,
		Regexp:      regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
		Placeholder: "***-**-XXXX",
	},
	// Matches: (555) 123-4567, 555-123-4567, 555.123.4567, +1 555 123 4567.
	// A bare digit run never matches.
	{
		Category:    CategoryPhone,
		Regexp:      regexp.MustCompile(`(?:\+1[\s.\-]?)?(?:\(\d{3}\)\s?|\d{3}[\s.\-])\d{3}[\s.\-]\d{4}`),
		Placeholder: "(***) ***-XXXX",
		Isolated:    true,
	},
	// MM/DD/YYYY
	{
		Category:    CategoryDOB,
		Regexp:      regexp.MustCompile(`\b(?:0[1-9]|1[0-2])/(?:0[1-9]|[12]\d|3[01])/\d{4}\b`),
		Placeholder: "**/**/XXXX",
	},
	{
		Category:    CategoryIPAddress,
		Regexp:      regexp.MustCompile(`\b(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\b`),
		Placeholder: "***.***.***.***",
	},
	// 12345 or 12345-6789
	{
		Category:    CategoryZIP,
		Regexp:      regexp.MustCompile(`\d{5}(?:-\d{4})?`),
		Placeholder: "XXXXX",
		Isolated:    true,
	},
}

// Patterns returns a copy of the detection table in substitution order.
func Patterns() []Pattern {
	out := make([]Pattern, len(patterns))
	copy(out, patterns)
	return out
}

// FindAll returns the [start, end) byte offsets of every accepted match in s.
func (p Pattern) FindAll(s string) [][]int {
	locs := p.Regexp.FindAllStringIndex(s, -1)
	if !p.Isolated || len(locs) == 0 {
		return locs
	}
	accepted := locs[:0]
	for _, loc := range locs {
		if digitAt(s, loc[0]-1) || digitAt(s, loc[1]) {
			continue
		}
		accepted = append(accepted, loc)
	}
	return accepted
}

// Match reports whether s contains at least one accepted match.
func (p Pattern) Match(s string) bool {
	if !p.Isolated {
		return p.Regexp.MatchString(s)
	}
	return len(p.FindAll(s)) > 0
}

// Replace substitutes the placeholder for every accepted match.
func (p Pattern) Replace(s string) string {
	locs := p.FindAll(s)
	if len(locs) == 0 {
		return s
	}
	out := make([]byte, 0, len(s))
	last := 0
	for _, loc := range locs {
		out = append(out, s[last:loc[0]]...)
		out = append(out, p.Placeholder...)
		last = loc[1]
	}
	out = append(out, s[last:]...)
	return string(out)
}

func digitAt(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return false
	}
	return s[i] >= '0' && s[i] <= '9'
}
