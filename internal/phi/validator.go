package phi

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"unicode"
)

// redactionMarkers are substrings whose presence marks a PHI field value
// as already masked.
var redactionMarkers = []string{"REDACTED", "***", "XXXX"}

// ValidateRedaction audits obj using the built-in vocabulary.
func ValidateRedaction(obj any) (bool, []string) {
	return defaultDetector.ValidateRedaction(obj)
}

// ValidateRedaction re-scans an allegedly redacted structure and returns
// one violation per offending path. It is read-only.
//
// A string anywhere in obj that matches a pattern yields
// "<path>: contains <CATEGORY> pattern". A PHI-named field holding a
// non-empty value without a redaction marker yields
// "<path>: PHI field not redacted". Paths use dot notation with array
// indices in brackets, e.g. "claims[1].memberId".
func (d *Detector) ValidateRedaction(obj any) (bool, []string) {
	var violations []string
	d.audit(obj, "", false, &violations)
	return len(violations) == 0, violations
}

func (d *Detector) audit(v any, path string, phiField bool, violations *[]string) {
	switch val := v.(type) {
	case nil:
		return
	case string:
		for _, c := range Categories(val) {
			*violations = append(*violations, fmt.Sprintf("%s: contains %s pattern", displayPath(path), c))
		}
		if phiField && val != "" && !isMasked(val) {
			*violations = append(*violations, fmt.Sprintf("%s: PHI field not redacted", displayPath(path)))
		}
	case map[string]any:
		if phiField {
			*violations = append(*violations, fmt.Sprintf("%s: PHI field not redacted", displayPath(path)))
		}
		for _, k := range slices.Sorted(maps.Keys(val)) {
			d.audit(val[k], joinPath(path, k), d.IsPHIFieldName(k), violations)
		}
	case map[string]string:
		if phiField {
			*violations = append(*violations, fmt.Sprintf("%s: PHI field not redacted", displayPath(path)))
		}
		for _, k := range slices.Sorted(maps.Keys(val)) {
			d.audit(val[k], joinPath(path, k), d.IsPHIFieldName(k), violations)
		}
	case []any:
		for i, child := range val {
			d.audit(child, indexPath(path, i), phiField, violations)
		}
	case []string:
		for i, child := range val {
			d.audit(child, indexPath(path, i), phiField, violations)
		}
	case []map[string]any:
		for i, child := range val {
			d.audit(child, indexPath(path, i), phiField, violations)
		}
	default:
		if phiField {
			*violations = append(*violations, fmt.Sprintf("%s: PHI field not redacted", displayPath(path)))
		}
	}
}

// isMasked reports whether s carries a redaction marker or starts with a
// run of at least three identical mask characters (a custom MaskChar).
func isMasked(s string) bool {
	for _, m := range redactionMarkers {
		if strings.Contains(s, m) {
			return true
		}
	}
	r := []rune(s)
	if len(r) < minMaskedChars || unicode.IsLetter(r[0]) || unicode.IsDigit(r[0]) || unicode.IsSpace(r[0]) {
		return false
	}
	for i := 1; i < minMaskedChars; i++ {
		if r[i] != r[0] {
			return false
		}
	}
	return true
}

func displayPath(path string) string {
	if path == "" {
		return "(root)"
	}
	return path
}
