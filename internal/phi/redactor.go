package phi

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// Sentinel replaces a masked value when no suffix is kept visible.
	Sentinel = "***REDACTED***"
	// DefaultMaskChar is used when MaskOptions.MaskChar is empty or not a
	// single symbol.
	DefaultMaskChar = "*"

	minMaskedChars = 3
)

// MaskOptions controls MaskFields and CreateSafePayload.
type MaskOptions struct {
	// MaskChar is a single symbol repeated over the hidden prefix of masked
	// strings. Default "*".
	MaskChar string
	// VisibleSuffixLen keeps the last N characters of masked strings.
	// Zero replaces the whole value with Sentinel.
	VisibleSuffixLen int
	// DropFields removes PHI-named keys instead of masking them in place.
	// The default keeps every key present.
	DropFields bool
}

// MaskValue masks s, keeping the last visibleSuffixLen characters. It
// returns Sentinel when visibleSuffixLen is zero or s is empty. At least
// three mask characters are emitted even for short inputs. maskChar must be
// a single symbol; letters, digits, spaces and longer strings fall back to
// DefaultMaskChar so that the output stays recognizable as masked.
func MaskValue(s, maskChar string, visibleSuffixLen int) string {
	if visibleSuffixLen <= 0 || s == "" {
		return Sentinel
	}
	if !validMaskChar(maskChar) {
		maskChar = DefaultMaskChar
	}
	r := []rune(s)
	if len(r) <= visibleSuffixLen {
		return strings.Repeat(maskChar, max(len(r), minMaskedChars))
	}
	hidden := max(len(r)-visibleSuffixLen, minMaskedChars)
	return strings.Repeat(maskChar, hidden) + string(r[len(r)-visibleSuffixLen:])
}

func validMaskChar(c string) bool {
	r, size := utf8.DecodeRuneInString(c)
	if size == 0 || size != len(c) || r == utf8.RuneError {
		return false
	}
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r)
}

// maxRedactPasses bounds RedactPatterns. A placeholder can complete a new
// match (a ZIP "XXXXX" turning "a@b.12345" into an email), so the table is
// applied until the text stops changing.
const maxRedactPasses = 4

// RedactPatterns replaces every PHI pattern match in text with the
// category placeholder, e.g. "SSN 123-45-6789" becomes "SSN ***-**-XXXX".
// The result never matches a pattern; text that does not settle within
// maxRedactPasses is replaced by Sentinel.
func RedactPatterns(text string) string {
	if text == "" {
		return text
	}
	result := text
	for range maxRedactPasses {
		next := result
		for _, p := range patterns {
			next = p.Replace(next)
		}
		if next == result {
			return result
		}
		result = next
	}
	if len(Categories(result)) > 0 {
		return Sentinel
	}
	return result
}

// MaskFields returns a masked deep copy of obj using the built-in vocabulary.
func MaskFields(obj any, opts MaskOptions) any {
	return defaultDetector.MaskFields(obj, opts)
}

// CreateSafePayload masks obj, then restores allow-listed fields from the
// original using the built-in vocabulary.
func CreateSafePayload(obj any, allowedFields []string, opts MaskOptions) any {
	return defaultDetector.CreateSafePayload(obj, allowedFields, opts)
}

// MaskFields returns a masked deep copy of obj. PHI-named fields are
// masked (strings via MaskValue, anything else via Sentinel) or dropped
// when opts.DropFields is set. Other strings that match a PHI pattern are
// rewritten with RedactPatterns. Maps and slices are walked recursively.
// obj itself is never modified.
func (d *Detector) MaskFields(obj any, opts MaskOptions) any {
	return d.mask(obj, opts)
}

func (d *Detector) mask(v any, opts MaskOptions) any {
	switch val := v.(type) {
	case string:
		if IsPHIValue(val) {
			return RedactPatterns(val)
		}
		return val
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			if d.IsPHIFieldName(k) {
				if opts.DropFields {
					continue
				}
				out[k] = maskField(child, opts)
				continue
			}
			out[k] = d.mask(child, opts)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(val))
		for k, child := range val {
			if d.IsPHIFieldName(k) {
				if opts.DropFields {
					continue
				}
				out[k] = maskField(child, opts)
				continue
			}
			out[k] = d.mask(child, opts)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = d.mask(child, opts)
		}
		return out
	case []string:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = d.mask(child, opts)
		}
		return out
	case []map[string]any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = d.mask(child, opts)
		}
		return out
	default:
		return v
	}
}

// maskField masks the value of a PHI-named field.
func maskField(v any, opts MaskOptions) any {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		// A visible suffix could itself carry part of a pattern.
		return RedactPatterns(MaskValue(val, opts.MaskChar, opts.VisibleSuffixLen))
	default:
		return Sentinel
	}
}

// CreateSafePayload runs MaskFields and then restores, from the original
// obj, every field whose dotted path ("claim.errorCode") or bare key
// ("errorCode") is in allowedFields. Array indices are not part of the
// dotted path. With an empty allow-list the result equals MaskFields.
func (d *Detector) CreateSafePayload(obj any, allowedFields []string, opts MaskOptions) any {
	masked := d.MaskFields(obj, opts)
	if len(allowedFields) == 0 {
		return masked
	}
	allowed := make(map[string]struct{}, len(allowedFields))
	for _, f := range allowedFields {
		if f = strings.TrimSpace(f); f != "" {
			allowed[f] = struct{}{}
		}
	}
	return restore(obj, masked, "", allowed)
}

func restore(orig, masked any, path string, allowed map[string]struct{}) any {
	switch o := orig.(type) {
	case map[string]any:
		m, ok := masked.(map[string]any)
		if !ok {
			return masked
		}
		for k, ov := range o {
			p := joinPath(path, k)
			if isAllowed(allowed, p, k) {
				m[k] = deepCopy(ov)
				continue
			}
			if mv, ok := m[k]; ok {
				m[k] = restore(ov, mv, p, allowed)
			}
		}
		return m
	case map[string]string:
		m, ok := masked.(map[string]any)
		if !ok {
			return masked
		}
		for k, ov := range o {
			if isAllowed(allowed, joinPath(path, k), k) {
				m[k] = ov
			}
		}
		return m
	case []any:
		s, ok := masked.([]any)
		if !ok || len(s) != len(o) {
			return masked
		}
		for i := range o {
			s[i] = restore(o[i], s[i], path, allowed)
		}
		return s
	case []map[string]any:
		s, ok := masked.([]any)
		if !ok || len(s) != len(o) {
			return masked
		}
		for i := range o {
			s[i] = restore(o[i], s[i], path, allowed)
		}
		return s
	default:
		return masked
	}
}

func isAllowed(allowed map[string]struct{}, path, key string) bool {
	if _, ok := allowed[path]; ok {
		return true
	}
	_, ok := allowed[key]
	return ok
}

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

func indexPath(parent string, i int) string {
	return parent + "[" + strconv.Itoa(i) + "]"
}

func deepCopy(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = deepCopy(child)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = child
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = deepCopy(child)
		}
		return out
	case []string:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = child
		}
		return out
	case []map[string]any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = deepCopy(child)
		}
		return out
	default:
		return v
	}
}
