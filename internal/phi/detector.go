// Package phi recognizes, masks and audits Protected Health Information in
// claim payloads.
//
// Values are recognized by a fixed table of structural patterns (see
// Patterns) and fields by a sensitive-name Vocabulary. A Detector binds a
// vocabulary to the redaction and validation passes; the package-level
// functions use the built-in vocabulary.
//
// None of the functions in this package return errors or panic on
// malformed input. Non-string values are never treated as PHI by value.
package phi

// Detector recognizes PHI by value and by field name.
type Detector struct {
	vocab *Vocabulary
}

// NewDetector returns a detector using vocab. A nil vocab selects the
// built-in vocabulary.
func NewDetector(vocab *Vocabulary) *Detector {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	return &Detector{vocab: vocab}
}

var defaultDetector = NewDetector(nil)

// Default returns the detector backed by the built-in vocabulary.
func Default() *Detector {
	return defaultDetector
}

// Vocabulary returns the detector's field vocabulary.
func (d *Detector) Vocabulary() *Vocabulary {
	return d.vocab
}

// IsPHIValue reports whether s matches any PHI pattern.
func (d *Detector) IsPHIValue(s string) bool {
	return IsPHIValue(s)
}

// IsPHIFieldName reports whether name is a sensitive field name.
func (d *Detector) IsPHIFieldName(name string) bool {
	return d.vocab.Contains(name)
}

// IsPHIAny is IsPHIValue for untyped values; non-strings report false.
func (d *Detector) IsPHIAny(v any) bool {
	s, ok := v.(string)
	return ok && IsPHIValue(s)
}

// IsPHIValue reports whether s matches any PHI pattern.
func IsPHIValue(s string) bool {
	if s == "" {
		return false
	}
	for _, p := range patterns {
		if p.Match(s) {
			return true
		}
	}
	return false
}

// IsPHIFieldName reports whether name is in the built-in vocabulary.
func IsPHIFieldName(name string) bool {
	return defaultDetector.IsPHIFieldName(name)
}

// IsPHIAny reports whether v is a string matching any PHI pattern.
func IsPHIAny(v any) bool {
	return defaultDetector.IsPHIAny(v)
}

// Categories returns the pattern categories found in s, in table order.
func Categories(s string) []Category {
	var found []Category
	for _, p := range patterns {
		if p.Match(s) {
			found = append(found, p.Category)
		}
	}
	return found
}
