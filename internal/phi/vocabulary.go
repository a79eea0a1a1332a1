package phi

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// minStemLen is the shortest term that matches anywhere inside a folded
// field name. Shorter terms (ssn, ip, zip, dob) match a whole word of the
// name, or the start or end of the folded name, so that "subscriberssn"
// and "zipcode" are flagged while "description" is not.
const minStemLen = 4

// termExceptions lists ordinary words that contain a term by accident. An
// occurrence of the term inside one of its exception words is ignored.
var termExceptions = map[string][]string{
	"city":  {"ethnicity", "electricity", "capacity", "specificity", "velocity", "publicity", "authenticity", "multiplicity"},
	"ip":    {"membership", "relationship", "ownership", "partnership", "sponsorship", "citizenship", "tooltip", "skip", "strip", "ship"},
	"name":  {"namespace"},
	"plate": {"template"},
	"url":   {"curl"},
}

// defaultFieldNames is the built-in sensitive field vocabulary.
var defaultFieldNames = []string{
	"ssn", "socialsecurity", "socialsecuritynumber",
	"memberid", "subscriberid", "providerid", "mrn", "medicalrecord", "patientid", "patient",
	"name", "firstname", "lastname", "fullname", "middlename",
	"dob", "dateofbirth", "birthdate", "birth",
	"phone", "telephone", "mobile", "fax", "email",
	"address", "street", "city", "zip", "postal",
	"account", "claimnumber", "claimid",
	"license", "certificate", "device", "serial", "vehicle", "plate",
	"url", "ip", "npi", "biometric", "photo",
}

// Vocabulary is a set of sensitive field-name terms. Terms are folded once
// on construction; lookups fold the candidate name and test set membership
// before falling back to stem, affix and word matching.
type Vocabulary struct {
	exact map[string]struct{}
	stems []string
	short []string
}

// NewVocabulary builds a vocabulary from the given terms. Terms are
// case-folded and stripped of separators, empty terms are ignored.
func NewVocabulary(terms ...string) *Vocabulary {
	v := &Vocabulary{exact: make(map[string]struct{}, len(terms))}
	v.add(terms...)
	return v
}

// DefaultVocabulary returns a fresh copy of the built-in vocabulary.
func DefaultVocabulary() *Vocabulary {
	return NewVocabulary(defaultFieldNames...)
}

// With returns a new vocabulary holding v's terms plus the extra ones.
func (v *Vocabulary) With(terms ...string) *Vocabulary {
	out := NewVocabulary(v.Terms()...)
	out.add(terms...)
	return out
}

// Terms returns the folded terms in sorted order.
func (v *Vocabulary) Terms() []string {
	out := make([]string, 0, len(v.exact))
	for t := range v.exact {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// Len returns the number of distinct terms.
func (v *Vocabulary) Len() int {
	return len(v.exact)
}

// Contains reports whether name is a sensitive field name.
func (v *Vocabulary) Contains(name string) bool {
	folded := fold(name)
	if folded == "" {
		return false
	}
	if _, ok := v.exact[folded]; ok {
		return true
	}
	for _, stem := range v.stems {
		if strings.Contains(withoutExceptions(folded, stem), stem) {
			return true
		}
	}
	for _, term := range v.short {
		cleaned := withoutExceptions(folded, term)
		if strings.HasPrefix(cleaned, term) || strings.HasSuffix(cleaned, term) {
			return true
		}
	}
	for _, word := range splitWords(name) {
		if _, ok := v.exact[word]; ok {
			return true
		}
	}
	return false
}

// withoutExceptions blanks every exception word of term found in folded.
// Folded names contain no spaces, so the blank never forms a match.
func withoutExceptions(folded, term string) string {
	for _, word := range termExceptions[term] {
		if strings.Contains(folded, word) {
			folded = strings.ReplaceAll(folded, word, " ")
		}
	}
	return folded
}

func (v *Vocabulary) add(terms ...string) {
	for _, t := range terms {
		f := fold(t)
		if f == "" {
			continue
		}
		if _, ok := v.exact[f]; ok {
			continue
		}
		v.exact[f] = struct{}{}
		if len(f) >= minStemLen {
			v.stems = append(v.stems, f)
		} else {
			v.short = append(v.short, f)
		}
	}
}

// vocabularyFile is the on-disk form read by LoadVocabulary.
type vocabularyFile struct {
	// FieldNames are added to the built-in vocabulary.
	FieldNames []string `yaml:"field_names"`
	// ReplaceDefaults drops the built-in vocabulary when true.
	ReplaceDefaults bool `yaml:"replace_defaults"`
}

// LoadVocabulary reads a YAML vocabulary file of the form
//
//	field_names:
//	  - beneficiaryid
//	  - guardian
//	replace_defaults: false
//
// The listed names extend the built-in vocabulary unless replace_defaults
// is set.
func LoadVocabulary(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary file: %w", err)
	}
	var file vocabularyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary file: %w", err)
	}
	if file.ReplaceDefaults {
		if len(file.FieldNames) == 0 {
			return nil, fmt.Errorf("vocabulary file %s replaces defaults but lists no field names", path)
		}
		return NewVocabulary(file.FieldNames...), nil
	}
	return DefaultVocabulary().With(file.FieldNames...), nil
}

// fold lower-cases s and removes the separators used in field names.
func fold(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '_', '-', '.', ' ':
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// splitWords breaks a field name into lower-case words on separators and
// camelCase boundaries: "subscriberSSN" yields [subscriber ssn] and
// "ip_address" yields [ip address].
func splitWords(s string) []string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}
	runes := []rune(s)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == '.' || r == ' ':
			flush()
			continue
		case unicode.IsUpper(r) && len(cur) > 0:
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return words
}
