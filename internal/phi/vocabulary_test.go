package phi

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPHIFieldName(t *testing.T) {
	tests := []struct {
		name  string
		field string
		want  bool
	}{
		{"exact", "ssn", true},
		{"camel case", "memberId", true},
		{"upper case", "MEMBERID", true},
		{"snake case", "member_id", true},
		{"kebab case", "date-of-birth", true},
		{"stem inside name", "patientFirstName", true},
		{"email stem", "subscriberEmail", true},
		{"short term as word", "billingZip", true},
		{"acronym word", "subscriberSSN", true},
		{"ip as word", "ip_address", true},
		{"name as word", "payerName", true},
		{"provider npi", "providerNpi", true},
		{"claim number", "claimNumber", true},
		{"fax", "fax", true},
		{"lowercase guarantor name", "guarantorname", true},
		{"lowercase user name", "username", true},
		{"lowercase insured name", "insuredname", true},
		{"zip prefix", "zipcode", true},
		{"ssn suffix", "subscriberssn", true},
		{"npi suffix", "renderingnpi", true},
		{"ip prefix", "ipaddr", true},
		{"dob prefix", "dobverified", true},
		{"city inside compound", "patientcityname", true},
		{"upper compound", "GUARANTORNAME", true},
		{"error code", "errorCode", false},
		{"error description", "errorDesc", false},
		{"description is not ip", "description", false},
		{"shipping is not ip", "shippingMethod", false},
		{"ethnicity is not city", "ethnicity", false},
		{"capacity is not city", "bedCapacity", false},
		{"membership is not ip", "membership", false},
		{"relationship is not ip", "memberrelationship", false},
		{"template is not plate", "letterTemplate", false},
		{"namespace is not name", "namespace", false},
		{"ssn inside a word", "classnote", false},
		{"zip inside a word", "unzipped", false},
		{"transaction id", "transactionId", false},
		{"payer id", "payerId", false},
		{"status category", "statusCategory", false},
		{"service date", "serviceDate", false},
		{"bill amount", "billAmount", false},
		{"empty", "", false},
		{"separators only", "__", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPHIFieldName(tt.field); got != tt.want {
				t.Errorf("IsPHIFieldName(%q) = %v, want %v", tt.field, got, tt.want)
			}
		})
	}
}

func TestVocabulary_ExceptionsDoNotHideRealHits(t *testing.T) {
	v := DefaultVocabulary()

	assert.True(t, v.Contains("membershipip"), "a trailing ip outside the exception word still counts")
	assert.True(t, v.Contains("ethnicitycity"))
	assert.False(t, v.Contains("ethnicity"))
}

func TestSplitWords(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"subscriberSSN", []string{"subscriber", "ssn"}},
		{"SSNValue", []string{"ssn", "value"}},
		{"ip_address", []string{"ip", "address"}},
		{"patient-first.name", []string{"patient", "first", "name"}},
		{"claim2Id", []string{"claim2", "id"}},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, splitWords(tt.input))
		})
	}
}

func TestVocabulary_With(t *testing.T) {
	base := NewVocabulary("guardian")
	extended := base.With("Beneficiary_ID", "")

	assert.True(t, extended.Contains("guardianPhone"))
	assert.True(t, extended.Contains("beneficiaryId"))
	assert.False(t, base.Contains("beneficiaryId"), "With must not modify the receiver")
	assert.Equal(t, []string{"beneficiaryid", "guardian"}, extended.Terms())
}

func TestNewDetector_CustomVocabulary(t *testing.T) {
	d := NewDetector(NewVocabulary("guardian"))

	assert.True(t, d.IsPHIFieldName("guardianName"))
	assert.False(t, d.IsPHIFieldName("memberId"))
	assert.True(t, NewDetector(nil).IsPHIFieldName("memberId"))
}

func TestLoadVocabulary(t *testing.T) {
	dir := t.TempDir()

	t.Run("extends defaults", func(t *testing.T) {
		path := filepath.Join(dir, "extend.yaml")
		require.NoError(t, os.WriteFile(path, []byte("field_names:\n  - guardian\n  - beneficiary_id\n"), 0o600))

		v, err := LoadVocabulary(path)
		require.NoError(t, err)
		assert.True(t, v.Contains("guardianName"))
		assert.True(t, v.Contains("beneficiaryId"))
		assert.True(t, v.Contains("memberId"))
	})

	t.Run("replaces defaults", func(t *testing.T) {
		path := filepath.Join(dir, "replace.yaml")
		require.NoError(t, os.WriteFile(path, []byte("replace_defaults: true\nfield_names: [guardian]\n"), 0o600))

		v, err := LoadVocabulary(path)
		require.NoError(t, err)
		assert.Equal(t, 1, v.Len())
		assert.False(t, v.Contains("memberId"))
	})

	t.Run("replace without names", func(t *testing.T) {
		path := filepath.Join(dir, "empty.yaml")
		require.NoError(t, os.WriteFile(path, []byte("replace_defaults: true\n"), 0o600))

		_, err := LoadVocabulary(path)
		require.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadVocabulary(filepath.Join(dir, "missing.yaml"))
		require.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("field_names: [unterminated\n"), 0o600))

		_, err := LoadVocabulary(path)
		require.Error(t, err)
	})
}
