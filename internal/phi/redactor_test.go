package phi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskValue(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		maskChar string
		suffix   int
		want     string
	}{
		{"keeps suffix", "123456789", "*", 4, "*****6789"},
		{"zero suffix returns sentinel", "SECRET", "*", 0, Sentinel},
		{"negative suffix returns sentinel", "SECRET", "*", -1, Sentinel},
		{"empty input returns sentinel", "", "*", 4, Sentinel},
		{"short input still masks three", "12345", "*", 4, "***2345"},
		{"input not longer than suffix", "1234", "*", 4, "****"},
		{"tiny input", "ab", "*", 4, "***"},
		{"custom mask char", "M123456", "#", 2, "#####56"},
		{"default mask char", "M123456", "", 2, "*****56"},
		{"multibyte runes", "José García", "*", 3, "********cía"},
		{"symbol mask char", "M123456", "•", 2, "•••••56"},
		{"letter mask char falls back", "M123456", "x", 2, "*****56"},
		{"digit mask char falls back", "M123456", "0", 2, "*****56"},
		{"space mask char falls back", "M123456", " ", 2, "*****56"},
		{"multi char mask falls back", "M123456", "##", 2, "*****56"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaskValue(tt.value, tt.maskChar, tt.suffix); got != tt.want {
				t.Errorf("MaskValue(%q, %q, %d) = %q, want %q", tt.value, tt.maskChar, tt.suffix, got, tt.want)
			}
		})
	}
}

func TestMaskFields_StructuralMasking(t *testing.T) {
	input := map[string]any{
		"memberId": "M123",
		"payer":    "Availity Health",
		"claim": map[string]any{
			"patientName": "John Doe",
			"errorCode":   "ID001",
		},
	}

	got := MaskFields(input, MaskOptions{})
	m, ok := got.(map[string]any)
	require.True(t, ok)

	assert.Equal(t, Sentinel, m["memberId"])
	assert.Equal(t, "Availity Health", m["payer"])
	claim := m["claim"].(map[string]any)
	assert.Equal(t, Sentinel, claim["patientName"])
	assert.Equal(t, "ID001", claim["errorCode"])

	// input untouched
	assert.Equal(t, "M123", input["memberId"])
	assert.Equal(t, "John Doe", input["claim"].(map[string]any)["patientName"])
}

func TestMaskFields(t *testing.T) {
	tests := []struct {
		name  string
		input any
		opts  MaskOptions
		want  any
	}{
		{
			name:  "phi value in non phi field is pattern redacted",
			input: map[string]any{"errorDesc": "member SSN 123-45-6789 invalid"},
			want:  map[string]any{"errorDesc": "member SSN ***-**-XXXX invalid"},
		},
		{
			name:  "visible suffix",
			input: map[string]any{"memberId": "W123456789"},
			opts:  MaskOptions{VisibleSuffixLen: 4},
			want:  map[string]any{"memberId": "******6789"},
		},
		{
			name:  "non string phi field becomes sentinel",
			input: map[string]any{"accountNumber": 987654, "address": map[string]any{"street": "1 Main"}},
			want:  map[string]any{"accountNumber": Sentinel, "address": Sentinel},
		},
		{
			name:  "nil phi field stays nil",
			input: map[string]any{"email": nil},
			want:  map[string]any{"email": nil},
		},
		{
			name:  "drop fields",
			input: map[string]any{"memberId": "M123", "payer": "Acme"},
			opts:  MaskOptions{DropFields: true},
			want:  map[string]any{"payer": "Acme"},
		},
		{
			name: "arrays are mapped element-wise",
			input: map[string]any{
				"claims": []any{
					map[string]any{"memberId": "M1", "code": "A1"},
					"call 555-123-4567",
					42,
				},
			},
			want: map[string]any{
				"claims": []any{
					map[string]any{"memberId": Sentinel, "code": "A1"},
					"call (***) ***-XXXX",
					42,
				},
			},
		},
		{
			name:  "typed slices",
			input: map[string]any{"notes": []string{"ok", "jane@x.io"}, "rows": []map[string]any{{"ssn": "123-45-6789"}}},
			want:  map[string]any{"notes": []any{"ok", "***@***.***"}, "rows": []any{map[string]any{"ssn": Sentinel}}},
		},
		{
			name:  "string map",
			input: map[string]string{"patientId": "P9", "plan": "gold"},
			want:  map[string]any{"patientId": Sentinel, "plan": "gold"},
		},
		{
			name:  "top level string",
			input: "ip 10.1.1.1",
			want:  "ip ***.***.***.***",
		},
		{
			name:  "scalars copied",
			input: map[string]any{"billAmount": 125.5, "active": true},
			want:  map[string]any{"billAmount": 125.5, "active": true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskFields(tt.input, tt.opts))
		})
	}
}

func TestCreateSafePayload(t *testing.T) {
	input := map[string]any{
		"memberId":  "M123",
		"errorDesc": "Call 555-123-4567",
		"claim": map[string]any{
			"claimNumber": "CLM-1",
			"providerNpi": "1234567893",
		},
		"lines": []any{
			map[string]any{"serialNumber": "SN-1"},
		},
	}

	tests := []struct {
		name    string
		allowed []string
		check   func(t *testing.T, m map[string]any)
	}{
		{
			name:    "empty allow list equals mask fields",
			allowed: nil,
			check: func(t *testing.T, m map[string]any) {
				assert.Equal(t, MaskFields(input, MaskOptions{}), m)
			},
		},
		{
			name:    "bare key",
			allowed: []string{"errorDesc"},
			check: func(t *testing.T, m map[string]any) {
				assert.Equal(t, "Call 555-123-4567", m["errorDesc"])
				assert.Equal(t, Sentinel, m["memberId"])
			},
		},
		{
			name:    "dotted path",
			allowed: []string{"claim.claimNumber"},
			check: func(t *testing.T, m map[string]any) {
				claim := m["claim"].(map[string]any)
				assert.Equal(t, "CLM-1", claim["claimNumber"])
				assert.Equal(t, Sentinel, claim["providerNpi"])
			},
		},
		{
			name:    "path through array ignores index",
			allowed: []string{"lines.serialNumber"},
			check: func(t *testing.T, m map[string]any) {
				line := m["lines"].([]any)[0].(map[string]any)
				assert.Equal(t, "SN-1", line["serialNumber"])
			},
		},
		{
			name:    "unknown path changes nothing",
			allowed: []string{"claim.missing"},
			check: func(t *testing.T, m map[string]any) {
				assert.Equal(t, Sentinel, m["memberId"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CreateSafePayload(input, tt.allowed, MaskOptions{})
			m, ok := got.(map[string]any)
			require.True(t, ok)
			tt.check(t, m)
		})
	}

	assert.Equal(t, "M123", input["memberId"], "input must not be modified")
}

func TestCreateSafePayload_RestoresDroppedField(t *testing.T) {
	input := map[string]any{"memberId": "M123", "ssn": "123-45-6789"}

	got := CreateSafePayload(input, []string{"memberId"}, MaskOptions{DropFields: true})
	assert.Equal(t, map[string]any{"memberId": "M123"}, got)
}
