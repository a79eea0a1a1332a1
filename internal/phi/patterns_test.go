package phi

import (
	"strings"
	"testing"
)

func TestIsPHIValue(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"ssn", "SSN 123-45-6789 on file", true},
		{"email", "contact jane.doe@example.org", true},
		{"phone with dashes", "call 555-123-4567", true},
		{"phone with parentheses", "call (555) 123-4567", true},
		{"phone with dots", "555.123.4567", true},
		{"phone with country code", "+1 555 123 4567", true},
		{"date of birth", "born 04/23/1961", true},
		{"zip", "Springfield 62704", true},
		{"zip plus four", "62704-1234", true},
		{"credit card", "4111-1111-1111-1111", true},
		{"credit card with spaces", "4111 1111 1111 1111", true},
		{"ipv4", "from 10.0.12.7", true},
		{"url", "see https://portal.example.com/member/1", true},
		{"empty", "", false},
		{"plain text", "Invalid member ID format", false},
		{"bare digit run", "5551234567", false},
		{"long digit run", "1234567890123", false},
		{"six digits", "123456", false},
		{"four digits", "ID001", false},
		{"invalid month", "13/01/1980", false},
		{"error code", "AAA-72", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPHIValue(tt.input); got != tt.want {
				t.Errorf("IsPHIValue(%q) = %v, want %v (categories %v)", tt.input, got, tt.want, Categories(tt.input))
			}
		})
	}
}

func TestIsPHIAny(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  bool
	}{
		{"string with ssn", "123-45-6789", true},
		{"number", 123456789, false},
		{"nil", nil, false},
		{"bool", true, false},
		{"map", map[string]any{"ssn": "123-45-6789"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPHIAny(tt.input); got != tt.want {
				t.Errorf("IsPHIAny(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestRedactPatterns(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		want        string
		wantRemoved []string
	}{
		{
			name:  "ssn",
			input: "SSN 123-45-6789",
			want:  "SSN ***-**-XXXX",
		},
		{
			name:  "email",
			input: "Email: user@test.com",
			want:  "Email: ***@***.***",
		},
		{
			name:  "phone",
			input: "Phone: (555) 123-4567",
			want:  "Phone: (***) ***-XXXX",
		},
		{
			name:  "date of birth",
			input: "DOB 01/15/1980",
			want:  "DOB **/**/XXXX",
		},
		{
			name:  "zip",
			input: "ZIP 62704",
			want:  "ZIP XXXXX",
		},
		{
			name:  "placeholder completing an email",
			input: "contact jdoe@clinic.12345 now",
			want:  "contact ***@***.*** now",
		},
		{
			name:  "card",
			input: "Card 4111-1111-1111-1111 declined",
			want:  "Card ****-****-****-XXXX declined",
		},
		{
			name:  "ip",
			input: "origin 192.168.1.100",
			want:  "origin ***.***.***.***",
		},
		{
			name:  "url with embedded email",
			input: "see https://example.com/?u=a@b.com now",
			want:  "see [URL-REDACTED] now",
		},
		{
			name:        "multiple categories",
			input:       "Member jane@x.io, 555-123-4567, SSN 123-45-6789",
			wantRemoved: []string{"jane@x.io", "555-123-4567", "123-45-6789"},
		},
		{
			name:  "no phi",
			input: "Claim rejected: service not covered",
			want:  "Claim rejected: service not covered",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RedactPatterns(tt.input)
			if tt.want != "" || tt.input == "" {
				if got != tt.want {
					t.Errorf("RedactPatterns(%q) = %q, want %q", tt.input, got, tt.want)
				}
			}
			for _, removed := range tt.wantRemoved {
				if strings.Contains(got, removed) {
					t.Errorf("RedactPatterns() = %q, still contains %q", got, removed)
				}
			}
			if IsPHIValue(got) {
				t.Errorf("RedactPatterns() = %q, still matches %v", got, Categories(got))
			}
		})
	}
}

func TestPattern_IsolatedRejectsAdjacentDigits(t *testing.T) {
	var zip Pattern
	for _, p := range Patterns() {
		if p.Category == CategoryZIP {
			zip = p
		}
	}
	if zip.Regexp == nil {
		t.Fatal("ZIP pattern not found")
	}

	if got := zip.FindAll("claim 1234567890"); len(got) != 0 {
		t.Errorf("FindAll() = %v, want no matches inside a longer digit run", got)
	}
	if got := zip.Replace("a 12345 b 67890 c"); got != "a XXXXX b XXXXX c" {
		t.Errorf("Replace() = %q", got)
	}
}
