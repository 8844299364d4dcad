package sanitizer

import "testing"

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "trim spaces",
			input: "  Acme Facilities  ",
			want:  "Acme Facilities",
		},
		{
			name:  "multiple spaces between words",
			input: "Acme    Facilities",
			want:  "Acme Facilities",
		},
		{
			name:  "tabs and newlines",
			input: "Acme\t\nFacilities",
			want:  "Acme Facilities",
		},
		{
			name:  "control characters removed",
			input: "Acme\x00 Ltd",
			want:  "Acme Ltd",
		},
		{
			name:  "only whitespace",
			input: "   \t\n  ",
			want:  "",
		},
		{
			name:  "preserve special characters",
			input: " Café & Spa™ ",
			want:  "Café & Spa™",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeName(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if again := NormalizeName(got); again != got {
				t.Errorf("not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Pat.Customer@Example.COM "); got != "pat.customer@example.com" {
		t.Errorf("unexpected %q", got)
	}
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"single line", "  schedule   conflict ", "schedule conflict"},
		{"keeps line breaks", "first line\r\n  second   line  ", "first line\nsecond line"},
		{"blank edges", "\n\n reason \n\n", "reason"},
		{"whitespace only", " \t ", ""},
		{"control characters", "bell\x07 here", "bell here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeText(tt.input); got != tt.want {
				t.Errorf("NormalizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
