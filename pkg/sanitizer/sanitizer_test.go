package sanitizer

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "valid E.164 format",
			input: "+12125551234",
			want:  "+12125551234",
		},
		{
			name:  "US national with punctuation",
			input: "(212) 555-1234",
			want:  "+12125551234",
		},
		{
			name:  "with dashes",
			input: "+1-212-555-1234",
			want:  "+12125551234",
		},
		{
			name:  "leading and trailing spaces",
			input: "  +12125551234  ",
			want:  "+12125551234",
		},
		{
			name:  "israeli mobile",
			input: "+972541234567",
			want:  "+972541234567",
		},
		{
			name:  "international prefix but impossible length",
			input: "+97254",
			want:  "",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "only whitespace",
			input: "   ",
			want:  "",
		},
		{
			name:  "garbage input",
			input: "not a phone",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizePhone(tt.input)
			if got != tt.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "lowercase transcription",
			input: "john doe",
			want:  "John Doe",
		},
		{
			name:  "all caps",
			input: "JOHN DOE",
			want:  "John Doe",
		},
		{
			name:  "extra whitespace",
			input: "  john   doe  ",
			want:  "John Doe",
		},
		{
			name:  "single word",
			input: "madonna",
			want:  "Madonna",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
		{
			name:  "tabs and newlines",
			input: "john\t\ndoe",
			want:  "John Doe",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeName(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeName_Idempotent(t *testing.T) {
	once := NormalizeName("jOHN   dOE")
	twice := NormalizeName(once)
	if once != twice {
		t.Errorf("NormalizeName is not idempotent: %q vs %q", once, twice)
	}
}

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "uppercase",
			input: "JOHN@EXAMPLE.COM",
			want:  "john@example.com",
		},
		{
			name:  "surrounding whitespace",
			input: "  john@example.com ",
			want:  "john@example.com",
		},
		{
			name:  "already normalized",
			input: "john@example.com",
			want:  "john@example.com",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeEmail(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeEmail(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "hello world", "hello world"},
		{"collapse runs", "a    b", "a b"},
		{"trim ends", "  x  ", "x"},
		{"only spaces", "    ", ""},
		{"mixed whitespace", "a\t b\n c", "a b c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimAndNormalize(tt.input); got != tt.want {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
