package util

import "testing"

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"shorter than max", "hello", 10, "hello"},
		{"exactly max", "hello", 5, "hello"},
		{"needs truncation", "hello world", 8, "hello..."},
		{"tiny max", "hello", 3, "..."},
		{"multibyte runes", "héllo wörld", 8, "héllo..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateString(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("TruncateString(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestTruncateANSIPreservesShortStrings(t *testing.T) {
	if got := TruncateANSI("plain", 10); got != "plain" {
		t.Errorf("TruncateANSI() = %q, want %q", got, "plain")
	}
	if got := TruncateANSI("plain", 3); got != "..." {
		t.Errorf("TruncateANSI() with tiny width = %q, want %q", got, "...")
	}
}

func TestPluralize(t *testing.T) {
	if got := Pluralize(1, "round", "rounds"); got != "1 round" {
		t.Errorf("Pluralize(1) = %q", got)
	}
	if got := Pluralize(3, "round", "rounds"); got != "3 rounds" {
		t.Errorf("Pluralize(3) = %q", got)
	}
}
