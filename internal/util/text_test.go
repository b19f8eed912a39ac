package util

import "testing"

func TestStripTags(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text", "Measles resurgence in 2024", "Measles resurgence in 2024"},
		{"inline italics", "Effects of <i>H. pylori</i> eradication", "Effects of H. pylori eradication"},
		{"superscript", "CD4<sup>+</sup> T cells", "CD4+ T cells"},
		{"entities only", "AT&amp;T funding", "AT&T funding"},
		{"nested markup", "<b>Results:</b> improved <i>outcomes</i>", "Results: improved outcomes"},
		{"surrounding space", "  padded  ", "padded"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StripTags(tt.input)
			if got != tt.want {
				t.Errorf("StripTags(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCollapseSpace(t *testing.T) {
	got := CollapseSpace("  a \t b\n\nc ")
	if got != "a b c" {
		t.Errorf("CollapseSpace = %q, want %q", got, "a b c")
	}
}
