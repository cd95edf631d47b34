//nolint:testpackage // Testing internal matching requires same package access
package categorizer

import "testing"

func TestContainsWholeWord(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		keyword string
		want    bool
	}{
		{
			name:    "substring of longer word does not match",
			text:    "He is an advisor to the board.",
			keyword: "visor",
			want:    false,
		},
		{
			name:    "standalone word matches",
			text:    "He met with his VISOR officer.",
			keyword: "visor",
			want:    true,
		},
		{
			name:    "nps inside snps does not match",
			text:    "The snps panel was reviewed.",
			keyword: "nps",
			want:    false,
		},
		{
			name:    "nps standalone matches case-insensitively",
			text:    "Referred to NPS for supervision.",
			keyword: "nps",
			want:    true,
		},
		{
			name:    "charged does not fire on discharged",
			text:    "The patient was discharged home.",
			keyword: "charged",
			want:    false,
		},
		{
			name:    "charged fires on the bare word",
			text:    "He was charged with affray.",
			keyword: "charged",
			want:    true,
		},
		{
			name:    "punctuation counts as a boundary",
			text:    "Entry on ViSOR; review due.",
			keyword: "visor",
			want:    true,
		},
		{
			name:    "empty keyword never matches",
			text:    "anything",
			keyword: "",
			want:    false,
		},
		{
			name:    "empty text never matches",
			text:    "",
			keyword: "visor",
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContainsWholeWord(tt.text, tt.keyword); got != tt.want {
				t.Errorf("ContainsWholeWord(%q, %q) = %v, want %v", tt.text, tt.keyword, got, tt.want)
			}
		})
	}
}
