package shared

import "testing"

func TestSanitizeFilename(t *testing.T) {
	tc := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain name untouched",
			input: "Road Trip 2024",
			want:  "Road Trip 2024",
		},
		{
			name:  "path separators replaced",
			input: "mixes/summer\\vol.1",
			want:  "mixes_summer_vol.1",
		},
		{
			name:  "windows reserved characters replaced",
			input: `what? "best" of: <all> time|ever`,
			want:  "what_ _best_ of_ _all_ time_ever",
		},
		{
			name:  "control characters replaced",
			input: "tab\there",
			want:  "tab_here",
		},
		{
			name:  "trailing dots and spaces trimmed",
			input: "  late nights... ",
			want:  "late nights",
		},
		{
			name:  "empty name",
			input: "",
			want:  "untitled",
		},
		{
			name:  "separators survive as underscores",
			input: "///",
			want:  "___",
		},
		{
			name:  "name of only dots",
			input: "...",
			want:  "untitled",
		},
		{
			name:  "unicode preserved",
			input: "Fête d'été",
			want:  "Fête d'été",
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeFilename(tt.input)
			if got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}

	t.Run("long names capped", func(t *testing.T) {
		long := make([]rune, 400)
		for i := range long {
			long[i] = 'a'
		}
		got := SanitizeFilename(string(long))
		if len([]rune(got)) != 150 {
			t.Errorf("expected 150 runes, got %d", len([]rune(got)))
		}
	})
}

func TestGenerateID(t *testing.T) {
	a := GenerateID()
	b := GenerateID()

	if a == "" || b == "" {
		t.Fatal("expected non-empty ids")
	}
	if a == b {
		t.Error("expected unique ids")
	}
	if len(a) != 36 {
		t.Errorf("expected uuid string length 36, got %d", len(a))
	}
}
