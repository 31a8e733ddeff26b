package match

import "testing"

func TestExtractCallsign(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "parenthesized", input: "ABC 7 New York (WABC)", want: "WABC"},
		{name: "parenthesized_with_suffix", input: "NBC (WNBC-TV)", want: "WNBC-TV"},
		{name: "parens_win_over_trailing", input: "Feed (KABC) WXYZ", want: "KABC"},
		{name: "trailing", input: "Network 5 KABC", want: "KABC"},
		{name: "trailing_file_extension", input: "Local KABC.mp4", want: "KABC"},
		{name: "anywhere_whole_word", input: "KTLA 5 Los Angeles", want: "KTLA"},
		{name: "lowercase_input", input: "abc 7 (wabc)", want: "WABC"},
		{name: "tuner_prefix_stripped", input: "D2-WNBC", want: "WNBC"},
		{name: "suffix_cd", input: "Azteca KAZA-CD", want: "KAZA-CD"},
		{name: "west_alone_is_not_a_callsign", input: "Feed West", want: ""},
		{name: "east_alone_is_not_a_callsign", input: "Feed East", want: ""},
		{name: "no_callsign", input: "Comedy Central", want: ""},
		{name: "too_short", input: "Big KA Show", want: ""},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractCallsign(tt.input); got != tt.want {
				t.Errorf("ExtractCallsign(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestStripCallsignSuffix(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"WABC-TV", "WABC"},
		{"KAZA-CD", "KAZA"},
		{"WVIA-LD", "WVIA"},
		{"KQED-DT", "KQED"},
		{"WNBC", "WNBC"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := StripCallsignSuffix(tt.input); got != tt.want {
			t.Errorf("StripCallsignSuffix(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
