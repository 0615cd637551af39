package sanitize_test

import (
	"testing"

	"rbtv/internal/sanitize"
)

func TestFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Pen & Paper: Morriton Manor", "Pen & Paper- Morriton Manor"},
		{"Was\\ist/das?", "Was_ist_das_"},
		{"  spaced out  ", "spaced out"},
		{"trailing dots...", "trailing dots"},
		{"\"quoted\" <b>|tag", "'quoted' (b)_tag"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := sanitize.Filename(tc.in); got != tc.want {
			t.Errorf("Filename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFilenameStripsControlRunes(t *testing.T) {
	if got := sanitize.Filename("a\x00b\nc"); got != "abc" {
		t.Fatalf("got %q", got)
	}
}
