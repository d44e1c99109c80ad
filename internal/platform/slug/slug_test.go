package slug_test

import (
	"strings"
	"testing"

	"pagetrack/internal/platform/slug"
)

func TestMake(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"Learning Go":           "learning-go",
		"  Café Society (2nd) ": "cafe-society-2nd",
		"Über/Straße":           "uber-stra-e",
		"Gödel, Escher, Bach":   "godel-escher-bach",
		"!!!":                   "untitled",
		"":                      "untitled",
	}
	for in, want := range cases {
		if got := slug.Make(in); got != want {
			t.Fatalf("Make(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMakeTruncates(t *testing.T) {
	t.Parallel()
	got := slug.Make(strings.Repeat("word ", 20))
	if len(got) > 48 || strings.HasSuffix(got, "-") {
		t.Fatalf("unexpected slug %q", got)
	}
}
