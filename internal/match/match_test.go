package match

import "testing"

func TestLevenshtein(t *testing.T) {
	t.Parallel()

	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"abc", "abc", 0},
		{"electroncs", "electronics", 1},
		{"elektronics", "electronics", 1},
		{"abc", "xyz", 3},
		{"kitten", "sitting", 3},
		{"asia", "aisa", 2},
	}
	for _, tc := range cases {
		if got := Levenshtein(tc.a, tc.b); got != tc.want {
			t.Errorf("Levenshtein(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestClosestWithin(t *testing.T) {
	t.Parallel()

	candidates := []string{"clothing", "electronics", "sports"}

	cases := []struct {
		name  string
		s     string
		max   int
		want  string
		found bool
	}{
		{"exact", "sports", 2, "sports", true},
		{"one edit", "electroncs", 2, "electronics", true},
		{"missing letter", "sorts", 2, "sports", true},
		{"beyond max", "gadgets", 2, "", false},
		{"empty input", "", 2, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ClosestWithin(tc.s, candidates, tc.max)
			if ok != tc.found || got != tc.want {
				t.Fatalf("ClosestWithin(%q, %d) = (%q, %v), want (%q, %v)",
					tc.s, tc.max, got, ok, tc.want, tc.found)
			}
		})
	}
}

// Equal-distance candidates resolve to the first in scan order, so a sorted
// candidate list yields the lexicographically smallest match.
func TestClosestWithin_TieBreak(t *testing.T) {
	t.Parallel()

	got, ok := ClosestWithin("bat", []string{"bad", "bar", "baz"}, 1)
	if !ok || got != "bad" {
		t.Fatalf("ClosestWithin tie = (%q, %v), want (\"bad\", true)", got, ok)
	}
}
