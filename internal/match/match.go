// Package match provides small string-distance helpers used by the
// canonicalization layers: a classic Levenshtein distance and a deterministic
// closest-candidate search over a sorted canonical list.
package match

// Levenshtein returns the edit distance between a and b using a two-row
// dynamic programming table. Inputs are compared byte-wise; callers are
// expected to lowercase/trim beforehand.
func Levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			ins := curr[j-1] + 1
			del := prev[j] + 1
			sub := prev[j-1] + cost
			m := ins
			if del < m {
				m = del
			}
			if sub < m {
				m = sub
			}
			curr[j] = m
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// ClosestWithin scans candidates in order and returns the one nearest to s by
// edit distance, provided the distance is <= max. When several candidates sit
// at the same minimal distance the first in iteration order wins, so passing a
// lexicographically sorted slice yields a deterministic lexicographic
// tie-break.
func ClosestWithin(s string, candidates []string, max int) (string, bool) {
	best := ""
	bestDist := max + 1
	for _, c := range candidates {
		d := Levenshtein(s, c)
		if d < bestDist {
			best, bestDist = c, d
			if d == 0 {
				break
			}
		}
	}
	if bestDist > max {
		return "", false
	}
	return best, true
}
