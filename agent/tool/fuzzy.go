package tool

import (
	"sort"
	"strings"
)

// maxEditRatio bounds how different a cached name may be from the
// requested one, as edit distance over requested length.
const maxEditRatio = 0.34

// bestMatch scans the cached name index for the closest name. Containment
// counts as an immediate match; otherwise the smallest edit distance
// within the ratio bound wins. The scan walks names in sorted order so
// ties resolve the same way on every run.
func bestMatch(requested string, names map[string]string) (string, string, bool) {
	want := strings.ToLower(strings.TrimSpace(requested))
	if want == "" || len(names) == 0 {
		return "", "", false
	}
	if key, ok := names[want]; ok {
		return want, key, true
	}

	ordered := make([]string, 0, len(names))
	for name := range names {
		ordered = append(ordered, name)
	}
	sort.Strings(ordered)

	bestName, bestKey := "", ""
	bestDist := -1
	for _, name := range ordered {
		if strings.Contains(name, want) || strings.Contains(want, name) {
			return name, names[name], true
		}
		d := editDistance(want, name)
		if bestDist < 0 || d < bestDist {
			bestName, bestKey, bestDist = name, names[name], d
		}
	}

	if bestDist < 0 {
		return "", "", false
	}
	if float64(bestDist) > maxEditRatio*float64(len(want)) {
		return "", "", false
	}
	return bestName, bestKey, true
}

// editDistance is plain Levenshtein over bytes with a rolling row.
func editDistance(a, b string) int {
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
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
