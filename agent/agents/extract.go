package agents

import (
	"strings"
	"unicode"
)

// entityHints pulls likely entity names out of a query: quoted phrases
// first, then runs of capitalized words that aren't sentence-initial.
// This is a cheap heuristic; the knowledge store's traversals tolerate
// approximate names and the tool layer's fuzzy rung covers the rest.
func entityHints(text string) []string {
	var hints []string
	seen := map[string]bool{}
	add := func(h string) {
		h = strings.TrimSpace(h)
		if h == "" || seen[strings.ToLower(h)] {
			return
		}
		seen[strings.ToLower(h)] = true
		hints = append(hints, h)
	}

	rest := text
	for {
		start := strings.IndexAny(rest, `"'`)
		if start < 0 {
			break
		}
		quote := rest[start]
		end := strings.IndexByte(rest[start+1:], quote)
		if end < 0 {
			break
		}
		add(rest[start+1 : start+1+end])
		rest = rest[start+1+end+1:]
	}

	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\'' && r != '-'
	})

	var run []string
	flush := func(startIdx int) {
		defer func() { run = nil }()
		if startIdx == 0 && len(run) > 0 {
			// Sentence-initial word is usually a verb, not a name.
			run = run[1:]
		}
		if len(run) >= 2 || (len(run) == 1 && startIdx > 0) {
			add(strings.Join(run, " "))
		}
	}

	runStart := -1
	for i, w := range words {
		r := []rune(w)
		if len(r) > 0 && unicode.IsUpper(r[0]) {
			if len(run) == 0 {
				runStart = i
			}
			run = append(run, w)
			continue
		}
		flush(runStart)
	}
	flush(runStart)

	return hints
}
