package tool

import "testing"

func TestBestMatch(t *testing.T) {
	t.Parallel()

	names := map[string]string{
		"jane doe":   "key-jane",
		"john roe":   "key-john",
		"acme corp":  "key-acme",
		"zenith ltd": "key-zenith",
	}

	cases := []struct {
		name      string
		requested string
		wantKey   string
		wantOK    bool
	}{
		{"exact", "jane doe", "key-jane", true},
		{"containment", "jane", "key-jane", true},
		{"single typo", "jane döe", "key-jane", true},
		{"transposed", "acme crop", "key-acme", true},
		{"too far", "completely different", "", false},
		{"empty", "   ", "", false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, key, ok := bestMatch(tc.requested, names)
			if ok != tc.wantOK {
				t.Fatalf("bestMatch(%q) ok = %v, want %v", tc.requested, ok, tc.wantOK)
			}
			if ok && key != tc.wantKey {
				t.Fatalf("bestMatch(%q) key = %q, want %q", tc.requested, key, tc.wantKey)
			}
		})
	}
}

func TestBestMatchTieBreaksLexicographically(t *testing.T) {
	t.Parallel()

	// Both names sit at distance 1; the lexicographically smaller must
	// win on every run regardless of map iteration order.
	names := map[string]string{
		"acme corq": "key-q",
		"acme corb": "key-b",
	}
	for i := 0; i < 20; i++ {
		name, key, ok := bestMatch("acme corp", names)
		if !ok {
			t.Fatalf("expected a match")
		}
		if name != "acme corb" || key != "key-b" {
			t.Fatalf("run %d: tie broke to %q, want acme corb", i, name)
		}
	}
}

func TestBestMatchEmptyIndex(t *testing.T) {
	t.Parallel()

	if _, _, ok := bestMatch("jane", map[string]string{}); ok {
		t.Fatalf("empty index must not match")
	}
}

func TestEditDistance(t *testing.T) {
	t.Parallel()

	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"a", "", 1},
		{"kitten", "sitting", 3},
		{"jane doe", "jane doe", 0},
		{"jane doe", "jane d", 2},
	}
	for _, tc := range cases {
		tc := tc
		if got := editDistance(tc.a, tc.b); got != tc.want {
			t.Fatalf("editDistance(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}
