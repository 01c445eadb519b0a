package mapping

import "testing"

func TestTokenSortRatioIdentical(t *testing.T) {
	if got := TokenSortRatio("Vataja Jvara", "Vataja Jvara"); got != 100 {
		t.Errorf("identical terms: expected 100, got %d", got)
	}
}

func TestTokenSortRatioWordOrder(t *testing.T) {
	if got := TokenSortRatio("Vataja Jvara", "Jvara, Vataja"); got != 100 {
		t.Errorf("reordered terms: expected 100, got %d", got)
	}
}

func TestTokenSortRatioCaseAndPunctuation(t *testing.T) {
	if got := TokenSortRatio("JVARA", "jvara"); got != 100 {
		t.Errorf("case difference: expected 100, got %d", got)
	}
	if got := TokenSortRatio("fever (unspecified)", "fever unspecified"); got != 100 {
		t.Errorf("punctuation difference: expected 100, got %d", got)
	}
}

func TestTokenSortRatioBounds(t *testing.T) {
	cases := [][2]string{
		{"abc", "xyz"},
		{"fever", "qqqqqqqqqqqqqqqqqqqq"},
		{"a", "completely different phrase"},
		{"", "something"},
	}
	for _, c := range cases {
		got := TokenSortRatio(c[0], c[1])
		if got < 0 || got > 100 {
			t.Errorf("TokenSortRatio(%q, %q) = %d, out of [0,100]", c[0], c[1], got)
		}
	}
	if got := TokenSortRatio("", ""); got != 0 {
		t.Errorf("both empty: expected 0, got %d", got)
	}
}

func TestTokenSortRatioSimilar(t *testing.T) {
	got := TokenSortRatio("Typhoid fever", "Typhoid fevers")
	if got < 80 {
		t.Errorf("near-identical terms scored %d, expected >= 80", got)
	}
	unrelated := TokenSortRatio("Typhoid fever", "Bone fracture")
	if unrelated >= got {
		t.Errorf("unrelated terms (%d) scored at least as high as similar terms (%d)", unrelated, got)
	}
}

func TestLevenshtein(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"jvara", "jvara", 0},
		{"fever", "fevers", 1},
	}
	for _, c := range cases {
		if got := levenshtein(c.a, c.b); got != c.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestEquivalenceForScore(t *testing.T) {
	cases := []struct {
		score int
		want  string
	}{
		{100, EquivalenceEquivalent},
		{95, EquivalenceEquivalent},
		{94, EquivalenceEqual},
		{80, EquivalenceEqual},
		{79, EquivalenceWider},
		{60, EquivalenceWider},
		{59, EquivalenceRelatedTo},
		{0, EquivalenceRelatedTo},
	}
	for _, c := range cases {
		if got := EquivalenceForScore(c.score); got != c.want {
			t.Errorf("EquivalenceForScore(%d) = %s, want %s", c.score, got, c.want)
		}
	}
}
