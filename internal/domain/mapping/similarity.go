package mapping

import (
	"sort"
	"strings"
	"unicode"
)

// TokenSortRatio scores the similarity of two terms on a 0-100 scale. Both
// terms are lowercased, stripped of punctuation, tokenized, and their tokens
// sorted before a Levenshtein ratio is taken, so word order does not affect
// the score ("vataja jvara" vs "jvara, vataja" scores 100).
func TokenSortRatio(a, b string) int {
	na, nb := normalizeTokens(a), normalizeTokens(b)
	if na == "" && nb == "" {
		return 0
	}
	if na == nb {
		return 100
	}

	dist := levenshtein(na, nb)
	longest := len([]rune(na))
	if l := len([]rune(nb)); l > longest {
		longest = l
	}
	return (longest - dist) * 100 / longest
}

func normalizeTokens(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	sort.Strings(fields)
	return strings.Join(fields, " ")
}

// levenshtein computes the edit distance between two strings using a
// single-row dynamic programming table.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	row := make([]int, len(rb)+1)
	for j := range row {
		row[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		prev := row[0]
		row[0] = i
		for j := 1; j <= len(rb); j++ {
			cur := row[j]
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			row[j] = min3(row[j]+1, row[j-1]+1, prev+cost)
			prev = cur
		}
	}
	return row[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
