package tables

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// normalizeHeader canonicalises header text for comparison: compatibility
// normalisation, case folding and whitespace collapsing.
func normalizeHeader(s string) string {
	s = norm.NFKC.String(s)
	s = cases.Fold().String(s)
	return strings.Join(strings.Fields(s), " ")
}

// textSimilarity returns 1 - edit distance / longer length, in [0, 1].
func textSimilarity(a, b string) float64 {
	a, b = normalizeHeader(a), normalizeHeader(b)
	if a == b {
		return 1
	}
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1 - float64(d)/float64(longest)
}

// headerSimilarity compares two header rows column by column. Columns
// scoring below threshold contribute nothing. Rows of different lengths
// are compared over the shorter one and scaled by the length ratio.
func headerSimilarity(a, b []string, threshold float64) float64 {
	n := min(len(a), len(b))
	if n == 0 {
		return 0
	}
	total := 0.0
	for i := 0; i < n; i++ {
		if s := textSimilarity(a[i], b[i]); s >= threshold {
			total += s
		}
	}
	return total / float64(max(len(a), len(b)))
}
