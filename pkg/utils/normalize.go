package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var lower = cases.Lower(language.Und)

// NormalizeName folds a product name for fuzzy comparison: NFKC, lower case,
// punctuation and symbols replaced by spaces, whitespace collapsed.
// Decimal separators between digits are kept ("1.5 кг").
func NormalizeName(s string) string {
	if s == "" {
		return ""
	}

	runes := []rune(lower.String(norm.NFKC.String(s)))
	var b strings.Builder
	b.Grow(len(runes))

	for i, r := range runes {
		switch {
		case (r == '.' || r == ',') && i > 0 && i < len(runes)-1 &&
			unicode.IsDigit(runes[i-1]) && unicode.IsDigit(runes[i+1]):
			b.WriteRune(r)
		case unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsSpace(r):
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
