// Package norm provides text normalization shared by query generation and scoring.
package norm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases a string and strips diacritics ("Beyoncé" -> "beyonce").
func Fold(s string) string {
	out, _, err := transform.String(foldTransformer, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// punctReplacer maps punctuation that appears in track titles to spaces so
// tokenization does not glue words together ("feat." vs "feat").
var punctReplacer = strings.NewReplacer(
	",", " ",
	".", " ",
	"(", " ",
	")", " ",
	"[", " ",
	"]", " ",
	"{", " ",
	"}", " ",
	"-", " ",
	"_", " ",
	"/", " ",
	"\\", " ",
	"'", "",
	"’", "",
	"\"", " ",
	"!", " ",
	"?", " ",
	"&", " and ",
	"+", " ",
	":", " ",
	";", " ",
	"|", " ",
)

// Clean folds case/diacritics, replaces punctuation with spaces and collapses
// whitespace. The result is the canonical form used for cache keys and
// query deduplication.
func Clean(s string) string {
	s = punctReplacer.Replace(Fold(s))
	return strings.Join(strings.Fields(s), " ")
}

// Tokenize splits a string into cleaned lowercase tokens.
func Tokenize(s string) []string {
	return strings.Fields(Clean(s))
}

// TokenSet returns the distinct tokens of a string.
func TokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range Tokenize(s) {
		set[tok] = struct{}{}
	}
	return set
}
