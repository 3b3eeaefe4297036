// Package ngram splits file paths into words and words into overlapping
// character shingles.
package ngram

import (
	"strings"
)

// Delimiters are the runes that separate path words.
const Delimiters = "/.-:; _"

// Tokenize lowercases path and splits it on every delimiter rune.
// Empty words between adjacent delimiters, or at either end, are kept,
// so "/a" yields ["", "a"] and "" yields [""].
func Tokenize(path string) []string {
	lower := strings.ToLower(path)

	tokens := make([]string, 0, strings.Count(lower, "/")+2)
	start := 0
	for i, r := range lower {
		if strings.ContainsRune(Delimiters, r) {
			tokens = append(tokens, lower[start:i])
			start = i + 1 // every delimiter is a single byte
		}
	}
	return append(tokens, lower[start:])
}

// Words splits a query on spaces, dropping empty words.
func Words(query string) []string {
	return strings.Fields(query)
}
