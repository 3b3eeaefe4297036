package ngram

import (
	"iter"
	"unicode/utf8"
)

// Shingles yields every length-k rune window of s, left to right,
// repeats included. Strings shorter than k, and k < 1, yield nothing.
// The sequence holds no state, so it can be ranged over any number of times.
func Shingles(s string, k int) iter.Seq[string] {
	return func(yield func(string) bool) {
		if k < 1 {
			return
		}
		n := utf8.RuneCountInString(s)
		if n < k {
			return
		}

		// offsets[i] is the byte offset of rune i; offsets[n] == len(s).
		offsets := make([]int, 0, n+1)
		for i := range s {
			offsets = append(offsets, i)
		}
		offsets = append(offsets, len(s))

		for i := 0; i+k <= n; i++ {
			if !yield(s[offsets[i]:offsets[i+k]]) {
				return
			}
		}
	}
}

// Collect materializes Shingles(s, k).
func Collect(s string, k int) []string {
	var out []string
	for g := range Shingles(s, k) {
		out = append(out, g)
	}
	return out
}

// Count returns the number of shingles Shingles(s, k) yields.
func Count(s string, k int) int {
	if k < 1 {
		return 0
	}
	n := utf8.RuneCountInString(s) - k + 1
	if n < 0 {
		return 0
	}
	return n
}

// RuneLen returns the length of s in runes, the unit k is measured in.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}
