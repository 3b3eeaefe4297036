package index

import (
	"github.com/Aman-CERP/trovo/internal/ngram"
)

// Document is one corpus entry: an identifier (a file path) and its words.
type Document struct {
	ID     string
	Tokens []string
}

// NewCorpus tokenizes paths into documents, preserving order. A document's
// position in the returned slice is its DocID.
func NewCorpus(paths []string) []Document {
	docs := make([]Document, len(paths))
	for i, p := range paths {
		docs[i] = Document{ID: p, Tokens: ngram.Tokenize(p)}
	}
	return docs
}

// AutoK picks a shingle length from a query the way the command line does
// when none is configured: the rune length of the shortest word, at least 1.
func AutoK(query string) int {
	k := 0
	for _, w := range ngram.Words(query) {
		if n := ngram.RuneLen(w); k == 0 || n < k {
			k = n
		}
	}
	if k < 1 {
		return 1
	}
	return k
}
