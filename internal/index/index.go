// Package index builds an n-gram inverted index over tokenized paths and
// ranks documents by how many of their words share a shingle with a query.
//
// An Index is immutable once built and safe for concurrent searches.
// Rebuilding produces a new Index, which a Handle can publish atomically.
package index

import (
	"fmt"

	trovoerrors "github.com/Aman-CERP/trovo/internal/errors"
	"github.com/Aman-CERP/trovo/internal/ngram"
)

// TermID identifies a vocabulary word. IDs are dense and assigned in the
// order words are first seen.
type TermID int

// DocID is a document's position in the corpus.
type DocID int

// Index maps shingles to the words containing them, and words to the
// documents containing them with their occurrence counts.
type Index struct {
	k int

	docs    []string
	terms   []string
	termIDs map[string]TermID

	// occurrences[t][d] is how often term t appears in document d.
	// Zero counts are never stored.
	occurrences map[TermID]map[DocID]int

	// postings[g] lists, ascending and without repeats, the terms of rune
	// length >= k that contain shingle g.
	postings map[string][]TermID
}

// Build indexes docs with shingle length k in a single pass over the
// tokens. k <= 0 is rejected. An empty corpus yields an empty index.
func Build(docs []Document, k int) (*Index, error) {
	if err := ValidateK(k); err != nil {
		return nil, err
	}

	idx := &Index{
		k:           k,
		docs:        make([]string, len(docs)),
		termIDs:     make(map[string]TermID),
		occurrences: make(map[TermID]map[DocID]int),
		postings:    make(map[string][]TermID),
	}

	for d, doc := range docs {
		idx.docs[d] = doc.ID
		for _, tok := range doc.Tokens {
			id, ok := idx.termIDs[tok]
			if !ok {
				id = TermID(len(idx.terms))
				idx.terms = append(idx.terms, tok)
				idx.termIDs[tok] = id
				idx.occurrences[id] = make(map[DocID]int)
			}
			idx.occurrences[id][DocID(d)]++
		}
	}

	for i, term := range idx.terms {
		id := TermID(i)
		for g := range ngram.Shingles(term, k) {
			// Terms are visited in id order, so a repeat of g within this
			// term can only show up as the bucket's last entry.
			bucket := idx.postings[g]
			if n := len(bucket); n > 0 && bucket[n-1] == id {
				continue
			}
			idx.postings[g] = append(bucket, id)
		}
	}

	return idx, nil
}

// ValidateK rejects non-positive shingle lengths.
func ValidateK(k int) error {
	if k <= 0 {
		return trovoerrors.InvalidArgument(fmt.Sprintf("shingle length k must be positive, got %d", k)).
			WithSuggestion("Use --k with a value of 1 or more, or 0 to derive it from the query")
	}
	return nil
}

// K returns the shingle length the index was built with.
func (idx *Index) K() int { return idx.k }

// Len returns the number of documents.
func (idx *Index) Len() int { return len(idx.docs) }

// VocabularySize returns the number of distinct words.
func (idx *Index) VocabularySize() int { return len(idx.terms) }

// ShingleCount returns the number of distinct shingles with postings.
func (idx *Index) ShingleCount() int { return len(idx.postings) }

// DocumentID returns the identifier of document d.
func (idx *Index) DocumentID(d DocID) string { return idx.docs[d] }

// Term returns the word with the given id.
func (idx *Index) Term(id TermID) string { return idx.terms[id] }

// Lookup returns the id of word, if it is in the vocabulary.
func (idx *Index) Lookup(word string) (TermID, bool) {
	id, ok := idx.termIDs[word]
	return id, ok
}

// Postings returns a copy of the term ids whose words contain shingle g.
func (idx *Index) Postings(g string) []TermID {
	return append([]TermID(nil), idx.postings[g]...)
}

// Occurrences returns a copy of the per-document counts of term id.
func (idx *Index) Occurrences(id TermID) map[DocID]int {
	row := idx.occurrences[id]
	out := make(map[DocID]int, len(row))
	for d, c := range row {
		out[d] = c
	}
	return out
}
