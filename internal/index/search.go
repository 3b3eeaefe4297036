package index

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	trovoerrors "github.com/Aman-CERP/trovo/internal/errors"
	"github.com/Aman-CERP/trovo/internal/ngram"
)

// Result is one ranked document.
type Result struct {
	Doc   DocID  `json:"-"`
	ID    string `json:"path"`
	Score int    `json:"score"`
}

// Search ranks documents against query using the index's own k.
//
// Every vocabulary word sharing at least one shingle with the lowercased
// query is a candidate; a document scores the total occurrences of the
// candidate words it contains. Results are ordered by score, highest
// first, then by document order. Only documents with a positive score are
// returned. An empty query, or one shorter than k, returns no results.
func (idx *Index) Search(query string) []Result {
	results := []Result{}

	candidates := idx.candidates(strings.ToLower(query))
	if len(candidates) == 0 {
		return results
	}

	scores := make(map[DocID]int)
	for _, t := range candidates {
		for d, c := range idx.occurrences[t] {
			scores[d] += c
		}
	}

	for d, s := range scores {
		results = append(results, Result{Doc: d, ID: idx.docs[d], Score: s})
	}
	slices.SortFunc(results, func(a, b Result) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Doc, b.Doc)
	})
	return results
}

// SearchWithK is Search for callers that computed k themselves. It fails
// instead of silently returning nothing when k differs from the index's.
func (idx *Index) SearchWithK(query string, k int) ([]Result, error) {
	if err := idx.CheckK(k); err != nil {
		return nil, err
	}
	return idx.Search(query), nil
}

// CheckK reports whether a query shingled with k can be served by idx.
func (idx *Index) CheckK(k int) error {
	if err := ValidateK(k); err != nil {
		return err
	}
	if k != idx.k {
		return trovoerrors.New(trovoerrors.ErrCodeShingleMismatch,
			fmt.Sprintf("query shingle length %d does not match index shingle length %d", k, idx.k), nil).
			WithSuggestion("Rebuild the index with the same k or omit --k")
	}
	return nil
}

// candidates returns the distinct terms sharing a shingle with q, ascending.
func (idx *Index) candidates(q string) []TermID {
	seen := make(map[TermID]struct{})
	var out []TermID
	for g := range ngram.Shingles(q, idx.k) {
		for _, t := range idx.postings[g] {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	slices.Sort(out)
	return out
}

// Paths returns the document identifiers of results, in order.
func Paths(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.ID
	}
	return out
}
