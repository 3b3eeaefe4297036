package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	trovoerrors "github.com/Aman-CERP/trovo/internal/errors"
)

var homeCorpus = []string{
	"/home/alice/report.pdf",
	"/home/bob/report.txt",
	"/home/alice/notes.txt",
}

func mustBuild(t *testing.T, paths []string, k int) *Index {
	t.Helper()
	idx, err := Build(NewCorpus(paths), k)
	require.NoError(t, err)
	return idx
}

func TestBuild_RejectsNonPositiveK(t *testing.T) {
	for _, k := range []int{0, -1, -100} {
		idx, err := Build(NewCorpus(homeCorpus), k)

		require.Error(t, err)
		assert.Nil(t, idx)
		assert.True(t, trovoerrors.HasCode(err, trovoerrors.ErrCodeInvalidInput), "k=%d", k)
	}
}

func TestBuild_EmptyCorpus(t *testing.T) {
	// Given: no documents
	idx, err := Build(nil, 3)

	// Then: an empty index that matches nothing
	require.NoError(t, err)
	assert.Equal(t, 0, idx.Len())
	assert.Equal(t, 0, idx.VocabularySize())
	assert.Empty(t, idx.Search("anything"))
}

func TestBuild_TermIDsFirstSeenOrder(t *testing.T) {
	idx := mustBuild(t, homeCorpus, 4)

	// Tokens in order: "", home, alice, report, pdf, bob, txt, notes
	want := []string{"", "home", "alice", "report", "pdf", "bob", "txt", "notes"}
	require.Equal(t, len(want), idx.VocabularySize())
	for i, w := range want {
		assert.Equal(t, w, idx.Term(TermID(i)))
		id, ok := idx.Lookup(w)
		assert.True(t, ok)
		assert.Equal(t, TermID(i), id)
	}
}

func TestBuild_OccurrenceCounts(t *testing.T) {
	// Given: a path with a repeated word
	idx := mustBuild(t, []string{"/data/data/data.csv", "/data/x"}, 2)

	// Then: counts are per document, zero never stored
	id, ok := idx.Lookup("data")
	require.True(t, ok)
	assert.Equal(t, map[DocID]int{0: 3, 1: 1}, idx.Occurrences(id))

	csv, _ := idx.Lookup("csv")
	assert.Equal(t, map[DocID]int{0: 1}, idx.Occurrences(csv))
	for i := 0; i < idx.VocabularySize(); i++ {
		for _, c := range idx.Occurrences(TermID(i)) {
			assert.Positive(t, c)
		}
	}
}

func TestBuild_ShortTermsHaveNoPostings(t *testing.T) {
	idx := mustBuild(t, homeCorpus, 4)

	// "pdf", "bob", "txt" and "" are shorter than 4
	for _, g := range []string{"pdf", "bob", "txt", ""} {
		assert.Empty(t, idx.Postings(g))
	}
	home, _ := idx.Lookup("home")
	assert.Equal(t, []TermID{home}, idx.Postings("home"))
}

func TestBuild_RepeatedShingleRecordedOnce(t *testing.T) {
	// Given: a term whose shingles repeat ("aaaa" -> aa, aa, aa)
	idx := mustBuild(t, []string{"/aaaa", "/baaab"}, 2)

	// Then: each term appears once per bucket, in id order
	a, _ := idx.Lookup("aaaa")
	b, _ := idx.Lookup("baaab")
	assert.Equal(t, []TermID{a, b}, idx.Postings("aa"))
	assert.Equal(t, []TermID{b}, idx.Postings("ba"))
}

func TestSearch_ReportScenario(t *testing.T) {
	idx := mustBuild(t, homeCorpus, 4)

	// When: searching for "report"
	results := idx.Search("report")

	// Then: both report documents tie and keep corpus order; notes.txt
	// shares no 4-gram with "report", scores zero and is dropped
	require.Len(t, results, 2)
	assert.Equal(t, "/home/alice/report.pdf", results[0].ID)
	assert.Equal(t, "/home/bob/report.txt", results[1].ID)
	assert.Equal(t, 1, results[0].Score)
	assert.Equal(t, 1, results[1].Score)
}

func TestSearch_ScoresSumOccurrences(t *testing.T) {
	// Given: documents with different counts of a matching word
	idx := mustBuild(t, []string{
		"/music/live/live.mp3",
		"/music/live.mp3",
		"/music/studio.mp3",
	}, 3)

	// When: the query matches "live" and "music"
	results := idx.Search("live music")

	// Then: doc 0 scores live*2 + music, doc 1 live + music, doc 2 music
	assert.Equal(t, []Result{
		{Doc: 0, ID: "/music/live/live.mp3", Score: 3},
		{Doc: 1, ID: "/music/live.mp3", Score: 2},
		{Doc: 2, ID: "/music/studio.mp3", Score: 1},
	}, results)
}

func TestSearch_WholeTokenInOneDocumentRanksFirst(t *testing.T) {
	idx := mustBuild(t, []string{
		"/srv/backup/db.sql",
		"/srv/www/index.html",
		"/srv/www/favicon.ico",
	}, 3)

	results := idx.Search("favicon")

	require.NotEmpty(t, results)
	assert.Equal(t, "/srv/www/favicon.ico", results[0].ID)
	assert.GreaterOrEqual(t, results[0].Score, 1)
}

func TestSearch_CaseInsensitive(t *testing.T) {
	idx := mustBuild(t, homeCorpus, 4)

	assert.Equal(t, idx.Search("report"), idx.Search("REPORT"))
}

func TestSearch_EmptyAndShortQueries(t *testing.T) {
	idx := mustBuild(t, homeCorpus, 4)

	tests := []struct {
		name  string
		query string
	}{
		{"empty", ""},
		{"shorter than k", "rep"},
		{"no shared shingle", "zzzz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := idx.Search(tt.query)
			assert.NotNil(t, results)
			assert.Empty(t, results)
		})
	}
}

func TestSearch_SingleCharacterBreadth(t *testing.T) {
	// Given: k=1, as derived from a one-character query word
	paths := []string{
		"/x/alpha.txt",
		"/x/beta.txt",
		"/x/gamma.md",
		"/x/zz.c",
	}
	k := AutoK("a")
	require.Equal(t, 1, k)
	idx := mustBuild(t, paths, k)

	// When: searching a single character
	results := idx.Search("a")

	// Then: every document with an "a" in any word matches, and only those
	assert.ElementsMatch(t, []string{"/x/alpha.txt", "/x/beta.txt", "/x/gamma.md"}, Paths(results))
}

func TestSearch_Deterministic(t *testing.T) {
	paths := []string{
		"/p/report-2023.pdf",
		"/p/report-2024.pdf",
		"/p/old/reports/summary.txt",
		"/p/annual_report.docx",
	}
	a := mustBuild(t, paths, 3)
	b := mustBuild(t, paths, 3)

	for _, q := range []string{"report", "rep 2024", "summary", "pdf"} {
		assert.Equal(t, a.Search(q), b.Search(q), q)
	}
}

func TestSearch_KLargerThanEveryTerm(t *testing.T) {
	idx := mustBuild(t, homeCorpus, 50)

	assert.Equal(t, 0, idx.ShingleCount())
	assert.Empty(t, idx.Search("/home/alice/report.pdf/home/alice/report.pdf/home/x"))
}

func TestSearchWithK(t *testing.T) {
	idx := mustBuild(t, homeCorpus, 4)

	results, err := idx.SearchWithK("report", 4)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	_, err = idx.SearchWithK("report", 3)
	assert.True(t, trovoerrors.HasCode(err, trovoerrors.ErrCodeShingleMismatch))

	_, err = idx.SearchWithK("report", 0)
	assert.True(t, trovoerrors.HasCode(err, trovoerrors.ErrCodeInvalidInput))
}

func TestAutoK(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"report", 6},
		{"annual report", 6},
		{"q3 report", 2},
		{"a report", 1},
		{"", 1},
		{"   ", 1},
		{"città", 5},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, AutoK(tt.query))
		})
	}
}

func TestNewCorpus(t *testing.T) {
	docs := NewCorpus([]string{"/Home/Alice/Report.PDF"})

	require.Len(t, docs, 1)
	assert.Equal(t, "/Home/Alice/Report.PDF", docs[0].ID)
	assert.Equal(t, []string{"", "home", "alice", "report", "pdf"}, docs[0].Tokens)
}
