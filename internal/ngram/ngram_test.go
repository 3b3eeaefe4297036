package ngram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect []string
	}{
		{
			name:   "absolute path",
			input:  "/home/alice/report.pdf",
			expect: []string{"", "home", "alice", "report", "pdf"},
		},
		{
			name:   "lowercases",
			input:  "/Music/My_Song.MP3",
			expect: []string{"", "music", "my", "song", "mp3"},
		},
		{
			name:   "every delimiter",
			input:  "a/b.c-d:e;f g_h",
			expect: []string{"a", "b", "c", "d", "e", "f", "g", "h"},
		},
		{
			name:   "adjacent delimiters keep empty words",
			input:  "a//b",
			expect: []string{"a", "", "b"},
		},
		{
			name:   "trailing delimiter",
			input:  "dir/",
			expect: []string{"dir", ""},
		},
		{
			name:   "empty string",
			input:  "",
			expect: []string{""},
		},
		{
			name:   "non-ascii",
			input:  "/Città/Perché.txt",
			expect: []string{"", "città", "perché", "txt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, Tokenize(tt.input))
		})
	}
}

func TestTokenize_NoTokenContainsDelimiter(t *testing.T) {
	for _, p := range []string{"/x/y.z", "--;;::", "a b_c-d", "/tmp/.cache/x"} {
		for _, tok := range Tokenize(p) {
			assert.False(t, strings.ContainsAny(tok, Delimiters), "token %q of %q", tok, p)
			assert.Equal(t, strings.ToLower(tok), tok)
		}
	}
}

func TestWords(t *testing.T) {
	assert.Equal(t, []string{"annual", "report"}, Words("  annual   report "))
	assert.Empty(t, Words("   "))
}

func TestShingles(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		k      int
		expect []string
	}{
		{
			name:   "report k=4",
			input:  "report",
			k:      4,
			expect: []string{"repo", "epor", "port"},
		},
		{
			name:   "exact length",
			input:  "abc",
			k:      3,
			expect: []string{"abc"},
		},
		{
			name:   "shorter than k",
			input:  "ab",
			k:      3,
			expect: nil,
		},
		{
			name:   "repeats kept",
			input:  "aaaa",
			k:      2,
			expect: []string{"aa", "aa", "aa"},
		},
		{
			name:   "runes not bytes",
			input:  "città",
			k:      2,
			expect: []string{"ci", "it", "tt", "tà"},
		},
		{
			name:   "k=1",
			input:  "abc",
			k:      1,
			expect: []string{"a", "b", "c"},
		},
		{
			name:   "k=0",
			input:  "abc",
			k:      0,
			expect: nil,
		},
		{
			name:   "empty",
			input:  "",
			k:      1,
			expect: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Collect(tt.input, tt.k)
			assert.Equal(t, tt.expect, got)
			assert.Equal(t, len(tt.expect), Count(tt.input, tt.k))
		})
	}
}

func TestShingles_CountFormula(t *testing.T) {
	for _, s := range []string{"a", "report", "/home/alice/notes.txt", "ünïcödé"} {
		for k := 1; k <= RuneLen(s)+1; k++ {
			got := Collect(s, k)
			want := RuneLen(s) - k + 1
			if want < 0 {
				want = 0
			}
			require.Len(t, got, want, "s=%q k=%d", s, k)
			for _, g := range got {
				assert.Equal(t, k, RuneLen(g))
				assert.Contains(t, s, g)
			}
		}
	}
}

func TestShingles_Restartable(t *testing.T) {
	// Given: one sequence value
	seq := Shingles("notes", 3)

	// When: iterating it twice
	var first, second []string
	for g := range seq {
		first = append(first, g)
	}
	for g := range seq {
		second = append(second, g)
	}

	// Then: both passes see the same shingles
	assert.Equal(t, []string{"not", "ote", "tes"}, first)
	assert.Equal(t, first, second)
}

func TestShingles_EarlyBreak(t *testing.T) {
	var got []string
	for g := range Shingles("abcdef", 2) {
		got = append(got, g)
		if len(got) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"ab", "bc"}, got)
}
