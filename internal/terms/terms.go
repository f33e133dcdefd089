// Package terms mines frequent words and two-word phrases from entries.
package terms

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/TobiSchelling/lightnote/internal/journal"
)

// Defaults for the rankings.
const (
	DefaultTopK         = 8
	DefaultLowMoodK     = 6
	DefaultLowThreshold = -0.2
	minTokenLen         = 3
)

var negations = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`\bdo\s*not\b`), "don't"},
	{regexp.MustCompile(`\bcan\s*not\b`), "can't"},
	{regexp.MustCompile(`\bwill\s*not\b`), "won't"},
}

// Term is a ranked word or phrase.
type Term struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// Ranking holds the top unigrams and adjacent bigrams.
type Ranking struct {
	Words   []Term `json:"words"`
	Phrases []Term `json:"phrases"`
}

// WordList returns the ranked words without counts.
func (r Ranking) WordList() []string { return termList(r.Words) }

// PhraseList returns the ranked phrases without counts.
func (r Ranking) PhraseList() []string { return termList(r.Phrases) }

func termList(ts []Term) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Term
	}
	return out
}

// Tokenize lowercases text, folds "do not"/"can not"/"will not" into their
// contracted forms, drops apostrophes and anything that is not a letter or
// digit, then discards short tokens and stop words.
func Tokenize(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r == '\'' || r == '’':
			return '\''
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			return r
		default:
			return ' '
		}
	}, strings.ToLower(text))

	for _, n := range negations {
		cleaned = n.re.ReplaceAllString(cleaned, n.repl)
	}
	cleaned = strings.ReplaceAll(cleaned, "'", "")

	var out []string
	for _, w := range strings.Fields(cleaned) {
		if utf8.RuneCountInString(w) < minTokenLen || IsStopWord(w) {
			continue
		}
		out = append(out, w)
	}
	return out
}

// counter counts keys and remembers the order they were first seen.
type counter struct {
	index map[string]int
	terms []Term
}

func newCounter() *counter {
	return &counter{index: make(map[string]int)}
}

func (c *counter) add(k string) {
	if i, ok := c.index[k]; ok {
		c.terms[i].Count++
		return
	}
	c.index[k] = len(c.terms)
	c.terms = append(c.terms, Term{Term: k, Count: 1})
}

// top sorts by count descending; equal counts keep first-seen order.
func (c *counter) top(k int) []Term {
	ranked := make([]Term, len(c.terms))
	copy(ranked, c.terms)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	if k >= 0 && len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}

func count(entries []journal.Entry) (uni, bi *counter) {
	uni, bi = newCounter(), newCounter()
	for _, e := range entries {
		toks := Tokenize(e.Text)
		for i, t := range toks {
			uni.add(t)
			if i < len(toks)-1 {
				bi.add(t + " " + toks[i+1])
			}
		}
	}
	return uni, bi
}

// Top ranks the k most frequent words and phrases across entries.
func Top(entries []journal.Entry, k int) Ranking {
	uni, bi := count(entries)
	return Ranking{Words: uni.top(k), Phrases: bi.top(k)}
}

// LowMood ranks terms over entries scoring at or below threshold. Unscored
// entries count as 0.
func LowMood(entries []journal.Entry, threshold float64, k int) Ranking {
	var low []journal.Entry
	for _, e := range entries {
		if e.ScoreOrZero() <= threshold {
			low = append(low, e)
		}
	}
	return Top(low, k)
}

// Frequencies returns the full unigram table.
func Frequencies(entries []journal.Entry) map[string]int {
	uni, _ := count(entries)
	out := make(map[string]int, len(uni.terms))
	for _, t := range uni.terms {
		out[t.Term] = t.Count
	}
	return out
}
