package digest

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/TobiSchelling/lightnote/internal/journal"
	"github.com/TobiSchelling/lightnote/internal/terms"
)

const (
	clipLen    = 120
	summaryLen = 140
	risingMax  = 3
	fallingMax = 3
)

var firstSentence = regexp.MustCompile(`^(.+?[.!?])(\s|$)`)

// notables picks the lowest and highest scoring entries. Unscored entries
// count as 0 and equal scores go to the longer text.
func notables(entries []journal.Entry) (worst, best *Notable) {
	if len(entries) == 0 {
		return nil, nil
	}
	asc := make([]journal.Entry, len(entries))
	copy(asc, entries)
	sort.SliceStable(asc, func(i, j int) bool {
		si, sj := asc[i].ScoreOrZero(), asc[j].ScoreOrZero()
		if si != sj {
			return si < sj
		}
		return len(asc[i].Text) > len(asc[j].Text)
	})
	desc := make([]journal.Entry, len(entries))
	copy(desc, entries)
	sort.SliceStable(desc, func(i, j int) bool {
		si, sj := desc[i].ScoreOrZero(), desc[j].ScoreOrZero()
		if si != sj {
			return si > sj
		}
		return len(desc[i].Text) > len(desc[j].Text)
	})
	return notable(asc[0]), notable(desc[0])
}

func notable(e journal.Entry) *Notable {
	return &Notable{
		ID:      e.ID,
		Score:   e.ScoreOrZero(),
		Clip:    Clip(e.Text, clipLen),
		Summary: Summarize(e.Text),
	}
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func cut(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "…"
}

// Clip collapses whitespace and shortens s to n runes plus an ellipsis.
func Clip(s string, n int) string {
	return cut(collapse(s), n)
}

// Summarize returns the first sentence of s, shortened to 140 runes.
func Summarize(s string) string {
	t := collapse(s)
	if t == "" {
		return ""
	}
	if m := firstSentence.FindStringSubmatch(t); m != nil {
		t = m[1]
	}
	return cut(t, summaryLen)
}

// themeDeltas compares full word frequencies for every word in either
// week's top eight.
func themeDeltas(cur, prev []journal.Entry) (rising, falling []ThemeDelta) {
	curFreq, prevFreq := terms.Frequencies(cur), terms.Frequencies(prev)

	var candidates []string
	seen := make(map[string]bool)
	for _, list := range [][]string{
		terms.Top(cur, terms.DefaultTopK).WordList(),
		terms.Top(prev, terms.DefaultTopK).WordList(),
	} {
		for _, w := range list {
			if !seen[w] {
				seen[w] = true
				candidates = append(candidates, w)
			}
		}
	}

	var changes []ThemeDelta
	for _, w := range candidates {
		d := curFreq[w] - prevFreq[w]
		if d != 0 {
			changes = append(changes, ThemeDelta{Term: w, Count: curFreq[w], Previous: prevFreq[w], Delta: d})
		}
	}
	sort.SliceStable(changes, func(i, j int) bool {
		return abs(changes[i].Delta) > abs(changes[j].Delta)
	})

	rising, falling = []ThemeDelta{}, []ThemeDelta{}
	for _, c := range changes {
		if c.Delta > 0 && len(rising) < risingMax {
			rising = append(rising, c)
		}
		if c.Delta < 0 && len(falling) < fallingMax {
			falling = append(falling, c)
		}
	}
	return rising, falling
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
