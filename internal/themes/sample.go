package themes

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/TobiSchelling/lightnote/internal/journal"
)

const (
	// MaxSample bounds how many entries go into the prompt.
	MaxSample   = 18
	extremeEach = 4
	clipRunes   = 280
)

// Sample picks up to limit entries for the prompt: the four lowest and four
// highest scoring (unscored as 0), then the most recent of the rest.
func Sample(entries []journal.Entry, limit int) []journal.Entry {
	idx := make([]int, len(entries))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return entries[idx[a]].ScoreOrZero() < entries[idx[b]].ScoreOrZero()
	})

	picked := make([]int, 0, limit)
	seen := make(map[int]bool)
	take := func(i int) {
		if !seen[i] {
			seen[i] = true
			picked = append(picked, i)
		}
	}
	for _, i := range idx[:min(extremeEach, len(idx))] {
		take(i)
	}
	for _, i := range idx[max(0, len(idx)-extremeEach):] {
		take(i)
	}

	var rest []int
	for i := range entries {
		if !seen[i] {
			rest = append(rest, i)
		}
	}
	sort.SliceStable(rest, func(a, b int) bool {
		return entries[rest[a]].CreatedAt.After(entries[rest[b]].CreatedAt)
	})
	for _, i := range rest {
		if len(picked) >= limit {
			break
		}
		take(i)
	}

	if len(picked) > limit {
		picked = picked[:limit]
	}
	out := make([]journal.Entry, len(picked))
	for n, i := range picked {
		out[n] = entries[i]
	}
	return out
}

// FormatSample renders sampled entries as prompt lines.
func FormatSample(entries []journal.Entry) string {
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = "- [" + e.CreatedAt.UTC().Format("2006-01-02") + "] " + Clip(e.Text, clipRunes)
	}
	return strings.Join(lines, "\n")
}

// Clip collapses whitespace and cuts s to n runes, marking the cut with an
// ellipsis.
func Clip(s string, n int) string {
	t := strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(t) <= n {
		return t
	}
	return string([]rune(t)[:n]) + "…"
}
