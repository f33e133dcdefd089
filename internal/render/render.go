// Package render maps a composed digest to text, Markdown and terminal
// output. Every function here is a pure mapping from digest fields.
package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/TobiSchelling/lightnote/internal/digest"
)

// Line labels shared by the renderers.
const (
	labelNotLow   = "Notable ↓"
	labelNotHigh  = "Notable ↑"
	notAnalysed   = "(not yet analysed)"
	digestHeading = "Weekly Digest"
)

// Title is the digest heading.
func Title(d digest.Digest) string {
	return fmt.Sprintf("%s %s", digestHeading, d.WeekKey)
}

// EntriesLine reports the entry count and, with a previous week, its change.
func EntriesLine(d digest.Digest) string {
	if d.Rollup == nil {
		return ""
	}
	line := fmt.Sprintf("Entries: %d", d.Rollup.Count)
	if d.CountDelta != nil {
		line += fmt.Sprintf(" (%s)", SignedInt(*d.CountDelta))
	}
	return line
}

// MoodLine reports average and spread, or that nothing is scored yet.
func MoodLine(d digest.Digest) string {
	if d.Rollup == nil {
		return ""
	}
	if !d.MoodAnalysed {
		return "Mood: " + notAnalysed
	}
	line := fmt.Sprintf("Mood: %.2f (± %.2f)", d.Rollup.MoodAvg, d.Rollup.MoodVol)
	if d.MoodDelta != nil {
		line += fmt.Sprintf(", %s vs last week", SignedMood(*d.MoodDelta))
	}
	return line
}

// ThemesLine lists the week's themes.
func ThemesLine(d digest.Digest) string {
	if label := d.Themes.Label(); label != "" {
		return "Themes: " + label
	}
	return ""
}

// NotableLine renders one notable entry.
func NotableLine(label string, n *digest.Notable) string {
	if n == nil {
		return ""
	}
	id := n.ID
	if id == "" {
		id = "-"
	}
	line := fmt.Sprintf("%s “%s” (id: %s, score: %s)", label, n.Clip, id, SignedMood(n.Score))
	if n.Summary != "" && n.Summary != n.Clip {
		line += ". " + n.Summary
	}
	return line
}

// EvidenceLines renders each theme with its first quote.
func EvidenceLines(d digest.Digest) []string {
	var out []string
	for _, ev := range d.Themes.Evidence {
		if len(ev.Quotes) == 0 {
			continue
		}
		q := strings.Trim(digest.Clip(ev.Quotes[0], 120), "“”\"")
		if q == "" {
			continue
		}
		out = append(out, fmt.Sprintf("• %s: “%s”", ev.Theme, q))
	}
	return out
}

// EntityChip renders one entity impact, e.g. "work 3× (new), mood -0.40".
func EntityChip(e digest.EntityImpact) string {
	s := fmt.Sprintf("%s %d×", e.Name, e.Mentions)
	if e.Label != "" {
		s += fmt.Sprintf(" (%s)", e.Label)
	}
	if e.Mood != nil {
		s += fmt.Sprintf(", mood %.2f", *e.Mood)
		if e.MoodDelta != nil {
			s += fmt.Sprintf(" (Δ %s)", SignedMood(*e.MoodDelta))
		}
	}
	return s
}

// DeltaList renders theme deltas as "word (+2), other (+1)".
func DeltaList(ds []digest.ThemeDelta) string {
	parts := make([]string, len(ds))
	for i, td := range ds {
		parts[i] = fmt.Sprintf("%s (%s)", td.Term, SignedInt(td.Delta))
	}
	return strings.Join(parts, ", ")
}

// SignedInt formats n with an explicit sign.
func SignedInt(n int) string {
	switch {
	case n > 0:
		return fmt.Sprintf("+%d", n)
	case n < 0:
		return fmt.Sprintf("%d", n)
	default:
		return "±0"
	}
}

// SignedMood formats a score or score delta to two decimals with a sign.
func SignedMood(v float64) string {
	r := math.Round(v*100) / 100
	switch {
	case r > 0:
		return fmt.Sprintf("+%.2f", r)
	case r < 0:
		return fmt.Sprintf("%.2f", r)
	default:
		return "±0"
	}
}

// Text renders the digest as plain lines. This is the form saved as an
// insight and sent for reflection.
func Text(d digest.Digest) string {
	if d.Empty {
		return d.Message
	}

	lines := []string{
		Title(d),
		d.Range.String(),
		EntriesLine(d),
		MoodLine(d),
		d.WhenSentence,
		ThemesLine(d),
		NotableLine(labelNotLow, d.NotableNegative),
		NotableLine(labelNotHigh, d.NotablePositive),
	}
	lines = append(lines, EvidenceLines(d)...)

	if len(d.EntityImpacts) > 0 {
		chips := make([]string, len(d.EntityImpacts))
		for i, e := range d.EntityImpacts {
			chips[i] = EntityChip(e)
		}
		lines = append(lines, "Entity events: "+strings.Join(chips, " • "))
	}
	if len(d.RisingThemes) > 0 {
		lines = append(lines, "Themes up: "+DeltaList(d.RisingThemes))
	}
	if len(d.FallingThemes) > 0 {
		lines = append(lines, "Themes down: "+DeltaList(d.FallingThemes))
	}
	if len(d.LowMoodWords) > 0 {
		lines = append(lines, "When mood dipped: "+strings.Join(d.LowMoodWords, ", "))
	}
	if len(d.Questions) > 0 {
		lines = append(lines, "Questions: "+strings.Join(d.Questions, " "))
	}
	if d.NextStep != "" {
		lines = append(lines, "Next tiny step: "+d.NextStep)
	}

	return joinNonEmpty(lines, "\n")
}

func joinNonEmpty(lines []string, sep string) string {
	out := lines[:0:0]
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, sep)
}
