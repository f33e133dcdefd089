package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/TobiSchelling/lightnote/internal/digest"
)

type styles struct {
	title    lipgloss.Style
	header   lipgloss.Style
	stat     lipgloss.Style
	pill     lipgloss.Style
	negative lipgloss.Style
	positive lipgloss.Style
	evidence lipgloss.Style
	section  lipgloss.Style
	label    lipgloss.Style
	empty    lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:    lipgloss.NewStyle().Bold(true),
		header:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		stat:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252")),
		pill:     lipgloss.NewStyle().Foreground(lipgloss.Color("159")).Background(lipgloss.Color("237")).Padding(0, 1),
		negative: lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		positive: lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
		evidence: lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true),
		section:  lipgloss.NewStyle().MarginTop(1),
		label:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		empty:    lipgloss.NewStyle().Faint(true),
	}
}

// Terminal renders the digest for a terminal.
func Terminal(d digest.Digest) string {
	s := newStyles()
	lines := []string{
		s.title.Render(Title(d)),
		s.header.Render(d.Range.Label()),
	}
	if d.Empty {
		lines = append(lines, s.empty.Render(d.Message))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	var stats []string
	for _, l := range []string{EntriesLine(d), MoodLine(d), d.WhenSentence} {
		if l != "" {
			stats = append(stats, s.stat.Render(l))
		}
	}
	lines = append(lines, s.section.Render(lipgloss.JoinVertical(lipgloss.Left, stats...)))

	if pills := d.Themes.Pills(); len(pills) > 0 {
		rendered := make([]string, 0, len(pills)*2)
		for i, p := range pills {
			if i > 0 {
				rendered = append(rendered, " ")
			}
			rendered = append(rendered, s.pill.Render(p))
		}
		block := []string{lipgloss.JoinHorizontal(lipgloss.Top, rendered...)}
		for _, ev := range EvidenceLines(d) {
			block = append(block, s.evidence.Render(ev))
		}
		lines = append(lines, s.section.Render(lipgloss.JoinVertical(lipgloss.Left, block...)))
	}

	var notes []string
	if l := NotableLine(labelNotLow, d.NotableNegative); l != "" {
		notes = append(notes, s.negative.Render(l))
	}
	if l := NotableLine(labelNotHigh, d.NotablePositive); l != "" {
		notes = append(notes, s.positive.Render(l))
	}
	if len(notes) > 0 {
		lines = append(lines, s.section.Render(lipgloss.JoinVertical(lipgloss.Left, notes...)))
	}

	var extra []string
	if len(d.EntityImpacts) > 0 {
		chips := make([]string, len(d.EntityImpacts))
		for i, e := range d.EntityImpacts {
			chips[i] = EntityChip(e)
		}
		extra = append(extra, s.label.Render("Entities: ")+strings.Join(chips, " • "))
	}
	if len(d.RisingThemes) > 0 {
		extra = append(extra, s.label.Render("Up: ")+DeltaList(d.RisingThemes))
	}
	if len(d.FallingThemes) > 0 {
		extra = append(extra, s.label.Render("Down: ")+DeltaList(d.FallingThemes))
	}
	if len(d.LowMoodWords) > 0 {
		extra = append(extra, s.label.Render("When mood dipped: ")+strings.Join(d.LowMoodWords, ", "))
	}
	if len(extra) > 0 {
		lines = append(lines, s.section.Render(lipgloss.JoinVertical(lipgloss.Left, extra...)))
	}

	var coach []string
	for _, q := range d.Questions {
		coach = append(coach, s.label.Render("? ")+q)
	}
	if d.NextStep != "" {
		coach = append(coach, s.label.Render("Next tiny step: ")+d.NextStep)
	}
	if len(coach) > 0 {
		lines = append(lines, s.section.Render(lipgloss.JoinVertical(lipgloss.Left, coach...)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
