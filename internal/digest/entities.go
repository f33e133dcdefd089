package digest

import (
	"fmt"
	"strings"

	"github.com/TobiSchelling/lightnote/internal/journal"
)

// significantDelta is the mention increase that makes an entity worth a
// question.
const significantDelta = 3

// ParseTracked splits a comma-separated entity list into trimmed lowercase
// names, dropping blanks and repeats.
func ParseTracked(raw string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

func trackedOrDefault(names []string) []string {
	if len(names) == 0 {
		return DefaultTrackedEntities
	}
	return ParseTracked(strings.Join(names, ","))
}

type mentionStats struct {
	mentions int
	sum      float64
	scored   int
}

func (m mentionStats) mood() (float64, bool) {
	if m.scored == 0 {
		return 0, false
	}
	return m.sum / float64(m.scored), true
}

func mentions(name string, entries []journal.Entry) mentionStats {
	var m mentionStats
	for _, e := range entries {
		if !strings.Contains(strings.ToLower(e.Text), name) {
			continue
		}
		m.mentions++
		if s, ok := e.Score(); ok {
			m.sum += s
			m.scored++
		}
	}
	return m
}

func entityImpacts(names []string, cur, prev []journal.Entry) []EntityImpact {
	out := []EntityImpact{}
	for _, name := range names {
		c := mentions(name, cur)
		if c.mentions == 0 {
			continue
		}
		p := mentions(name, prev)

		impact := EntityImpact{
			Name:         name,
			Mentions:     c.mentions,
			PrevMentions: p.mentions,
			MentionDelta: c.mentions - p.mentions,
		}
		impact.Significant = impact.MentionDelta >= significantDelta
		if p.mentions == 0 {
			impact.Label = "new"
		} else {
			impact.Label = signedInt(impact.MentionDelta)
		}

		if cm, ok := c.mood(); ok {
			impact.Mood = &cm
			if pm, ok := p.mood(); ok {
				d := cm - pm
				impact.MoodDelta = &d
			}
		}
		out = append(out, impact)
	}
	return out
}

func signedInt(n int) string {
	switch {
	case n > 0:
		return fmt.Sprintf("+%d", n)
	case n < 0:
		return fmt.Sprintf("%d", n)
	default:
		return "±0"
	}
}
