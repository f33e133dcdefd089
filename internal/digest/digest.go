// Package digest assembles a week's rollup, themes and entity mentions into
// one typed document. Composition is deterministic for a given input.
package digest

import (
	"fmt"
	"time"

	"github.com/TobiSchelling/lightnote/internal/journal"
	"github.com/TobiSchelling/lightnote/internal/rollup"
	"github.com/TobiSchelling/lightnote/internal/terms"
	"github.com/TobiSchelling/lightnote/internal/themes"
	"github.com/TobiSchelling/lightnote/internal/week"
)

// EmptyMessage is the whole digest of a week without entries.
const EmptyMessage = "No entries yet this week."

// DefaultTrackedEntities seeds entity tracking when nothing is configured.
var DefaultTrackedEntities = []string{"charlotte", "mum", "work", "sleep"}

// Input is everything Compose reads.
type Input struct {
	WeekKey         week.Key
	Current         *rollup.Rollup
	Previous        *rollup.Rollup
	Themes          themes.Set
	ThemeOrigin     themes.Origin
	Entries         []journal.Entry
	PreviousEntries []journal.Entry
	TrackedEntities []string
	Now             time.Time
}

// Notable is an illustrative entry at one end of the mood range.
type Notable struct {
	ID      string  `json:"id"`
	Score   float64 `json:"score"`
	Clip    string  `json:"clip"`
	Summary string  `json:"summary"`
}

// EntityImpact is how often a tracked entity came up and the mood around it.
type EntityImpact struct {
	Name         string   `json:"name"`
	Mentions     int      `json:"mentions"`
	PrevMentions int      `json:"prev_mentions"`
	MentionDelta int      `json:"mention_delta"`
	Label        string   `json:"label"`
	Mood         *float64 `json:"mood,omitempty"`
	MoodDelta    *float64 `json:"mood_delta,omitempty"`
	Significant  bool     `json:"significant"`
}

// ThemeDelta is a word whose frequency changed against last week.
type ThemeDelta struct {
	Term     string `json:"term"`
	Count    int    `json:"count"`
	Previous int    `json:"previous"`
	Delta    int    `json:"delta"`
}

// Digest is the composed weekly document.
type Digest struct {
	WeekKey week.Key   `json:"week_key"`
	Range   week.Range `json:"range"`
	Empty   bool       `json:"empty"`
	Message string     `json:"message,omitempty"`

	Rollup       *rollup.Rollup `json:"rollup,omitempty"`
	Previous     *rollup.Rollup `json:"previous,omitempty"`
	HasPrev      bool           `json:"has_prev"`
	MoodAnalysed bool           `json:"mood_analysed"`
	CountDelta   *int           `json:"count_delta,omitempty"`
	MoodDelta    *float64       `json:"mood_delta,omitempty"`

	Themes      themes.Set    `json:"themes"`
	ThemeOrigin themes.Origin `json:"theme_origin"`

	NotableNegative *Notable       `json:"notable_negative,omitempty"`
	NotablePositive *Notable       `json:"notable_positive,omitempty"`
	EntityImpacts   []EntityImpact `json:"entity_impacts"`
	RisingThemes    []ThemeDelta   `json:"rising_themes"`
	FallingThemes   []ThemeDelta   `json:"falling_themes"`
	LowMoodWords    []string       `json:"low_mood_words"`

	WhenSentence string   `json:"when_sentence"`
	Questions    []string `json:"questions"`
	NextStep     string   `json:"next_step"`

	GeneratedAt time.Time `json:"generated_at"`
	// Source fingerprints the entries the digest was composed from.
	Source string `json:"source,omitempty"`
}

// MoodDropped reports whether the average mood fell by moodDropThreshold or
// more against last week.
func (d Digest) MoodDropped() bool {
	return d.MoodDelta != nil && *d.MoodDelta <= moodDropThreshold
}

// Compose builds the digest. Only a malformed week key is an error.
func Compose(in Input) (Digest, error) {
	rng, err := week.RangeFromKey(in.WeekKey)
	if err != nil {
		return Digest{}, fmt.Errorf("composing digest: %w", err)
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	d := Digest{WeekKey: in.WeekKey, Range: rng, GeneratedAt: now}

	if len(in.Entries) == 0 {
		d.Empty = true
		d.Message = EmptyMessage
		return d, nil
	}

	cur := in.Current
	if cur == nil {
		cur = rollup.Week(in.Entries)
	}
	prev := in.Previous
	if prev == nil {
		prev = rollup.Week(in.PreviousEntries)
	}

	d.Rollup = cur
	d.HasPrev = len(in.PreviousEntries) > 0
	d.MoodAnalysed = journal.AnyScored(in.Entries)
	d.Themes = in.Themes
	d.ThemeOrigin = in.ThemeOrigin

	if d.HasPrev {
		d.Previous = prev
		delta := cur.Count - prev.Count
		d.CountDelta = &delta
		if d.MoodAnalysed && journal.AnyScored(in.PreviousEntries) {
			md := cur.MoodAvg - prev.MoodAvg
			d.MoodDelta = &md
		}
		d.RisingThemes, d.FallingThemes = themeDeltas(in.Entries, in.PreviousEntries)
	}

	d.NotableNegative, d.NotablePositive = notables(in.Entries)
	d.EntityImpacts = entityImpacts(trackedOrDefault(in.TrackedEntities), in.Entries, in.PreviousEntries)
	if d.MoodAnalysed {
		d.LowMoodWords = terms.LowMood(in.Entries, terms.DefaultLowThreshold, terms.DefaultLowMoodK).WordList()
	}
	d.WhenSentence = whenSentence(in.Entries)
	d.Questions = questions(d)
	d.NextStep = nextStep(d)
	return d, nil
}
