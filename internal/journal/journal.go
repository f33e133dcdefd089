// Package journal defines the normalised journal entry the digest pipeline
// reads. Entries are owned by the entry store and read-only here.
package journal

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"
)

// Sentiment is the score contract produced by the sentiment scorer.
type Sentiment struct {
	Compound float64 `json:"compound"`
	Pos      float64 `json:"pos"`
	Neg      float64 `json:"neg"`
	Neu      float64 `json:"neu"`
}

// NewSentiment builds a Sentiment with Compound clamped to [-1, 1].
func NewSentiment(compound, pos, neg, neu float64) Sentiment {
	return Sentiment{Compound: clamp(compound), Pos: pos, Neg: neg, Neu: neu}
}

// Clamp returns s with Compound forced into [-1, 1].
func (s Sentiment) Clamp() Sentiment {
	s.Compound = clamp(s.Compound)
	return s
}

// Entry is one journal entry.
type Entry struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	CreatedAt time.Time  `json:"created_at"`
	Sentiment *Sentiment `json:"sentiment,omitempty"`
}

// Score returns the entry's compound score, if it has been scored.
func (e Entry) Score() (float64, bool) {
	if e.Sentiment == nil || math.IsNaN(e.Sentiment.Compound) {
		return 0, false
	}
	return clamp(e.Sentiment.Compound), true
}

// ScoreOrZero treats unscored entries as neutral.
func (e Entry) ScoreOrZero() float64 {
	s, _ := e.Score()
	return s
}

// WordCount counts whitespace-separated words in the trimmed text.
func (e Entry) WordCount() int {
	return len(strings.Fields(e.Text))
}

// Source gives read access to entries by time range.
type Source interface {
	EntriesBetween(ctx context.Context, start, end time.Time) ([]Entry, error)
}

// Between returns the entries with start <= CreatedAt < end, keeping order.
func Between(entries []Entry, start, end time.Time) []Entry {
	var out []Entry
	for _, e := range entries {
		if !e.CreatedAt.Before(start) && e.CreatedAt.Before(end) {
			out = append(out, e)
		}
	}
	return out
}

// SortByCreated orders entries oldest first; equal timestamps keep their order.
func SortByCreated(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
}

// AnyScored reports whether at least one entry carries a score.
func AnyScored(entries []Entry) bool {
	for _, e := range entries {
		if _, ok := e.Score(); ok {
			return true
		}
	}
	return false
}

func clamp(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}
