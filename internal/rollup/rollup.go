// Package rollup aggregates one week's entries into mood statistics.
package rollup

import (
	"fmt"
	"math"

	"github.com/TobiSchelling/lightnote/internal/journal"
)

// MinWords is the word count below which an entry is left out of mood
// statistics. Short entries still count toward Count.
const MinWords = 3

// Extreme identifies the entry holding a minimum or maximum score.
type Extreme struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Rollup is the per-week aggregate.
type Rollup struct {
	Count          int      `json:"count"`
	ScoredCount    int      `json:"scored_count"`
	MoodAvg        float64  `json:"mood_avg"`
	MoodVol        float64  `json:"mood_vol"`
	LongestEntryID string   `json:"longest_entry_id,omitempty"`
	MostNegative   *Extreme `json:"most_negative,omitempty"`
	MostPositive   *Extreme `json:"most_positive,omitempty"`
}

// HasMood reports whether any entry contributed a score.
func (r *Rollup) HasMood() bool {
	return r != nil && r.ScoredCount > 0
}

// Week computes the rollup for entries. It returns nil for an empty slice.
func Week(entries []journal.Entry) *Rollup {
	if len(entries) == 0 {
		return nil
	}

	r := &Rollup{Count: len(entries)}

	longest := -1
	for i, e := range entries {
		if longest < 0 || len(e.Text) > len(entries[longest].Text) {
			longest = i
		}
	}
	r.LongestEntryID = entries[longest].ID

	// Welford running mean and sum of squared deviations.
	var mean, m2 float64
	for _, e := range entries {
		if e.WordCount() < MinWords {
			continue
		}
		s, ok := e.Score()
		if !ok {
			continue
		}

		r.ScoredCount++
		delta := s - mean
		mean += delta / float64(r.ScoredCount)
		m2 += delta * (s - mean)

		if r.MostNegative == nil || s < r.MostNegative.Score {
			r.MostNegative = &Extreme{ID: e.ID, Score: s}
		}
		if r.MostPositive == nil || s > r.MostPositive.Score {
			r.MostPositive = &Extreme{ID: e.ID, Score: s}
		}
	}

	if r.ScoredCount > 0 {
		r.MoodAvg = mean
		r.MoodVol = math.Sqrt(math.Max(0, m2/float64(r.ScoredCount)))
	}
	return r
}

// Checksum fingerprints a slice for cache invalidation: the entry count and
// the sum of scores scaled by 1000 and rounded. Unscored entries add 0.
// Different slices can collide.
func Checksum(entries []journal.Entry) string {
	var sum int64
	for _, e := range entries {
		if s, ok := e.Score(); ok {
			sum += int64(math.Round(s * 1000))
		}
	}
	return fmt.Sprintf("%d:%d", len(entries), sum)
}
