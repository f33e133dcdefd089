package terms

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/TobiSchelling/lightnote/internal/journal"
)

func scored(text string, score float64) journal.Entry {
	s := journal.NewSentiment(score, 0, 0, 0)
	return journal.Entry{Text: text, Sentiment: &s}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"stop words and short tokens", "I went to the gym and it was ok", []string{"gym"}},
		{"punctuation", "Coffee, coffee... COFFEE!", []string{"coffee", "coffee", "coffee"}},
		{"contractions fold into stop words", "I do not like mondays, I can not sleep", []string{"mondays", "sleep"}},
		{"curly apostrophe", "Charlotte’s birthday", []string{"charlottes", "birthday"}},
		{"unicode letters", "Café crème brûlée", []string{"café", "crème", "brûlée"}},
		{"digits", "ran 10km in 55 minutes", []string{"ran", "10km", "minutes"}},
		{"hyphen splits", "self-care evening", []string{"self", "care", "evening"}},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.in))
		})
	}
}

func TestStopWordsCoverage(t *testing.T) {
	for _, w := range []string{"the", "dont", "feeling", "working", "today", "stuff", "kind"} {
		assert.True(t, IsStopWord(w), w)
	}
	assert.False(t, IsStopWord("sleep"))
	assert.Greater(t, len(stopWords), 250)
}

func TestTopFirstSeenTieBreak(t *testing.T) {
	r := Top([]journal.Entry{
		{Text: "garden coffee"},
		{Text: "coffee garden bicycle"},
	}, 8)

	assert.Equal(t, []Term{{"garden", 2}, {"coffee", 2}, {"bicycle", 1}}, r.Words)
	assert.Equal(t, []Term{{"garden coffee", 1}, {"coffee garden", 1}, {"garden bicycle", 1}}, r.Phrases)
}

func TestTopLimitsK(t *testing.T) {
	r := Top([]journal.Entry{{Text: "alpha bravo charlie delta echo alpha"}}, 2)
	assert.Equal(t, []string{"alpha", "bravo"}, r.WordList())
	assert.Len(t, r.PhraseList(), 2)
}

func TestBigramsDoNotSpanEntries(t *testing.T) {
	r := Top([]journal.Entry{{Text: "morning"}, {Text: "run"}}, 8)
	assert.Empty(t, r.Phrases)
}

func TestLowMood(t *testing.T) {
	entries := []journal.Entry{
		scored("deadline stress deadline", -0.6),
		scored("sunny picnic", 0.7),
		scored("argument stress", -0.2),
		{Text: "unscored traffic"},
	}
	r := LowMood(entries, DefaultLowThreshold, DefaultLowMoodK)
	assert.Equal(t, []string{"deadline", "stress", "argument"}, r.WordList())
}

func TestFrequencies(t *testing.T) {
	f := Frequencies([]journal.Entry{{Text: "sleep sleep garden"}, {Text: "garden sleep"}})
	assert.Equal(t, map[string]int{"sleep": 3, "garden": 2}, f)
}
