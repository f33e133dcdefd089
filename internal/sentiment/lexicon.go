// Package sentiment scores entry text and runs scoring off the caller's
// goroutine.
package sentiment

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"regexp"
	"strings"

	"github.com/TobiSchelling/lightnote/internal/journal"
)

//go:embed lexicon.json
var defaultLexicon []byte

// neutralBand is the compound magnitude below which text counts as neutral.
const neutralBand = 0.05

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}'-]+`)

// Scorer turns text into a sentiment score.
type Scorer interface {
	Score(ctx context.Context, text string) (journal.Sentiment, error)
}

// Lexicon is a word-valence scorer. The compound score is the summed
// valence over the square root of the token count, clamped to [-1, 1].
type Lexicon struct {
	weights map[string]float64
}

// NewLexicon returns a scorer using the bundled word list.
func NewLexicon() (*Lexicon, error) {
	return LoadLexicon(strings.NewReader(string(defaultLexicon)))
}

// LoadLexicon reads a JSON object of word to valence.
func LoadLexicon(r io.Reader) (*Lexicon, error) {
	var weights map[string]float64
	if err := json.NewDecoder(r).Decode(&weights); err != nil {
		return nil, fmt.Errorf("decoding lexicon: %w", err)
	}
	normalised := make(map[string]float64, len(weights))
	for w, v := range weights {
		normalised[strings.ToLower(w)] = v
	}
	return &Lexicon{weights: normalised}, nil
}

// Len is the number of words in the lexicon.
func (l *Lexicon) Len() int { return len(l.weights) }

// Score implements Scorer.
func (l *Lexicon) Score(ctx context.Context, text string) (journal.Sentiment, error) {
	if err := ctx.Err(); err != nil {
		return journal.Sentiment{}, err
	}

	tokens := tokenPattern.FindAllString(strings.ToLower(text), -1)
	n := 0
	var sum float64
	for _, t := range tokens {
		t = strings.Trim(t, "'-")
		if t == "" {
			continue
		}
		n++
		sum += l.weights[t]
	}
	if n == 0 {
		return journal.Sentiment{Neu: 1}, nil
	}

	compound := math.Max(-1, math.Min(1, sum/math.Sqrt(float64(n))))
	s := journal.Sentiment{Compound: compound}
	switch {
	case compound > neutralBand:
		s.Pos = compound
	case compound < -neutralBand:
		s.Neg = -compound
	default:
		s.Neu = 1
	}
	return s, nil
}
