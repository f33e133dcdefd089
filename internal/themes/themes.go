// Package themes extracts a week's themes, asking a completion service first
// and falling back to term frequencies when that fails.
package themes

import (
	"strings"

	"github.com/TobiSchelling/lightnote/internal/journal"
	"github.com/TobiSchelling/lightnote/internal/terms"
)

// Caps applied to a Set before it is stored.
const (
	MaxWords    = 8
	MaxPhrases  = 6
	MaxEntities = 6
	MaxEvidence = 4
)

// Origin says where a Set came from.
type Origin string

const (
	OriginCache     Origin = "cache"
	OriginLLM       Origin = "llm"
	OriginHeuristic Origin = "heuristic"
)

// Evidence ties a theme label to short quotes from the entries.
type Evidence struct {
	Theme  string   `json:"theme" jsonschema:"description=Short human label for the theme"`
	Quotes []string `json:"quotes" jsonschema:"description=Short unmodified quotes of at most 120 characters"`
}

// Set is the theme summary of a week. It has the same shape whichever path
// produced it.
type Set struct {
	Words    []string   `json:"words" jsonschema:"description=Top single words (3-8)"`
	Phrases  []string   `json:"phrases" jsonschema:"description=Top bigrams or trigrams (2-6)"`
	Entities []string   `json:"entities" jsonschema:"description=Names or recurring proper nouns (0-6)"`
	Evidence []Evidence `json:"evidence"`
}

// Label is the one-line theme summary: up to three phrases, else up to five
// words.
func (s Set) Label() string {
	if len(s.Phrases) > 0 {
		return strings.Join(head(s.Phrases, 3), " · ")
	}
	return strings.Join(head(s.Words, 5), ", ")
}

// Pills splits the label into its individual themes.
func (s Set) Pills() []string {
	if len(s.Phrases) > 0 {
		return head(s.Phrases, 3)
	}
	return head(s.Words, 5)
}

// Capped returns s truncated to the documented caps with nil sequences
// replaced by empty ones.
func (s Set) Capped() Set {
	return Set{
		Words:    nonNil(head(s.Words, MaxWords)),
		Phrases:  nonNil(head(s.Phrases, MaxPhrases)),
		Entities: nonNil(head(s.Entities, MaxEntities)),
		Evidence: nonNilEvidence(headEvidence(s.Evidence, MaxEvidence)),
	}
}

// Heuristic is the fallback Set: the top eight words and phrases, with no
// entities or evidence.
func Heuristic(entries []journal.Entry) Set {
	r := terms.Top(entries, terms.DefaultTopK)
	return Set{
		Words:    nonNil(r.WordList()),
		Phrases:  nonNil(r.PhraseList()),
		Entities: []string{},
		Evidence: []Evidence{},
	}
}

func head(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func headEvidence(s []Evidence, n int) []Evidence {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilEvidence(s []Evidence) []Evidence {
	if s == nil {
		return []Evidence{}
	}
	return s
}
