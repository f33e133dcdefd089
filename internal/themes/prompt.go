package themes

import (
	"sync"

	"github.com/TobiSchelling/lightnote/internal/llm"
)

const systemPrompt = "You are an analyst extracting weekly themes from journal snippets. You answer with strict JSON only."

const promptTemplate = `You are an analyst extracting weekly THEMES from journal snippets.
Return STRICT JSON ONLY in this schema:

{
  "words": ["<top single words, 3-8>"],
  "phrases": ["<top bigrams/trigrams, 2-6>"],
  "entities": ["<names or recurring proper nouns, 0-6>"],
  "evidence": [{"theme":"<short label>","quotes":["<short quote>"]}]
}

Guidelines:
- Prefer DISTINCTIVE themes for THIS WEEK (avoid generic words like "time", "know", "feel", "just", "want").
- Create short human labels if needed ("boundary issues", "late nights", "relationship conflict").
- Evidence quotes must be SHORT (<=120 chars), trimmed, no rephrasing.

WEEK SNIPPETS:
`

// BuildPrompt renders the extraction prompt for a sample.
func BuildPrompt(snippets string) string {
	return promptTemplate + snippets
}

var setSchema = sync.OnceValue(func() *llm.Schema {
	return llm.GenerateSchema[Set]("ThemeSet", "Weekly journal themes")
})
