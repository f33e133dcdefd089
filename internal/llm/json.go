package llm

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

var (
	fencePattern         = regexp.MustCompile("(?is)```(?:json)?\\s*(.*?)```")
	trailingCommaPattern = regexp.MustCompile(`,(\s*[}\]])`)
	curlyQuotes          = strings.NewReplacer("“", `"`, "”", `"`, "‘", "'", "’", "'")
)

// ParseLoose decodes a model reply into v. It reads the largest fenced code
// block when there is one, otherwise the whole reply. If that fails it
// strips trailing commas, straightens curly quotes, narrows to the outermost
// braces and tries again. A reply that still does not decode is a
// *ParseError.
func ParseLoose(reply string, v any) error {
	raw := strings.TrimSpace(largestFence(reply))
	if raw == "" {
		return &ParseError{Err: errors.New("empty reply")}
	}

	firstErr := json.Unmarshal([]byte(raw), v)
	if firstErr == nil {
		return nil
	}

	fixed := trailingCommaPattern.ReplaceAllString(curlyQuotes.Replace(raw), "$1")
	if start, end := strings.Index(fixed, "{"), strings.LastIndex(fixed, "}"); start >= 0 && end > start {
		fixed = fixed[start : end+1]
	}
	if err := json.Unmarshal([]byte(fixed), v); err != nil {
		return &ParseError{Snippet: truncate(raw, 120), Err: firstErr}
	}
	return nil
}

func largestFence(s string) string {
	best, found := "", false
	for _, m := range fencePattern.FindAllStringSubmatch(s, -1) {
		if !found || len(m[1]) > len(best) {
			best, found = m[1], true
		}
	}
	if !found {
		return s
	}
	return best
}
