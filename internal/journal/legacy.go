package journal

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// legacyEntry is the browser export shape. Scores were written either under
// meta.sent or flat on the entry, depending on the app version.
type legacyEntry struct {
	ID       string          `json:"id"`
	Text     string          `json:"text"`
	Created  json.RawMessage `json:"created"`
	Meta     *legacyMeta     `json:"meta"`
	Compound *float64        `json:"compound"`
	Pos      *float64        `json:"pos"`
	Neg      *float64        `json:"neg"`
	Neu      *float64        `json:"neu"`
}

type legacyMeta struct {
	Sent *legacySent `json:"sent"`
}

type legacySent struct {
	Compound *float64 `json:"compound"`
	Pos      float64  `json:"pos"`
	Neg      float64  `json:"neg"`
	Neu      float64  `json:"neu"`
}

// DecodeLegacy parses an exported entries array into normalised entries.
// The nested meta.sent score wins over the flat one; entries with neither
// are returned unscored.
func DecodeLegacy(data []byte) ([]Entry, error) {
	var raw []legacyEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding entries: %w", err)
	}

	entries := make([]Entry, 0, len(raw))
	for i, r := range raw {
		created, err := parseCreated(r.Created)
		if err != nil {
			return nil, fmt.Errorf("entry %d (%s): %w", i, r.ID, err)
		}
		entries = append(entries, Entry{
			ID:        r.ID,
			Text:      r.Text,
			CreatedAt: created,
			Sentiment: r.sentiment(),
		})
	}
	return entries, nil
}

func (r legacyEntry) sentiment() *Sentiment {
	if r.Meta != nil && r.Meta.Sent != nil && r.Meta.Sent.Compound != nil {
		s := NewSentiment(*r.Meta.Sent.Compound, r.Meta.Sent.Pos, r.Meta.Sent.Neg, r.Meta.Sent.Neu)
		return &s
	}
	if r.Compound != nil {
		s := NewSentiment(*r.Compound, deref(r.Pos), deref(r.Neg), deref(r.Neu))
		return &s
	}
	return nil
}

// parseCreated accepts epoch milliseconds (number or numeric string) or RFC 3339.
func parseCreated(raw json.RawMessage) (time.Time, error) {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" || s == "null" {
		return time.Time{}, fmt.Errorf("missing created timestamp")
	}
	if ms, err := strconv.ParseFloat(s, 64); err == nil {
		return time.UnixMilli(int64(ms)), nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognised created timestamp %q", s)
	}
	return t.Local(), nil
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
