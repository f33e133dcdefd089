package database

import "time"

// Insight is a saved digest or reflection.
type Insight struct {
	ID        string
	Scope     string // "week" or "week-ai"
	Week      string
	Text      string
	CreatedAt time.Time
}

// StoredDigest is the last generated digest for a week, as JSON.
type StoredDigest struct {
	WeekKey     string
	JSON        []byte
	GeneratedAt *string
}

// Stats holds aggregate counts for status output.
type Stats struct {
	Entries       int
	ScoredEntries int
	Blobs         int
	Insights      int
	Digests       int
}
