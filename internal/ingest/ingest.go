// Package ingest brings journal entries into the store from exports, feeds
// and clipped web pages, scoring them on the way in.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/TobiSchelling/lightnote/internal/journal"
)

// ErrEmptyEntry is returned when there is no text to store.
var ErrEmptyEntry = errors.New("entry text is empty")

// Result holds the results of an import run.
type Result struct {
	Found  int
	New    int
	Scored int
}

// EntryStore is where imported entries go.
type EntryStore interface {
	UpsertEntries(ctx context.Context, entries []journal.Entry) (int, error)
}

// Scorer fills in missing sentiment.
type Scorer interface {
	ScoreAll(ctx context.Context, entries []journal.Entry) ([]journal.Entry, error)
}

// Importer stores entries, scoring unscored ones first when a scorer is set.
type Importer struct {
	store  EntryStore
	scorer Scorer
	now    func() time.Time
}

// NewImporter creates an Importer. scorer may be nil.
func NewImporter(store EntryStore, scorer Scorer) *Importer {
	return &Importer{store: store, scorer: scorer, now: time.Now}
}

// Add stores a single new entry written now.
func (im *Importer) Add(ctx context.Context, text string) (*journal.Entry, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyEntry
	}
	e := journal.Entry{ID: uuid.NewString(), Text: text, CreatedAt: im.now()}
	stored, _, err := im.store1(ctx, e)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// ImportJSON reads an exported entries array and stores it.
func (im *Importer) ImportJSON(ctx context.Context, r io.Reader) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading export: %w", err)
	}
	entries, err := journal.DecodeLegacy(data)
	if err != nil {
		return nil, err
	}
	res, err := im.Store(ctx, entries)
	if err != nil {
		return nil, err
	}
	log.Info().Msgf("Import complete: %d found, %d new, %d scored", res.Found, res.New, res.Scored)
	return res, nil
}

// Store scores and stores entries. Entries without an ID get one, and
// entries with blank text are skipped.
func (im *Importer) Store(ctx context.Context, entries []journal.Entry) (*Result, error) {
	var keep []journal.Entry
	for _, e := range entries {
		if strings.TrimSpace(e.Text) == "" {
			continue
		}
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		keep = append(keep, e)
	}
	res := &Result{Found: len(keep)}
	if len(keep) == 0 {
		return res, nil
	}

	if im.scorer != nil {
		before := countUnscored(keep)
		scored, err := im.scorer.ScoreAll(ctx, keep)
		if err != nil {
			return nil, fmt.Errorf("scoring entries: %w", err)
		}
		res.Scored = before - countUnscored(scored)
		keep = scored
	}

	n, err := im.store.UpsertEntries(ctx, keep)
	if err != nil {
		return nil, fmt.Errorf("storing entries: %w", err)
	}
	res.New = n
	return res, nil
}

func (im *Importer) store1(ctx context.Context, e journal.Entry) (journal.Entry, bool, error) {
	if im.scorer != nil {
		scored, err := im.scorer.ScoreAll(ctx, []journal.Entry{e})
		if err != nil {
			return e, false, fmt.Errorf("scoring entry: %w", err)
		}
		e = scored[0]
	}
	n, err := im.store.UpsertEntries(ctx, []journal.Entry{e})
	if err != nil {
		return e, false, fmt.Errorf("storing entry: %w", err)
	}
	return e, n == 1, nil
}

func countUnscored(entries []journal.Entry) int {
	n := 0
	for _, e := range entries {
		if e.Sentiment == nil {
			n++
		}
	}
	return n
}
