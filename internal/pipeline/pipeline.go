// Package pipeline generates and stores the digest of a week.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/TobiSchelling/lightnote/internal/database"
	"github.com/TobiSchelling/lightnote/internal/digest"
	"github.com/TobiSchelling/lightnote/internal/journal"
	"github.com/TobiSchelling/lightnote/internal/rollup"
	"github.com/TobiSchelling/lightnote/internal/themes"
	"github.com/TobiSchelling/lightnote/internal/week"
)

// ErrInProgress is returned when the week is already being generated.
var ErrInProgress = errors.New("digest generation already in progress for this week")

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a generation run.
type Result struct {
	WeekKey week.Key
	Digest  digest.Digest
	Steps   []StepResult
}

// Store is the persistence a Generator reads entries from and writes
// digests to.
type Store interface {
	journal.Source
	SaveDigest(ctx context.Context, weekKey string, data []byte) error
	GetDigest(ctx context.Context, weekKey string) (*database.StoredDigest, error)
}

// Generator runs the load, rollup, themes and compose steps for a week.
type Generator struct {
	store     Store
	rollups   *rollup.Cache
	extractor *themes.Extractor
	tracked   []string
	now       func() time.Time

	mu      sync.Mutex
	running map[week.Key]bool
}

// New creates a Generator. tracked may be empty for the default entities.
func New(store Store, rollups *rollup.Cache, extractor *themes.Extractor, tracked []string) *Generator {
	return &Generator{
		store:     store,
		rollups:   rollups,
		extractor: extractor,
		tracked:   tracked,
		now:       time.Now,
		running:   make(map[week.Key]bool),
	}
}

// InProgress reports whether key is being generated right now.
func (g *Generator) InProgress(key week.Key) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running[key]
}

func (g *Generator) acquire(key week.Key) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running[key] {
		return ErrInProgress
	}
	g.running[key] = true
	return nil
}

func (g *Generator) release(key week.Key) {
	g.mu.Lock()
	delete(g.running, key)
	g.mu.Unlock()
}

// Generate builds, stores and returns the digest for key. Only a malformed
// key, a failing entry store or a concurrent run for the same week is an
// error; theme extraction problems fall back silently.
func (g *Generator) Generate(ctx context.Context, key week.Key) (*Result, error) {
	prevKey, err := week.Prev(key)
	if err != nil {
		return nil, err
	}

	if err := g.acquire(key); err != nil {
		return nil, err
	}
	defer g.release(key)

	r := &Result{WeekKey: key}

	// Step 1: Load entries
	log.Info().Msgf("Step 1/4: Loading entries for %s...", key)
	cur, prev, err := g.load(ctx, key)
	if err != nil {
		return nil, err
	}
	r.Steps = append(r.Steps, StepResult{
		Name:    "Load",
		Summary: fmt.Sprintf("%d entries this week, %d last week", len(cur), len(prev)),
	})

	// Step 2: Rollups
	log.Info().Msg("Step 2/4: Rolling up mood...")
	curRoll := g.rollup(ctx, key, cur)
	prevRoll := g.rollup(ctx, prevKey, prev)
	r.Steps = append(r.Steps, rollupStep(curRoll))

	// Step 3: Themes
	log.Info().Msg("Step 3/4: Extracting themes...")
	set, origin := g.extractor.Extract(ctx, key, cur)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Themes",
		Summary: fmt.Sprintf("%d themes from %s", len(set.Words), origin),
	})

	// Step 4: Compose
	log.Info().Msg("Step 4/4: Composing digest...")
	d, err := digest.Compose(digest.Input{
		WeekKey:         key,
		Current:         curRoll,
		Previous:        prevRoll,
		Themes:          set,
		ThemeOrigin:     origin,
		Entries:         cur,
		PreviousEntries: prev,
		TrackedEntities: g.tracked,
		Now:             g.now(),
	})
	if err != nil {
		return nil, err
	}
	d.Source = sourceOf(cur, prev)
	r.Digest = d

	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encoding digest: %w", err)
	}
	step := StepResult{Name: "Compose", Summary: "Digest composed and saved"}
	if err := g.store.SaveDigest(ctx, string(key), data); err != nil {
		log.Warn().Err(err).Str("week", string(key)).Msg("could not save digest")
		step.Summary = "Digest composed, not saved"
		step.Err = err
	}
	r.Steps = append(r.Steps, step)

	return r, nil
}

// load reads the entries of key and of the week before it.
func (g *Generator) load(ctx context.Context, key week.Key) (cur, prev []journal.Entry, err error) {
	rng, err := week.RangeFromKey(key)
	if err != nil {
		return nil, nil, err
	}
	prevKey, err := week.Prev(key)
	if err != nil {
		return nil, nil, err
	}
	prevRng, err := week.RangeFromKey(prevKey)
	if err != nil {
		return nil, nil, err
	}
	cur, err = g.store.EntriesBetween(ctx, rng.Start, rng.End)
	if err != nil {
		return nil, nil, fmt.Errorf("loading entries for %s: %w", key, err)
	}
	prev, err = g.store.EntriesBetween(ctx, prevRng.Start, prevRng.End)
	if err != nil {
		return nil, nil, fmt.Errorf("loading entries for %s: %w", prevKey, err)
	}
	return cur, prev, nil
}

// sourceOf fingerprints both weeks a digest reads; last week feeds the deltas.
func sourceOf(cur, prev []journal.Entry) string {
	return rollup.Checksum(cur) + "|" + rollup.Checksum(prev)
}

// rollup reads through the cache. A cache failure only costs the cached copy.
func (g *Generator) rollup(ctx context.Context, key week.Key, entries []journal.Entry) *rollup.Rollup {
	if g.rollups == nil {
		return rollup.Week(entries)
	}
	roll, err := g.rollups.Week(ctx, key, entries)
	if err != nil {
		log.Warn().Err(err).Str("week", string(key)).Msg("rollup cache unavailable")
		return rollup.Week(entries)
	}
	return roll
}

func rollupStep(r *rollup.Rollup) StepResult {
	if r == nil {
		return StepResult{Name: "Rollup", Summary: "No entries"}
	}
	if !r.HasMood() {
		return StepResult{Name: "Rollup", Summary: fmt.Sprintf("%d entries, mood not yet analysed", r.Count)}
	}
	return StepResult{
		Name:    "Rollup",
		Summary: fmt.Sprintf("%d entries, avg mood %.2f (±%.2f)", r.Count, r.MoodAvg, r.MoodVol),
	}
}

// Cached returns the last stored digest for key, or nil if none exists.
func (g *Generator) Cached(ctx context.Context, key week.Key) (*digest.Digest, error) {
	stored, err := g.store.GetDigest(ctx, string(key))
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, nil
	}
	var d digest.Digest
	if err := json.Unmarshal(stored.JSON, &d); err != nil {
		return nil, fmt.Errorf("decoding stored digest for %s: %w", key, err)
	}
	return &d, nil
}

// Latest returns the stored digest for key while it still matches the
// week's entries, and regenerates it otherwise. When another run for the
// week is in flight the stale copy is returned as is.
func (g *Generator) Latest(ctx context.Context, key week.Key) (*digest.Digest, error) {
	d, err := g.Cached(ctx, key)
	if err != nil {
		return nil, err
	}
	if d != nil {
		cur, prev, err := g.load(ctx, key)
		if err != nil {
			return nil, err
		}
		if d.Source == sourceOf(cur, prev) {
			return d, nil
		}
		log.Debug().Str("week", string(key)).Msg("stored digest is stale, regenerating")
	}
	r, err := g.Generate(ctx, key)
	if errors.Is(err, ErrInProgress) && d != nil {
		return d, nil
	}
	if err != nil {
		return nil, err
	}
	return &r.Digest, nil
}
