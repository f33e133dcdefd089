package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/lightnote/internal/database"
	"github.com/TobiSchelling/lightnote/internal/journal"
	"github.com/TobiSchelling/lightnote/internal/llm"
	"github.com/TobiSchelling/lightnote/internal/rollup"
	"github.com/TobiSchelling/lightnote/internal/themes"
	"github.com/TobiSchelling/lightnote/internal/week"
)

type blockingProvider struct {
	release chan struct{}
	started chan struct{}
	once    sync.Once
}

func (b *blockingProvider) Generate(ctx context.Context, _ llm.Request) (string, error) {
	b.once.Do(func() { close(b.started) })
	select {
	case <-b.release:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return "", errors.New("unavailable")
}

func (b *blockingProvider) IsConfigured() bool { return true }

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newGenerator(db *database.DB, provider llm.Provider) *Generator {
	x := themes.NewExtractor(provider, themes.NewCache(db.Blobs(themes.Namespace)))
	g := New(db, rollup.NewCache(db.Blobs(rollup.Namespace)), x, []string{"work", "sleep"})
	g.now = func() time.Time { return time.Date(2025, 2, 16, 20, 0, 0, 0, time.Local) }
	return g
}

func seed(t *testing.T, db *database.DB) {
	t.Helper()
	cur := week.MustRange("2025-W07").Start
	prev := week.MustRange("2025-W06").Start
	s := func(v float64) *journal.Sentiment {
		x := journal.NewSentiment(v, 0, 0, 0)
		return &x
	}
	_, err := db.UpsertEntries(context.Background(), []journal.Entry{
		{ID: "p1", Text: "calm week at work, nothing special", CreatedAt: prev.Add(10 * time.Hour), Sentiment: s(0.3)},
		{ID: "c1", Text: "work deadline again and poor sleep", CreatedAt: cur.Add(22 * time.Hour), Sentiment: s(-0.6)},
		{ID: "c2", Text: "sleep was better after a long walk", CreatedAt: cur.Add(46 * time.Hour), Sentiment: s(0.5)},
	})
	require.NoError(t, err)
}

func TestGenerateComposesAndStores(t *testing.T) {
	db := openTestDB(t)
	seed(t, db)
	g := newGenerator(db, nil)

	r, err := g.Generate(context.Background(), "2025-W07")
	require.NoError(t, err)
	require.Len(t, r.Steps, 4)
	for _, s := range r.Steps {
		assert.NoError(t, s.Err, s.Name)
	}

	d := r.Digest
	assert.False(t, d.Empty)
	assert.True(t, d.HasPrev)
	assert.Equal(t, 2, d.Rollup.Count)
	assert.Equal(t, themes.OriginHeuristic, d.ThemeOrigin)
	assert.NotEmpty(t, d.Themes.Words)

	cached, err := g.Cached(context.Background(), "2025-W07")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, d.WeekKey, cached.WeekKey)
	assert.Equal(t, d.Themes.Words, cached.Themes.Words)
	assert.True(t, d.Range.Start.Equal(cached.Range.Start))

	keys, err := db.Blobs(rollup.Namespace).Keys(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-W06", "2025-W07"}, keys)
}

func TestGenerateEmptyWeek(t *testing.T) {
	db := openTestDB(t)
	g := newGenerator(db, nil)

	r, err := g.Generate(context.Background(), "2025-W10")
	require.NoError(t, err)
	assert.True(t, r.Digest.Empty)
	assert.Equal(t, "No entries yet this week.", r.Digest.Message)
}

func TestGenerateRejectsMalformedKey(t *testing.T) {
	g := newGenerator(openTestDB(t), nil)
	_, err := g.Generate(context.Background(), "2025-07")
	assert.ErrorIs(t, err, week.ErrMalformedKey)
}

func TestCachedMissing(t *testing.T) {
	g := newGenerator(openTestDB(t), nil)
	d, err := g.Cached(context.Background(), "2025-W07")
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestLatestGeneratesOnce(t *testing.T) {
	db := openTestDB(t)
	seed(t, db)
	g := newGenerator(db, nil)

	d, err := g.Latest(context.Background(), "2025-W07")
	require.NoError(t, err)
	require.NotNil(t, d)

	stored, err := db.GetDigest(context.Background(), "2025-W07")
	require.NoError(t, err)
	assert.NotNil(t, stored)
}

func TestGenerateRefusesConcurrentRunForSameWeek(t *testing.T) {
	db := openTestDB(t)
	seed(t, db)
	p := &blockingProvider{release: make(chan struct{}), started: make(chan struct{})}
	g := newGenerator(db, p)

	done := make(chan error, 1)
	go func() {
		_, err := g.Generate(context.Background(), "2025-W07")
		done <- err
	}()
	<-p.started

	assert.True(t, g.InProgress("2025-W07"))
	_, err := g.Generate(context.Background(), "2025-W07")
	assert.ErrorIs(t, err, ErrInProgress)

	_, err = g.Generate(context.Background(), "2025-W10")
	assert.NoError(t, err, "other weeks are not blocked")

	close(p.release)
	require.NoError(t, <-done)
	assert.False(t, g.InProgress("2025-W07"))
}

func TestLatestRegeneratesWhenEntriesChange(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	seed(t, db)
	g := newGenerator(db, nil)

	first, err := g.Latest(ctx, "2025-W07")
	require.NoError(t, err)
	require.NotNil(t, first.Rollup)
	assert.Equal(t, 2, first.Rollup.Count)
	assert.NotEmpty(t, first.Source)

	again, err := g.Latest(ctx, "2025-W07")
	require.NoError(t, err)
	assert.Equal(t, first.Source, again.Source, "unchanged week is served from storage")

	added := journal.NewSentiment(0.2, 0, 0, 0)
	_, err = db.UpsertEntry(ctx, journal.Entry{
		ID:        "c3",
		Text:      "quiet evening reading at home",
		CreatedAt: week.MustRange("2025-W07").Start.Add(70 * time.Hour),
		Sentiment: &added,
	})
	require.NoError(t, err)

	fresh, err := g.Latest(ctx, "2025-W07")
	require.NoError(t, err)
	assert.Equal(t, 3, fresh.Rollup.Count)
	assert.NotEqual(t, first.Source, fresh.Source)

	stored, err := g.Cached(ctx, "2025-W07")
	require.NoError(t, err)
	assert.Equal(t, fresh.Source, stored.Source)
}

func TestLatestServesStaleCopyWhileGenerating(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	seed(t, db)
	require.NoError(t, db.SaveDigest(ctx, "2025-W07", []byte(`{"week_key":"2025-W07","message":"old"}`)))

	p := &blockingProvider{release: make(chan struct{}), started: make(chan struct{})}
	g := newGenerator(db, p)

	done := make(chan error, 1)
	go func() {
		_, err := g.Generate(ctx, "2025-W07")
		done <- err
	}()
	<-p.started

	d, err := g.Latest(ctx, "2025-W07")
	require.NoError(t, err)
	assert.Equal(t, "old", d.Message)

	close(p.release)
	require.NoError(t, <-done)
}
