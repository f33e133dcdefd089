package sentiment

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/lightnote/internal/journal"
)

func testLexicon(t *testing.T) *Lexicon {
	t.Helper()
	l, err := LoadLexicon(strings.NewReader(`{"good": 2, "bad": -2, "Awful": -3}`))
	require.NoError(t, err)
	return l
}

func TestLexiconScore(t *testing.T) {
	l := testLexicon(t)
	tests := []struct {
		name     string
		text     string
		compound float64
		pos, neg float64
		neu      float64
	}{
		{"empty", "", 0, 0, 0, 1},
		{"neutral words", "walked to the shop", 0, 0, 0, 1},
		{"positive", "good good day now", 1, 1, 0, 0},
		{"scaled", "a good day", 2 / math.Sqrt(3), 0, 0, 0},
		{"negative clamps", "awful", -1, 0, 1, 0},
		{"case and punctuation", "BAD, bad... day!", -4 / math.Sqrt(3), 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := l.Score(context.Background(), tt.text)
			require.NoError(t, err)
			want := math.Max(-1, math.Min(1, tt.compound))
			assert.InDelta(t, want, s.Compound, 1e-9)
			assert.GreaterOrEqual(t, s.Compound, -1.0)
			assert.LessOrEqual(t, s.Compound, 1.0)
			switch {
			case want > neutralBand:
				assert.InDelta(t, want, s.Pos, 1e-9)
			case want < -neutralBand:
				assert.InDelta(t, -want, s.Neg, 1e-9)
			default:
				assert.Equal(t, 1.0, s.Neu)
			}
		})
	}
}

func TestBundledLexicon(t *testing.T) {
	l, err := NewLexicon()
	require.NoError(t, err)
	assert.Greater(t, l.Len(), 200)

	pos, err := l.Score(context.Background(), "a good day at work")
	require.NoError(t, err)
	neg, err := l.Score(context.Background(), "a very bad day, everything fell apart")
	require.NoError(t, err)
	assert.Greater(t, pos.Compound, 0.0)
	assert.Less(t, neg.Compound, 0.0)
}

type slowScorer struct {
	mu     sync.Mutex
	active int
	peak   int
}

func (s *slowScorer) Score(ctx context.Context, text string) (journal.Sentiment, error) {
	s.mu.Lock()
	s.active++
	if s.active > s.peak {
		s.peak = s.active
	}
	s.mu.Unlock()

	time.Sleep(10 * time.Millisecond)

	s.mu.Lock()
	s.active--
	s.mu.Unlock()
	if text == "fail" {
		return journal.Sentiment{}, errors.New("scorer exploded")
	}
	return journal.NewSentiment(float64(len(text))/10, 0, 0, 0), nil
}

func TestDispatcherCorrelatesResults(t *testing.T) {
	d := NewDispatcher(testLexicon(t), 3)
	defer d.Close()

	ctx := context.Background()
	a := d.Submit(ctx, Request{ID: "a", Text: "good"})
	b := d.Submit(ctx, Request{ID: "b", Text: "bad"})
	anon := d.Submit(ctx, Request{Text: "good"})

	ra, rb, rn := <-a, <-b, <-anon
	assert.Equal(t, "a", ra.ID)
	assert.Equal(t, "b", rb.ID)
	assert.NotEmpty(t, rn.ID)
	assert.Greater(t, ra.Sentiment.Compound, 0.0)
	assert.Less(t, rb.Sentiment.Compound, 0.0)
}

func TestDispatcherBoundsConcurrency(t *testing.T) {
	scorer := &slowScorer{}
	d := NewDispatcher(scorer, 2)
	defer d.Close()

	entries := make([]journal.Entry, 8)
	for i := range entries {
		entries[i] = journal.Entry{ID: string(rune('a' + i)), Text: strings.Repeat("x", i)}
	}
	out, err := d.ScoreAll(context.Background(), entries)
	require.NoError(t, err)

	assert.LessOrEqual(t, scorer.peak, 2)
	for i, e := range out {
		require.NotNil(t, e.Sentiment, e.ID)
		assert.InDelta(t, math.Min(1, float64(i)/10), e.Sentiment.Compound, 1e-9)
		assert.Nil(t, entries[i].Sentiment, "input slice is not modified")
	}
}

func TestScoreAllKeepsExistingScores(t *testing.T) {
	d := NewDispatcher(testLexicon(t), 2)
	defer d.Close()

	existing := journal.NewSentiment(-0.5, 0, 0.5, 0)
	out, err := d.ScoreAll(context.Background(), []journal.Entry{
		{ID: "kept", Text: "good good good", Sentiment: &existing},
		{ID: "new", Text: "good"},
	})
	require.NoError(t, err)
	assert.Equal(t, -0.5, out[0].Sentiment.Compound)
	assert.Equal(t, 1.0, out[1].Sentiment.Compound)
}

func TestScoreAllPropagatesFailure(t *testing.T) {
	d := NewDispatcher(&slowScorer{}, 2)
	defer d.Close()

	_, err := d.ScoreAll(context.Background(), []journal.Entry{{ID: "x", Text: "fail"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scorer exploded")
}

func TestSubmitAfterClose(t *testing.T) {
	d := NewDispatcher(testLexicon(t), 1)
	d.Close()
	d.Close()

	res := <-d.Submit(context.Background(), Request{ID: "late", Text: "good"})
	assert.ErrorIs(t, res.Err, ErrClosed)
	assert.Equal(t, "late", res.ID)
}

func TestSubmitCancelledContext(t *testing.T) {
	d := NewDispatcher(testLexicon(t), 1)
	defer d.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := <-d.Submit(ctx, Request{ID: "c", Text: "good"})
	assert.ErrorIs(t, res.Err, context.Canceled)
}

// blockingScorer waits for its context, or for release when stubborn.
type blockingScorer struct {
	stubborn bool
	release  chan struct{}
}

func (b *blockingScorer) Score(ctx context.Context, _ string) (journal.Sentiment, error) {
	if b.stubborn {
		<-b.release
		return journal.Sentiment{}, nil
	}
	<-ctx.Done()
	return journal.Sentiment{}, ctx.Err()
}

func TestScoreAllTimesOut(t *testing.T) {
	tests := []struct {
		name     string
		stubborn bool
	}{
		{"scorer honours context", false},
		{"scorer ignores context", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scorer := &blockingScorer{stubborn: tt.stubborn, release: make(chan struct{})}
			t.Cleanup(func() { close(scorer.release) })
			d := NewDispatcher(scorer, 1, WithTimeout(20*time.Millisecond))
			defer d.Close()

			done := make(chan error, 1)
			go func() {
				_, err := d.ScoreAll(context.Background(), []journal.Entry{{ID: "slow", Text: "anything"}})
				done <- err
			}()

			select {
			case err := <-done:
				var te *TimeoutError
				require.ErrorAs(t, err, &te)
				assert.Equal(t, 20*time.Millisecond, te.After)
				assert.NotErrorIs(t, err, context.Canceled)
			case <-time.After(2 * time.Second):
				t.Fatal("ScoreAll did not return after the scoring timeout")
			}
		})
	}
}

func TestScoreCallerCancelIsNotTimeout(t *testing.T) {
	scorer := &blockingScorer{release: make(chan struct{})}
	defer close(scorer.release)
	d := NewDispatcher(scorer, 1, WithTimeout(time.Minute))
	defer d.Close()

	ctx, cancel := context.WithCancel(context.Background())
	out := d.Submit(ctx, Request{ID: "c", Text: "good"})
	time.Sleep(10 * time.Millisecond)
	cancel()

	res := <-out
	assert.ErrorIs(t, res.Err, context.Canceled)
	var te *TimeoutError
	assert.False(t, errors.As(res.Err, &te))
}

func TestDispatcherDefaultTimeout(t *testing.T) {
	d := NewDispatcher(testLexicon(t), 1, WithTimeout(0))
	defer d.Close()
	assert.Equal(t, DefaultTimeout, d.timeout)
}
