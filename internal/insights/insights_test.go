package insights

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/lightnote/internal/database"
	"github.com/TobiSchelling/lightnote/internal/llm"
)

type mockProvider struct {
	reply  string
	err    error
	prompt string
}

func (m *mockProvider) Generate(_ context.Context, r llm.Request) (string, error) {
	m.prompt = r.Prompt
	return m.reply, m.err
}

func (m *mockProvider) IsConfigured() bool { return true }

func newService(t *testing.T) *Service {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := NewService(db)
	clock := time.Date(2025, 2, 14, 20, 0, 0, 0, time.Local)
	s.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return s
}

func TestSaveRejectsEmptyDigest(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	for _, text := range []string{"", "   ", "No entries yet this week."} {
		_, err := s.Save(ctx, "2025-W07", text)
		assert.ErrorIs(t, err, ErrNothingToSave, "text %q", text)
	}
}

func TestSaveRejectsDuplicates(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	in, err := s.Save(ctx, "2025-W07", "Weekly Digest 2025-W07\nEntries: 3")
	require.NoError(t, err)
	assert.Equal(t, ScopeWeek, in.Scope)
	assert.NotEmpty(t, in.ID)

	_, err = s.Save(ctx, "2025-W07", "Weekly Digest 2025-W07\nEntries: 3")
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = s.Save(ctx, "2025-W08", "Weekly Digest 2025-W07\nEntries: 3")
	assert.NoError(t, err, "same text for another week is allowed")
}

func TestListNewestFirstAndDelete(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	first, err := s.Save(ctx, "2025-W06", "digest six")
	require.NoError(t, err)
	second, err := s.Save(ctx, "2025-W07", "digest seven")
	require.NoError(t, err)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)

	ok, err := s.Delete(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	n, err := s.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestReflectStoresReply(t *testing.T) {
	s := newService(t)
	p := &mockProvider{reply: "  1) You slept badly.  "}

	in, err := s.Reflect(context.Background(), p, "2025-W07", "Weekly Digest 2025-W07")
	require.NoError(t, err)
	assert.Equal(t, ScopeWeekAI, in.Scope)
	assert.Equal(t, "1) You slept badly.", in.Text)
	assert.Equal(t, "AI Reflection", Label(*in))
	assert.True(t, strings.HasPrefix(p.prompt, "You are my reflective coach."))
	assert.Contains(t, p.prompt, "Weekly Digest 2025-W07")
	assert.Contains(t, p.prompt, "3) suggest one tiny next step per pattern.")
}

func TestReflectReturnsProviderErrors(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	p := &mockProvider{err: &llm.TransportError{Provider: "chat", Err: errors.New("refused")}}
	_, err := s.Reflect(ctx, p, "2025-W07", "Weekly Digest")
	var tr *llm.TransportError
	assert.ErrorAs(t, err, &tr)

	_, err = s.Reflect(ctx, &mockProvider{reply: "   "}, "2025-W07", "Weekly Digest")
	var pe *llm.ParseError
	assert.ErrorAs(t, err, &pe)

	_, err = s.Reflect(ctx, nil, "2025-W07", "Weekly Digest")
	var ce *llm.ConfigurationError
	assert.ErrorAs(t, err, &ce)

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestReflectSkipsEmptyDigest(t *testing.T) {
	s := newService(t)
	p := &mockProvider{reply: "x"}
	_, err := s.Reflect(context.Background(), p, "2025-W07", "No entries yet this week.")
	assert.ErrorIs(t, err, ErrNothingToSave)
	assert.Empty(t, p.prompt)
}
