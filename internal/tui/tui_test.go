package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/lightnote/internal/digest"
	"github.com/TobiSchelling/lightnote/internal/pipeline"
	"github.com/TobiSchelling/lightnote/internal/week"
)

type call struct {
	key     week.Key
	refresh bool
}

func recorder(calls *[]call) Loader {
	return func(_ context.Context, key week.Key, refresh bool) (*digest.Digest, error) {
		*calls = append(*calls, call{key, refresh})
		d, err := digest.Compose(digest.Input{WeekKey: key})
		return &d, err
	}
}

func fixedNow() time.Time {
	return time.Date(2026, time.February, 11, 12, 0, 0, 0, time.Local) // 2026-W07
}

func press(t *testing.T, m model, key string) (model, tea.Cmd) {
	t.Helper()
	var msg tea.KeyMsg
	switch key {
	case "left":
		msg = tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		msg = tea.KeyMsg{Type: tea.KeyRight}
	case "ctrl+c":
		msg = tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, cmd := m.Update(msg)
	return next.(model), cmd
}

// run executes cmd and feeds its message back into the model.
func run(t *testing.T, m model, cmd tea.Cmd) model {
	t.Helper()
	require.NotNil(t, cmd)
	next, _ := m.Update(cmd())
	return next.(model)
}

func TestInitLoadsWeek(t *testing.T) {
	var calls []call
	m := newModel(context.Background(), recorder(&calls), "2026-W06", fixedNow)
	assert.Contains(t, m.View(), "Loading 2026-W06")

	m = run(t, m, m.Init())
	require.Len(t, calls, 1)
	assert.Equal(t, call{"2026-W06", false}, calls[0])
	assert.False(t, m.loading)
	assert.Contains(t, m.View(), digest.EmptyMessage)
}

func TestNavigation(t *testing.T) {
	var calls []call
	m := newModel(context.Background(), recorder(&calls), "2026-W06", fixedNow)
	m = run(t, m, m.Init())

	m, cmd := press(t, m, "left")
	assert.Equal(t, week.Key("2026-W05"), m.key)
	m = run(t, m, cmd)

	m, cmd = press(t, m, "l")
	m = run(t, m, cmd)
	m, cmd = press(t, m, "right")
	m = run(t, m, cmd)
	assert.Equal(t, week.Key("2026-W07"), m.key)

	// The current week is the last one.
	m, cmd = press(t, m, "right")
	assert.Nil(t, cmd)
	assert.Equal(t, week.Key("2026-W07"), m.key)
	assert.Len(t, calls, 4)
}

func TestRefresh(t *testing.T) {
	var calls []call
	m := newModel(context.Background(), recorder(&calls), "2026-W06", fixedNow)
	m = run(t, m, m.Init())

	m, cmd := press(t, m, "r")
	assert.True(t, m.loading)
	// A second refresh while loading is ignored.
	_, again := press(t, m, "r")
	assert.Nil(t, again)

	run(t, m, cmd)
	require.Len(t, calls, 2)
	assert.True(t, calls[1].refresh)
}

func TestStaleReplyIgnored(t *testing.T) {
	m := newModel(context.Background(), nil, "2026-W06", fixedNow)
	next, _ := m.Update(loadedMsg{key: "2026-W01", err: errors.New("late")})
	m = next.(model)
	assert.True(t, m.loading)
	assert.NoError(t, m.err)
}

func TestErrorsShown(t *testing.T) {
	m := newModel(context.Background(), nil, "2026-W06", fixedNow)
	next, _ := m.Update(loadedMsg{key: "2026-W06", err: pipeline.ErrInProgress})
	assert.Contains(t, next.View(), "already being generated")

	next, _ = m.Update(loadedMsg{key: "2026-W06", err: errors.New("disk full")})
	assert.Contains(t, next.View(), "Error: disk full")

	next, _ = m.Update(loadedMsg{key: "2026-W06"})
	assert.Contains(t, next.View(), "Press r")
}

func TestQuit(t *testing.T) {
	m := newModel(context.Background(), nil, "2026-W06", fixedNow)
	_, cmd := press(t, m, "q")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	_, cmd = press(t, m, "ctrl+c")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
