// Package tui is a terminal browser for weekly digests.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/TobiSchelling/lightnote/internal/digest"
	"github.com/TobiSchelling/lightnote/internal/pipeline"
	"github.com/TobiSchelling/lightnote/internal/render"
	"github.com/TobiSchelling/lightnote/internal/week"
)

// Loader returns the digest for a week. refresh forces regeneration.
type Loader func(ctx context.Context, key week.Key, refresh bool) (*digest.Digest, error)

type loadedMsg struct {
	key    week.Key
	digest *digest.Digest
	err    error
}

type model struct {
	ctx     context.Context
	load    Loader
	now     func() time.Time
	key     week.Key
	digest  *digest.Digest
	err     error
	loading bool
	offset  int
	width   int
	height  int
}

func newModel(ctx context.Context, load Loader, key week.Key, now func() time.Time) model {
	return model{ctx: ctx, load: load, now: now, key: key, loading: true}
}

func (m model) Init() tea.Cmd {
	return m.fetch(false)
}

func (m model) fetch(refresh bool) tea.Cmd {
	ctx, load, key := m.ctx, m.load, m.key
	return func() tea.Msg {
		d, err := load(ctx, key, refresh)
		return loadedMsg{key: key, digest: d, err: err}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case loadedMsg:
		// Drop replies for weeks the user has already moved away from.
		if msg.key != m.key {
			return m, nil
		}
		m.loading = false
		m.digest, m.err = msg.digest, msg.err
		m.offset = 0

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "left", "h":
			return m.move(week.Prev)
		case "right", "l":
			next, err := week.Next(m.key)
			if err != nil || week.Compare(next, week.Current(m.now())) > 0 {
				return m, nil
			}
			return m.move(week.Next)
		case "r":
			if m.loading {
				return m, nil
			}
			m.loading = true
			return m, m.fetch(true)
		case "up", "k":
			if m.offset > 0 {
				m.offset--
			}
		case "down", "j":
			if m.offset < len(m.lines())-1 {
				m.offset++
			}
		}
	}
	return m, nil
}

func (m model) move(step func(week.Key) (week.Key, error)) (tea.Model, tea.Cmd) {
	key, err := step(m.key)
	if err != nil {
		m.err = err
		return m, nil
	}
	m.key = key
	m.digest = nil
	m.err = nil
	m.loading = true
	return m, m.fetch(false)
}

func (m model) lines() []string {
	switch {
	case m.loading:
		return []string{fmt.Sprintf("Loading %s...", m.key)}
	case errors.Is(m.err, pipeline.ErrInProgress):
		return []string{"A digest for this week is already being generated."}
	case m.err != nil:
		return []string{"Error: " + m.err.Error()}
	case m.digest == nil:
		return []string{"No digest for " + string(m.key) + ". Press r to generate one."}
	}
	return strings.Split(render.Terminal(*m.digest), "\n")
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func (m model) View() string {
	body := m.lines()
	if m.offset < len(body) {
		body = body[m.offset:]
	}
	if m.height > 4 && len(body) > m.height-4 {
		body = body[:m.height-4]
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("lightnote " + string(m.key)))
	b.WriteString("\n\n")
	b.WriteString(strings.Join(body, "\n"))
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("[←/h] Prev | [→/l] Next | [↑/↓] Scroll | [r] Refresh | [q] Quit"))
	return b.String()
}

// Run starts the browser on key and blocks until the user quits.
func Run(ctx context.Context, load Loader, key week.Key) error {
	p := tea.NewProgram(newModel(ctx, load, key, time.Now), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
