// Package insights keeps saved digests and AI reflections on them.
package insights

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/TobiSchelling/lightnote/internal/database"
	"github.com/TobiSchelling/lightnote/internal/digest"
	"github.com/TobiSchelling/lightnote/internal/llm"
)

// Scopes.
const (
	ScopeWeek   = "week"
	ScopeWeekAI = "week-ai"
)

var (
	// ErrNothingToSave is returned for an empty digest.
	ErrNothingToSave = errors.New("no digest to save yet")
	// ErrDuplicate is returned when the same text is already saved for the week.
	ErrDuplicate = errors.New("insight already saved")
)

const reflectPrompt = `You are my reflective coach. Here is my weekly digest.
Please keep your response concise and to the point.
%s
Please:
1) surface 3 patterns with evidence,
2) ask one probing question, something to think about,
3) suggest one tiny next step per pattern.`

// Store is the persistence the service needs.
type Store interface {
	InsertInsight(ctx context.Context, in database.Insight) error
	HasInsight(ctx context.Context, scope, week, text string) (bool, error)
	ListInsights(ctx context.Context) ([]database.Insight, error)
	DeleteInsight(ctx context.Context, id string) (bool, error)
	ClearInsights(ctx context.Context) (int, error)
}

// Service saves, lists and reflects on insights.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a Service backed by store.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Save stores a rendered digest for a week under ScopeWeek.
func (s *Service) Save(ctx context.Context, weekKey, text string) (*database.Insight, error) {
	text = strings.TrimSpace(text)
	if empty(text) {
		return nil, ErrNothingToSave
	}
	return s.insert(ctx, ScopeWeek, weekKey, text)
}

// Reflect asks the provider to coach on a rendered digest and stores the
// reply under ScopeWeekAI. Provider failures are returned as is.
func (s *Service) Reflect(ctx context.Context, provider llm.Provider, weekKey, text string) (*database.Insight, error) {
	text = strings.TrimSpace(text)
	if empty(text) {
		return nil, ErrNothingToSave
	}
	if provider == nil {
		return nil, &llm.ConfigurationError{Field: "llm", Reason: "is not configured"}
	}

	reply, err := provider.Generate(ctx, llm.Request{
		Prompt:      fmt.Sprintf(reflectPrompt, text),
		Temperature: llm.Temperature(llm.DefaultTemperature),
	})
	if err != nil {
		return nil, fmt.Errorf("asking for reflection: %w", err)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return nil, &llm.ParseError{Err: errors.New("empty reflection")}
	}
	log.Info().Str("week", weekKey).Msg("reflection saved")
	return s.insert(ctx, ScopeWeekAI, weekKey, reply)
}

// List returns saved insights, newest first.
func (s *Service) List(ctx context.Context) ([]database.Insight, error) {
	return s.store.ListInsights(ctx)
}

// Delete removes an insight. Returns false if it did not exist.
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	return s.store.DeleteInsight(ctx, id)
}

// Clear removes every insight.
func (s *Service) Clear(ctx context.Context) (int, error) {
	return s.store.ClearInsights(ctx)
}

func (s *Service) insert(ctx context.Context, scope, weekKey, text string) (*database.Insight, error) {
	dup, err := s.store.HasInsight(ctx, scope, weekKey, text)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, ErrDuplicate
	}

	in := database.Insight{
		ID:        uuid.NewString(),
		Scope:     scope,
		Week:      weekKey,
		Text:      text,
		CreatedAt: s.now(),
	}
	if err := s.store.InsertInsight(ctx, in); err != nil {
		return nil, fmt.Errorf("saving insight: %w", err)
	}
	return &in, nil
}

// Label describes an insight's kind for listings.
func Label(in database.Insight) string {
	if in.Scope == ScopeWeekAI {
		return "AI Reflection"
	}
	return "Digest"
}

func empty(text string) bool {
	return text == "" || strings.HasPrefix(text, "No entries") || text == digest.EmptyMessage
}
