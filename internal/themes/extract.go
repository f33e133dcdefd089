package themes

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/TobiSchelling/lightnote/internal/journal"
	"github.com/TobiSchelling/lightnote/internal/llm"
	"github.com/TobiSchelling/lightnote/internal/rollup"
	"github.com/TobiSchelling/lightnote/internal/week"
)

// Stages reported to Diagnostics.
const (
	StageCache   = "cache"
	StageRequest = "request"
	StageParse   = "parse"
	StageStore   = "store"
)

// Diagnostics receives failures the extractor recovered from.
type Diagnostics func(key week.Key, stage string, err error)

// Extractor produces theme sets per week. Concurrent calls for the same week
// share one completion request.
type Extractor struct {
	provider    llm.Provider
	cache       *Cache
	diagnostics Diagnostics
	maxTokens   int
	temperature *float64
	now         func() time.Time
	group       singleflight.Group
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithDiagnostics installs a hook for recovered failures.
func WithDiagnostics(d Diagnostics) Option {
	return func(x *Extractor) { x.diagnostics = d }
}

// WithMaxTokens bounds the completion length.
func WithMaxTokens(n int) Option {
	return func(x *Extractor) { x.maxTokens = n }
}

// WithTemperature overrides the provider's default sampling temperature.
func WithTemperature(t float64) Option {
	return func(x *Extractor) { x.temperature = llm.Temperature(t) }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(x *Extractor) { x.now = now }
}

// NewExtractor creates an extractor. provider may be nil, in which case every
// extraction falls back to the heuristic.
func NewExtractor(provider llm.Provider, cache *Cache, opts ...Option) *Extractor {
	x := &Extractor{provider: provider, cache: cache, now: time.Now}
	for _, o := range opts {
		o(x)
	}
	return x
}

type extraction struct {
	set    Set
	origin Origin
}

// Extract returns the themes for a week. It never fails: any problem with
// the completion service yields the heuristic set.
func (x *Extractor) Extract(ctx context.Context, key week.Key, entries []journal.Entry) (Set, Origin) {
	if len(entries) == 0 {
		return Heuristic(entries), OriginHeuristic
	}
	v, _, _ := x.group.Do(string(key), func() (any, error) {
		set, origin := x.extract(ctx, key, entries)
		return extraction{set: set, origin: origin}, nil
	})
	res := v.(extraction)
	return res.set, res.origin
}

func (x *Extractor) extract(ctx context.Context, key week.Key, entries []journal.Entry) (Set, Origin) {
	sum := rollup.Checksum(entries)

	if x.cache != nil {
		hit, err := x.cache.Get(ctx, key)
		switch {
		case err != nil:
			x.report(key, StageCache, err)
		case hit != nil && hit.Themes.Words != nil && hit.Checksum == sum:
			log.Debug().Str("week", string(key)).Msg("theme cache hit")
			return hit.Themes, OriginCache
		}
	}

	set, err := x.request(ctx, entries)
	if err != nil {
		stage := StageRequest
		var pe *llm.ParseError
		if errors.As(err, &pe) {
			stage = StageParse
		}
		x.report(key, stage, err)
		return Heuristic(entries), OriginHeuristic
	}

	if x.cache != nil {
		entry := CacheEntry{Timestamp: x.now(), Checksum: sum, Themes: set}
		if err := x.cache.Put(ctx, key, entry); err != nil {
			x.report(key, StageStore, err)
		}
	}
	return set, OriginLLM
}

func (x *Extractor) request(ctx context.Context, entries []journal.Entry) (Set, error) {
	if x.provider == nil {
		return Set{}, &llm.ConfigurationError{Field: "llm", Reason: "no provider configured"}
	}

	prompt := BuildPrompt(FormatSample(Sample(entries, MaxSample)))
	reply, err := x.provider.Generate(ctx, llm.Request{
		Prompt:      prompt,
		System:      systemPrompt,
		MaxTokens:   x.maxTokens,
		Temperature: x.temperature,
		Schema:      setSchema(),
	})
	if err != nil {
		return Set{}, err
	}
	return ParseReply(reply)
}

func (x *Extractor) report(key week.Key, stage string, err error) {
	log.Warn().
		Str("week", string(key)).
		Str("stage", stage).
		Str("kind", llm.Kind(err)).
		Err(err).
		Msg("theme extraction fell back")
	if x.diagnostics != nil {
		x.diagnostics(key, stage, err)
	}
}

// looseSet accepts any JSON for each field so a mistyped field degrades to
// empty instead of failing the whole reply.
type looseSet struct {
	Words    json.RawMessage `json:"words"`
	Phrases  json.RawMessage `json:"phrases"`
	Entities json.RawMessage `json:"entities"`
	Evidence json.RawMessage `json:"evidence"`
}

// ParseReply turns a completion reply into a capped Set. A reply that is
// JSON but lacks some fields yields empty sequences for them.
func ParseReply(reply string) (Set, error) {
	var raw looseSet
	if err := llm.ParseLoose(reply, &raw); err != nil {
		return Set{}, err
	}
	set := Set{
		Words:    stringList(raw.Words),
		Phrases:  stringList(raw.Phrases),
		Entities: stringList(raw.Entities),
		Evidence: evidenceList(raw.Evidence),
	}
	return set.Capped(), nil
}

func stringList(raw json.RawMessage) []string {
	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func evidenceList(raw json.RawMessage) []Evidence {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return []Evidence{}
	}
	out := make([]Evidence, 0, len(items))
	for _, it := range items {
		var ev struct {
			Theme  string          `json:"theme"`
			Quotes json.RawMessage `json:"quotes"`
		}
		if err := json.Unmarshal(it, &ev); err != nil {
			continue
		}
		theme := strings.TrimSpace(ev.Theme)
		if theme == "" {
			continue
		}
		out = append(out, Evidence{Theme: theme, Quotes: stringList(ev.Quotes)})
	}
	return out
}
