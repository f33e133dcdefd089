package themes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/TobiSchelling/lightnote/internal/kv"
	"github.com/TobiSchelling/lightnote/internal/week"
)

// Namespace is the blob namespace theme sets are stored under.
const Namespace = "themes.v1"

// CacheEntry is one stored week.
type CacheEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Checksum  string    `json:"checksum"`
	Themes    Set       `json:"themes"`
}

// Cache stores successful extractions, one blob per week.
type Cache struct {
	store kv.Store
}

// NewCache returns a cache persisting into store.
func NewCache(store kv.Store) *Cache {
	return &Cache{store: store}
}

// Get returns the stored entry for key, or nil when there is none.
func (c *Cache) Get(ctx context.Context, key week.Key) (*CacheEntry, error) {
	blob, err := c.store.Get(ctx, string(key))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading themes for %s: %w", key, err)
	}
	var e CacheEntry
	if err := json.Unmarshal(blob, &e); err != nil {
		return nil, fmt.Errorf("decoding themes for %s: %w", key, err)
	}
	return &e, nil
}

// Put stores an entry for key.
func (c *Cache) Put(ctx context.Context, key week.Key, e CacheEntry) error {
	blob, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding themes for %s: %w", key, err)
	}
	if err := c.store.Put(ctx, string(key), blob); err != nil {
		return fmt.Errorf("storing themes for %s: %w", key, err)
	}
	return nil
}
