package rollup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/TobiSchelling/lightnote/internal/journal"
	"github.com/TobiSchelling/lightnote/internal/kv"
	"github.com/TobiSchelling/lightnote/internal/week"
)

// Namespace is the blob namespace rollups are stored under. Bump the
// version when the Rollup shape changes.
const Namespace = "rollups.v1"

type cacheEntry struct {
	Checksum string  `json:"checksum"`
	Data     *Rollup `json:"data"`
}

// Cache is a read-through rollup cache keyed by week, one blob per week.
type Cache struct {
	store kv.Store
}

// NewCache returns a cache persisting into store.
func NewCache(store kv.Store) *Cache {
	return &Cache{store: store}
}

// Week returns the rollup for entries, reusing the stored value when the
// slice checksum is unchanged. A recompute is always persisted.
func (c *Cache) Week(ctx context.Context, key week.Key, entries []journal.Entry) (*Rollup, error) {
	sum := Checksum(entries)

	blob, err := c.store.Get(ctx, string(key))
	switch {
	case err == nil:
		var hit cacheEntry
		if jerr := json.Unmarshal(blob, &hit); jerr != nil {
			log.Debug().Str("week", string(key)).Err(jerr).Msg("discarding unreadable rollup blob")
		} else if hit.Checksum == sum {
			log.Debug().Str("week", string(key)).Msg("rollup cache hit")
			return hit.Data, nil
		}
	case errors.Is(err, kv.ErrNotFound):
	default:
		return nil, fmt.Errorf("reading rollup for %s: %w", key, err)
	}

	data := Week(entries)
	out, err := json.Marshal(cacheEntry{Checksum: sum, Data: data})
	if err != nil {
		return nil, fmt.Errorf("encoding rollup for %s: %w", key, err)
	}
	if err := c.store.Put(ctx, string(key), out); err != nil {
		return nil, fmt.Errorf("storing rollup for %s: %w", key, err)
	}
	return data, nil
}
