// Package kv is the blob store the caches persist through. Each cache writes
// one blob per week key, so updating a week never rewrites the others.
package kv

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by Get when no blob is stored under the key.
var ErrNotFound = errors.New("kv: not found")

// Store is a string-keyed blob store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, blob []byte) error
}

// Lister is implemented by stores that can enumerate their keys.
type Lister interface {
	Keys(ctx context.Context) ([]string, error)
}

// Memory is an in-process Store.
type Memory struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{blobs: make(map[string][]byte)}
}

// Get returns a copy of the blob stored under key.
func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.blobs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), b...), nil
}

// Put stores a copy of blob under key.
func (m *Memory) Put(ctx context.Context, key string, blob []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = append([]byte(nil), blob...)
	return nil
}

// Keys lists stored keys in no particular order.
func (m *Memory) Keys(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.blobs))
	for k := range m.blobs {
		keys = append(keys, k)
	}
	return keys, nil
}

// Prefixed namespaces every key of inner with prefix + "/".
type Prefixed struct {
	inner  Store
	prefix string
}

// WithPrefix returns a namespaced view of s.
func WithPrefix(s Store, prefix string) *Prefixed {
	return &Prefixed{inner: s, prefix: prefix}
}

// Get reads the namespaced key.
func (p *Prefixed) Get(ctx context.Context, key string) ([]byte, error) {
	return p.inner.Get(ctx, p.prefix+"/"+key)
}

// Put writes the namespaced key.
func (p *Prefixed) Put(ctx context.Context, key string, blob []byte) error {
	return p.inner.Put(ctx, p.prefix+"/"+key, blob)
}
