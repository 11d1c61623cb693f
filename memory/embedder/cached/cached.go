// Package cached wraps any Embedder with a read-through ristretto cache,
// keyed by the exact input text.
//
// The memory manager re-embeds repeated texts in a few places (identical
// queries, the summary text produced during promotion when a retrieval later
// targets it), and remote embedding calls dominate operation latency, so a
// small cache in front of an API-backed embedder pays for itself quickly.
package cached

import (
	"context"
	"fmt"

	"github.com/dgraph-io/ristretto"

	"github.com/statefulmind/recall-go-sdk/memory"
)

// Config tunes the cache.
type Config struct {
	// MaxBytes caps the total cached vector payload. Default: 16 MiB.
	MaxBytes int64

	// NumCounters sizes ristretto's frequency sketch. Default: 10x the
	// expected entry count for MaxBytes at 384-dim vectors.
	NumCounters int64
}

// Embedder is a caching decorator around another Embedder.
type Embedder struct {
	inner memory.Embedder
	cache *ristretto.Cache
}

// New wraps inner with a cache using default sizing.
func New(inner memory.Embedder) (*Embedder, error) {
	return NewWithConfig(inner, Config{})
}

// NewWithConfig wraps inner with an explicitly sized cache.
func NewWithConfig(inner memory.Embedder, cfg Config) (*Embedder, error) {
	if inner == nil {
		return nil, fmt.Errorf("cached: inner embedder is required")
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 16 << 20
	}
	if cfg.NumCounters <= 0 {
		// ~10x expected entries, assuming 384-dim float32 vectors.
		cfg.NumCounters = cfg.MaxBytes / (384 * 4) * 10
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("cached: create cache: %w", err)
	}

	return &Embedder{inner: inner, cache: cache}, nil
}

// Embed returns the cached vector for text, or delegates to the wrapped
// embedder and caches the result. Returned slices are private copies so
// callers can't corrupt cached entries.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := e.cache.Get(text); ok {
		cachedVec := v.([]float32)
		return append([]float32(nil), cachedVec...), nil
	}

	vec, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	stored := append([]float32(nil), vec...)
	e.cache.Set(text, stored, int64(len(stored)*4))
	return vec, nil
}

// Dimensions returns the wrapped embedder's vector size.
func (e *Embedder) Dimensions() int {
	return e.inner.Dimensions()
}

// Close releases the cache's background resources.
func (e *Embedder) Close() {
	e.cache.Close()
}
