package embedder

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of query vectors kept by NewCached.
const DefaultCacheSize = 512

// Cached wraps an Embedder with an LRU of previously embedded texts. It is
// meant for search queries, which repeat; bulk indexing should use the
// inner embedder directly.
type Cached struct {
	inner Embedder
	cache *lru.Cache[string, []float32]
}

// NewCached caches up to size vectors. A non-positive size uses
// DefaultCacheSize.
func NewCached(inner Embedder, size int) *Cached {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		cache, _ = lru.New[string, []float32](DefaultCacheSize)
	}
	return &Cached{inner: inner, cache: cache}
}

func (c *Cached) Model() string { return c.inner.Model() }

// Embed answers cached texts from memory and sends the rest to the inner
// embedder in one batch.
func (c *Cached) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int
	for i, t := range texts {
		if v, ok := c.cache.Get(t); ok {
			out[i] = v
			continue
		}
		missing = append(missing, t)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	vecs, err := c.inner.Embed(ctx, missing)
	if err != nil {
		return nil, err
	}
	for j, v := range vecs {
		c.cache.Add(missing[j], v)
		out[missingIdx[j]] = v
	}
	return out, nil
}

// Len is the number of cached vectors.
func (c *Cached) Len() int { return c.cache.Len() }
