package rag

import (
	"context"
	"fmt"

	"melechmcp/internal/embedder"
	"melechmcp/internal/store"
)

// HybridRetrieve runs a keyword search and a vector search, then merges
// them with keyword hits first, deduplicated by chunk, capped at k.
func HybridRetrieve(ctx context.Context, query string, st store.Store, emb embedder.Embedder, k int) ([]store.SearchResult, error) {
	// Keyword failures are not fatal; the vector search still answers.
	kwResults, kwErr := st.KeywordSearch(ctx, query, k)
	if kwErr != nil {
		kwResults = nil
	}

	vec, err := embedder.EmbedSingle(ctx, emb, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	vecResults, err := st.Search(ctx, vec, k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	seen := make(map[int64]bool)
	var merged []store.SearchResult
	for _, group := range [][]store.SearchResult{kwResults, vecResults} {
		for _, r := range group {
			if !seen[r.Chunk.ID] {
				seen[r.Chunk.ID] = true
				merged = append(merged, r)
			}
		}
	}
	if len(merged) > k {
		merged = merged[:k]
	}
	return merged, nil
}

// LocalBackend searches a store built by Indexer.
type LocalBackend struct {
	store store.Store
	emb   embedder.Embedder
}

// NewLocalBackend searches st, embedding queries with emb.
func NewLocalBackend(st store.Store, emb embedder.Embedder) *LocalBackend {
	return &LocalBackend{store: st, emb: emb}
}

func (b *LocalBackend) Search(ctx context.Context, query string, k int) ([]Result, error) {
	hits, err := HybridRetrieve(ctx, query, b.store, b.emb, k)
	if err != nil {
		return nil, err
	}
	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		results = append(results, Result{Content: h.Chunk.Content, Source: h.FilePath})
	}
	return results, nil
}
