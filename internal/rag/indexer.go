package rag

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"melechmcp/internal/chunker"
	"melechmcp/internal/embedder"
	"melechmcp/internal/store"
	"melechmcp/internal/walker"
)

const embedBatchSize = 32

// textExtensions are indexed with line windows next to the grammar-backed
// extensions of the registry.
var textExtensions = []string{".md", ".markdown", ".txt", ".rst"}

// IndexStats reports one indexing run.
type IndexStats struct {
	FilesTotal     int
	FilesIndexed   int
	FilesUnchanged int
	FilesFailed    int
	ChunksTotal    int
}

// ProgressFunc receives the number of stored files so far.
type ProgressFunc func(path string, indexed int)

// Indexer fills a store with chunked, embedded documentation.
type Indexer struct {
	store    store.Store
	chunker  *chunker.Chunker
	registry *chunker.Registry
	emb      embedder.Embedder
	workers  int
	log      *zap.Logger

	onProgress ProgressFunc
}

// NewIndexer wires an indexer. workers <= 0 uses the CPU count.
func NewIndexer(st store.Store, reg *chunker.Registry, emb embedder.Embedder, workers int, log *zap.Logger) *Indexer {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Indexer{
		store:    st,
		chunker:  chunker.New(reg),
		registry: reg,
		emb:      emb,
		workers:  workers,
		log:      log,
	}
}

// WithProgress sets a callback run by the writer after each stored file.
func (ix *Indexer) WithProgress(fn ProgressFunc) *Indexer {
	ix.onProgress = fn
	return ix
}

type embeddedFile struct {
	info       walker.FileInfo
	hash       string
	lang       string
	chunks     []chunker.RawChunk
	embeddings [][]float32
}

// Index walks root and (re)indexes every changed file. A change of
// embedding model clears the store first. Embedding failures abort the run;
// a file that cannot be read or parsed is logged and skipped.
func (ix *Indexer) Index(ctx context.Context, root string) (*IndexStats, error) {
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("docs directory %s: not found", root)
	}

	lastModel, err := ix.store.GetMeta(ctx, store.MetaEmbeddingModel)
	if err != nil {
		return nil, fmt.Errorf("get meta: %w", err)
	}
	if lastModel != "" && lastModel != ix.emb.Model() {
		ix.log.Info("embedding model changed, re-indexing all files",
			zap.String("from", lastModel), zap.String("to", ix.emb.Model()))
		if err := ix.store.DeleteAll(ctx); err != nil {
			return nil, fmt.Errorf("delete all chunks: %w", err)
		}
	}

	var (
		total, unchanged, failed atomic.Int64
		stats                    IndexStats
	)

	g, gctx := errgroup.WithContext(ctx)
	work := make(chan walker.FileInfo, ix.workers)
	results := make(chan embeddedFile, ix.workers)

	// Walk.
	g.Go(func() error {
		defer close(work)
		files, walkErrs := walker.Walk(gctx, root, walker.Options{
			Match: ix.matches,
			Prune: func(path string) bool { return filepath.Base(path) == ".git" },
		})
		for fi := range files {
			select {
			case work <- fi:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		if err := <-walkErrs; err != nil {
			return fmt.Errorf("walk: %w", err)
		}
		return nil
	})

	// Hash, chunk and embed.
	var workersDone sync.WaitGroup
	for range ix.workers {
		workersDone.Add(1)
		g.Go(func() error {
			defer workersDone.Done()
			for fi := range work {
				total.Add(1)
				ef, status, err := ix.prepare(gctx, fi)
				if err != nil {
					return err
				}
				switch status {
				case fileUnchanged:
					unchanged.Add(1)
					continue
				case fileSkipped:
					failed.Add(1)
					continue
				case fileEmpty:
					continue
				}
				select {
				case results <- ef:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}
	g.Go(func() error {
		workersDone.Wait()
		close(results)
		return nil
	})

	// Store, single writer.
	g.Go(func() error {
		for ef := range results {
			chunks := make([]store.Chunk, len(ef.chunks))
			for i, c := range ef.chunks {
				chunks[i] = store.Chunk{
					Name:      c.Name,
					Kind:      c.Kind,
					StartLine: c.StartLine,
					EndLine:   c.EndLine,
					Content:   c.Content,
				}
			}
			err := ix.store.ReplaceFile(gctx, store.FileRecord{
				Path:      ef.info.RelPath,
				Hash:      ef.hash,
				Language:  ef.lang,
				SizeBytes: ef.info.Size,
			}, chunks, ef.embeddings)
			if err != nil {
				return fmt.Errorf("store %s: %w", ef.info.RelPath, err)
			}
			stats.FilesIndexed++
			stats.ChunksTotal += len(chunks)
			if ix.onProgress != nil {
				ix.onProgress(ef.info.RelPath, stats.FilesIndexed)
			}
		}
		return nil
	})

	err = g.Wait()
	stats.FilesTotal = int(total.Load())
	stats.FilesUnchanged = int(unchanged.Load())
	stats.FilesFailed = int(failed.Load())
	if err != nil {
		return &stats, err
	}

	if err := ix.store.SetMeta(ctx, store.MetaEmbeddingModel, ix.emb.Model()); err != nil {
		return &stats, fmt.Errorf("set meta: %w", err)
	}
	return &stats, nil
}

func (ix *Indexer) matches(name string) bool {
	if ix.registry.Lookup(name) != nil {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, t := range textExtensions {
		if ext == t {
			return true
		}
	}
	return false
}

type fileStatus int

const (
	fileReady fileStatus = iota
	fileUnchanged
	fileEmpty
	fileSkipped
)

// prepare reads, hashes, chunks and embeds one file.
func (ix *Indexer) prepare(ctx context.Context, fi walker.FileInfo) (embeddedFile, fileStatus, error) {
	src, err := os.ReadFile(fi.Path)
	if err != nil {
		ix.log.Warn("skipping unreadable file", zap.String("path", fi.RelPath), zap.Error(err))
		return embeddedFile{}, fileSkipped, nil
	}
	sum := sha256.Sum256(src)
	hash := hex.EncodeToString(sum[:])

	if existing, err := ix.store.GetFileHash(ctx, fi.RelPath); err == nil && existing == hash {
		return embeddedFile{}, fileUnchanged, nil
	}

	chunks, err := ix.chunker.Chunk(ctx, fi.RelPath, []byte(strings.ToValidUTF8(string(src), "")))
	if err != nil {
		ix.log.Warn("chunker error", zap.String("path", fi.RelPath), zap.Error(err))
		return embeddedFile{}, fileSkipped, nil
	}
	if len(chunks) == 0 {
		return embeddedFile{}, fileEmpty, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	embeddings := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += embedBatchSize {
		end := min(i+embedBatchSize, len(texts))
		embs, err := ix.emb.Embed(ctx, texts[i:end])
		if err != nil {
			return embeddedFile{}, fileSkipped, fmt.Errorf("embed %s: %w", fi.RelPath, err)
		}
		embeddings = append(embeddings, embs...)
	}

	return embeddedFile{
		info:       fi,
		hash:       hash,
		lang:       ix.registry.LanguageName(fi.Name),
		chunks:     chunks,
		embeddings: embeddings,
	}, fileReady, nil
}
