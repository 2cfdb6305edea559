package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

func init() {
	sqlite_vec.Auto()
}

// MetaEmbeddingModel records the model the stored vectors came from.
const MetaEmbeddingModel = "embedding_model"

// Store persists indexed files, chunks and embeddings.
type Store interface {
	// GetFileHash returns the stored hash for a path, or "" if not indexed.
	GetFileHash(ctx context.Context, path string) (string, error)
	// ReplaceFile stores a file with its chunks and embeddings, replacing
	// whatever was stored for the same path.
	ReplaceFile(ctx context.Context, f FileRecord, chunks []Chunk, embeddings [][]float32) error
	// Search finds the k chunks closest to the query embedding.
	Search(ctx context.Context, queryEmbedding []float32, k int) ([]SearchResult, error)
	// KeywordSearch finds up to k chunks whose name or content contains
	// every term of query, case-insensitively.
	KeywordSearch(ctx context.Context, query string, k int) ([]SearchResult, error)
	GetMeta(ctx context.Context, key string) (string, error)
	SetMeta(ctx context.Context, key, value string) error
	// DeleteAll removes all files, chunks and embeddings.
	DeleteAll(ctx context.Context) error
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

// SQLiteStore implements Store backed by SQLite + sqlite-vec.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// Open creates or opens a SQLite database at the given path and initializes
// the schema with vectors of dims floats.
func Open(dbPath string, dims int) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One writer; sqlite-vec tables do not like concurrent writers.
	db.SetMaxOpenConns(1)
	if err := Init(db, dims); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) GetFileHash(ctx context.Context, path string) (string, error) {
	var hash string
	err := s.db.QueryRowContext(ctx, "SELECT hash FROM files WHERE path = ?", path).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return hash, err
}

func (s *SQLiteStore) ReplaceFile(ctx context.Context, f FileRecord, chunks []Chunk, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("mismatched chunks (%d) and embeddings (%d)", len(chunks), len(embeddings))
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var fileID int64
	err = tx.QueryRowContext(ctx, "SELECT id FROM files WHERE path = ?", f.Path).Scan(&fileID)
	switch {
	case err == nil:
		if err := deleteEmbeddings(ctx, tx, fileID); err != nil {
			return fmt.Errorf("delete embeddings: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE file_id = ?", fileID); err != nil {
			return fmt.Errorf("delete chunks: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE files SET hash = ?, language = ?, indexed_at = CURRENT_TIMESTAMP, size_bytes = ? WHERE id = ?",
			f.Hash, f.Language, f.SizeBytes, fileID); err != nil {
			return fmt.Errorf("update file: %w", err)
		}
	case errors.Is(err, sql.ErrNoRows):
		res, err := tx.ExecContext(ctx,
			"INSERT INTO files (path, hash, language, size_bytes) VALUES (?, ?, ?, ?)",
			f.Path, f.Hash, f.Language, f.SizeBytes)
		if err != nil {
			return fmt.Errorf("insert file: %w", err)
		}
		if fileID, err = res.LastInsertId(); err != nil {
			return err
		}
	default:
		return err
	}

	chunkStmt, err := tx.PrepareContext(ctx,
		"INSERT INTO chunks (file_id, name, kind, start_line, end_line, content) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer chunkStmt.Close()
	vecStmt, err := tx.PrepareContext(ctx, "INSERT INTO vec_chunks (chunk_id, embedding) VALUES (?, ?)")
	if err != nil {
		return err
	}
	defer vecStmt.Close()

	for i, c := range chunks {
		res, err := chunkStmt.ExecContext(ctx, fileID, c.Name, c.Kind, c.StartLine, c.EndLine, c.Content)
		if err != nil {
			return fmt.Errorf("insert chunk: %w", err)
		}
		chunkID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		blob, err := sqlite_vec.SerializeFloat32(embeddings[i])
		if err != nil {
			return fmt.Errorf("serialize embedding for chunk %d: %w", chunkID, err)
		}
		if _, err := vecStmt.ExecContext(ctx, chunkID, blob); err != nil {
			return fmt.Errorf("insert embedding for chunk %d: %w", chunkID, err)
		}
	}
	return tx.Commit()
}

// deleteEmbeddings removes the vectors of a file's chunks one key at a time;
// vec0 only deletes by primary key.
func deleteEmbeddings(ctx context.Context, tx *sql.Tx, fileID int64) error {
	rows, err := tx.QueryContext(ctx, "SELECT id FROM chunks WHERE file_id = ?", fileID)
	if err != nil {
		return err
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, "DELETE FROM vec_chunks WHERE chunk_id = ?", id); err != nil {
			return err
		}
	}
	return nil
}

const resultColumns = `c.id, c.name, c.kind, c.start_line, c.end_line, c.content, f.path, f.language`

func (s *SQLiteStore) Search(ctx context.Context, queryEmbedding []float32, k int) ([]SearchResult, error) {
	blob, err := sqlite_vec.SerializeFloat32(queryEmbedding)
	if err != nil {
		return nil, fmt.Errorf("serialize query embedding: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+resultColumns+`, v.distance
		FROM vec_chunks v
		JOIN chunks c ON c.id = v.chunk_id
		JOIN files f ON f.id = c.file_id
		WHERE v.embedding MATCH ? AND k = ?
		ORDER BY v.distance
	`, blob, k)
	if err != nil {
		return nil, err
	}
	return scanResults(rows, true)
}

func (s *SQLiteStore) KeywordSearch(ctx context.Context, query string, k int) ([]SearchResult, error) {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil, nil
	}
	var where []string
	var args []any
	for _, t := range terms {
		where = append(where, `(lower(c.name) LIKE ? ESCAPE '\' OR lower(c.content) LIKE ? ESCAPE '\')`)
		pattern := "%" + escapeLike(t) + "%"
		args = append(args, pattern, pattern)
	}
	args = append(args, k)

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+resultColumns+`
		FROM chunks c
		JOIN files f ON f.id = c.file_id
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY c.name = '' , length(c.content), c.id
		LIMIT ?
	`, args...)
	if err != nil {
		return nil, err
	}
	return scanResults(rows, false)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func scanResults(rows *sql.Rows, withDistance bool) ([]SearchResult, error) {
	defer rows.Close()
	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		dest := []any{
			&r.Chunk.ID, &r.Chunk.Name, &r.Chunk.Kind, &r.Chunk.StartLine, &r.Chunk.EndLine,
			&r.Chunk.Content, &r.FilePath, &r.Language,
		}
		if withDistance {
			dest = append(dest, &r.Distance)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *SQLiteStore) GetMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

func (s *SQLiteStore) SetMeta(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}

func (s *SQLiteStore) DeleteAll(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"vec_chunks", "chunks", "files"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM files").Scan(&st.Files); err != nil {
		return st, err
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&st.Chunks); err != nil {
		return st, err
	}
	model, err := s.GetMeta(ctx, MetaEmbeddingModel)
	if err != nil {
		return st, err
	}
	st.Model = model
	return st, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
