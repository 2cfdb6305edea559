package store

import "time"

// FileRecord is one indexed documentation or source file.
type FileRecord struct {
	ID        int64
	Path      string
	Hash      string
	Language  string
	IndexedAt time.Time
	SizeBytes int64
}

// Chunk is one embedded piece of a file.
type Chunk struct {
	ID        int64
	FileID    int64
	Name      string
	Kind      string
	StartLine int
	EndLine   int
	Content   string
}

// SearchResult is a chunk with its distance and file path. Keyword hits
// have a zero distance.
type SearchResult struct {
	Chunk    Chunk
	FilePath string
	Language string
	Distance float64
}

// Stats summarises the store contents.
type Stats struct {
	Files  int
	Chunks int
	Model  string
}
