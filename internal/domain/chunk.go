package domain

import "time"

// DocumentChunk is one retrievable slice of a document's text paired with
// its embedding vector. Chunks are owned by their document and are written
// in a batch right after the document row.
type DocumentChunk struct {
	ID         string
	DocumentID string
	UserID     string
	ChunkIndex int
	Content    string
	Embedding  []float32
	CreatedAt  time.Time
}
