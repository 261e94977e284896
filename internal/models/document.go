// Package models defines core data structures for source documents, chunks, fintech records, and answers.
package models

// SourceDocument is a plain-text file loaded from the documents directory.
type SourceDocument struct {
	Source  string `json:"source"`
	Content string `json:"content"`
}

// Chunk is a bounded span of source text plus its originating document identifier.
type Chunk struct {
	ID     string `json:"id" db:"id"`
	Source string `json:"source" db:"source"`
	Index  int    `json:"chunk_index" db:"chunk_index"`
	Text   string `json:"text" db:"content"`
}

// EmbeddedChunk is a chunk with its embedding vector, the unit persisted by the vector index.
type EmbeddedChunk struct {
	Chunk
	Vector []float32 `json:"-" db:"embedding"`
}

// RetrievedChunk is a chunk returned by similarity search.
// Score is cosine similarity for vector retrieval, or the fused score in hybrid mode.
type RetrievedChunk struct {
	Chunk
	Score float64 `json:"score"`
}
