// Package indexer splits documents into chunks and runs the ingestion pipeline.
package indexer

import (
	"strings"

	"github.com/hyperjump/sqlrag/internal/fileid"
	"github.com/hyperjump/sqlrag/internal/models"
)

// Chunker splits text into fixed-width character spans.
// No sentence or paragraph boundaries are considered.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// NewChunker creates a chunker with the given size and overlap, in characters.
// Overlap is clamped to [0, size).
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize < 1 {
		chunkSize = 1
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize - 1
	}
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// Chunk splits doc into spans of chunkSize runes advancing by chunkSize-chunkOverlap.
// Every chunk carries doc.Source. Whitespace-only documents yield nil.
func (c *Chunker) Chunk(doc models.SourceDocument) []models.Chunk {
	if strings.TrimSpace(doc.Content) == "" {
		return nil
	}
	runes := []rune(doc.Content)
	step := c.chunkSize - c.chunkOverlap
	chunks := make([]models.Chunk, 0, len(runes)/step+1)
	for i := 0; i < len(runes); i += step {
		end := i + c.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		idx := len(chunks)
		chunks = append(chunks, models.Chunk{
			ID:     fileid.ChunkID(doc.Source, idx),
			Source: doc.Source,
			Index:  idx,
			Text:   string(runes[i:end]),
		})
		if end >= len(runes) {
			break
		}
	}
	return chunks
}

// ChunkAll chunks every document in order.
func (c *Chunker) ChunkAll(docs []models.SourceDocument) []models.Chunk {
	var out []models.Chunk
	for _, d := range docs {
		out = append(out, c.Chunk(d)...)
	}
	return out
}
