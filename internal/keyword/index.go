// Package keyword provides keyword (BM25) indexing and search over document chunks.
package keyword

import (
	"context"

	"github.com/hyperjump/sqlrag/internal/models"
)

// SearchOptions optional parameters for keyword search. Nil means use defaults.
type SearchOptions struct {
	// SourceBoost multiplies the score contribution from matches in the source (file name) field.
	// Values > 1 make a chunk from "loans.txt" rank higher for a query mentioning loans. Use 1.0 for no boost.
	SourceBoost float64
	// PhraseBoost multiplies the score when query terms appear next to each other in the content.
	PhraseBoost float64
	// FuzzyEnabled enables fuzzy matching for typo tolerance.
	FuzzyEnabled bool
	// Fuzziness is the maximum edit distance for fuzzy matching (1 or 2). Default is 1.
	Fuzziness int
}

// KeywordIndex defines keyword search operations over chunks.
type KeywordIndex interface {
	IndexChunks(ctx context.Context, chunks []models.Chunk) error
	Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*KeywordResult, error)
	Delete(ctx context.Context, id string) error
	Reset() error
	// DocCount returns the number of chunks in the index.
	DocCount() (uint64, error)
	Close() error
}

// KeywordResult is a single keyword search hit; ID is the chunk ID.
type KeywordResult struct {
	ID    string
	Score float64
}
