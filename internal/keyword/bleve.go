package keyword

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperjump/sqlrag/internal/models"
)

// chunkDoc is the shape stored in Bleve for a chunk.
type chunkDoc struct {
	Source     string `json:"source"`
	Content    string `json:"content"`
	ChunkIndex int    `json:"chunk_index"`
}

// sourceTerms splits file names so "home_loans.txt" indexes as "home loans txt".
var sourceTerms = strings.NewReplacer(".", " ", "_", " ", "-", " ")

// BleveIndex implements KeywordIndex using Bleve.
type BleveIndex struct {
	path  string
	mu    sync.RWMutex
	index bleve.Index
}

func newMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer: lowercase + tokenize, no stemming, so column names like
	// "loan_type" match exactly.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("content", textFieldMapping)
	docMapping.AddFieldMappingsAt("source", textFieldMapping)
	numericMapping := bleve.NewNumericFieldMapping()
	numericMapping.Index = false
	docMapping.AddFieldMappingsAt("chunk_index", numericMapping)
	im.AddDocumentMapping("chunk", docMapping)
	im.DefaultType = "chunk"
	im.DefaultMapping = docMapping
	return im
}

// NewBleveIndex creates or opens a Bleve index at path. Parent directories are created.
func NewBleveIndex(path string) (*BleveIndex, error) {
	index, err := openOrCreate(path)
	if err != nil {
		return nil, err
	}
	return &BleveIndex{path: path, index: index}, nil
}

func openOrCreate(path string) (bleve.Index, error) {
	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return index, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create keyword index directory: %w", err)
	}
	index, err := bleve.New(path, newMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return index, nil
}

// IndexChunks indexes chunks in one batch. Re-indexing an ID replaces it.
func (b *BleveIndex) IndexChunks(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	batch := b.index.NewBatch()
	for _, c := range chunks {
		doc := chunkDoc{Source: sourceTerms.Replace(c.Source), Content: c.Text, ChunkIndex: c.Index}
		if err := batch.Index(c.ID, doc); err != nil {
			return fmt.Errorf("failed to index chunk %s: %w", c.ID, err)
		}
	}
	return b.index.Batch(batch)
}

// Search runs a match query and returns up to limit results.
// When opts is nil or has no boosts, a single match over source+content is used.
// Otherwise source and content are queried separately and merged with additive scoring,
// a term coverage penalty and a phrase proximity boost.
func (b *BleveIndex) Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*KeywordResult, error) {
	if strings.TrimSpace(query) == "" || limit <= 0 {
		return nil, nil
	}
	sourceBoost, phraseBoost := 1.0, 1.0
	fuzzy, fuzziness := false, 1
	if opts != nil {
		if opts.SourceBoost > 0 {
			sourceBoost = opts.SourceBoost
		}
		if opts.PhraseBoost > 0 {
			phraseBoost = opts.PhraseBoost
		}
		fuzzy = opts.FuzzyEnabled
		if opts.Fuzziness > 0 {
			fuzziness = opts.Fuzziness
		}
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if sourceBoost <= 1.0 && phraseBoost <= 1.0 {
		return b.searchSingle(ctx, query, limit, fuzzy, fuzziness)
	}
	return b.searchWithBoosts(ctx, query, limit, sourceBoost, phraseBoost, fuzzy, fuzziness)
}

func (b *BleveIndex) searchSingle(ctx context.Context, query string, limit int, fuzzy bool, fuzziness int) ([]*KeywordResult, error) {
	var q blevequery.Query
	if fuzzy {
		q = buildFuzzyQuery(query, fuzziness, "")
	} else {
		q = bleve.NewMatchQuery(query)
	}
	req := bleve.NewSearchRequest(q)
	req.Size = limit
	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]*KeywordResult, len(results.Hits))
	for i, hit := range results.Hits {
		out[i] = &KeywordResult{ID: hit.ID, Score: hit.Score}
	}
	return out, nil
}

func (b *BleveIndex) searchWithBoosts(ctx context.Context, query string, limit int, sourceBoost, phraseBoost float64, fuzzy bool, fuzziness int) ([]*KeywordResult, error) {
	reqSize := max(limit*2, 50)
	terms := tokenizeQuery(query)

	sourceHits, err := b.fieldScores(ctx, query, "source", reqSize, fuzzy, fuzziness)
	if err != nil {
		return nil, err
	}
	contentHits, err := b.fieldScores(ctx, query, "content", reqSize, fuzzy, fuzziness)
	if err != nil {
		return nil, err
	}

	coverage := map[string]int{}
	if len(terms) > 1 {
		coverage = b.termCoverage(ctx, terms, reqSize, fuzzy, fuzziness)
	}
	phrases := map[string]bool{}
	if phraseBoost > 1.0 && len(terms) > 1 {
		phrases = b.phraseMatches(ctx, query, reqSize)
	}

	scores := make(map[string]float64, len(contentHits)+len(sourceHits))
	for id, s := range sourceHits {
		scores[id] += s * sourceBoost
	}
	for id, s := range contentHits {
		scores[id] += s
	}
	for id := range scores {
		// (matched/total)^2 so chunks matching every term outrank partial matches
		if len(terms) > 1 {
			matched := max(coverage[id], 1)
			c := float64(matched) / float64(len(terms))
			scores[id] *= c * c
		}
		if phrases[id] {
			scores[id] *= phraseBoost
		}
	}

	out := make([]*KeywordResult, 0, len(scores))
	for id, s := range scores {
		out = append(out, &KeywordResult{ID: id, Score: s})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (b *BleveIndex) fieldScores(ctx context.Context, query, field string, size int, fuzzy bool, fuzziness int) (map[string]float64, error) {
	var q blevequery.Query
	if fuzzy {
		q = buildFuzzyQuery(query, fuzziness, field)
	} else {
		mq := bleve.NewMatchQuery(query)
		mq.SetField(field)
		q = mq
	}
	req := bleve.NewSearchRequest(q)
	req.Size = size
	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve %s search failed: %w", field, err)
	}
	scores := make(map[string]float64, len(results.Hits))
	for _, hit := range results.Hits {
		scores[hit.ID] = hit.Score
	}
	return scores, nil
}

// tokenizeQuery splits query into lowercase terms.
func tokenizeQuery(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// buildFuzzyQuery ORs a FuzzyQuery per term. An empty field searches all fields.
func buildFuzzyQuery(query string, fuzziness int, field string) blevequery.Query {
	terms := tokenizeQuery(query)
	if len(terms) == 0 {
		mq := bleve.NewMatchQuery(query)
		if field != "" {
			mq.SetField(field)
		}
		return mq
	}
	queries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		fq := bleve.NewFuzzyQuery(term)
		fq.SetFuzziness(fuzziness)
		if field != "" {
			fq.SetField(field)
		}
		queries = append(queries, fq)
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewDisjunctionQuery(queries...)
}

// termCoverage counts how many distinct query terms each chunk matches.
func (b *BleveIndex) termCoverage(ctx context.Context, terms []string, size int, fuzzy bool, fuzziness int) map[string]int {
	coverage := make(map[string]int)
	for _, term := range terms {
		var q blevequery.Query
		if fuzzy {
			fq := bleve.NewFuzzyQuery(term)
			fq.SetFuzziness(fuzziness)
			q = fq
		} else {
			q = bleve.NewMatchQuery(term)
		}
		req := bleve.NewSearchRequest(q)
		req.Size = size
		results, err := b.index.SearchInContext(ctx, req)
		if err != nil {
			continue
		}
		for _, hit := range results.Hits {
			coverage[hit.ID]++
		}
	}
	return coverage
}

func (b *BleveIndex) phraseMatches(ctx context.Context, query string, size int) map[string]bool {
	matches := make(map[string]bool)
	pq := bleve.NewMatchPhraseQuery(query)
	pq.SetField("content")
	req := bleve.NewSearchRequest(pq)
	req.Size = size
	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return matches
	}
	for _, hit := range results.Hits {
		matches[hit.ID] = true
	}
	return matches
}

// Delete removes a chunk from the index.
func (b *BleveIndex) Delete(ctx context.Context, id string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.index.Delete(id)
}

// Reset drops every chunk by recreating the index on disk.
func (b *BleveIndex) Reset() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.index.Close(); err != nil {
		return fmt.Errorf("failed to close Bleve index: %w", err)
	}
	if err := os.RemoveAll(b.path); err != nil {
		return fmt.Errorf("failed to remove keyword index: %w", err)
	}
	index, err := openOrCreate(b.path)
	if err != nil {
		return err
	}
	b.index = index
	return nil
}

// DocCount returns the number of chunks in the index.
func (b *BleveIndex) DocCount() (uint64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.index.DocCount()
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.index.Close()
}
