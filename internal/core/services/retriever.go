package services

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/custodia-labs/websearch-cli/internal/core/domain"
	"github.com/custodia-labs/websearch-cli/internal/core/ports/driven"
	"github.com/custodia-labs/websearch-cli/internal/logger"
)

// DefaultEmbedBatchSize is the number of chunks embedded per call.
const DefaultEmbedBatchSize = 30

// DefaultTopK is the default retrieval size.
const DefaultTopK = 10

// Retriever is a request-scoped in-memory RAG index. It exists for the
// lifetime of one deep search call and is discarded afterwards, so no
// stale context can leak between unrelated prompts. It is mutated by a
// single goroutine and must not be shared across concurrent calls.
type Retriever struct {
	embedder  driven.EmbeddingService
	batchSize int
	threshold float64

	entries []indexedChunk
}

type indexedChunk struct {
	chunk  domain.Chunk
	vector []float32
	norm   float64
}

// RetrieverOption configures a Retriever.
type RetrieverOption func(*Retriever)

// WithEmbedBatchSize sets how many chunks are embedded per batch call.
func WithEmbedBatchSize(n int) RetrieverOption {
	return func(r *Retriever) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// WithSimilarityFloor drops matches scoring below the floor.
// Zero (the default) keeps everything.
func WithSimilarityFloor(floor float64) RetrieverOption {
	return func(r *Retriever) {
		if floor > 0 {
			r.threshold = floor
		}
	}
}

// NewRetriever creates an empty request-scoped index.
func NewRetriever(embedder driven.EmbeddingService, opts ...RetrieverOption) *Retriever {
	r := &Retriever{
		embedder:  embedder,
		batchSize: DefaultEmbedBatchSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Len returns the number of indexed chunks.
func (r *Retriever) Len() int {
	return len(r.entries)
}

// Index embeds chunks in batches and stores them. A failed batch is
// dropped and the rest continue; the call fails only when every batch
// fails, wrapped as domain.ErrEmbedding.
func (r *Retriever) Index(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if r.embedder == nil {
		return fmt.Errorf("%w: no embedding service configured", domain.ErrEmbedding)
	}

	var lastErr error
	indexed := 0

	for start := 0; start < len(chunks); start += r.batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := start + r.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		vectors, err := r.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			logger.Warn("Embedding batch %d-%d failed: %v (dropping batch)", start, end, err)
			lastErr = err
			continue
		}
		if len(vectors) != len(batch) {
			logger.Warn("Embedding batch %d-%d returned %d vectors for %d texts (dropping batch)",
				start, end, len(vectors), len(batch))
			lastErr = fmt.Errorf("vector count mismatch")
			continue
		}

		for i, c := range batch {
			c.Embedding = vectors[i]
			r.entries = append(r.entries, indexedChunk{
				chunk:  c,
				vector: vectors[i],
				norm:   vectorNorm(vectors[i]),
			})
		}
		indexed += len(batch)
	}

	if indexed == 0 && lastErr != nil {
		return fmt.Errorf("%w: %v", domain.ErrEmbedding, lastErr)
	}

	logger.Debug("Indexed %d/%d chunks", indexed, len(chunks))
	return nil
}

// Query embeds the text and returns the top k chunks by cosine
// similarity, descending, with ties broken by insertion order. An empty
// index returns an empty slice, not an error.
func (r *Retriever) Query(ctx context.Context, text string, k int) ([]domain.ScoredChunk, error) {
	if len(r.entries) == 0 || k <= 0 {
		return nil, nil
	}

	queryVec, err := r.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", domain.ErrEmbedding, err)
	}
	queryNorm := vectorNorm(queryVec)
	if queryNorm == 0 {
		return nil, nil
	}

	type scored struct {
		idx   int
		score float64
	}

	matches := make([]scored, 0, len(r.entries))
	for i, entry := range r.entries {
		score := cosine(queryVec, queryNorm, entry.vector, entry.norm)
		if score < r.threshold {
			continue
		}
		matches = append(matches, scored{idx: i, score: score})
	}

	// Stable keeps insertion order for equal scores.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	if k > len(matches) {
		k = len(matches)
	}

	results := make([]domain.ScoredChunk, k)
	for i := 0; i < k; i++ {
		results[i] = domain.ScoredChunk{
			Chunk: r.entries[matches[i].idx].chunk,
			Score: matches[i].score,
		}
	}

	return results, nil
}

func vectorNorm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func cosine(a []float32, normA float64, b []float32, normB float64) float64 {
	if normA == 0 || normB == 0 || len(a) != len(b) {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (normA * normB)
}
