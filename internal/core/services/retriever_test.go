package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/websearch-cli/internal/core/domain"
)

func chunksFromTexts(texts ...string) []domain.Chunk {
	chunks := make([]domain.Chunk, len(texts))
	for i, t := range texts {
		chunks[i] = domain.Chunk{
			ID:          t,
			DocumentURL: "https://example.com",
			Ordinal:     i,
			Text:        t,
		}
	}
	return chunks
}

func TestRetriever_QueryRanksBySimilarity(t *testing.T) {
	embedder := &mockEmbedder{vectors: map[string][]float32{
		"about paris":  {1, 0, 0},
		"about tokyo":  {0, 1, 0},
		"about berlin": {0.7, 0.7, 0},
		"query":        {1, 0.1, 0},
	}}
	r := NewRetriever(embedder)

	require.NoError(t, r.Index(context.Background(), chunksFromTexts("about paris", "about tokyo", "about berlin")))

	got, err := r.Query(context.Background(), "query", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "about paris", got[0].Chunk.Text)
	assert.Equal(t, "about berlin", got[1].Chunk.Text)
	assert.Greater(t, got[0].Score, got[1].Score)
}

func TestRetriever_FewerChunksThanK(t *testing.T) {
	embedder := &mockEmbedder{fallback: []float32{1, 0, 0}}
	r := NewRetriever(embedder)

	require.NoError(t, r.Index(context.Background(), chunksFromTexts("a", "b")))

	got, err := r.Query(context.Background(), "anything", 10)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestRetriever_StableTieBreak(t *testing.T) {
	// All chunks share one vector, so scores tie.
	embedder := &mockEmbedder{fallback: []float32{1, 0, 0}}
	r := NewRetriever(embedder)

	require.NoError(t, r.Index(context.Background(), chunksFromTexts("first", "second", "third")))

	got, err := r.Query(context.Background(), "anything", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "first", got[0].Chunk.Text)
	assert.Equal(t, "second", got[1].Chunk.Text)
	assert.Equal(t, "third", got[2].Chunk.Text)
}

func TestRetriever_EmptyIndex(t *testing.T) {
	embedder := &mockEmbedder{}
	r := NewRetriever(embedder)

	got, err := r.Query(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRetriever_IndexEmptyChunks(t *testing.T) {
	r := NewRetriever(&mockEmbedder{})
	require.NoError(t, r.Index(context.Background(), nil))
	assert.Zero(t, r.Len())
}

func TestRetriever_Idempotence(t *testing.T) {
	embedder := &mockEmbedder{vectors: map[string][]float32{
		"alpha": {1, 0, 0},
		"beta":  {0, 1, 0},
		"query": {0.9, 0.2, 0},
	}}

	run := func() []string {
		r := NewRetriever(embedder)
		require.NoError(t, r.Index(context.Background(), chunksFromTexts("alpha", "beta")))
		require.NoError(t, r.Index(context.Background(), chunksFromTexts("alpha", "beta")))
		got, err := r.Query(context.Background(), "query", 2)
		require.NoError(t, err)
		texts := make([]string, len(got))
		for i, sc := range got {
			texts[i] = sc.Chunk.Text
		}
		return texts
	}

	first := run()
	second := run()
	assert.Equal(t, first, second)
	assert.Equal(t, "alpha", first[0])
}

func TestRetriever_TotalEmbeddingFailure(t *testing.T) {
	embedder := &mockEmbedder{embedErr: errors.New("quota exceeded")}
	r := NewRetriever(embedder)

	err := r.Index(context.Background(), chunksFromTexts("a", "b"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbedding)
	assert.Zero(t, r.Len())
}

func TestRetriever_BatchSize(t *testing.T) {
	embedder := &mockEmbedder{fallback: []float32{1, 0, 0}}
	r := NewRetriever(embedder, WithEmbedBatchSize(2))

	require.NoError(t, r.Index(context.Background(), chunksFromTexts("a", "b", "c", "d", "e")))

	assert.Equal(t, 3, embedder.batchCalls)
	assert.Equal(t, 5, r.Len())
}

func TestRetriever_SimilarityFloor(t *testing.T) {
	embedder := &mockEmbedder{vectors: map[string][]float32{
		"relevant":   {1, 0, 0},
		"irrelevant": {0, 1, 0},
		"query":      {1, 0, 0},
	}}
	r := NewRetriever(embedder, WithSimilarityFloor(0.5))

	require.NoError(t, r.Index(context.Background(), chunksFromTexts("relevant", "irrelevant")))

	got, err := r.Query(context.Background(), "query", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "relevant", got[0].Chunk.Text)
}

func TestRetriever_QueryEmbeddingFailure(t *testing.T) {
	embedder := &mockEmbedder{fallback: []float32{1, 0, 0}}
	r := NewRetriever(embedder)
	require.NoError(t, r.Index(context.Background(), chunksFromTexts("a")))

	embedder.embedErr = errors.New("down")
	_, err := r.Query(context.Background(), "query", 5)
	assert.ErrorIs(t, err, domain.ErrEmbedding)
}
