package services

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/websearch-cli/internal/core/domain"
	"github.com/custodia-labs/websearch-cli/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockLLM implements driven.LLMService for testing.
type mockLLM struct {
	chatResponse string
	chatErr      error

	streamTokens []string
	streamErr    error // delivered mid-stream after streamErrAfter tokens
	setupErr     error
	streamErrPos int

	mu        sync.Mutex
	chatCalls []string
}

func (m *mockLLM) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	m.mu.Lock()
	if len(messages) > 0 {
		m.chatCalls = append(m.chatCalls, messages[len(messages)-1].Content)
	}
	m.mu.Unlock()
	if m.chatErr != nil {
		return "", m.chatErr
	}
	return m.chatResponse, nil
}

func (m *mockLLM) ChatStream(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (<-chan string, <-chan error, error) {
	m.mu.Lock()
	if len(messages) > 0 {
		m.chatCalls = append(m.chatCalls, messages[len(messages)-1].Content)
	}
	m.mu.Unlock()

	if m.setupErr != nil {
		return nil, nil, m.setupErr
	}

	tokens := make(chan string)
	errs := make(chan error, 1)
	go func() {
		defer close(tokens)
		defer close(errs)
		for i, tok := range m.streamTokens {
			if m.streamErr != nil && i == m.streamErrPos {
				errs <- m.streamErr
				return
			}
			tokens <- tok
		}
		if m.streamErr != nil && m.streamErrPos >= len(m.streamTokens) {
			errs <- m.streamErr
		}
	}()
	return tokens, errs, nil
}

func (m *mockLLM) ModelName() string { return "mock-llm" }

func (m *mockLLM) Ping(_ context.Context) error { return nil }

func (m *mockLLM) lastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.chatCalls) == 0 {
		return ""
	}
	return m.chatCalls[len(m.chatCalls)-1]
}

// mockEmbedder implements driven.EmbeddingService with a fixed
// text-to-vector table, so similarity ranking is deterministic.
type mockEmbedder struct {
	vectors  map[string][]float32
	fallback []float32
	embedErr error

	mu         sync.Mutex
	batchCalls int
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.batchCalls++
	m.mu.Unlock()
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	result := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := m.vectors[t]; ok {
			result[i] = v
		} else if m.fallback != nil {
			result[i] = m.fallback
		} else {
			result[i] = []float32{1, 0, 0}
		}
	}
	return result, nil
}

func (m *mockEmbedder) Dimensions() int { return 3 }

func (m *mockEmbedder) ModelName() string { return "mock-embedder" }

// mockProvider implements driven.SearchProvider with canned results
// and optional per-query errors.
type mockProvider struct {
	results map[string][]domain.SearchResult
	errs    map[string]error

	mu      sync.Mutex
	queries []string
}

func (m *mockProvider) Search(_ context.Context, q domain.Query, _ int) ([]domain.SearchResult, error) {
	m.mu.Lock()
	m.queries = append(m.queries, q.Text)
	m.mu.Unlock()
	if err, ok := m.errs[q.Text]; ok {
		return nil, err
	}
	hits := m.results[q.Text]
	out := make([]domain.SearchResult, len(hits))
	copy(out, hits)
	for i := range out {
		out[i].SourceQuery = q
	}
	return out, nil
}

func (m *mockProvider) queryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queries)
}

// mockFetcher implements driven.PageFetcher with canned documents.
type mockFetcher struct {
	docs map[string]domain.Document

	mu    sync.Mutex
	calls []string
}

func (m *mockFetcher) Fetch(_ context.Context, url string, _ time.Duration) domain.Document {
	m.mu.Lock()
	m.calls = append(m.calls, url)
	m.mu.Unlock()
	if doc, ok := m.docs[url]; ok {
		return doc
	}
	return domain.Document{URL: url, Status: domain.FetchFailed, FetchedAt: time.Now()}
}

func (m *mockFetcher) fetchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// mockCache implements driven.PageCache over a map.
type mockCache struct {
	mu   sync.Mutex
	docs map[string]domain.Document
	puts int
}

func newMockCache() *mockCache {
	return &mockCache{docs: make(map[string]domain.Document)}
}

func (m *mockCache) Get(_ context.Context, url string) (domain.Document, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[url]
	return doc, ok
}

func (m *mockCache) Put(_ context.Context, doc domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.URL] = doc
	m.puts++
	return nil
}

func (m *mockCache) Close() error { return nil }
