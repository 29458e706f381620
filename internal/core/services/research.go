package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/websearch-cli/internal/chunker"
	"github.com/custodia-labs/websearch-cli/internal/core/domain"
	"github.com/custodia-labs/websearch-cli/internal/core/ports/driven"
	"github.com/custodia-labs/websearch-cli/internal/core/ports/driving"
	"github.com/custodia-labs/websearch-cli/internal/logger"
)

// Ensure ResearchService implements the interface.
var _ driving.ResearchService = (*ResearchService)(nil)

// Config holds the pipeline tunables. Zero values fall back to the
// defaults below.
type Config struct {
	// MaxAuxiliary caps auxiliary queries per expansion round.
	MaxAuxiliary int

	// MaxResultsPerQuery caps provider hits per query.
	MaxResultsPerQuery int

	// TopK is the retrieval size for deep search.
	TopK int

	// ChunkSize and ChunkOverlap configure the splitter, in characters.
	ChunkSize    int
	ChunkOverlap int

	// FetchTimeout is the per-page time budget.
	FetchTimeout time.Duration

	// Concurrency bounds fan-out against external services.
	Concurrency int

	// MinCorpusChars triggers one follow-up expansion round when the
	// fetched corpus is smaller. Zero disables the follow-up round.
	MinCorpusChars int

	// SimilarityFloor drops retrieval matches scoring below it.
	SimilarityFloor float64

	// EmbedBatchSize is the number of chunks embedded per call.
	EmbedBatchSize int
}

func (c Config) withDefaults() Config {
	if c.MaxAuxiliary <= 0 {
		c.MaxAuxiliary = DefaultMaxAuxiliary
	}
	if c.MaxResultsPerQuery <= 0 {
		c.MaxResultsPerQuery = 10
	}
	if c.TopK <= 0 {
		c.TopK = DefaultTopK
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = chunker.DefaultChunkSize
	}
	if c.ChunkOverlap < 0 {
		c.ChunkOverlap = chunker.DefaultOverlap
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 60 * time.Second
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.EmbedBatchSize <= 0 {
		c.EmbedBatchSize = DefaultEmbedBatchSize
	}
	return c
}

// ResearchService composes the pipeline: expansion, provider search,
// page fetching, chunking, retrieval, and streamed synthesis. It owns
// the lifetime of all per-request entities; the injected clients are
// shared, stateless collaborators reused across calls.
type ResearchService struct {
	provider   driven.SearchProvider
	fetcher    driven.PageFetcher
	cache      driven.PageCache
	embedder   driven.EmbeddingService
	expander   *QueryExpander
	summarizer *Summarizer
	splitter   *chunker.Splitter
	cfg        Config
}

// NewResearchService creates the orchestrator. A page cache can be
// installed afterwards with SetPageCache.
func NewResearchService(
	provider driven.SearchProvider,
	fetcher driven.PageFetcher,
	embedder driven.EmbeddingService,
	llm driven.LLMService,
	cfg Config,
) *ResearchService {
	cfg = cfg.withDefaults()
	return &ResearchService{
		provider:   provider,
		fetcher:    fetcher,
		embedder:   embedder,
		expander:   NewQueryExpander(llm),
		summarizer: NewSummarizer(llm),
		splitter: chunker.New(
			chunker.WithChunkSize(cfg.ChunkSize),
			chunker.WithOverlap(cfg.ChunkOverlap),
		),
		cfg: cfg,
	}
}

// SetPageCache installs an optional cache in front of the fetcher.
func (s *ResearchService) SetPageCache(cache driven.PageCache) {
	s.cache = cache
}

// Search answers the prompt from provider summaries of a single
// unexpanded query, then streams the synthesis.
func (s *ResearchService) Search(ctx context.Context, prompt string, onToken driving.TokenSink) (string, error) {
	if prompt == "" {
		return "", domain.ErrInvalidInput
	}

	logger.Section("Search")
	logger.Debug("Prompt: %q", prompt)

	results, err := s.provider.Search(ctx, domain.UserQuery(prompt), s.cfg.MaxResultsPerQuery)
	if err != nil {
		logger.Warn("Provider search failed: %v (summarizing without context)", err)
	}

	contextParts := collectSummaries(results)
	if len(contextParts) == 0 {
		for _, r := range results {
			if r.Snippet != "" {
				contextParts = append(contextParts, fmt.Sprintf("%s\n%s", r.Title, r.Snippet))
			}
		}
	}
	logger.Info("Search context: %d parts from %d results", len(contextParts), len(results))

	if err := ctx.Err(); err != nil {
		return "", err
	}

	return s.summarizer.Stream(ctx, prompt, contextParts, onToken)
}

// DeepSearch runs the full pipeline: expanding, searching, fetching,
// chunking, indexing, retrieving, summarizing. Every stage before
// summarization degrades per item rather than aborting.
func (s *ResearchService) DeepSearch(ctx context.Context, prompt string, onToken driving.TokenSink) (string, error) {
	if prompt == "" {
		return "", domain.ErrInvalidInput
	}

	logger.Section("Deep Search")
	logger.Debug("Prompt: %q", prompt)

	// Stage 1: expansion. The original prompt always survives.
	queries := s.expander.Expand(ctx, prompt, s.cfg.MaxAuxiliary)
	logger.Info("Expanded to %d queries", len(queries))

	if err := ctx.Err(); err != nil {
		return "", err
	}

	// Stage 2: provider search fan-out.
	results := s.searchAll(ctx, queries)
	summaries := collectSummaries(results)

	// Follow-up round: widen a thin corpus once, from what the
	// provider already told us.
	if s.cfg.MinCorpusChars > 0 && corpusSize(results) < s.cfg.MinCorpusChars && len(summaries) > 0 {
		followUps := s.expander.ExpandFromSummary(ctx, prompt, joinBounded(summaries, 4000), s.cfg.MaxAuxiliary)
		if len(followUps) > 0 {
			logger.Info("Thin corpus: one follow-up round with %d queries", len(followUps))
			results = append(results, s.searchAll(ctx, followUps)...)
			summaries = collectSummaries(results)
		}
	}

	unique := domain.DedupeByURL(results)
	logger.Info("Searching produced %d results, %d unique URLs", len(results), len(unique))

	if err := ctx.Err(); err != nil {
		return "", err
	}

	// Stage 3: fetch fan-out, one call per unique URL.
	docs := s.fetchAll(ctx, unique)

	if err := ctx.Err(); err != nil {
		return "", err
	}

	// Stage 4: chunking. Failed documents yield no chunks.
	var chunks []domain.Chunk
	fetched := 0
	for _, doc := range docs {
		if doc.OK() {
			fetched++
		}
		chunks = append(chunks, s.splitter.Split(doc)...)
	}
	logger.Info("Fetched %d/%d pages, %d chunks", fetched, len(docs), len(chunks))

	// Stage 5: request-scoped index, discarded when this call returns.
	retriever := NewRetriever(s.embedder,
		WithEmbedBatchSize(s.cfg.EmbedBatchSize),
		WithSimilarityFloor(s.cfg.SimilarityFloor),
	)
	if err := retriever.Index(ctx, chunks); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		// Total embedding failure: continue on provider summaries alone.
		logger.Warn("Indexing failed: %v (continuing without retrieval)", err)
	}

	// Stage 6: retrieval against the original prompt.
	var matches []domain.ScoredChunk
	if retriever.Len() > 0 {
		var err error
		matches, err = retriever.Query(ctx, prompt, s.cfg.TopK)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			logger.Warn("Retrieval failed: %v (continuing without chunks)", err)
		}
	}
	logger.Info("Retrieved %d chunks", len(matches))

	// Stage 7: synthesis from summaries plus retrieved chunks.
	contextParts := make([]string, 0, len(summaries)+len(matches))
	contextParts = append(contextParts, summaries...)
	for _, m := range matches {
		contextParts = append(contextParts, fmt.Sprintf("From %s:\n%s", m.Chunk.DocumentURL, m.Chunk.Text))
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	return s.summarizer.Stream(ctx, prompt, contextParts, onToken)
}

// searchAll fans out provider searches under the concurrency bound.
// A provider error for one query drops that query's results and never
// aborts the stage. Results are re-associated with their query and
// returned in query order.
func (s *ResearchService) searchAll(ctx context.Context, queries []domain.Query) []domain.SearchResult {
	perQuery := make([][]domain.SearchResult, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	for i, q := range queries {
		g.Go(func() error {
			hits, err := s.provider.Search(gctx, q, s.cfg.MaxResultsPerQuery)
			if err != nil {
				logger.Warn("Query %q failed: %v (dropping its results)", q.Text, err)
				return nil
			}
			perQuery[i] = hits
			logger.Debug("Query %q: %d hits", q.Text, len(hits))
			return nil
		})
	}
	// Workers only return nil; Wait just joins them.
	_ = g.Wait()

	var all []domain.SearchResult
	for _, hits := range perQuery {
		all = append(all, hits...)
	}
	return all
}

// fetchAll fans out page fetches under the concurrency bound, checking
// the optional cache first. The fetcher reports failures in-band via
// the document status, so every slot is filled.
func (s *ResearchService) fetchAll(ctx context.Context, results []domain.SearchResult) []domain.Document {
	docs := make([]domain.Document, len(results))

	var cacheMu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	for i, r := range results {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				docs[i] = domain.Document{URL: r.URL, Status: domain.FetchFailed}
				return nil
			}

			if s.cache != nil {
				if doc, ok := s.cache.Get(gctx, r.URL); ok {
					logger.Debug("Cache hit: %s", r.URL)
					docs[i] = doc
					return nil
				}
			}

			doc := s.fetcher.Fetch(gctx, r.URL, s.cfg.FetchTimeout)
			docs[i] = doc

			if s.cache != nil && doc.OK() {
				cacheMu.Lock()
				if err := s.cache.Put(gctx, doc); err != nil {
					logger.Debug("Cache put failed for %s: %v", r.URL, err)
				}
				cacheMu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return docs
}

// collectSummaries gathers distinct provider summaries across results.
func collectSummaries(results []domain.SearchResult) []string {
	var summaries []string
	seen := make(map[string]bool)
	for _, r := range results {
		if r.ProviderSummary == "" || seen[r.ProviderSummary] {
			continue
		}
		seen[r.ProviderSummary] = true
		summaries = append(summaries, r.ProviderSummary)
	}
	return summaries
}

// corpusSize estimates how much raw material the results carry.
func corpusSize(results []domain.SearchResult) int {
	total := 0
	for _, r := range results {
		total += len(r.Snippet) + len(r.ProviderSummary)
	}
	return total
}

// joinBounded concatenates parts up to roughly maxChars.
func joinBounded(parts []string, maxChars int) string {
	var joined []byte
	for _, p := range parts {
		if len(joined)+len(p)+1 > maxChars {
			break
		}
		if len(joined) > 0 {
			joined = append(joined, '\n')
		}
		joined = append(joined, p...)
	}
	return string(joined)
}
