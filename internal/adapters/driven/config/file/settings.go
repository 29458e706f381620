package file

import (
	"os"
	"time"

	"github.com/custodia-labs/websearch-cli/internal/core/ports/driven"
)

// Well-known configuration keys. The TOML file nests them, e.g.
//
//	[tavily]
//	api_key = "tvly-..."
//
// becomes "tavily.api_key" after flattening.
const (
	KeyTavilyAPIKey = "tavily.api_key"

	KeyLLMAPIKey  = "llm.api_key"
	KeyLLMBaseURL = "llm.base_url"
	KeyLLMModel   = "llm.model"

	KeyEmbeddingProvider   = "embedding.provider"
	KeyEmbeddingAPIKey     = "embedding.api_key"
	KeyEmbeddingBaseURL    = "embedding.base_url"
	KeyEmbeddingModel      = "embedding.model"
	KeyEmbeddingDimensions = "embedding.dimensions"

	KeySearchMaxAuxiliary    = "search.max_auxiliary_queries"
	KeySearchMaxResults      = "search.max_results_per_query"
	KeySearchTopK            = "search.top_k"
	KeySearchChunkSize       = "search.chunk_size"
	KeySearchChunkOverlap    = "search.chunk_overlap"
	KeySearchFetchTimeout    = "search.fetch_timeout_seconds"
	KeySearchConcurrency     = "search.concurrency"
	KeySearchMinCorpusChars  = "search.min_corpus_chars"
	KeySearchSimilarityFloor = "search.similarity_floor"

	KeyCacheEnabled  = "cache.enabled"
	KeyCacheTTLHours = "cache.ttl_hours"

	KeyServerAddr = "server.addr"
)

// Environment variable fallbacks for secrets, so keys never have to
// touch the config file.
const (
	EnvTavilyAPIKey    = "TAVILY_API_KEY"
	EnvLLMAPIKey       = "OPENAI_API_KEY"
	EnvEmbeddingAPIKey = "EMBEDDING_API_KEY"
)

// Settings is the resolved application configuration.
type Settings struct {
	TavilyAPIKey string

	LLMAPIKey  string
	LLMBaseURL string
	LLMModel   string

	EmbeddingProvider   string
	EmbeddingAPIKey     string
	EmbeddingBaseURL    string
	EmbeddingModel      string
	EmbeddingDimensions int

	MaxAuxiliary    int
	MaxResults      int
	TopK            int
	ChunkSize       int
	ChunkOverlap    int
	FetchTimeout    time.Duration
	Concurrency     int
	MinCorpusChars  int
	SimilarityFloor float64

	CacheEnabled bool
	CacheTTL     time.Duration

	ServerAddr string
}

// Resolve reads settings from the store, falling back to environment
// variables for secrets. Zero values mean "use the component default".
func Resolve(store driven.ConfigStore) Settings {
	s := Settings{
		TavilyAPIKey: store.GetString(KeyTavilyAPIKey),

		LLMAPIKey:  store.GetString(KeyLLMAPIKey),
		LLMBaseURL: store.GetString(KeyLLMBaseURL),
		LLMModel:   store.GetString(KeyLLMModel),

		EmbeddingProvider:   store.GetString(KeyEmbeddingProvider),
		EmbeddingAPIKey:     store.GetString(KeyEmbeddingAPIKey),
		EmbeddingBaseURL:    store.GetString(KeyEmbeddingBaseURL),
		EmbeddingModel:      store.GetString(KeyEmbeddingModel),
		EmbeddingDimensions: store.GetInt(KeyEmbeddingDimensions),

		MaxAuxiliary:    store.GetInt(KeySearchMaxAuxiliary),
		MaxResults:      store.GetInt(KeySearchMaxResults),
		TopK:            store.GetInt(KeySearchTopK),
		ChunkSize:       store.GetInt(KeySearchChunkSize),
		ChunkOverlap:    store.GetInt(KeySearchChunkOverlap),
		Concurrency:     store.GetInt(KeySearchConcurrency),
		MinCorpusChars:  store.GetInt(KeySearchMinCorpusChars),
		SimilarityFloor: store.GetFloat(KeySearchSimilarityFloor),

		CacheEnabled: store.GetBool(KeyCacheEnabled),

		ServerAddr: store.GetString(KeyServerAddr),
	}

	if secs := store.GetInt(KeySearchFetchTimeout); secs > 0 {
		s.FetchTimeout = time.Duration(secs) * time.Second
	}
	if hours := store.GetInt(KeyCacheTTLHours); hours > 0 {
		s.CacheTTL = time.Duration(hours) * time.Hour
	}

	if s.TavilyAPIKey == "" {
		s.TavilyAPIKey = os.Getenv(EnvTavilyAPIKey)
	}
	if s.LLMAPIKey == "" {
		s.LLMAPIKey = os.Getenv(EnvLLMAPIKey)
	}
	if s.EmbeddingAPIKey == "" {
		s.EmbeddingAPIKey = os.Getenv(EnvEmbeddingAPIKey)
	}
	// The embedding side usually rides on the same account as the LLM.
	if s.EmbeddingAPIKey == "" {
		s.EmbeddingAPIKey = s.LLMAPIKey
	}

	return s
}
