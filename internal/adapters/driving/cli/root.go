// Package cli wires the research pipeline behind a cobra command tree.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	cachesqlite "github.com/custodia-labs/websearch-cli/internal/adapters/driven/cache/sqlite"
	configfile "github.com/custodia-labs/websearch-cli/internal/adapters/driven/config/file"
	embeddingollama "github.com/custodia-labs/websearch-cli/internal/adapters/driven/embedding/ollama"
	embeddingopenai "github.com/custodia-labs/websearch-cli/internal/adapters/driven/embedding/openai"
	fetcherweb "github.com/custodia-labs/websearch-cli/internal/adapters/driven/fetcher/web"
	llmopenai "github.com/custodia-labs/websearch-cli/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/websearch-cli/internal/adapters/driven/websearch/tavily"
	"github.com/custodia-labs/websearch-cli/internal/core/ports/driven"
	"github.com/custodia-labs/websearch-cli/internal/core/services"
	"github.com/custodia-labs/websearch-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	flagVerbose   bool
	flagConfigDir string
)

// Shared state initialized by the persistent pre-run.
var configStore driven.ConfigStore

var rootCmd = &cobra.Command{
	Use:   "websearch",
	Short: "Web research from the command line",
	Long: `websearch answers questions from live web content.

The search command summarizes provider results; deepsearch runs the
full pipeline: query expansion, page fetching, retrieval over embedded
chunks, and a streamed, grounded answer.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(flagVerbose)

		// A .env in the working directory supplies API keys during
		// development; absence is not an error.
		if err := godotenv.Load(); err == nil {
			logger.Debug("Loaded .env")
		}

		store, err := configfile.NewConfigStore(flagConfigDir)
		if err != nil {
			return fmt.Errorf("opening config: %w", err)
		}
		configStore = store
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config", "", "config directory (default ~/.websearch)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

// app bundles the constructed pipeline and its closable resources.
type app struct {
	research *services.ResearchService
	cache    driven.PageCache
}

// Close releases the app's resources.
func (a *app) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			logger.Debug("Closing cache: %v", err)
		}
	}
}

// buildApp constructs the full pipeline from resolved settings.
// Commands that do not run searches never call this, so config and
// version work without any API keys.
func buildApp() (*app, error) {
	settings := configfile.Resolve(configStore)

	if settings.TavilyAPIKey == "" {
		return nil, fmt.Errorf("no Tavily API key: set %s or run 'websearch config set-key tavily'", configfile.EnvTavilyAPIKey)
	}
	if settings.LLMAPIKey == "" {
		return nil, fmt.Errorf("no LLM API key: set %s or run 'websearch config set-key llm'", configfile.EnvLLMAPIKey)
	}

	provider, err := tavily.NewClient(tavily.Config{APIKey: settings.TavilyAPIKey})
	if err != nil {
		return nil, err
	}

	llm, err := llmopenai.NewLLMService(llmopenai.LLMConfig{
		APIKey:  settings.LLMAPIKey,
		BaseURL: settings.LLMBaseURL,
		Model:   settings.LLMModel,
	})
	if err != nil {
		return nil, err
	}

	embedder, err := buildEmbedder(settings)
	if err != nil {
		return nil, err
	}

	fetcher := fetcherweb.New(fetcherweb.Config{})

	research := services.NewResearchService(provider, fetcher, embedder, llm, services.Config{
		MaxAuxiliary:       settings.MaxAuxiliary,
		MaxResultsPerQuery: settings.MaxResults,
		TopK:               settings.TopK,
		ChunkSize:          settings.ChunkSize,
		ChunkOverlap:       settings.ChunkOverlap,
		FetchTimeout:       settings.FetchTimeout,
		Concurrency:        settings.Concurrency,
		MinCorpusChars:     settings.MinCorpusChars,
		SimilarityFloor:    settings.SimilarityFloor,
	})

	a := &app{research: research}

	if settings.CacheEnabled {
		cache, err := cachesqlite.New("", settings.CacheTTL)
		if err != nil {
			logger.Warn("Page cache unavailable: %v (continuing without)", err)
		} else {
			research.SetPageCache(cache)
			a.cache = cache
		}
	}

	return a, nil
}

func buildEmbedder(settings configfile.Settings) (driven.EmbeddingService, error) {
	switch settings.EmbeddingProvider {
	case "ollama":
		return embeddingollama.NewEmbeddingService(embeddingollama.Config{
			BaseURL:    settings.EmbeddingBaseURL,
			Model:      settings.EmbeddingModel,
			Dimensions: settings.EmbeddingDimensions,
		}), nil
	case "", "openai":
		return embeddingopenai.NewEmbeddingService(embeddingopenai.Config{
			APIKey:     settings.EmbeddingAPIKey,
			BaseURL:    settings.EmbeddingBaseURL,
			Model:      settings.EmbeddingModel,
			Dimensions: settings.EmbeddingDimensions,
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", settings.EmbeddingProvider)
	}
}

// elapsed reports a duration rounded for display.
func elapsed(start time.Time) string {
	return time.Since(start).Round(100 * time.Millisecond).String()
}
