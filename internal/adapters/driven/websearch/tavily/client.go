// Package tavily provides a search provider adapter using the Tavily API.
package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/websearch-cli/internal/core/domain"
	"github.com/custodia-labs/websearch-cli/internal/core/ports/driven"
	"github.com/custodia-labs/websearch-cli/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.SearchProvider = (*Client)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.tavily.com"
	DefaultTimeout = 30 * time.Second

	// Tavily's documented limit is well above this; a conservative
	// bucket keeps fan-out from tripping their abuse detection.
	DefaultRequestsPerSecond = 2.0
	DefaultBurstSize         = 4
)

// excludedDomains are hosts whose pages consistently defeat extraction:
// paywalls, login walls, or script-only rendering.
var excludedDomains = []string{
	"youtube.com",
	"facebook.com",
	"instagram.com",
	"twitter.com",
	"x.com",
	"linkedin.com",
	"tiktok.com",
	"reddit.com",
	"pinterest.com",
}

// Config holds configuration for the Tavily client.
type Config struct {
	// APIKey is the Tavily API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.tavily.com).
	BaseURL string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration

	// RequestsPerSecond throttles outbound searches (default: 2).
	RequestsPerSecond float64

	// BurstSize is the throttle burst (default: 4).
	BurstSize int
}

// Client searches the web through the Tavily API.
type Client struct {
	client  *http.Client
	baseURL string
	apiKey  string
	limiter *rate.Limiter
}

// searchRequest is the Tavily /search request format.
type searchRequest struct {
	APIKey         string   `json:"api_key"`
	Query          string   `json:"query"`
	MaxResults     int      `json:"max_results"`
	IncludeAnswer  string   `json:"include_answer,omitempty"`
	ExcludeDomains []string `json:"exclude_domains,omitempty"`
}

// searchResponse is the Tavily /search response format.
type searchResponse struct {
	Answer  string `json:"answer"`
	Results []struct {
		URL     string  `json:"url"`
		Title   string  `json:"title"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// NewClient creates a new Tavily client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("tavily: %w: API key is required", domain.ErrInvalidKey)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = DefaultBurstSize
	}

	return &Client{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
	}, nil
}

// Search runs one query and returns up to maxResults hits. The
// provider's generated answer, when present, is attached to every hit
// as the ProviderSummary.
func (c *Client) Search(ctx context.Context, query domain.Query, maxResults int) ([]domain.SearchResult, error) {
	if query.Text == "" {
		return nil, fmt.Errorf("tavily: %w: empty query", domain.ErrInvalidInput)
	}
	if maxResults <= 0 {
		maxResults = 10
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqBody := searchRequest{
		APIKey:         c.apiKey,
		Query:          query.Text,
		MaxResults:     maxResults,
		IncludeAnswer:  "advanced",
		ExcludeDomains: excludedDomains,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/search",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: send request: %v", domain.ErrProvider, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrProvider, err)
	}

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return nil, fmt.Errorf("tavily: %w (status %d)", domain.ErrInvalidKey, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrProvider, resp.StatusCode, truncate(string(body), 200))
	}

	var searchResp searchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrProvider, err)
	}

	results := make([]domain.SearchResult, 0, len(searchResp.Results))
	for _, r := range searchResp.Results {
		if r.URL == "" {
			continue
		}
		results = append(results, domain.SearchResult{
			URL:             r.URL,
			Title:           r.Title,
			Snippet:         r.Content,
			Score:           r.Score,
			ProviderSummary: strings.TrimSpace(searchResp.Answer),
			SourceQuery:     query,
		})
	}

	logger.Debug("Tavily returned %d results for %q", len(results), query.Text)
	return results, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
