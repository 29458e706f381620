package tavily

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/websearch-cli/internal/core/domain"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(Config{})
	assert.ErrorIs(t, err, domain.ErrInvalidKey)
}

func TestSearch_ParsesResultsAndAnswer(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/search", r.URL.Path)

		var req searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-key", req.APIKey)
		assert.Equal(t, "capital of France", req.Query)
		assert.Equal(t, 5, req.MaxResults)
		assert.Equal(t, "advanced", req.IncludeAnswer)
		assert.Contains(t, req.ExcludeDomains, "youtube.com")

		json.NewEncoder(w).Encode(map[string]any{
			"answer": "Paris is the capital of France.",
			"results": []map[string]any{
				{"url": "https://en.wikipedia.org/wiki/Paris", "title": "Paris", "content": "Paris is the capital...", "score": 0.98},
				{"url": "https://www.britannica.com/place/Paris", "title": "Paris | Britannica", "content": "Paris, city and capital...", "score": 0.91},
			},
		})
	})

	client, err := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	results, err := client.Search(context.Background(), domain.UserQuery("capital of France"), 5)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "https://en.wikipedia.org/wiki/Paris", results[0].URL)
	assert.Equal(t, "Paris", results[0].Title)
	assert.Equal(t, 0.98, results[0].Score)
	assert.Equal(t, "Paris is the capital of France.", results[0].ProviderSummary)
	assert.Equal(t, "Paris is the capital of France.", results[1].ProviderSummary)
	assert.Equal(t, "capital of France", results[0].SourceQuery.Text)
}

func TestSearch_EmptyQuery(t *testing.T) {
	client, err := NewClient(Config{APIKey: "test-key"})
	require.NoError(t, err)

	_, err = client.Search(context.Background(), domain.Query{}, 5)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSearch_Unauthorized(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	client, err := NewClient(Config{APIKey: "bad-key", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.Search(context.Background(), domain.UserQuery("anything"), 5)
	assert.ErrorIs(t, err, domain.ErrInvalidKey)
}

func TestSearch_ServerError(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	})

	client, err := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.Search(context.Background(), domain.UserQuery("anything"), 5)
	assert.ErrorIs(t, err, domain.ErrProvider)
}

func TestSearch_SkipsResultsWithoutURL(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"url": "", "title": "broken"},
				{"url": "https://a.example", "title": "ok"},
			},
		})
	})

	client, err := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	results, err := client.Search(context.Background(), domain.UserQuery("q"), 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "https://a.example", results[0].URL)
}
