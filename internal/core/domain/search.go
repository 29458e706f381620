package domain

// SearchResult represents a single hit returned by the search provider.
type SearchResult struct {
	// URL is the result location. Results are de-duplicated by URL
	// across all expanded queries before fetching.
	URL string

	// Title is the page title reported by the provider.
	Title string

	// Snippet is the provider's content excerpt for the hit.
	Snippet string

	// Score is the provider's relevance score for the hit.
	Score float64

	// ProviderSummary is the provider-generated answer for the whole
	// query, when the provider supports one. Empty otherwise. The same
	// summary is attached to every hit of the query that produced it.
	ProviderSummary string

	// SourceQuery is the query that produced this hit.
	SourceQuery Query
}

// DedupeByURL returns results with only the first occurrence of each URL,
// preserving order.
func DedupeByURL(results []SearchResult) []SearchResult {
	seen := make(map[string]bool, len(results))
	deduped := make([]SearchResult, 0, len(results))
	for _, r := range results {
		if r.URL == "" || seen[r.URL] {
			continue
		}
		seen[r.URL] = true
		deduped = append(deduped, r)
	}
	return deduped
}
