package driven

import (
	"context"

	"github.com/custodia-labs/websearch-cli/internal/core/domain"
)

// SearchProvider wraps a web search API. Given a query it returns ranked
// result records, optionally with a provider-generated answer.
//
// Errors from the provider (auth, quota, malformed response) surface as
// domain.ErrProvider-wrapped errors; the orchestrator treats them as
// zero results for that query and continues with the rest.
type SearchProvider interface {
	// Search runs one query and returns up to maxResults hits.
	Search(ctx context.Context, query domain.Query, maxResults int) ([]domain.SearchResult, error)
}
