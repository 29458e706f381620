package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/websearch-cli/internal/core/domain"
)

// PageFetcher retrieves a page and reduces it to clean text.
//
// Fetch never returns an error for a bad page: timeouts, network errors,
// and non-text content yield a Document with a non-ok status and empty
// text, so a single bad page cannot abort a batch.
type PageFetcher interface {
	Fetch(ctx context.Context, url string, timeout time.Duration) domain.Document
}

// PageCache is an optional cache in front of a PageFetcher. The core
// contract does not require caching; when configured it short-circuits
// repeat fetches of the same URL within the TTL.
type PageCache interface {
	// Get returns the cached document for url, or false when absent
	// or expired.
	Get(ctx context.Context, url string) (domain.Document, bool)

	// Put stores a successfully fetched document.
	Put(ctx context.Context, doc domain.Document) error

	// Close releases resources.
	Close() error
}
