package domain

import "errors"

// Domain errors represent pipeline failures. Every stage before
// summarization degrades gracefully; only summarization failures are
// surfaced to the caller.
var (
	// ErrInvalidInput indicates malformed or empty input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrExpansion indicates query expansion failed. Recoverable:
	// the pipeline degrades to the single original query.
	ErrExpansion = errors.New("query expansion failed")

	// ErrProvider indicates a non-retryable search provider error
	// (auth, quota). Fatal for that query, never for the pipeline.
	ErrProvider = errors.New("search provider error")

	// ErrInvalidKey indicates the provider or model rejected the API key.
	ErrInvalidKey = errors.New("invalid API key")

	// ErrFetch indicates a page could not be fetched. Recoverable:
	// that document is dropped.
	ErrFetch = errors.New("page fetch failed")

	// ErrEmbedding indicates the embedding call failed for an entire
	// index operation. Fatal for that Index call.
	ErrEmbedding = errors.New("embedding failed")

	// ErrSummarization indicates the streaming completion failed.
	// The one pipeline failure surfaced to the caller.
	ErrSummarization = errors.New("summarization failed")

	// ErrSearchInProgress indicates the server already has a search
	// running and rejects concurrent requests.
	ErrSearchInProgress = errors.New("search in progress")
)
