package driving

import "context"

// TokenSink receives streamed answer fragments in emission order.
// It is invoked synchronously on the pipeline goroutine.
type TokenSink func(token string)

// ResearchService is the caller-facing API. Both calls block until the
// stream completes or fails, invoking the sink zero or more times first.
type ResearchService interface {
	// Search answers the prompt from provider summaries of a single
	// unexpanded query. Returns the full answer text.
	Search(ctx context.Context, prompt string, onToken TokenSink) (string, error)

	// DeepSearch expands the prompt, fetches and indexes page content
	// for every expanded query, and answers from retrieved chunks.
	// Partial failure of any stage before summarization degrades to
	// fewer inputs; only summarization failure is returned as an error.
	DeepSearch(ctx context.Context, prompt string, onToken TokenSink) (string, error)
}
