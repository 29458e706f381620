package domain

import "time"

// FetchStatus records the outcome of a page fetch.
type FetchStatus string

const (
	// FetchOK means the page was retrieved and reduced to text.
	FetchOK FetchStatus = "ok"

	// FetchFailed means the fetch failed (network error, bad status,
	// non-text content, or junk page).
	FetchFailed FetchStatus = "failed"

	// FetchTimeout means the fetch exceeded its time budget.
	FetchTimeout FetchStatus = "timeout"
)

// Document is the text content of one fetched page. One Document exists
// per unique result URL; failed fetches produce a Document with empty
// text rather than an error.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// URL is the page location the document was fetched from.
	URL string

	// Title is the page title, when one could be extracted.
	Title string

	// Text is the cleaned plain-text content. Empty unless Status is ok.
	Text string

	// Status records whether the fetch succeeded.
	Status FetchStatus

	// FetchedAt is when the fetch completed.
	FetchedAt time.Time
}

// OK reports whether the document carries usable text.
func (d Document) OK() bool {
	return d.Status == FetchOK && d.Text != ""
}

// Chunk is a bounded slice of document text, the unit of embedding
// and retrieval. Chunks form an ordered sequence within a document.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentURL links to the page the chunk came from.
	DocumentURL string

	// Ordinal is the chunk's position within its document.
	Ordinal int

	// Text is the chunk content.
	Text string

	// Embedding is the vector representation, populated at index time.
	Embedding []float32
}

// ScoredChunk pairs a chunk with its similarity to a retrieval query.
type ScoredChunk struct {
	Chunk Chunk

	// Score is the cosine similarity to the query embedding.
	Score float64
}
