// Package domain contains the core types of the research pipeline:
// queries, search results, fetched documents, chunks, and the error
// taxonomy. It has no dependencies on adapters or external services.
package domain
