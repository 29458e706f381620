package domain

// QueryOrigin identifies how a query was produced.
type QueryOrigin string

const (
	// OriginUser marks the query the caller typed.
	OriginUser QueryOrigin = "user"

	// OriginExpansion marks a query generated during expansion.
	OriginExpansion QueryOrigin = "expansion"
)

// Query is a single search query. Immutable once created.
type Query struct {
	// Text is the query string sent to the search provider.
	Text string

	// Origin records whether the query came from the user or from expansion.
	Origin QueryOrigin
}

// UserQuery builds a Query for the caller's original prompt.
func UserQuery(text string) Query {
	return Query{Text: text, Origin: OriginUser}
}

// ExpandedQuery builds a Query produced by query expansion.
func ExpandedQuery(text string) Query {
	return Query{Text: text, Origin: OriginExpansion}
}
