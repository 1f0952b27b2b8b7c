package domain

// SearchQuery describes one catalog search against the registrar.
// Queries are immutable; pagination offsets are supplied per request by the
// client, not stored here.
type SearchQuery struct {
	// Term is the academic term code to search (the reconciliation scope).
	Term string

	// Subject optionally restricts the search to one subject code.
	// Empty means all subjects in the term.
	Subject string

	// PageMaxSize is the requested page size. The upstream may clamp it;
	// the authoritative size comes back in each SearchResult.
	PageMaxSize int
}

// SearchResult is one decoded page of upstream search results.
type SearchResult struct {
	// Success mirrors the upstream success flag.
	Success bool

	// TotalCount is the total number of records matching the query.
	TotalCount int

	// PageOffset is the record offset this page starts at.
	PageOffset int

	// PageMaxSize is the upstream's effective page size.
	PageMaxSize int

	// Records holds this page's course records.
	Records []CourseRecord
}
