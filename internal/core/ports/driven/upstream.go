package driven

import (
	"context"

	"github.com/coursewatch/coursewatch/internal/core/domain"
)

// LoginClient performs the registrar login flow and produces a session.
// The session manager is its only caller.
type LoginClient interface {
	Login(ctx context.Context) (domain.Session, error)
}

// CatalogClient issues one paginated search request against the upstream
// system, handling session attachment and rate budget internally.
type CatalogClient interface {
	Search(ctx context.Context, query domain.SearchQuery, pageOffset int) (*domain.SearchResult, error)
}

// CatalogScraper drives a query across its full paginated result set and
// returns the complete record batch. A partial batch is never returned;
// pagination failure surfaces as domain.ErrIncompleteScrape.
type CatalogScraper interface {
	Scrape(ctx context.Context, query domain.SearchQuery) ([]domain.CourseRecord, error)
}
