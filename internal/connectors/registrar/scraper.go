package registrar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coursewatch/coursewatch/internal/core/domain"
	"github.com/coursewatch/coursewatch/internal/core/ports/driven"
	"github.com/coursewatch/coursewatch/internal/logger"
)

const (
	// DefaultPageRetries is how many attempts each page gets before the
	// whole run aborts.
	DefaultPageRetries = 3

	// DefaultRetryDelay is the initial backoff between page attempts.
	DefaultRetryDelay = time.Second
)

// Ensure Scraper implements the port.
var _ driven.CatalogScraper = (*Scraper)(nil)

// Scraper drives a query across its full paginated result set. Pages are
// fetched sequentially - the upstream's paging is stateful, so concurrent
// fan-out risks inconsistent result sets. A page that fails its bounded retry
// budget aborts the run: a partial batch reconciled as complete would
// spuriously mark missing records as removed.
type Scraper struct {
	client      driven.CatalogClient
	pageRetries int
	retryDelay  time.Duration
}

// NewScraper creates a scraper over the given client. Non-positive retry
// settings fall back to the defaults.
func NewScraper(client driven.CatalogClient, pageRetries int, retryDelay time.Duration) *Scraper {
	if pageRetries <= 0 {
		pageRetries = DefaultPageRetries
	}
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}
	return &Scraper{
		client:      client,
		pageRetries: pageRetries,
		retryDelay:  retryDelay,
	}
}

// Scrape returns the complete record batch for the query, or
// domain.ErrIncompleteScrape when pagination could not finish.
func (s *Scraper) Scrape(ctx context.Context, query domain.SearchQuery) ([]domain.CourseRecord, error) {
	first, err := s.fetchPage(ctx, query, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: first page: %w", domain.ErrIncompleteScrape, err)
	}

	records := append([]domain.CourseRecord(nil), first.Records...)
	total := first.TotalCount
	pageSize := first.PageMaxSize
	if pageSize <= 0 {
		pageSize = len(first.Records)
	}

	logger.Debug("Scrape %s: %d records total, page size %d", query.Term, total, pageSize)

	if pageSize > 0 {
		for offset := pageSize; offset < total; offset += pageSize {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}

			page, err := s.fetchPage(ctx, query, offset)
			if err != nil {
				return nil, fmt.Errorf("%w: page offset %d: %w", domain.ErrIncompleteScrape, offset, err)
			}
			records = append(records, page.Records...)
		}
	}

	if len(records) < total {
		return nil, fmt.Errorf("%w: got %d of %d records for term %s",
			domain.ErrIncompleteScrape, len(records), total, query.Term)
	}

	return records, nil
}

// fetchPage retrieves one page with bounded retries. Session failures and
// cancellation are not retried here: the client already refreshed once for
// auth, and retrying a dead context is pointless.
func (s *Scraper) fetchPage(ctx context.Context, query domain.SearchQuery, offset int) (*domain.SearchResult, error) {
	var lastErr error
	for attempt := 1; attempt <= s.pageRetries; attempt++ {
		result, err := s.client.Search(ctx, query, offset)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, domain.ErrInvalidSession) || ctx.Err() != nil {
			return nil, err
		}

		lastErr = err
		if attempt < s.pageRetries {
			delay := s.retryDelay * (1 << (attempt - 1))
			logger.Debug("Page offset %d attempt %d failed, retrying in %s: %v", offset, attempt, delay, err)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return nil, lastErr
}
