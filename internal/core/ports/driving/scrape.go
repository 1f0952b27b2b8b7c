package driving

import (
	"context"

	"github.com/coursewatch/coursewatch/internal/core/domain"
)

// ScrapeOrchestrator sequences scrape jobs end-to-end.
type ScrapeOrchestrator interface {
	// Run executes one scrape job for the query and blocks until the job
	// reaches a terminal state. The returned job snapshot carries that
	// state; the error mirrors it for Failed jobs. Cancelling ctx moves
	// the job to Cancelled without committing partial state.
	Run(ctx context.Context, query domain.SearchQuery) (*domain.ScrapeJob, error)

	// Status returns the current snapshot of a job, running or finished.
	Status(ctx context.Context, jobID string) (*domain.ScrapeJob, error)

	// List returns recent jobs, newest first, capped at limit.
	List(ctx context.Context, limit int) ([]domain.ScrapeJob, error)
}
