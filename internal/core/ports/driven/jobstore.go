package driven

import (
	"context"

	"github.com/coursewatch/coursewatch/internal/core/domain"
)

// JobStore persists scrape job state for the status query surface.
type JobStore interface {
	// Save creates or updates a job record.
	Save(ctx context.Context, job *domain.ScrapeJob) error

	// Get retrieves a job by ID. Returns domain.ErrJobNotFound if absent.
	Get(ctx context.Context, jobID string) (*domain.ScrapeJob, error)

	// ListRecent returns jobs ordered by creation time descending,
	// capped at limit (0 means no cap).
	ListRecent(ctx context.Context, limit int) ([]domain.ScrapeJob, error)
}
