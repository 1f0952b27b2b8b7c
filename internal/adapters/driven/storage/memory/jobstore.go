package memory

import (
	"context"
	"sync"

	"github.com/coursewatch/coursewatch/internal/core/domain"
	"github.com/coursewatch/coursewatch/internal/core/ports/driven"
)

// Ensure JobStore implements the interface.
var _ driven.JobStore = (*JobStore)(nil)

// JobStore is an in-memory scrape job store.
type JobStore struct {
	mu    sync.Mutex
	jobs  map[string]domain.ScrapeJob
	order []string // IDs in first-save order
}

// NewJobStore creates an empty in-memory job store.
func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]domain.ScrapeJob)}
}

// Save creates or updates a job record.
func (s *JobStore) Save(_ context.Context, job *domain.ScrapeJob) error {
	if job == nil || job.ID == "" {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; !exists {
		s.order = append(s.order, job.ID)
	}
	s.jobs[job.ID] = *job
	return nil
}

// Get retrieves a job by ID.
func (s *JobStore) Get(_ context.Context, jobID string) (*domain.ScrapeJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return &job, nil
}

// ListRecent returns jobs newest first, capped at limit.
func (s *JobStore) ListRecent(_ context.Context, limit int) ([]domain.ScrapeJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.ScrapeJob, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, s.jobs[s.order[i]])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
