package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/coursewatch/coursewatch/internal/core/domain"
	"github.com/coursewatch/coursewatch/internal/core/ports/driven"
	"github.com/coursewatch/coursewatch/internal/core/ports/driving"
	"github.com/coursewatch/coursewatch/internal/logger"
)

// Ensure ScrapeOrchestrator implements the interface.
var _ driving.ScrapeOrchestrator = (*ScrapeOrchestrator)(nil)

// ScrapeOrchestrator sequences one scraping run end-to-end: scrape the full
// batch, reconcile it, and publish a job event on every state transition.
// A Run is the unit of cancellation - cancelling its context abandons
// in-flight upstream calls and commits no partial reconciliation.
type ScrapeOrchestrator struct {
	scraper    driven.CatalogScraper
	reconciler *Reconciler
	jobStore   driven.JobStore
	bus        driven.EventPublisher
	now        func() time.Time

	mu     sync.RWMutex
	active map[string]*domain.ScrapeJob
}

// NewScrapeOrchestrator creates a scrape job orchestrator.
func NewScrapeOrchestrator(
	scraper driven.CatalogScraper,
	reconciler *Reconciler,
	jobStore driven.JobStore,
	bus driven.EventPublisher,
) *ScrapeOrchestrator {
	return &ScrapeOrchestrator{
		scraper:    scraper,
		reconciler: reconciler,
		jobStore:   jobStore,
		bus:        bus,
		now:        time.Now,
		active:     make(map[string]*domain.ScrapeJob),
	}
}

// Run executes one scrape job and blocks until it reaches a terminal state.
// The returned snapshot carries that state; for Failed jobs the error is
// also returned. The orchestrator never panics the process - exhausted
// scraper and reconciler errors become a Failed job and its event.
func (o *ScrapeOrchestrator) Run(ctx context.Context, query domain.SearchQuery) (*domain.ScrapeJob, error) {
	if query.Term == "" {
		return nil, fmt.Errorf("%w: query needs a term", domain.ErrInvalidInput)
	}

	job := &domain.ScrapeJob{
		ID:        uuid.NewString(),
		Query:     query,
		State:     domain.JobQueued,
		CreatedAt: o.now(),
	}

	o.mu.Lock()
	o.active[job.ID] = job
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		delete(o.active, job.ID)
		o.mu.Unlock()
	}()

	// Queued is announced too so subscribers see the job exist.
	o.record(ctx, job)

	if err := o.transition(ctx, job, domain.JobRunning); err != nil {
		return o.snapshot(job), err
	}
	logger.Info("Job %s running: term %s", job.ID, query.Term)

	batch, err := o.scraper.Scrape(ctx, query)
	if err != nil {
		return o.finish(ctx, job, err)
	}

	counts, _, err := o.reconciler.Reconcile(ctx, query.Term, batch, true)
	if err != nil {
		return o.finish(ctx, job, err)
	}

	o.mu.Lock()
	job.Counts = counts
	o.mu.Unlock()

	if err := o.transition(ctx, job, domain.JobCompleted); err != nil {
		return o.snapshot(job), err
	}
	logger.Info("Job %s completed: +%d ~%d -%d =%d", job.ID,
		counts.Inserted, counts.Updated, counts.Removed, counts.Unchanged)

	return o.snapshot(job), nil
}

// Status returns the current snapshot of a job, consulting in-flight jobs
// before persisted ones.
func (o *ScrapeOrchestrator) Status(ctx context.Context, jobID string) (*domain.ScrapeJob, error) {
	o.mu.RLock()
	if job, ok := o.active[jobID]; ok {
		snap := *job
		o.mu.RUnlock()
		return &snap, nil
	}
	o.mu.RUnlock()

	return o.jobStore.Get(ctx, jobID)
}

// List returns recent jobs, newest first.
func (o *ScrapeOrchestrator) List(ctx context.Context, limit int) ([]domain.ScrapeJob, error) {
	return o.jobStore.ListRecent(ctx, limit)
}

// finish maps a pipeline error to the job's terminal state: cancellation
// when the context died, failure otherwise.
func (o *ScrapeOrchestrator) finish(ctx context.Context, job *domain.ScrapeJob, cause error) (*domain.ScrapeJob, error) {
	if ctx.Err() != nil || errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded) {
		logger.Info("Job %s cancelled", job.ID)
		o.transitionErr(job, domain.JobCancelled, "")
		o.record(context.WithoutCancel(ctx), job)
		return o.snapshot(job), cause
	}

	logger.Error("Job %s failed: %v", job.ID, cause)
	o.transitionErr(job, domain.JobFailed, cause.Error())
	o.record(ctx, job)
	return o.snapshot(job), cause
}

// transition moves the job forward and records it. Transition rules are
// enforced; a violation is a programming error surfaced as ErrJobStateInvalid.
func (o *ScrapeOrchestrator) transition(ctx context.Context, job *domain.ScrapeJob, next domain.JobState) error {
	if err := o.transitionErrChecked(job, next, ""); err != nil {
		return err
	}
	o.record(ctx, job)
	return nil
}

// transitionErr is transition for terminal paths where the state machine
// already guarantees validity.
func (o *ScrapeOrchestrator) transitionErr(job *domain.ScrapeJob, next domain.JobState, msg string) {
	_ = o.transitionErrChecked(job, next, msg) //nolint:errcheck // states validated upstream
}

func (o *ScrapeOrchestrator) transitionErrChecked(job *domain.ScrapeJob, next domain.JobState, msg string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !job.State.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrJobStateInvalid, job.State, next)
	}

	job.State = next
	job.Error = msg
	switch next {
	case domain.JobRunning:
		job.StartedAt = o.now()
	case domain.JobCompleted, domain.JobFailed, domain.JobCancelled:
		job.EndedAt = o.now()
	}
	return nil
}

// record persists the job and publishes its event. Persistence failure is
// logged, not fatal: the event still goes out so no terminal state is
// silently swallowed.
func (o *ScrapeOrchestrator) record(ctx context.Context, job *domain.ScrapeJob) {
	snap := o.snapshot(job)

	if err := o.jobStore.Save(ctx, snap); err != nil {
		logger.Warn("Failed to persist job %s (%s): %v", snap.ID, snap.State, err)
	}
	if o.bus != nil {
		o.bus.Publish(domain.ScrapeJobEvent{Job: *snap})
	}
}

// snapshot copies the job under the lock so callers never share the
// orchestrator's mutable value.
func (o *ScrapeOrchestrator) snapshot(job *domain.ScrapeJob) *domain.ScrapeJob {
	o.mu.RLock()
	defer o.mu.RUnlock()
	snap := *job
	return &snap
}
