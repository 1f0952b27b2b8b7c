package services

import (
	"context"
	"sync"
	"time"

	"github.com/coursewatch/coursewatch/internal/core/domain"
	"github.com/coursewatch/coursewatch/internal/core/ports/driving"
	"github.com/coursewatch/coursewatch/internal/logger"
)

// DefaultScrapeInterval is how often watched terms are scraped when the
// configuration does not say otherwise.
const DefaultScrapeInterval = time.Hour

// SchedulerConfig holds scrape scheduler configuration.
type SchedulerConfig struct {
	// Terms are the term codes to scrape on each cycle.
	Terms []string

	// Interval defines how often a cycle runs.
	Interval time.Duration

	// PageMaxSize is the page size requested from the upstream.
	PageMaxSize int
}

// Scheduler runs scrape jobs for the watched terms on a fixed interval.
// It is a pure core service with no external control API.
type Scheduler struct {
	config SchedulerConfig
	orch   driving.ScrapeOrchestrator

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler over the orchestrator.
func NewScheduler(config SchedulerConfig, orch driving.ScrapeOrchestrator) *Scheduler {
	if config.Interval <= 0 {
		config.Interval = DefaultScrapeInterval
	}
	return &Scheduler{
		config: config,
		orch:   orch,
	}
}

// Start begins the scheduler loop. This method blocks until Stop is called
// or the context is cancelled. The first cycle runs immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	s.runCycle(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

// Stop gracefully shuts down the scheduler and waits for in-flight jobs.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
}

// runCycle scrapes every watched term, sequentially. Terms share the
// upstream rate budget, so fanning out buys nothing and hammers the API.
func (s *Scheduler) runCycle(ctx context.Context) {
	if len(s.config.Terms) == 0 {
		return
	}

	s.wg.Add(1)
	defer s.wg.Done()

	for _, term := range s.config.Terms {
		if ctx.Err() != nil {
			return
		}

		query := domain.SearchQuery{Term: term, PageMaxSize: s.config.PageMaxSize}
		job, err := s.orch.Run(ctx, query)
		if err != nil {
			logger.Warn("Scheduled scrape for term %s did not complete: %v", term, err)
			continue
		}
		logger.Debug("Scheduled scrape for term %s finished as %s", term, job.State)
	}
}
