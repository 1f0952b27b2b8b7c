package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/coursewatch/coursewatch/internal/core/domain"
	"github.com/coursewatch/coursewatch/internal/core/ports/driving"
)

// fakeOrchestrator implements driving.ScrapeOrchestrator for command tests.
type fakeOrchestrator struct {
	runJob    *domain.ScrapeJob
	runErr    error
	statusJob *domain.ScrapeJob
	statusErr error
	jobs      []domain.ScrapeJob
	lastQuery domain.SearchQuery
}

var _ driving.ScrapeOrchestrator = (*fakeOrchestrator)(nil)

func (f *fakeOrchestrator) Run(_ context.Context, query domain.SearchQuery) (*domain.ScrapeJob, error) {
	f.lastQuery = query
	return f.runJob, f.runErr
}

func (f *fakeOrchestrator) Status(context.Context, string) (*domain.ScrapeJob, error) {
	return f.statusJob, f.statusErr
}

func (f *fakeOrchestrator) List(context.Context, int) ([]domain.ScrapeJob, error) {
	return f.jobs, nil
}

// fakeAuditStore implements driven.AuditStore for command tests.
type fakeAuditStore struct {
	entries []domain.AuditLogEntry
}

func (f *fakeAuditStore) ListByTerm(_ context.Context, _ string, limit int) ([]domain.AuditLogEntry, error) {
	if limit > 0 && limit < len(f.entries) {
		return f.entries[:limit], nil
	}
	return f.entries, nil
}

// inject swaps the wired services for fakes and restores them on cleanup.
func inject(t *testing.T, orch driving.ScrapeOrchestrator, audit *fakeAuditStore) {
	t.Helper()
	origOrch, origAudit := scrapeOrchestrator, auditStore
	scrapeOrchestrator = orch
	if audit != nil {
		auditStore = audit
	}
	t.Cleanup(func() {
		scrapeOrchestrator, auditStore = origOrch, origAudit
	})
}

// execute runs the root command with args and captures its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func completedJob(id, term string) *domain.ScrapeJob {
	now := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)
	return &domain.ScrapeJob{
		ID:        id,
		Query:     domain.SearchQuery{Term: term},
		State:     domain.JobCompleted,
		Counts:    domain.UpsertCounts{Inserted: 2, Updated: 1, Unchanged: 4},
		CreatedAt: now,
		StartedAt: now,
		EndedAt:   now.Add(time.Minute),
	}
}
