package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/coursewatch/coursewatch/internal/core/domain"
	"github.com/coursewatch/coursewatch/internal/core/ports/driven"
)

// jobStore implements driven.JobStore.
type jobStore struct {
	store *Store
}

var _ driven.JobStore = (*jobStore)(nil)

// Save stores or updates a job record.
func (s *jobStore) Save(ctx context.Context, job *domain.ScrapeJob) error {
	if job.ID == "" {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO scrape_jobs
			(id, term, subject, page_max_size, state, error,
			 inserted, updated, unchanged, removed, created_at, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			state = excluded.state,
			error = excluded.error,
			inserted = excluded.inserted,
			updated = excluded.updated,
			unchanged = excluded.unchanged,
			removed = excluded.removed,
			started_at = excluded.started_at,
			ended_at = excluded.ended_at
	`, job.ID, job.Query.Term, job.Query.Subject, job.Query.PageMaxSize,
		string(job.State), job.Error,
		job.Counts.Inserted, job.Counts.Updated, job.Counts.Unchanged, job.Counts.Removed,
		job.CreatedAt.UTC(), nullTime(job.StartedAt), nullTime(job.EndedAt))

	if err != nil {
		return fmt.Errorf("saving job: %w", err)
	}
	return nil
}

// Get retrieves a job by ID.
func (s *jobStore) Get(ctx context.Context, jobID string) (*domain.ScrapeJob, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, term, subject, page_max_size, state, error,
		       inserted, updated, unchanged, removed, created_at, started_at, ended_at
		FROM scrape_jobs WHERE id = ?
	`, jobID)

	job, err := scanJob(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrJobNotFound
	}
	return job, err
}

// ListRecent returns jobs ordered by creation time descending.
func (s *jobStore) ListRecent(ctx context.Context, limit int) ([]domain.ScrapeJob, error) {
	query := `
		SELECT id, term, subject, page_max_size, state, error,
		       inserted, updated, unchanged, removed, created_at, started_at, ended_at
		FROM scrape_jobs
		ORDER BY created_at DESC, id
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.ScrapeJob //nolint:prealloc // size unknown from query
	for rows.Next() {
		job, err := scanJob(rows.Scan)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating jobs: %w", err)
	}

	return jobs, nil
}

// scanJob scans one job row via the given scan function.
func scanJob(scan func(...any) error) (*domain.ScrapeJob, error) {
	var job domain.ScrapeJob
	var state string
	var startedAt, endedAt sql.NullTime

	if err := scan(&job.ID, &job.Query.Term, &job.Query.Subject, &job.Query.PageMaxSize,
		&state, &job.Error,
		&job.Counts.Inserted, &job.Counts.Updated, &job.Counts.Unchanged, &job.Counts.Removed,
		&job.CreatedAt, &startedAt, &endedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning job: %w", err)
	}

	job.State = domain.JobState(state)
	if startedAt.Valid {
		job.StartedAt = startedAt.Time
	}
	if endedAt.Valid {
		job.EndedAt = endedAt.Time
	}

	return &job, nil
}

// nullTime maps the zero time to SQL NULL.
func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
