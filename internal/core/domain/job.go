package domain

import "time"

// JobState is a scrape job's lifecycle state.
type JobState string

const (
	// JobQueued means the job exists but has not been dispatched.
	JobQueued JobState = "queued"

	// JobRunning means the job is scraping or reconciling.
	JobRunning JobState = "running"

	// JobCompleted means a reconciliation pass committed successfully.
	JobCompleted JobState = "completed"

	// JobFailed means an unrecoverable error ended the job.
	JobFailed JobState = "failed"

	// JobCancelled means shutdown or cancellation arrived before completion.
	JobCancelled JobState = "cancelled"
)

// Terminal reports whether the state admits no further transitions.
func (s JobState) Terminal() bool {
	switch s {
	case JobCompleted, JobFailed, JobCancelled:
		return true
	default:
		return false
	}
}

// CanTransition reports whether the state machine permits moving to next.
// Queued → Running → {Completed, Failed, Cancelled}; Queued may also be
// cancelled before dispatch.
func (s JobState) CanTransition(next JobState) bool {
	switch s {
	case JobQueued:
		return next == JobRunning || next == JobCancelled
	case JobRunning:
		return next == JobCompleted || next == JobFailed || next == JobCancelled
	default:
		return false
	}
}

// ScrapeJob is one scraping run end-to-end: identity, the query that spawned
// it, and lifecycle state. A job is bounded by one orchestrator run and never
// reused.
type ScrapeJob struct {
	// ID uniquely identifies the job (UUID).
	ID string

	// Query is the catalog search this job executes.
	Query SearchQuery

	// State is the current lifecycle state.
	State JobState

	// Error holds the failure message for failed jobs.
	Error string

	// Counts summarises the reconciliation pass; set on completion.
	Counts UpsertCounts

	// CreatedAt is when the job was queued.
	CreatedAt time.Time

	// StartedAt is when the job began running.
	StartedAt time.Time

	// EndedAt is when the job reached a terminal state.
	EndedAt time.Time
}
