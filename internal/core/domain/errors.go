package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidSession indicates the upstream session expired or was
	// rejected and a refresh did not produce a usable replacement.
	ErrInvalidSession = errors.New("invalid session")

	// ErrRequestFailed indicates an upstream request failed at the
	// transport or decode level. Retry policy belongs to the scraper.
	ErrRequestFailed = errors.New("request failed")

	// ErrRateLimited indicates the upstream rejected a request for
	// exceeding its rate budget.
	ErrRateLimited = errors.New("rate limited")

	// ErrIncompleteScrape indicates pagination did not complete; a partial
	// batch must never be reconciled as if it were the full scope.
	ErrIncompleteScrape = errors.New("incomplete scrape")

	// ErrReconciliationConflict indicates transaction contention that
	// survived the bounded retry budget.
	ErrReconciliationConflict = errors.New("reconciliation conflict")

	// ErrJobNotFound indicates an unknown scrape job ID.
	ErrJobNotFound = errors.New("job not found")

	// ErrJobStateInvalid indicates a forbidden job state transition.
	ErrJobStateInvalid = errors.New("invalid job state transition")
)
