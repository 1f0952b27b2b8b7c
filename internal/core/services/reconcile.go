package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/coursewatch/coursewatch/internal/core/domain"
	"github.com/coursewatch/coursewatch/internal/core/ports/driven"
	"github.com/coursewatch/coursewatch/internal/logger"
)

const (
	// DefaultReconcileAttempts bounds retries of a contended pass.
	DefaultReconcileAttempts = 3

	// DefaultReconcileRetryDelay is the pause between contended passes.
	DefaultReconcileRetryDelay = 100 * time.Millisecond
)

// Reconciler compares scraped batches against persisted state and applies
// the minimal set of inserts, updates and removals as one transaction,
// producing an audit entry for every visible mutation. Passes for the same
// term are serialised; different terms reconcile independently.
type Reconciler struct {
	store       driven.CourseStore
	bus         driven.EventPublisher
	maxAttempts int
	retryDelay  time.Duration
	now         func() time.Time

	mu     sync.Mutex
	scopes map[string]*sync.Mutex
}

// NewReconciler creates a reconciler. Non-positive retry settings fall back
// to the defaults. The bus may be nil when no live subscribers exist.
func NewReconciler(store driven.CourseStore, bus driven.EventPublisher, maxAttempts int, retryDelay time.Duration) *Reconciler {
	if maxAttempts <= 0 {
		maxAttempts = DefaultReconcileAttempts
	}
	if retryDelay <= 0 {
		retryDelay = DefaultReconcileRetryDelay
	}
	return &Reconciler{
		store:       store,
		bus:         bus,
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
		now:         time.Now,
		scopes:      make(map[string]*sync.Mutex),
	}
}

// Reconcile diffs the batch against the persisted term and applies the
// resulting change set atomically. Removals are inferred only when complete
// is true - absence in a partial batch proves nothing. Duplicate natural keys
// within a batch resolve last-write-wins.
func (r *Reconciler) Reconcile(ctx context.Context, term string, batch []domain.CourseRecord, complete bool) (domain.UpsertCounts, []domain.AuditLogEntry, error) {
	var counts domain.UpsertCounts

	if term == "" {
		return counts, nil, fmt.Errorf("%w: empty term", domain.ErrInvalidInput)
	}
	for _, rec := range batch {
		if err := rec.Validate(); err != nil {
			return counts, nil, err
		}
		if rec.Term != term {
			return counts, nil, fmt.Errorf("%w: record %s does not belong to term %s",
				domain.ErrInvalidInput, rec.Key(), term)
		}
	}

	// One pass per scope at a time; the diff below is read-then-write.
	scope := r.scopeLock(term)
	scope.Lock()
	defer scope.Unlock()

	current, err := r.store.ListByTerm(ctx, term)
	if err != nil {
		return counts, nil, fmt.Errorf("list term %s: %w", term, err)
	}

	cs, counts := r.diff(term, batch, current, complete)

	if cs.Empty() {
		logger.Debug("Reconcile %s: nothing changed (%d unchanged)", term, counts.Unchanged)
		return counts, nil, nil
	}

	if err := r.apply(ctx, cs); err != nil {
		return domain.UpsertCounts{}, nil, err
	}

	logger.Info("Reconcile %s: %d inserted, %d updated, %d removed, %d unchanged",
		term, counts.Inserted, counts.Updated, counts.Removed, counts.Unchanged)

	// Audit rows are durable inside the transaction above; the bus only
	// feeds live subscribers, so publishing after commit cannot lose a
	// committed entry and never publishes an uncommitted one.
	if r.bus != nil {
		for _, entry := range cs.Entries {
			r.bus.Publish(domain.AuditLogEvent{Entry: entry})
		}
	}

	return counts, cs.Entries, nil
}

// diff computes the change set turning the persisted term into the batch.
func (r *Reconciler) diff(term string, batch, current []domain.CourseRecord, complete bool) (domain.ChangeSet, domain.UpsertCounts) {
	cs := domain.ChangeSet{Term: term}
	var counts domain.UpsertCounts

	// Last write wins for duplicate keys, preserving first-seen order so
	// the change set is deterministic for a given batch.
	latest := make(map[string]domain.CourseRecord, len(batch))
	order := make([]string, 0, len(batch))
	for _, rec := range batch {
		if _, seen := latest[rec.Key()]; !seen {
			order = append(order, rec.Key())
		}
		latest[rec.Key()] = rec
	}

	persisted := make(map[string]domain.CourseRecord, len(current))
	for _, rec := range current {
		persisted[rec.Key()] = rec
	}

	now := r.now()
	for _, key := range order {
		rec := latest[key]
		prev, exists := persisted[key]
		switch {
		case !exists:
			counts.Inserted++
			cs.Inserts = append(cs.Inserts, rec)
			cs.Entries = append(cs.Entries, r.entry(domain.ChangeInsert, nil, &rec, nil, now))

		case prev.Equal(rec):
			counts.Unchanged++

		default:
			counts.Updated++
			cs.Updates = append(cs.Updates, rec)
			cs.Entries = append(cs.Entries, r.entry(domain.ChangeUpdate, &prev, &rec, prev.ChangedFields(rec), now))
		}
	}

	if complete {
		removed := make([]string, 0)
		for key := range persisted {
			if _, inBatch := latest[key]; !inBatch {
				removed = append(removed, key)
			}
		}
		sort.Strings(removed)
		for _, key := range removed {
			prev := persisted[key]
			counts.Removed++
			cs.Removes = append(cs.Removes, prev.CRN)
			cs.Entries = append(cs.Entries, r.entry(domain.ChangeRemove, &prev, nil, nil, now))
		}
	}

	return cs, counts
}

// entry builds one audit entry. Before/after are copied so later batch reuse
// cannot mutate a published entry.
func (r *Reconciler) entry(kind domain.ChangeKind, before, after *domain.CourseRecord, fields []string, now time.Time) domain.AuditLogEntry {
	e := domain.AuditLogEntry{
		ID:            uuid.NewString(),
		Kind:          kind,
		ChangedFields: fields,
		CreatedAt:     now,
	}
	if before != nil {
		b := *before
		e.Before = &b
		e.Term, e.CRN = b.Term, b.CRN
	}
	if after != nil {
		a := *after
		e.After = &a
		e.Term, e.CRN = a.Term, a.CRN
	}
	return e
}

// apply commits the change set, retrying contended transactions boundedly.
func (r *Reconciler) apply(ctx context.Context, cs domain.ChangeSet) error {
	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		err := r.store.Apply(ctx, cs)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrReconciliationConflict) {
			return fmt.Errorf("apply change set: %w", err)
		}

		lastErr = err
		if attempt < r.maxAttempts {
			logger.Debug("Reconcile %s contended on attempt %d, retrying", cs.Term, attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.retryDelay):
			}
		}
	}
	return fmt.Errorf("reconcile %s exhausted %d attempts: %w", cs.Term, r.maxAttempts, lastErr)
}

// scopeLock returns the mutex serialising passes for a term.
func (r *Reconciler) scopeLock(term string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock, ok := r.scopes[term]
	if !ok {
		lock = &sync.Mutex{}
		r.scopes[term] = lock
	}
	return lock
}
