// Package memory provides in-memory implementations of the storage ports.
// They back unit tests and ephemeral runs; durability comes from the sqlite
// package.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/coursewatch/coursewatch/internal/core/domain"
	"github.com/coursewatch/coursewatch/internal/core/ports/driven"
)

// Ensure CourseStore implements the interface.
var _ driven.CourseStore = (*CourseStore)(nil)

// CourseStore is an in-memory course and audit store. Apply is atomic under
// the store mutex, mirroring the transactional contract of the sqlite store.
type CourseStore struct {
	mu       sync.Mutex
	courses  map[string]map[string]domain.CourseRecord // term -> crn -> record
	audit    map[string][]domain.AuditLogEntry         // term -> entries, append order
	conflict int                                       // remaining Apply calls to fail
}

// NewCourseStore creates an empty in-memory course store.
func NewCourseStore() *CourseStore {
	return &CourseStore{
		courses: make(map[string]map[string]domain.CourseRecord),
		audit:   make(map[string][]domain.AuditLogEntry),
	}
}

// ListByTerm returns every record for a term, ordered by CRN.
func (s *CourseStore) ListByTerm(_ context.Context, term string) ([]domain.CourseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.courses[term]
	out := make([]domain.CourseRecord, 0, len(rows))
	for _, rec := range rows {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CRN < out[j].CRN })
	return out, nil
}

// Apply executes the change set atomically. While FailApplies is armed, the
// call fails with a reconciliation conflict instead, letting tests exercise
// the bounded retry path.
func (s *CourseStore) Apply(ctx context.Context, cs domain.ChangeSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conflict > 0 {
		s.conflict--
		return fmt.Errorf("%w: simulated contention", domain.ErrReconciliationConflict)
	}

	rows := s.courses[cs.Term]
	if rows == nil {
		rows = make(map[string]domain.CourseRecord)
		s.courses[cs.Term] = rows
	}

	for _, rec := range cs.Inserts {
		if _, exists := rows[rec.CRN]; exists {
			return fmt.Errorf("%w: duplicate natural key %s", domain.ErrReconciliationConflict, rec.Key())
		}
		rows[rec.CRN] = rec
	}
	for _, rec := range cs.Updates {
		rows[rec.CRN] = rec
	}
	for _, crn := range cs.Removes {
		delete(rows, crn)
	}

	s.audit[cs.Term] = append(s.audit[cs.Term], cs.Entries...)
	return nil
}

// ListAudit returns the term's audit entries newest first, capped at limit.
// It mirrors driven.AuditStore's contract for tests.
func (s *CourseStore) ListAudit(term string, limit int) []domain.AuditLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.audit[term]
	out := make([]domain.AuditLogEntry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		out = append(out, entries[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// FailApplies arms the next n Apply calls to fail with contention.
func (s *CourseStore) FailApplies(n int) {
	s.mu.Lock()
	s.conflict = n
	s.mu.Unlock()
}
