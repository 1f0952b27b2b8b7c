package domain

import "time"

// ChangeKind classifies one storage mutation.
type ChangeKind string

const (
	// ChangeInsert records a course appearing for the first time.
	ChangeInsert ChangeKind = "insert"

	// ChangeUpdate records attribute changes on an existing course.
	ChangeUpdate ChangeKind = "update"

	// ChangeRemove records a course disappearing from a complete batch.
	ChangeRemove ChangeKind = "remove"
)

// AuditLogEntry captures exactly one visible storage mutation. Entries are
// immutable once created and append-only downstream; enough before/after state
// is kept to reconstruct the change.
type AuditLogEntry struct {
	// ID uniquely identifies the entry (UUID), making downstream
	// persistence idempotent on entry identity.
	ID string

	// Term and CRN identify the affected course record.
	Term string
	CRN  string

	// Kind is the change classification.
	Kind ChangeKind

	// Before is the persisted record prior to the change; nil for inserts.
	Before *CourseRecord

	// After is the record after the change; nil for removals.
	After *CourseRecord

	// ChangedFields names the attributes that differ, for update entries.
	ChangedFields []string

	// CreatedAt is when the reconciliation pass produced the entry.
	CreatedAt time.Time
}

// UpsertCounts summarises one reconciliation pass. Computed fresh each run,
// never persisted as a running total.
type UpsertCounts struct {
	Inserted  int
	Updated   int
	Unchanged int
	Removed   int
}

// Changed reports whether the pass mutated storage at all.
func (c UpsertCounts) Changed() bool {
	return c.Inserted > 0 || c.Updated > 0 || c.Removed > 0
}

// ChangeSet is the atomic unit handed to storage: every course mutation for a
// reconciliation pass together with its audit entries. Either all of it is
// durably applied or none of it is.
type ChangeSet struct {
	// Term is the scope this change set covers.
	Term string

	// Inserts are records new to storage.
	Inserts []CourseRecord

	// Updates are records replacing an existing row with the same key.
	Updates []CourseRecord

	// Removes are natural keys (CRNs within Term) to delete.
	Removes []string

	// Entries are the audit rows written in the same transaction.
	Entries []AuditLogEntry
}

// Empty reports whether applying the change set would be a no-op.
func (cs ChangeSet) Empty() bool {
	return len(cs.Inserts) == 0 && len(cs.Updates) == 0 && len(cs.Removes) == 0
}
