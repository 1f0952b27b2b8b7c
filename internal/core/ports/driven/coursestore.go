package driven

import (
	"context"

	"github.com/coursewatch/coursewatch/internal/core/domain"
)

// CourseStore persists course records keyed by their natural key.
type CourseStore interface {
	// ListByTerm returns every persisted record for a term.
	ListByTerm(ctx context.Context, term string) ([]domain.CourseRecord, error)

	// Apply executes a change set as a single atomic transaction: course
	// mutations and audit entries all commit or none do. Contention is
	// reported as domain.ErrReconciliationConflict (wrapped) so the caller
	// can retry the pass.
	Apply(ctx context.Context, cs domain.ChangeSet) error
}

// AuditStore reads the append-only audit trail.
type AuditStore interface {
	// ListByTerm returns audit entries for a term, most recent first,
	// capped at limit (0 means no cap).
	ListByTerm(ctx context.Context, term string, limit int) ([]domain.AuditLogEntry, error)
}
