package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/coursewatch/coursewatch/internal/core/domain"
	"github.com/coursewatch/coursewatch/internal/core/ports/driven"
)

// auditStore implements driven.AuditStore.
type auditStore struct {
	store *Store
}

var _ driven.AuditStore = (*auditStore)(nil)

// ListByTerm returns audit entries for a term, most recent first.
func (s *auditStore) ListByTerm(ctx context.Context, term string, limit int) ([]domain.AuditLogEntry, error) {
	query := `
		SELECT id, term, crn, kind, before, after, changed_fields, created_at
		FROM audit_log WHERE term = ?
		ORDER BY created_at DESC, id
	`
	args := []any{term}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	var entries []domain.AuditLogEntry //nolint:prealloc // size unknown from query
	for rows.Next() {
		entry, err := scanAuditEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit log: %w", err)
	}

	return entries, nil
}

// scanAuditEntry scans one audit row, decoding the JSON snapshots.
func scanAuditEntry(rows *sql.Rows) (*domain.AuditLogEntry, error) {
	var entry domain.AuditLogEntry
	var kind string
	var beforeJSON, afterJSON, fieldsJSON sql.NullString

	if err := rows.Scan(&entry.ID, &entry.Term, &entry.CRN, &kind,
		&beforeJSON, &afterJSON, &fieldsJSON, &entry.CreatedAt); err != nil {
		return nil, fmt.Errorf("scanning audit entry: %w", err)
	}
	entry.Kind = domain.ChangeKind(kind)

	if beforeJSON.Valid && beforeJSON.String != jsonNull {
		var before domain.CourseRecord
		if err := json.Unmarshal([]byte(beforeJSON.String), &before); err != nil {
			return nil, fmt.Errorf("unmarshalling before state: %w", err)
		}
		entry.Before = &before
	}

	if afterJSON.Valid && afterJSON.String != jsonNull {
		var after domain.CourseRecord
		if err := json.Unmarshal([]byte(afterJSON.String), &after); err != nil {
			return nil, fmt.Errorf("unmarshalling after state: %w", err)
		}
		entry.After = &after
	}

	if fieldsJSON.Valid && fieldsJSON.String != jsonNull {
		if err := json.Unmarshal([]byte(fieldsJSON.String), &entry.ChangedFields); err != nil {
			return nil, fmt.Errorf("unmarshalling changed fields: %w", err)
		}
	}

	return &entry, nil
}
