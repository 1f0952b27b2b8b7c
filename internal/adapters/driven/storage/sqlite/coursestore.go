package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/coursewatch/coursewatch/internal/core/domain"
	"github.com/coursewatch/coursewatch/internal/core/ports/driven"
)

// courseStore implements driven.CourseStore.
type courseStore struct {
	store *Store
}

var _ driven.CourseStore = (*courseStore)(nil)

// ListByTerm returns every persisted record for a term.
func (s *courseStore) ListByTerm(ctx context.Context, term string) ([]domain.CourseRecord, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT term, crn, subject, course_number, section, title, instructor,
		       meeting_times, seats_available, seats_capacity, credits
		FROM courses WHERE term = ?
		ORDER BY crn
	`, term)
	if err != nil {
		return nil, fmt.Errorf("querying courses: %w", err)
	}
	defer rows.Close()

	var records []domain.CourseRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		var rec domain.CourseRecord
		if err := rows.Scan(&rec.Term, &rec.CRN, &rec.Subject, &rec.CourseNumber,
			&rec.Section, &rec.Title, &rec.Instructor, &rec.MeetingTimes,
			&rec.SeatsAvailable, &rec.SeatsCapacity, &rec.Credits); err != nil {
			return nil, fmt.Errorf("scanning course: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating courses: %w", err)
	}

	return records, nil
}

// Apply executes the change set in a single transaction: course upserts,
// removals, and audit entries commit together or not at all. Lock contention
// surfaces as domain.ErrReconciliationConflict so the caller can retry.
func (s *courseStore) Apply(ctx context.Context, cs domain.ChangeSet) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		if isBusy(err) {
			return fmt.Errorf("%w: beginning transaction: %w", domain.ErrReconciliationConflict, err)
		}
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := applyChanges(ctx, tx, cs); err != nil {
		if isBusy(err) {
			return fmt.Errorf("%w: %w", domain.ErrReconciliationConflict, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		if isBusy(err) {
			return fmt.Errorf("%w: committing change set: %w", domain.ErrReconciliationConflict, err)
		}
		return fmt.Errorf("committing change set: %w", err)
	}
	return nil
}

func applyChanges(ctx context.Context, tx *sql.Tx, cs domain.ChangeSet) error {
	now := time.Now().UTC()

	upsert, err := tx.PrepareContext(ctx, `
		INSERT INTO courses (term, crn, subject, course_number, section, title,
			instructor, meeting_times, seats_available, seats_capacity, credits, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(term, crn) DO UPDATE SET
			subject = excluded.subject,
			course_number = excluded.course_number,
			section = excluded.section,
			title = excluded.title,
			instructor = excluded.instructor,
			meeting_times = excluded.meeting_times,
			seats_available = excluded.seats_available,
			seats_capacity = excluded.seats_capacity,
			credits = excluded.credits,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer upsert.Close()

	for _, rec := range append(append([]domain.CourseRecord(nil), cs.Inserts...), cs.Updates...) {
		if _, err := upsert.ExecContext(ctx, rec.Term, rec.CRN, rec.Subject,
			rec.CourseNumber, rec.Section, rec.Title, rec.Instructor, rec.MeetingTimes,
			rec.SeatsAvailable, rec.SeatsCapacity, rec.Credits, now); err != nil {
			return fmt.Errorf("upserting course %s: %w", rec.Key(), err)
		}
	}

	for _, crn := range cs.Removes {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM courses WHERE term = ? AND crn = ?", cs.Term, crn); err != nil {
			return fmt.Errorf("removing course %s-%s: %w", cs.Term, crn, err)
		}
	}

	for _, entry := range cs.Entries {
		beforeJSON, err := recordJSON(entry.Before)
		if err != nil {
			return fmt.Errorf("marshalling before state: %w", err)
		}
		afterJSON, err := recordJSON(entry.After)
		if err != nil {
			return fmt.Errorf("marshalling after state: %w", err)
		}
		fieldsJSON, err := json.Marshal(entry.ChangedFields)
		if err != nil {
			return fmt.Errorf("marshalling changed fields: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO audit_log (id, term, crn, kind, before, after, changed_fields, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, entry.ID, entry.Term, entry.CRN, string(entry.Kind),
			beforeJSON, afterJSON, string(fieldsJSON), entry.CreatedAt.UTC()); err != nil {
			return fmt.Errorf("inserting audit entry %s: %w", entry.ID, err)
		}
	}

	return nil
}

// recordJSON marshals an optional record, mapping nil to SQL NULL.
func recordJSON(rec *domain.CourseRecord) (sql.NullString, error) {
	if rec == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
