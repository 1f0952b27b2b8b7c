package domain

import (
	"fmt"
	"strings"
)

// CourseRecord is one catalog entry as scraped from the registrar.
// Identity is the natural key (term + CRN); every other field may change
// between scrapes.
type CourseRecord struct {
	// Term is the academic term code (e.g. "202610").
	Term string

	// CRN is the course reference number, unique within a term.
	CRN string

	// Subject is the subject code (e.g. "CS").
	Subject string

	// CourseNumber is the catalog number (e.g. "101").
	CourseNumber string

	// Section is the section identifier (e.g. "A").
	Section string

	// Title is the course title.
	Title string

	// Instructor is the primary instructor's display name.
	Instructor string

	// MeetingTimes is the upstream's meeting-time summary string.
	MeetingTimes string

	// SeatsAvailable is the number of open seats.
	SeatsAvailable int

	// SeatsCapacity is the section's seat capacity.
	SeatsCapacity int

	// Credits is the credit-hour value.
	Credits float64
}

// Key returns the natural key identifying this record across scrapes.
func (c CourseRecord) Key() string {
	return c.Term + "-" + c.CRN
}

// Equal reports whether two records carry identical attributes.
// Key fields are included so records from different scopes never compare equal.
func (c CourseRecord) Equal(other CourseRecord) bool {
	return c == other
}

// ChangedFields returns the names of attributes that differ between c (the
// previously persisted record) and next (the freshly scraped one). Used to
// build update audit entries.
func (c CourseRecord) ChangedFields(next CourseRecord) []string {
	var changed []string
	if c.Subject != next.Subject {
		changed = append(changed, "subject")
	}
	if c.CourseNumber != next.CourseNumber {
		changed = append(changed, "course_number")
	}
	if c.Section != next.Section {
		changed = append(changed, "section")
	}
	if c.Title != next.Title {
		changed = append(changed, "title")
	}
	if c.Instructor != next.Instructor {
		changed = append(changed, "instructor")
	}
	if c.MeetingTimes != next.MeetingTimes {
		changed = append(changed, "meeting_times")
	}
	if c.SeatsAvailable != next.SeatsAvailable {
		changed = append(changed, "seats_available")
	}
	if c.SeatsCapacity != next.SeatsCapacity {
		changed = append(changed, "seats_capacity")
	}
	if c.Credits != next.Credits {
		changed = append(changed, "credits")
	}
	return changed
}

// Validate checks that the record carries a usable natural key.
func (c CourseRecord) Validate() error {
	if strings.TrimSpace(c.Term) == "" {
		return fmt.Errorf("%w: missing term", ErrInvalidInput)
	}
	if strings.TrimSpace(c.CRN) == "" {
		return fmt.Errorf("%w: missing CRN", ErrInvalidInput)
	}
	return nil
}
