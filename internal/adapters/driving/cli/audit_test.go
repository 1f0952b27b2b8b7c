package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursewatch/coursewatch/internal/core/domain"
)

func TestAuditCommandPrintsEntries(t *testing.T) {
	after := domain.CourseRecord{Term: "202610", CRN: "30412", Title: "Intro"}
	before := domain.CourseRecord{Term: "202610", CRN: "30519", Title: "Data Structures"}
	store := &fakeAuditStore{entries: []domain.AuditLogEntry{
		{
			ID: "e1", Term: "202610", CRN: "30412",
			Kind: domain.ChangeInsert, After: &after,
			CreatedAt: time.Now(),
		},
		{
			ID: "e2", Term: "202610", CRN: "30412",
			Kind:          domain.ChangeUpdate,
			ChangedFields: []string{"seats_available"},
			CreatedAt:     time.Now(),
		},
		{
			ID: "e3", Term: "202610", CRN: "30519",
			Kind: domain.ChangeRemove, Before: &before,
			CreatedAt: time.Now(),
		},
	}}
	inject(t, &fakeOrchestrator{}, store)

	out, err := execute(t, "audit", "202610")
	require.NoError(t, err)
	assert.Contains(t, out, "+ 202610-30412  Intro")
	assert.Contains(t, out, "changed: seats_available")
	assert.Contains(t, out, "- 202610-30519  Data Structures")
}

func TestAuditCommandEmptyTerm(t *testing.T) {
	inject(t, &fakeOrchestrator{}, &fakeAuditStore{})

	out, err := execute(t, "audit", "209910")
	require.NoError(t, err)
	assert.Contains(t, out, "No recorded changes")
}
