package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursewatch/coursewatch/internal/core/domain"
)

const testTerm = "202610"

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testCourse(crn, title string, seats int) domain.CourseRecord {
	return domain.CourseRecord{
		Term: testTerm, CRN: crn,
		Subject: "CS", CourseNumber: "101", Section: "A",
		Title: title, Instructor: "Rivera",
		MeetingTimes:   "MWF 09:00-09:50",
		SeatsAvailable: seats, SeatsCapacity: 40, Credits: 3,
	}
}

func insertEntry(rec domain.CourseRecord) domain.AuditLogEntry {
	return domain.AuditLogEntry{
		ID:        uuid.NewString(),
		Term:      rec.Term,
		CRN:       rec.CRN,
		Kind:      domain.ChangeInsert,
		After:     &rec,
		CreatedAt: time.Now().UTC(),
	}
}

func TestStoreCreatesSchema(t *testing.T) {
	store := newTestStore(t)
	assert.NotEmpty(t, store.Path())

	// Reopening the same directory re-runs migrations as a no-op.
	again, err := NewStore(store.Path()[:len(store.Path())-len("/catalog.db")])
	require.NoError(t, err)
	require.NoError(t, again.Close())
}

func TestApplyAndListRoundTrip(t *testing.T) {
	store := newTestStore(t)
	courses := store.CourseStore()
	ctx := context.Background()

	a := testCourse("30412", "Intro", 12)
	b := testCourse("30519", "Data Structures", 5)
	err := courses.Apply(ctx, domain.ChangeSet{
		Term:    testTerm,
		Inserts: []domain.CourseRecord{b, a},
		Entries: []domain.AuditLogEntry{insertEntry(b), insertEntry(a)},
	})
	require.NoError(t, err)

	got, err := courses.ListByTerm(ctx, testTerm)
	require.NoError(t, err)
	assert.Equal(t, []domain.CourseRecord{a, b}, got, "listing orders by CRN")

	// Other terms stay empty.
	other, err := courses.ListByTerm(ctx, "209910")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestApplyUpdatesAndRemoves(t *testing.T) {
	store := newTestStore(t)
	courses := store.CourseStore()
	ctx := context.Background()

	a := testCourse("30412", "Intro", 12)
	b := testCourse("30519", "Data Structures", 5)
	require.NoError(t, courses.Apply(ctx, domain.ChangeSet{
		Term:    testTerm,
		Inserts: []domain.CourseRecord{a, b},
		Entries: []domain.AuditLogEntry{insertEntry(a), insertEntry(b)},
	}))

	updated := testCourse("30412", "Intro to Computing", 9)
	require.NoError(t, courses.Apply(ctx, domain.ChangeSet{
		Term:    testTerm,
		Updates: []domain.CourseRecord{updated},
		Removes: []string{"30519"},
		Entries: []domain.AuditLogEntry{{
			ID: uuid.NewString(), Term: testTerm, CRN: "30412",
			Kind: domain.ChangeUpdate, Before: &a, After: &updated,
			ChangedFields: []string{"title", "seats_available"},
			CreatedAt:     time.Now().UTC(),
		}, {
			ID: uuid.NewString(), Term: testTerm, CRN: "30519",
			Kind: domain.ChangeRemove, Before: &b,
			CreatedAt: time.Now().UTC(),
		}},
	}))

	got, err := courses.ListByTerm(ctx, testTerm)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, updated, got[0])
}

func TestAuditTrailSurvivesRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a := testCourse("30412", "Intro", 12)
	entry := insertEntry(a)
	require.NoError(t, store.CourseStore().Apply(ctx, domain.ChangeSet{
		Term:    testTerm,
		Inserts: []domain.CourseRecord{a},
		Entries: []domain.AuditLogEntry{entry},
	}))

	entries, err := store.AuditStore().ListByTerm(ctx, testTerm, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got := entries[0]
	assert.Equal(t, entry.ID, got.ID)
	assert.Equal(t, domain.ChangeInsert, got.Kind)
	assert.Nil(t, got.Before)
	require.NotNil(t, got.After)
	assert.Equal(t, a, *got.After)
	assert.Empty(t, got.ChangedFields)
}

func TestAuditListHonoursLimitAndOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	var entries []domain.AuditLogEntry
	for i := 0; i < 3; i++ {
		rec := testCourse("3041"+string(rune('0'+i)), "Course", i)
		e := insertEntry(rec)
		e.CreatedAt = base.Add(time.Duration(i) * time.Second)
		entries = append(entries, e)
	}
	require.NoError(t, store.CourseStore().Apply(ctx, domain.ChangeSet{
		Term:    testTerm,
		Inserts: []domain.CourseRecord{testCourse("30410", "Course", 0)},
		Entries: entries,
	}))

	got, err := store.AuditStore().ListByTerm(ctx, testTerm, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, entries[2].ID, got[0].ID, "newest first")
	assert.Equal(t, entries[1].ID, got[1].ID)
}

func TestJobStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	jobs := store.JobStore()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	job := &domain.ScrapeJob{
		ID:        uuid.NewString(),
		Query:     domain.SearchQuery{Term: testTerm, Subject: "CS", PageMaxSize: 50},
		State:     domain.JobQueued,
		CreatedAt: now,
	}
	require.NoError(t, jobs.Save(ctx, job))

	// Terminal update overwrites the same row.
	job.State = domain.JobCompleted
	job.Counts = domain.UpsertCounts{Inserted: 3, Unchanged: 7}
	job.StartedAt = now.Add(time.Second)
	job.EndedAt = now.Add(2 * time.Second)
	require.NoError(t, jobs.Save(ctx, job))

	got, err := jobs.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobCompleted, got.State)
	assert.Equal(t, job.Query, got.Query)
	assert.Equal(t, job.Counts, got.Counts)
	assert.Equal(t, job.StartedAt, got.StartedAt.UTC())
	assert.Equal(t, job.EndedAt, got.EndedAt.UTC())
}

func TestJobStoreGetUnknown(t *testing.T) {
	store := newTestStore(t)
	_, err := store.JobStore().Get(context.Background(), "nope")
	require.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestJobStoreListRecent(t *testing.T) {
	store := newTestStore(t)
	jobs := store.JobStore()
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	ids := make([]string, 3)
	for i := 0; i < 3; i++ {
		ids[i] = uuid.NewString()
		require.NoError(t, jobs.Save(ctx, &domain.ScrapeJob{
			ID:        ids[i],
			Query:     domain.SearchQuery{Term: testTerm},
			State:     domain.JobCompleted,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	got, err := jobs.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, ids[2], got[0].ID, "newest first")
	assert.Equal(t, ids[1], got[1].ID)
}

func TestApplyRejectsDuplicateAuditIDs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a := testCourse("30412", "Intro", 12)
	entry := insertEntry(a)
	cs := domain.ChangeSet{
		Term:    testTerm,
		Inserts: []domain.CourseRecord{a},
		Entries: []domain.AuditLogEntry{entry, entry},
	}

	err := store.CourseStore().Apply(ctx, cs)
	require.Error(t, err)

	// The failed transaction left nothing behind.
	got, listErr := store.CourseStore().ListByTerm(ctx, testTerm)
	require.NoError(t, listErr)
	assert.Empty(t, got, "a failed change set commits nothing")
}
