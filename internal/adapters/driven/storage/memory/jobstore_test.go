package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursewatch/coursewatch/internal/core/domain"
)

func TestJobStoreSaveAndGet(t *testing.T) {
	store := NewJobStore()
	ctx := context.Background()

	job := &domain.ScrapeJob{ID: "job-1", State: domain.JobQueued}
	require.NoError(t, store.Save(ctx, job))

	job.State = domain.JobRunning
	require.NoError(t, store.Save(ctx, job))

	got, err := store.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobRunning, got.State)

	// The store holds a copy, not the caller's pointer.
	job.State = domain.JobFailed
	got, err = store.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobRunning, got.State)
}

func TestJobStoreGetUnknown(t *testing.T) {
	store := NewJobStore()
	_, err := store.Get(context.Background(), "nope")
	require.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestJobStoreRejectsEmptyID(t *testing.T) {
	store := NewJobStore()
	err := store.Save(context.Background(), &domain.ScrapeJob{})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestJobStoreListRecent(t *testing.T) {
	store := NewJobStore()
	ctx := context.Background()

	for _, id := range []string{"job-1", "job-2", "job-3"} {
		require.NoError(t, store.Save(ctx, &domain.ScrapeJob{ID: id, State: domain.JobCompleted}))
	}

	got, err := store.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "job-3", got[0].ID, "newest first")
	assert.Equal(t, "job-2", got[1].ID)

	all, err := store.ListRecent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
