package storage

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cuongbtq/job-status-service/internal/api/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestStore(t *testing.T, defaultTimeout time.Duration) (*MemoryStore, *fakeClock) {
	t.Helper()

	policy, err := NewPolicy(defaultTimeout)
	require.NoError(t, err)

	clock := newFakeClock()
	store, err := NewStorage(&Config{
		Policy: policy,
		Now:    clock.Now,
	})
	require.NoError(t, err)

	return store, clock
}

func TestNewStorage(t *testing.T) {
	t.Run("requires a policy", func(t *testing.T) {
		store, err := NewStorage(&Config{})
		require.Error(t, err)
		assert.Nil(t, store)
	})

	t.Run("nil config", func(t *testing.T) {
		store, err := NewStorage(nil)
		require.Error(t, err)
		assert.Nil(t, store)
	})
}

func TestMemoryStore_CreateJob(t *testing.T) {
	store, clock := newTestStore(t, time.Second)

	job := store.CreateJob()

	assert.NotEmpty(t, job.ID)
	assert.Equal(t, domain.StatusPending, job.Status)
	assert.Equal(t, clock.Now(), job.CreatedAt)
	assert.Equal(t, time.Second, job.Timeout)
	assert.Equal(t, 1, store.CountJobs())

	stored, err := store.GetJobByID(job.ID)
	require.NoError(t, err)
	assert.Equal(t, job, stored)
}

func TestMemoryStore_CreateJob_RetriesOnIDCollision(t *testing.T) {
	policy, err := NewPolicy(time.Second)
	require.NoError(t, err)

	ids := []string{"dup", "dup", "fresh"}
	next := 0
	store, err := NewStorage(&Config{
		Policy: policy,
		NewID: func() string {
			id := ids[next]
			next++
			return id
		},
	})
	require.NoError(t, err)

	first := store.CreateJob()
	second := store.CreateJob()

	assert.Equal(t, "dup", first.ID)
	assert.Equal(t, "fresh", second.ID)
	assert.Equal(t, 2, store.CountJobs())
}

func TestMemoryStore_ConcurrentCreateYieldsDistinctIDs(t *testing.T) {
	store, _ := newTestStore(t, time.Second)

	const n = 500
	ids := make([]string, n)

	var g errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			ids[i] = store.CreateJob().ID
			return nil
		})
	}
	require.NoError(t, g.Wait())

	seen := make(map[string]struct{}, n)
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, n)
	assert.Equal(t, n, store.CountJobs())
}

func TestMemoryStore_UnknownJob(t *testing.T) {
	store, _ := newTestStore(t, time.Second)

	_, err := store.GetJobByID("nonexistent")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, _, err = store.ResolveJob("nonexistent")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = store.UpdateJobTimeout("nonexistent", 1000*time.Millisecond)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = store.UpdateJobTimeout("nonexistent", 0)
	assert.ErrorIs(t, err, domain.ErrNotFound, "existence is checked before the timeout value")
}

func TestMemoryStore_ResolveJob_Lifecycle(t *testing.T) {
	store, clock := newTestStore(t, 1000*time.Millisecond)
	job := store.CreateJob()

	resolved, transition, err := store.ResolveJob(job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, resolved.Status)
	assert.Nil(t, transition)

	clock.Advance(1500 * time.Millisecond)

	resolved, transition, err = store.ResolveJob(job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, resolved.Status)
	require.NotNil(t, transition)
	assert.Equal(t, job.ID, transition.JobID)
	assert.Equal(t, domain.StatusPending, transition.From)
	assert.Equal(t, domain.StatusCompleted, transition.To)
	assert.Equal(t, 1500*time.Millisecond, transition.Elapsed)
	assert.Equal(t, clock.Now(), transition.OccurredAt)

	clock.Advance(3000 * time.Millisecond)

	resolved, transition, err = store.ResolveJob(job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, resolved.Status, "terminal status must not move to error")
	assert.Nil(t, transition)
}

func TestMemoryStore_ResolveJob_ErrorWhenFirstQueriedLate(t *testing.T) {
	store, clock := newTestStore(t, time.Second)
	job := store.CreateJob()

	clock.Advance(2*time.Second + time.Millisecond)

	resolved, transition, err := store.ResolveJob(job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, resolved.Status)
	require.NotNil(t, transition)
	assert.Equal(t, domain.StatusError, transition.To)

	clock.Advance(time.Hour)

	resolved, _, err = store.ResolveJob(job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, resolved.Status)
}

func TestMemoryStore_GetJobByID_DoesNotResolve(t *testing.T) {
	store, clock := newTestStore(t, time.Second)
	job := store.CreateJob()

	clock.Advance(5 * time.Second)

	stored, err := store.GetJobByID(job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, stored.Status)
}

func TestMemoryStore_ConcurrentResolveTransitionsOnce(t *testing.T) {
	store, clock := newTestStore(t, time.Second)
	job := store.CreateJob()
	clock.Advance(1500 * time.Millisecond)

	const n = 100
	var (
		mu          sync.Mutex
		transitions int
		g           errgroup.Group
	)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			resolved, transition, err := store.ResolveJob(job.ID)
			if err != nil {
				return err
			}
			if resolved.Status != domain.StatusCompleted {
				return fmt.Errorf("unexpected status %s", resolved.Status)
			}
			if transition != nil {
				mu.Lock()
				transitions++
				mu.Unlock()
			}
			return nil
		})
	}

	require.NoError(t, g.Wait())
	assert.Equal(t, 1, transitions)
}

func TestMemoryStore_UpdateJobTimeout(t *testing.T) {
	t.Run("rejects non-positive timeouts", func(t *testing.T) {
		store, _ := newTestStore(t, time.Second)
		job := store.CreateJob()

		for _, timeout := range []time.Duration{0, -5 * time.Millisecond} {
			_, err := store.UpdateJobTimeout(job.ID, timeout)
			assert.ErrorIs(t, err, domain.ErrInvalidArgument)
		}

		stored, err := store.GetJobByID(job.ID)
		require.NoError(t, err)
		assert.Equal(t, time.Second, stored.Timeout)
	})

	t.Run("applies to the next resolution", func(t *testing.T) {
		store, clock := newTestStore(t, time.Second)
		job := store.CreateJob()

		updated, err := store.UpdateJobTimeout(job.ID, 10*time.Second)
		require.NoError(t, err)
		assert.Equal(t, 10*time.Second, updated.Timeout)

		clock.Advance(5 * time.Second)

		resolved, _, err := store.ResolveJob(job.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusPending, resolved.Status)
	})

	t.Run("is ignored once the job is terminal", func(t *testing.T) {
		store, clock := newTestStore(t, time.Second)
		job := store.CreateJob()

		clock.Advance(1500 * time.Millisecond)
		_, _, err := store.ResolveJob(job.ID)
		require.NoError(t, err)

		updated, err := store.UpdateJobTimeout(job.ID, time.Hour)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCompleted, updated.Status)
		assert.Equal(t, time.Second, updated.Timeout)

		resolved, _, err := store.ResolveJob(job.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCompleted, resolved.Status)
	})
}

func TestMemoryStore_DefaultTimeoutIsolation(t *testing.T) {
	store, _ := newTestStore(t, 1000*time.Millisecond)

	jobA := store.CreateJob()

	require.NoError(t, store.SetDefaultTimeout(5000*time.Millisecond))
	assert.Equal(t, 5000*time.Millisecond, store.DefaultTimeout())

	jobB := store.CreateJob()

	storedA, err := store.GetJobByID(jobA.ID)
	require.NoError(t, err)
	storedB, err := store.GetJobByID(jobB.ID)
	require.NoError(t, err)

	assert.Equal(t, 1000*time.Millisecond, storedA.Timeout)
	assert.Equal(t, 5000*time.Millisecond, storedB.Timeout)
}

func TestMemoryStore_SetDefaultTimeout_Rejects(t *testing.T) {
	store, _ := newTestStore(t, 1000*time.Millisecond)

	for _, timeout := range []time.Duration{0, -5 * time.Millisecond} {
		err := store.SetDefaultTimeout(timeout)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	}

	assert.Equal(t, 1000*time.Millisecond, store.DefaultTimeout())
}
