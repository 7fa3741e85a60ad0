package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingJob struct {
	runs atomic.Int32
	err  error
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	return j.err
}

func TestScheduler_RunJobs(t *testing.T) {
	s := NewScheduler(zap.NewNop())
	ok := &countingJob{}
	failing := &countingJob{err: errors.New("boom")}
	s.AddJob(failing)
	s.AddJob(ok)

	s.RunJobs(context.Background())

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, int32(1), failing.runs.Load())
	assert.Equal(t, int32(1), ok.runs.Load(), "ошибка одной задачи не должна останавливать остальные")
}

func TestScheduler_StartStopsOnCancel(t *testing.T) {
	s := NewScheduler(zap.NewNop())
	job := &countingJob{}
	s.AddJob(job)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx, time.Hour)
		close(done)
	}()

	require.Eventually(t, func() bool { return job.runs.Load() == 1 }, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("планировщик не остановился после отмены контекста")
	}
}

type fakePurger struct {
	before  time.Time
	count   int64
	deleted bool
	err     error
}

func (f *fakePurger) CountOlderThan(ctx context.Context, before time.Time) (int64, error) {
	f.before = before
	return f.count, f.err
}

func (f *fakePurger) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	f.before = before
	f.deleted = true
	return f.count, f.err
}

func TestUsageRetentionJob(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	t.Run("удаляет записи старше срока хранения", func(t *testing.T) {
		repo := &fakePurger{count: 3}
		job := NewUsageRetentionJob(repo, 24*time.Hour, zap.NewNop())
		job.now = func() time.Time { return now }

		require.NoError(t, job.Run(context.Background()))
		assert.True(t, repo.deleted)
		assert.Equal(t, now.Add(-24*time.Hour), repo.before)
	})

	t.Run("dry run только считает", func(t *testing.T) {
		repo := &fakePurger{count: 3}
		job := NewUsageRetentionJob(repo, time.Hour, zap.NewNop()).WithDryRun(true)
		job.now = func() time.Time { return now }

		require.NoError(t, job.Run(context.Background()))
		assert.False(t, repo.deleted)
		assert.Equal(t, now.Add(-time.Hour), repo.before)
	})

	t.Run("нулевой срок отключает очистку", func(t *testing.T) {
		repo := &fakePurger{}
		job := NewUsageRetentionJob(repo, 0, zap.NewNop())

		require.NoError(t, job.Run(context.Background()))
		assert.False(t, repo.deleted)
		assert.True(t, repo.before.IsZero())
	})

	t.Run("ошибка репозитория", func(t *testing.T) {
		repo := &fakePurger{err: errors.New("db down")}
		job := NewUsageRetentionJob(repo, time.Hour, zap.NewNop())

		err := job.Run(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db down")
	})
}
