package scheduler

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vibast-solutions/ms-go-dispatcher/app/entity"
	"github.com/vibast-solutions/ms-go-dispatcher/app/lock"
)

type fakeRunner struct {
	mu        sync.Mutex
	calls     map[entity.JobType]int
	deadlines []time.Time
	// block makes runs of that job type wait on release.
	block   entity.JobType
	release chan struct{}
	started chan struct{}
	err     error
}

func (r *fakeRunner) RunBulk(ctx context.Context, jobType entity.JobType) (entity.BatchResult, error) {
	r.mu.Lock()
	if r.calls == nil {
		r.calls = map[entity.JobType]int{}
	}
	r.calls[jobType]++
	deadline, _ := ctx.Deadline()
	r.deadlines = append(r.deadlines, deadline)
	r.mu.Unlock()

	if jobType == r.block {
		r.started <- struct{}{}
		<-r.release
	}
	return entity.BatchResult{RunID: "run", JobType: jobType, Sent: 1}, r.err
}

func (r *fakeRunner) count(jobType entity.JobType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[jobType]
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestNewRejectsInvalidSchedule(t *testing.T) {
	t.Parallel()

	_, err := New(Options{
		Runner:    &fakeRunner{},
		Locker:    lock.NewMemoryLocker(),
		Schedules: map[entity.JobType]string{entity.JobWelcome: "every now and then"},
		Logger:    quietLogger(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "welcome")

	_, err = New(Options{Runner: &fakeRunner{}, Locker: lock.NewMemoryLocker(), Logger: quietLogger()})
	assert.ErrorIs(t, err, ErrNoSchedule)
}

func TestNewRegistersEveryConfiguredJob(t *testing.T) {
	t.Parallel()

	s, err := New(Options{
		Runner: &fakeRunner{},
		Locker: lock.NewMemoryLocker(),
		Schedules: map[entity.JobType]string{
			entity.JobWelcome:         "@every 5m",
			entity.JobPendingReminder: "*/10 * * * *",
			entity.JobPromotion:       "@monthly",
		},
		Logger: quietLogger(),
	})
	require.NoError(t, err)
	assert.Len(t, s.entries, 3)
	_, ok := s.Next(entity.JobDeliveredNotice)
	assert.False(t, ok)
}

func TestRunNowAppliesBatchDeadline(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	s, err := New(Options{
		Runner:       runner,
		Locker:       lock.NewMemoryLocker(),
		Schedules:    map[entity.JobType]string{entity.JobWelcome: "@every 5m"},
		BatchTimeout: time.Minute,
		Logger:       quietLogger(),
	})
	require.NoError(t, err)

	before := time.Now()
	result, ran, err := s.RunNow(context.Background(), entity.JobWelcome)
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, 1, result.Sent)
	require.Len(t, runner.deadlines, 1)
	assert.WithinDuration(t, before.Add(time.Minute), runner.deadlines[0], 5*time.Second)
}

func TestRunNowSkipsWhileJobIsRunning(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{block: entity.JobWelcome, release: make(chan struct{}), started: make(chan struct{}, 1)}
	locker := lock.NewMemoryLocker()
	s, err := New(Options{
		Runner:    runner,
		Locker:    locker,
		Schedules: map[entity.JobType]string{entity.JobWelcome: "@every 5m", entity.JobPromotion: "@monthly"},
		Logger:    quietLogger(),
	})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, ran, err := s.RunNow(context.Background(), entity.JobWelcome)
		assert.NoError(t, err)
		assert.True(t, ran)
	}()
	<-runner.started

	_, ran, err := s.RunNow(context.Background(), entity.JobWelcome)
	require.NoError(t, err)
	assert.False(t, ran)

	_, ran, err = s.RunNow(context.Background(), entity.JobPromotion)
	require.NoError(t, err)
	assert.True(t, ran, "other job types are not blocked")

	runner.release <- struct{}{}
	<-done

	assert.Equal(t, 1, runner.count(entity.JobWelcome))
	require.NoError(t, locker.Acquire(context.Background(), LockKey(entity.JobWelcome), time.Second))
}

func TestRunNowReleasesGuardAfterFailure(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{err: errors.New("fetch eligible records: db down")}
	s, err := New(Options{
		Runner:    runner,
		Locker:    lock.NewMemoryLocker(),
		Schedules: map[entity.JobType]string{entity.JobWelcome: "@every 5m"},
		Logger:    quietLogger(),
	})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, ran, err := s.RunNow(context.Background(), entity.JobWelcome)
		assert.True(t, ran)
		assert.Error(t, err)
	}
	assert.Equal(t, 2, runner.count(entity.JobWelcome))
}

type countingRunner struct {
	calls atomic.Int32
}

func (r *countingRunner) RunBulk(_ context.Context, jobType entity.JobType) (entity.BatchResult, error) {
	r.calls.Add(1)
	return entity.BatchResult{JobType: jobType}, nil
}

func TestRunFiresScheduledJobs(t *testing.T) {
	t.Parallel()

	runner := &countingRunner{}
	s, err := New(Options{
		Runner:    runner,
		Locker:    lock.NewMemoryLocker(),
		Schedules: map[entity.JobType]string{entity.JobDeliveredNotice: "@every 1s"},
		Logger:    quietLogger(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	assert.Eventually(t, func() bool { return runner.calls.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}

type ttlLocker struct {
	*lock.MemoryLocker
	mu   sync.Mutex
	ttls []time.Duration
}

func (l *ttlLocker) Acquire(ctx context.Context, key string, ttl time.Duration) error {
	l.mu.Lock()
	l.ttls = append(l.ttls, ttl)
	l.mu.Unlock()
	return l.MemoryLocker.Acquire(ctx, key, ttl)
}

func TestRunNowGuardOutlivesLateFlagCommit(t *testing.T) {
	t.Parallel()

	locker := &ttlLocker{MemoryLocker: lock.NewMemoryLocker()}
	s, err := New(Options{
		Runner:       &fakeRunner{},
		Locker:       locker,
		Schedules:    map[entity.JobType]string{entity.JobWelcome: "@hourly"},
		BatchTimeout: time.Minute,
		SendTimeout:  90 * time.Second,
		Logger:       quietLogger(),
	})
	require.NoError(t, err)

	_, ran, err := s.RunNow(context.Background(), entity.JobWelcome)
	require.NoError(t, err)
	require.True(t, ran)

	require.Len(t, locker.ttls, 1)
	assert.Greater(t, locker.ttls[0], time.Minute+90*time.Second)
	assert.Equal(t, time.Minute+lockGrace, guardTTL(time.Minute, 0))
}
