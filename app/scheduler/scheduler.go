// Package scheduler fires a bulk sweep for every job type on its own
// recurrence. A sweep runs only while it holds the job's lock, so a slow run
// is never joined by a second run of the same job type.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-dispatcher/app/entity"
	"github.com/vibast-solutions/ms-go-dispatcher/app/lock"
)

const (
	defaultBatchTimeout = 4 * time.Minute
	// lockGrace pads the guard beyond the batch deadline and the last
	// record's flag commit, which may run for up to SendTimeout after it.
	lockGrace = 30 * time.Second
)

var ErrNoSchedule = errors.New("no schedule configured")

type Runner interface {
	RunBulk(ctx context.Context, jobType entity.JobType) (entity.BatchResult, error)
}

type Options struct {
	Runner Runner
	Locker lock.Locker
	// Schedules maps each job type to a cron expression or descriptor.
	Schedules    map[entity.JobType]string
	BatchTimeout time.Duration
	// SendTimeout is the runner's per-record bound; the guard outlives the
	// batch deadline by at least this much.
	SendTimeout time.Duration
	Logger      logrus.FieldLogger
}

type Scheduler struct {
	cron         *cron.Cron
	runner       Runner
	locker       lock.Locker
	batchTimeout time.Duration
	lockTTL      time.Duration
	logger       logrus.FieldLogger
	entries      map[entity.JobType]cron.EntryID
	baseCtx      context.Context
}

// New validates every schedule and registers one cron entry per job type.
func New(opts Options) (*Scheduler, error) {
	if opts.Runner == nil || opts.Locker == nil {
		return nil, fmt.Errorf("scheduler needs a runner and a locker")
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.BatchTimeout <= 0 {
		opts.BatchTimeout = defaultBatchTimeout
	}

	adapter := cronLogger{log: opts.Logger.WithField("component", "scheduler")}
	s := &Scheduler{
		cron:         cron.New(cron.WithLogger(adapter), cron.WithChain(cron.Recover(adapter))),
		runner:       opts.Runner,
		locker:       opts.Locker,
		batchTimeout: opts.BatchTimeout,
		lockTTL:      guardTTL(opts.BatchTimeout, opts.SendTimeout),
		logger:       opts.Logger,
		entries:      make(map[entity.JobType]cron.EntryID, len(opts.Schedules)),
		baseCtx:      context.Background(),
	}

	for _, jobType := range entity.JobTypes {
		expr, ok := opts.Schedules[jobType]
		if !ok || expr == "" {
			continue
		}
		id, err := s.cron.AddFunc(expr, func() { s.fire(jobType) })
		if err != nil {
			return nil, fmt.Errorf("schedule %s %q: %w", jobType, expr, err)
		}
		s.entries[jobType] = id
	}
	if len(s.entries) == 0 {
		return nil, ErrNoSchedule
	}

	return s, nil
}

// Run starts the cron loop and blocks until ctx is cancelled, then waits for
// in-flight sweeps to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.baseCtx = ctx
	s.cron.Start()
	for jobType := range s.entries {
		next, _ := s.Next(jobType)
		s.logger.WithFields(logrus.Fields{
			"job_type": jobType,
			"next_run": next.Format(time.RFC3339),
		}).Info("job scheduled")
	}

	<-ctx.Done()
	stopped := s.cron.Stop()
	<-stopped.Done()
	s.logger.Info("scheduler stopped")
	return nil
}

// Next reports the next planned run of jobType.
func (s *Scheduler) Next(jobType entity.JobType) (time.Time, bool) {
	id, ok := s.entries[jobType]
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(id).Next, true
}

// RunNow sweeps jobType immediately under the same guard and deadline as a
// scheduled run. ran is false when another run of jobType holds the guard.
func (s *Scheduler) RunNow(ctx context.Context, jobType entity.JobType) (result entity.BatchResult, ran bool, err error) {
	ran, err = lock.RunExclusive(ctx, s.locker, LockKey(jobType), s.lockTTL, func(ctx context.Context) error {
		batchCtx, cancel := context.WithTimeout(ctx, s.batchTimeout)
		defer cancel()

		var runErr error
		result, runErr = s.runner.RunBulk(batchCtx, jobType)
		return runErr
	})
	return result, ran, err
}

// guardTTL keeps the guard held until the post-deadline flag commit is done.
func guardTTL(batchTimeout, sendTimeout time.Duration) time.Duration {
	if sendTimeout < 0 {
		sendTimeout = 0
	}
	return batchTimeout + sendTimeout + lockGrace
}

// LockKey names the single-flight guard of a job type.
func LockKey(jobType entity.JobType) string {
	return "job:" + string(jobType)
}

func (s *Scheduler) fire(jobType entity.JobType) {
	log := s.logger.WithField("job_type", jobType)

	result, ran, err := s.RunNow(s.baseCtx, jobType)
	switch {
	case err != nil:
		log.WithError(err).Error("scheduled run failed")
	case !ran:
		log.Info("previous run still in progress, skipping tick")
	default:
		log.WithFields(logrus.Fields{
			"run_id":    result.RunID,
			"sent":      result.Sent,
			"failed":    result.Failed,
			"truncated": result.Truncated,
		}).Debug("scheduled run completed")
	}
}

// cronLogger routes cron's key/value logging to logrus.
type cronLogger struct {
	log logrus.FieldLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.WithFields(fields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.WithFields(fields(keysAndValues)).WithError(err).Error(msg)
}

func fields(keysAndValues []any) logrus.Fields {
	out := make(logrus.Fields, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		out[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return out
}
