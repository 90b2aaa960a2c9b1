package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-dispatcher/app/entity"
	"github.com/vibast-solutions/ms-go-dispatcher/app/preparer"
	"github.com/vibast-solutions/ms-go-dispatcher/app/provider"
	"golang.org/x/sync/errgroup"
)

const defaultSendTimeout = 30 * time.Second

type DispatcherOptions struct {
	Renderer Renderer
	Preparer preparer.EmailPreparer
	Provider provider.EmailProvider
	// Failures is optional; when set every failed record is appended to it.
	Failures FailureLog
	Logger   logrus.FieldLogger
	// SendTimeout bounds render, prepare, send and the flag commit of one record.
	SendTimeout time.Duration
	// Workers above one processes records of a batch concurrently.
	Workers int
}

// Dispatcher runs the fetch, render, send, mark loop for registered jobs.
type Dispatcher struct {
	jobs        map[entity.JobType]Job
	renderer    Renderer
	preparer    preparer.EmailPreparer
	provider    provider.EmailProvider
	failures    FailureLog
	logger      logrus.FieldLogger
	sendTimeout time.Duration
	workers     int
	now         func() time.Time
}

// NewDispatcher builds a dispatcher for the given jobs.
func NewDispatcher(opts DispatcherOptions, jobs ...Job) *Dispatcher {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = defaultSendTimeout
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}

	registry := make(map[entity.JobType]Job, len(jobs))
	for _, job := range jobs {
		registry[job.Type()] = job
	}

	return &Dispatcher{
		jobs:        registry,
		renderer:    opts.Renderer,
		preparer:    opts.Preparer,
		provider:    opts.Provider,
		failures:    opts.Failures,
		logger:      opts.Logger,
		sendTimeout: opts.SendTimeout,
		workers:     opts.Workers,
		now:         time.Now,
	}
}

// RunBulk sweeps every eligible record of jobType. Per-record failures are
// reported in the result; only an unknown job or a failed eligibility query
// returns an error. When ctx expires mid-batch the remaining records are left
// for the next sweep and the result is marked truncated.
func (d *Dispatcher) RunBulk(ctx context.Context, jobType entity.JobType) (entity.BatchResult, error) {
	job, ok := d.jobs[jobType]
	if !ok {
		return entity.BatchResult{}, fmt.Errorf("%w: %s", ErrUnknownJob, jobType)
	}

	runID := uuid.NewString()
	ctx = WithRunID(ctx, runID)
	log := d.logger.WithFields(logrus.Fields{"run_id": runID, "job_type": jobType})

	result := entity.BatchResult{RunID: runID, JobType: jobType, StartedAt: d.now()}

	targets, err := job.Eligible(ctx)
	if err != nil {
		result.FinishedAt = d.now()
		log.WithError(err).Error("eligibility query failed, aborting run")
		return result, fmt.Errorf("%w for %s: %w", ErrFetch, jobType, err)
	}
	targets = uniqueTargets(targets)

	if d.workers > 1 {
		d.dispatchConcurrently(ctx, job, targets, &result, log)
	} else {
		for _, target := range targets {
			if ctx.Err() != nil {
				result.Truncated = true
				break
			}
			result.Add(d.dispatch(ctx, job, target, log))
		}
	}

	result.FinishedAt = d.now()
	entry := log.WithFields(logrus.Fields{
		"eligible":   len(targets),
		"attempted":  result.Attempted,
		"sent":       result.Sent,
		"skipped":    result.Skipped,
		"failed":     result.Failed,
		"duplicates": result.Duplicates,
		"by_kind":    result.FailuresByKind(),
		"duration":   result.FinishedAt.Sub(result.StartedAt).String(),
	})
	if result.Truncated {
		entry.Warn("batch deadline reached before all records were attempted")
	} else {
		entry.Info("batch finished")
	}

	return result, nil
}

// RunOne dispatches a single record after re-checking its eligibility. An
// ineligible record yields a skipped outcome with no side effects.
func (d *Dispatcher) RunOne(ctx context.Context, jobType entity.JobType, recordID int64) (entity.RecordOutcome, error) {
	job, ok := d.jobs[jobType]
	if !ok {
		return entity.RecordOutcome{}, fmt.Errorf("%w: %s", ErrUnknownJob, jobType)
	}

	runID := uuid.NewString()
	ctx = WithRunID(ctx, runID)
	log := d.logger.WithFields(logrus.Fields{"run_id": runID, "job_type": jobType, "record_id": recordID})

	target, reason, err := job.Lookup(ctx, recordID)
	if err != nil {
		log.WithError(err).Error("eligibility lookup failed")
		return entity.RecordOutcome{}, fmt.Errorf("%w for %s record %d: %w", ErrFetch, jobType, recordID, err)
	}
	if reason != entity.SkipNone {
		log.WithField("reason", reason).Info("record not eligible, skipping")
		return entity.RecordOutcome{
			JobType:    jobType,
			RecordID:   recordID,
			Status:     entity.OutcomeSkipped,
			SkipReason: reason,
		}, nil
	}

	return d.dispatch(ctx, job, target, log), nil
}

func (d *Dispatcher) dispatchConcurrently(ctx context.Context, job Job, targets []Target, result *entity.BatchResult, log logrus.FieldLogger) {
	outcomes := make([]*entity.RecordOutcome, len(targets))

	var truncated atomic.Bool
	var g errgroup.Group
	g.SetLimit(d.workers)
	for i, target := range targets {
		if ctx.Err() != nil {
			truncated.Store(true)
			break
		}
		g.Go(func() error {
			// A slot freed after the deadline must not start a new record.
			if ctx.Err() != nil {
				truncated.Store(true)
				return nil
			}
			outcome := d.dispatch(ctx, job, target, log)
			outcomes[i] = &outcome
			return nil
		})
	}
	_ = g.Wait()
	if truncated.Load() {
		result.Truncated = true
	}

	for _, outcome := range outcomes {
		if outcome != nil {
			result.Add(*outcome)
		}
	}
}

// dispatch runs render, prepare, send and the conditional flag update for one
// record. It never returns an error: failures are folded into the outcome.
func (d *Dispatcher) dispatch(ctx context.Context, job Job, target Target, log logrus.FieldLogger) entity.RecordOutcome {
	outcome := entity.RecordOutcome{
		JobType:   job.Type(),
		RecordID:  target.RecordID,
		Recipient: target.Recipient,
	}
	log = log.WithField("record_id", target.RecordID)

	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	content, err := d.renderer.Render(sendCtx, target.TemplateID, target.Payload)
	if err != nil {
		return d.fail(ctx, outcome, renderKind(err), fmt.Errorf("render %s: %w", target.TemplateID, err), log)
	}

	raw, err := d.preparer.Prepare(sendCtx, target.Recipient, content.Subject, content.HTML)
	if err != nil {
		return d.fail(ctx, outcome, renderKind(err), fmt.Errorf("prepare message: %w", err), log)
	}

	if err := d.provider.SendRaw(sendCtx, target.Recipient, raw); err != nil {
		return d.fail(ctx, outcome, provider.Classify(err), err, log)
	}

	// The email is out; commit the flag even if the batch deadline just passed.
	commitCtx, commitCancel := context.WithTimeout(context.WithoutCancel(ctx), d.sendTimeout)
	defer commitCancel()

	won, err := job.MarkSent(commitCtx, target.RecordID)
	if err != nil {
		return d.fail(ctx, outcome, entity.ErrorKindStore, fmt.Errorf("mark sent: %w", err), log)
	}

	outcome.Status = entity.OutcomeSent
	outcome.Duplicate = !won
	if outcome.Duplicate {
		log.Warn("delivered, but a concurrent run had already marked the record sent")
	} else {
		log.Debug("delivered and marked sent")
	}
	return outcome
}

func (d *Dispatcher) fail(ctx context.Context, outcome entity.RecordOutcome, kind entity.ErrorKind, err error, log logrus.FieldLogger) entity.RecordOutcome {
	outcome.Status = entity.OutcomeFailed
	outcome.ErrorKind = kind
	outcome.Err = err

	entry := log.WithFields(logrus.Fields{"error_kind": kind, "recipient": outcome.Recipient}).WithError(err)
	if kind == entity.ErrorKindTransient {
		entry.Warn("delivery failed, record stays eligible for the next sweep")
	} else {
		entry.Error("delivery failed and needs investigation")
	}

	if d.failures != nil {
		runID, _ := RunIDFromContext(ctx)
		logCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.sendTimeout)
		defer cancel()
		if logErr := d.failures.Create(logCtx, entity.DeliveryFailure{
			RunID:     runID,
			JobType:   outcome.JobType,
			RecordID:  outcome.RecordID,
			Recipient: outcome.Recipient,
			Kind:      kind,
			Message:   err.Error(),
		}); logErr != nil {
			log.WithError(logErr).Error("failed to write failure log")
		}
	}

	return outcome
}

// renderKind treats timeouts as transient and anything else as a template
// or payload problem.
func renderKind(err error) entity.ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return entity.ErrorKindTransient
	}
	return entity.ErrorKindRender
}

func uniqueTargets(targets []Target) []Target {
	seen := make(map[int64]struct{}, len(targets))
	unique := make([]Target, 0, len(targets))
	for _, target := range targets {
		if _, dup := seen[target.RecordID]; dup {
			continue
		}
		seen[target.RecordID] = struct{}{}
		unique = append(unique, target)
	}
	return unique
}
