package entity

import (
	"fmt"
	"time"
)

type JobType string

const (
	JobWelcome         JobType = "welcome"
	JobPendingReminder JobType = "pending-order-reminder"
	JobDeliveredNotice JobType = "delivered-order-notice"
	JobPromotion       JobType = "monthly-promotion"
)

// JobTypes lists every job type in registration order.
var JobTypes = []JobType{JobWelcome, JobPendingReminder, JobDeliveredNotice, JobPromotion}

// ParseJobType validates a job type name.
func ParseJobType(value string) (JobType, error) {
	for _, jt := range JobTypes {
		if string(jt) == value {
			return jt, nil
		}
	}
	return "", fmt.Errorf("unknown job type %q", value)
}

type OutcomeStatus string

const (
	OutcomeSent    OutcomeStatus = "sent"
	OutcomeSkipped OutcomeStatus = "skipped"
	OutcomeFailed  OutcomeStatus = "failed"
)

type ErrorKind string

const (
	ErrorKindNone      ErrorKind = ""
	ErrorKindRender    ErrorKind = "render"
	ErrorKindTransient ErrorKind = "transient"
	ErrorKindPermanent ErrorKind = "permanent"
	// ErrorKindStore means delivery succeeded but the flag could not be committed.
	ErrorKindStore ErrorKind = "store"
)

type SkipReason string

const (
	SkipNone              SkipReason = ""
	SkipNotFound          SkipReason = "not-found"
	SkipAlreadyProcessed  SkipReason = "already-processed"
	SkipPreconditionUnmet SkipReason = "precondition-unmet"
)

// RecordOutcome is the typed result of dispatching one record.
type RecordOutcome struct {
	JobType    JobType
	RecordID   int64
	Recipient  string
	Status     OutcomeStatus
	SkipReason SkipReason
	ErrorKind  ErrorKind
	Err        error
	// Duplicate is set when delivery succeeded but a concurrent run had
	// already committed the flag.
	Duplicate bool
}

// BatchResult aggregates the outcomes of one runner invocation.
type BatchResult struct {
	RunID      string
	JobType    JobType
	Attempted  int
	Sent       int
	Skipped    int
	Failed     int
	Duplicates int
	// Truncated is set when the batch deadline stopped the run before every
	// eligible record was attempted.
	Truncated  bool
	Outcomes   []RecordOutcome
	StartedAt  time.Time
	FinishedAt time.Time
}

// Add records an outcome and updates the counters.
func (r *BatchResult) Add(outcome RecordOutcome) {
	r.Attempted++
	switch outcome.Status {
	case OutcomeSent:
		r.Sent++
		if outcome.Duplicate {
			r.Duplicates++
		}
	case OutcomeSkipped:
		r.Skipped++
	case OutcomeFailed:
		r.Failed++
	}
	r.Outcomes = append(r.Outcomes, outcome)
}

// FailuresByKind counts failed outcomes per error kind.
func (r BatchResult) FailuresByKind() map[ErrorKind]int {
	counts := make(map[ErrorKind]int)
	for _, outcome := range r.Outcomes {
		if outcome.Status == OutcomeFailed {
			counts[outcome.ErrorKind]++
		}
	}
	return counts
}
