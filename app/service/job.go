package service

import (
	"context"
	"errors"

	"github.com/vibast-solutions/ms-go-dispatcher/app/entity"
	"github.com/vibast-solutions/ms-go-dispatcher/app/renderer"
)

var (
	ErrUnknownJob = errors.New("unknown job type")
	// ErrFetch marks a failure to query eligible records; it aborts the run.
	ErrFetch = errors.New("fetch eligible records")
)

// Target is one record ready to be rendered and delivered.
type Target struct {
	RecordID   int64
	Recipient  string
	TemplateID string
	Payload    map[string]any
}

// Job specializes the dispatch loop for one job type.
type Job interface {
	Type() entity.JobType
	// Eligible returns every record currently owed this job's email.
	Eligible(ctx context.Context) ([]Target, error)
	// Lookup re-checks one record with the same predicate as Eligible. A
	// non-empty skip reason means the record must not be sent.
	Lookup(ctx context.Context, recordID int64) (Target, entity.SkipReason, error)
	// MarkSent commits the flag only if it is still unset. It returns false
	// when another writer committed it first.
	MarkSent(ctx context.Context, recordID int64) (bool, error)
}

type Renderer interface {
	Render(ctx context.Context, templateID string, payload map[string]any) (renderer.Content, error)
}

type FailureLog interface {
	Create(ctx context.Context, failure entity.DeliveryFailure) error
}
