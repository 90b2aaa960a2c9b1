package dto

import (
	"time"

	"github.com/vibast-solutions/ms-go-dispatcher/app/entity"
)

type OutcomeResponse struct {
	RecordID   int64  `json:"record_id"`
	Status     string `json:"status"`
	SkipReason string `json:"skip_reason,omitempty"`
	ErrorKind  string `json:"error_kind,omitempty"`
	Error      string `json:"error,omitempty"`
	Duplicate  bool   `json:"duplicate,omitempty"`
}

type BatchResponse struct {
	RunID      string            `json:"run_id"`
	JobType    string            `json:"job_type"`
	Attempted  int               `json:"attempted"`
	Sent       int               `json:"sent"`
	Skipped    int               `json:"skipped"`
	Failed     int               `json:"failed"`
	Duplicates int               `json:"duplicates"`
	Truncated  bool              `json:"truncated"`
	Failures   []OutcomeResponse `json:"failures,omitempty"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
}

type FailureResponse struct {
	RunID     string    `json:"run_id"`
	JobType   string    `json:"job_type"`
	RecordID  int64     `json:"record_id"`
	Recipient string    `json:"recipient"`
	Kind      string    `json:"error_kind"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

func NewOutcomeResponse(outcome entity.RecordOutcome) OutcomeResponse {
	resp := OutcomeResponse{
		RecordID:   outcome.RecordID,
		Status:     string(outcome.Status),
		SkipReason: string(outcome.SkipReason),
		ErrorKind:  string(outcome.ErrorKind),
		Duplicate:  outcome.Duplicate,
	}
	if outcome.Err != nil {
		resp.Error = outcome.Err.Error()
	}
	return resp
}

// NewBatchResponse summarizes a batch; only failed records are listed.
func NewBatchResponse(result entity.BatchResult) BatchResponse {
	resp := BatchResponse{
		RunID:      result.RunID,
		JobType:    string(result.JobType),
		Attempted:  result.Attempted,
		Sent:       result.Sent,
		Skipped:    result.Skipped,
		Failed:     result.Failed,
		Duplicates: result.Duplicates,
		Truncated:  result.Truncated,
		StartedAt:  result.StartedAt,
		FinishedAt: result.FinishedAt,
	}
	for _, outcome := range result.Outcomes {
		if outcome.Status == entity.OutcomeFailed {
			resp.Failures = append(resp.Failures, NewOutcomeResponse(outcome))
		}
	}
	return resp
}

func NewFailureResponses(failures []entity.DeliveryFailure) []FailureResponse {
	out := make([]FailureResponse, 0, len(failures))
	for _, f := range failures {
		out = append(out, FailureResponse{
			RunID:     f.RunID,
			JobType:   string(f.JobType),
			RecordID:  f.RecordID,
			Recipient: f.Recipient,
			Kind:      string(f.Kind),
			Message:   f.Message,
			CreatedAt: f.CreatedAt,
		})
	}
	return out
}
