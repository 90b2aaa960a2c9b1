package entity

import "time"

// DeliveryFailure is one row of the operator-facing failure log.
type DeliveryFailure struct {
	RunID     string
	JobType   JobType
	RecordID  int64
	Recipient string
	Kind      ErrorKind
	Message   string
	CreatedAt time.Time
}
