package queue

import (
	"fmt"
	"strconv"

	"github.com/vibast-solutions/ms-go-dispatcher/app/entity"
)

const StreamName = "notifications:dispatch:triggers"
const ConsumerGroup = "dispatch-consumers"

const (
	EventUserCreated = "user.created"
	EventOrderPlaced = "order.placed"
	// EventDispatchRequested carries an explicit job type.
	EventDispatchRequested = "dispatch.requested"
)

// TriggerMessage asks for one record to be dispatched on demand.
type TriggerMessage struct {
	Event    string
	JobType  entity.JobType
	RecordID int64
}

// Job resolves the job type the message triggers.
func (m TriggerMessage) Job() (entity.JobType, error) {
	switch m.Event {
	case EventUserCreated:
		return entity.JobWelcome, nil
	case EventOrderPlaced:
		return entity.JobPendingReminder, nil
	case EventDispatchRequested:
		return entity.ParseJobType(string(m.JobType))
	default:
		return "", fmt.Errorf("unknown event %q", m.Event)
	}
}

func (m TriggerMessage) values() map[string]any {
	values := map[string]any{
		"event":     m.Event,
		"record_id": strconv.FormatInt(m.RecordID, 10),
	}
	if m.JobType != "" {
		values["job_type"] = string(m.JobType)
	}
	return values
}

func parseTrigger(values map[string]any) (TriggerMessage, error) {
	event, _ := values["event"].(string)
	jobType, _ := values["job_type"].(string)
	rawID, _ := values["record_id"].(string)

	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return TriggerMessage{}, fmt.Errorf("invalid record_id %q", rawID)
	}
	return TriggerMessage{Event: event, JobType: entity.JobType(jobType), RecordID: id}, nil
}
