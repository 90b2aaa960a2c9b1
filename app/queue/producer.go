package queue

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type TriggerProducer struct {
	client redis.UniversalClient
}

// NewTriggerProducer constructs a Redis stream producer.
func NewTriggerProducer(client redis.UniversalClient) *TriggerProducer {
	return &TriggerProducer{client: client}
}

// Publish pushes a trigger onto the stream and returns its stream id.
func (p *TriggerProducer) Publish(ctx context.Context, msg TriggerMessage) (string, error) {
	if _, err := msg.Job(); err != nil {
		return "", err
	}
	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamName,
		Values: msg.values(),
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd to %s: %w", StreamName, err)
	}
	return id, nil
}
