package queue

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-dispatcher/app/entity"
)

const (
	readBlock    = 5 * time.Second
	retryBackoff = time.Second
)

type Runner interface {
	RunOne(ctx context.Context, jobType entity.JobType, recordID int64) (entity.RecordOutcome, error)
}

type TriggerConsumer struct {
	client       redis.UniversalClient
	runner       Runner
	consumerName string
	logger       logrus.FieldLogger
}

// NewTriggerConsumer constructs a Redis stream consumer.
func NewTriggerConsumer(client redis.UniversalClient, runner Runner, consumerName string, logger logrus.FieldLogger) *TriggerConsumer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &TriggerConsumer{
		client:       client,
		runner:       runner,
		consumerName: consumerName,
		logger:       logger.WithFields(logrus.Fields{"consumer": consumerName, "stream": StreamName}),
	}
}

// Run starts the consumer loop and blocks until context cancellation.
func (c *TriggerConsumer) Run(ctx context.Context) error {
	if err := c.ensureGroup(ctx); err != nil {
		return err
	}

	c.logger.Info("consumer started")

	// Replay this consumer's pending messages once, oldest first, then read
	// new ones. startID advances past every replayed entry so a message that
	// fails again is not retried until the next restart.
	startID := "0"
	for {
		if ctx.Err() != nil {
			c.logger.Info("consumer shutting down")
			return nil
		}

		streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    ConsumerGroup,
			Consumer: c.consumerName,
			Streams:  []string{StreamName, startID},
			Count:    10,
			Block:    readBlock,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				startID = ">"
				continue
			}
			if ctx.Err() != nil {
				c.logger.Info("consumer shutting down")
				return nil
			}
			c.logger.WithError(err).Warn("xreadgroup failed")
			time.Sleep(retryBackoff)
			continue
		}

		replaying := startID != ">"
		handled := 0
		for _, stream := range streams {
			for _, msg := range stream.Messages {
				c.processMessage(ctx, msg)
				handled++
				if replaying {
					startID = msg.ID
				}
			}
		}
		if replaying && handled == 0 {
			c.logger.Debug("pending messages replayed")
			startID = ">"
		}
	}
}

// processMessage runs the triggered job and acks unless delivery failed.
// Failed messages stay pending and are replayed once when the consumer
// restarts.
func (c *TriggerConsumer) processMessage(ctx context.Context, msg redis.XMessage) {
	log := c.logger.WithField("message_id", msg.ID)

	trigger, err := parseTrigger(msg.Values)
	if err != nil {
		log.WithError(err).Error("dropping malformed trigger")
		c.ack(ctx, msg.ID, log)
		return
	}
	jobType, err := trigger.Job()
	if err != nil {
		log.WithError(err).Error("dropping trigger for unknown job")
		c.ack(ctx, msg.ID, log)
		return
	}
	log = log.WithFields(logrus.Fields{"job_type": jobType, "record_id": trigger.RecordID})

	outcome, err := c.runner.RunOne(ctx, jobType, trigger.RecordID)
	if err != nil {
		log.WithError(err).Warn("trigger failed, message stays pending")
		return
	}
	if outcome.Status == entity.OutcomeFailed {
		log.WithField("error_kind", outcome.ErrorKind).Warn("delivery failed, message stays pending")
		return
	}

	log.WithField("status", outcome.Status).Debug("trigger handled")
	c.ack(ctx, msg.ID, log)
}

func (c *TriggerConsumer) ack(ctx context.Context, id string, log logrus.FieldLogger) {
	if err := c.client.XAck(ctx, StreamName, ConsumerGroup, id).Err(); err != nil {
		log.WithError(err).Error("xack failed")
	}
}

// ensureGroup creates the stream and consumer group if missing.
func (c *TriggerConsumer) ensureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, StreamName, ConsumerGroup, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}
