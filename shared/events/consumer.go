package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// Handler processes one decoded event. Returning an error leaves the offset uncommitted.
type Handler func(ctx context.Context, event WorkOrderEvent) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads lifecycle events from Kafka
type Consumer struct {
	reader  messageReader
	retries int
	backoff time.Duration
}

// NewConsumer creates a consumer in groupID for topic on broker
func NewConsumer(broker, topic, groupID string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  []string{broker},
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
	})
	return &Consumer{reader: reader, retries: 3, backoff: time.Second}
}

// Run consumes until ctx is cancelled. Undecodable messages are skipped and committed.
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	logrus.Info("Starting work order event consumer...")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logrus.WithError(err).Warn("Error reading event message")
			if !sleep(ctx, c.backoff) {
				return nil
			}
			continue
		}

		var event WorkOrderEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logrus.WithFields(logrus.Fields{
				"offset":    msg.Offset,
				"partition": msg.Partition,
			}).WithError(err).Error("Discarding undecodable event")
		} else if err := c.handleWithRetry(ctx, handle, event); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("handle event %s: %w", event.ID, err)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil && !errors.Is(err, context.Canceled) {
			logrus.WithError(err).Warn("Failed to commit event offset")
		}
	}
}

func (c *Consumer) handleWithRetry(ctx context.Context, handle Handler, event WorkOrderEvent) error {
	var err error
	delay := c.backoff
	for attempt := 0; attempt <= c.retries; attempt++ {
		if err = handle(ctx, event); err == nil {
			return nil
		}
		logrus.WithFields(logrus.Fields{
			"event_id": event.ID,
			"attempt":  attempt + 1,
		}).WithError(err).Warn("Event handler failed")
		if !sleep(ctx, delay) {
			return ctx.Err()
		}
		delay *= 2
	}
	return err
}

// Close closes the underlying reader
func (c *Consumer) Close() error {
	return c.reader.Close()
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
