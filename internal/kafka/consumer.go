package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/segmentio/kafka-go"

	"notification-orchestrator/internal/logging"
	"notification-orchestrator/internal/models"
)

// Queuer accepts decoded notifications for ingestion.
type Queuer interface {
	QueueNotification(n models.Notification)
}

// Consumer reads notification events from a topic and is the single writer
// feeding the notification log.
type Consumer struct {
	reader *kafka.Reader
	svc    Queuer
	logger *logging.Logger
}

func NewConsumer(brokers []string, topic, groupID string, svc Queuer, logger *logging.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Consumer{reader: reader, svc: svc, logger: logger}
}

// Start consumes until ctx is cancelled or the reader is closed.
func (c *Consumer) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.logger.Infof("Kafka consumer started on topic %s", c.reader.Config().Topic)
		for {
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
					c.logger.Infof("Kafka consumer stopped")
					return
				}
				c.logger.Errorf("Read message failed: %v", err)
				continue
			}

			c.handle(msg.Value)
			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				c.logger.Errorf("Commit offset %d failed: %v", msg.Offset, err)
			}
		}
	}()
}

// handle decodes one event. Malformed events are logged and skipped.
func (c *Consumer) handle(value []byte) {
	n, err := decodeEvent(value)
	if err != nil {
		c.logger.Errorf("Skipping malformed event: %v", err)
		return
	}
	c.svc.QueueNotification(n)
	c.logger.Debugf("Processed Kafka message for notification %s", n.ID)
}

func decodeEvent(value []byte) (models.Notification, error) {
	var n models.Notification
	if err := json.Unmarshal(value, &n); err != nil {
		return models.Notification{}, fmt.Errorf("unmarshal event: %w", err)
	}
	if n.CaseID == "" || n.Category == "" {
		return models.Notification{}, fmt.Errorf("event %q missing caseId or type", n.ID)
	}
	// computed fields never come from producers
	return n.Stored(), nil
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.logger.Errorf("Kafka reader close failed: %v", err)
	}
}
