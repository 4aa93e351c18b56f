package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/sifan077/VisitAudit/internal/app/model"
	natsclient "github.com/sifan077/VisitAudit/internal/infra/nats"
	"go.uber.org/zap"
)

// VisitConsumer consumes visit events from NATS JetStream and writes the formatted
// visit block to the log.
type VisitConsumer struct {
	js     nats.JetStreamContext
	logger *zap.Logger
}

// NewVisitConsumer creates a new visit event consumer
func NewVisitConsumer(js nats.JetStreamContext, logger *zap.Logger) *VisitConsumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VisitConsumer{js: js, logger: logger}
}

// VisitStreamConfig describes the stream visits are published to.
func VisitStreamConfig() *nats.StreamConfig {
	return &nats.StreamConfig{
		Name:     model.VisitStreamName,
		Subjects: []string{model.VisitStreamSubject},
		MaxBytes: model.VisitStreamMaxBytes,
	}
}

// Start creates the stream and durable consumer when missing and consumes until ctx is done.
func (c *VisitConsumer) Start(ctx context.Context) error {
	if err := natsclient.EnsureStream(c.js, VisitStreamConfig()); err != nil {
		return err
	}

	if _, err := c.js.ConsumerInfo(model.VisitStreamName, model.VisitConsumerName); err != nil {
		_, err = c.js.AddConsumer(model.VisitStreamName, &nats.ConsumerConfig{
			Durable:   model.VisitConsumerName,
			AckPolicy: nats.AckExplicitPolicy,
		})
		if err != nil {
			return fmt.Errorf("create consumer: %w", err)
		}
	}

	sub, err := c.js.PullSubscribe(model.VisitStreamSubject, model.VisitConsumerName)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	go c.consume(ctx, sub)
	return nil
}

func (c *VisitConsumer) consume(ctx context.Context, sub *nats.Subscription) {
	defer func() { _ = sub.Unsubscribe() }()

	for {
		if ctx.Err() != nil {
			c.logger.Info("visit consumer stopped")
			return
		}

		msgs, err := sub.Fetch(10, nats.MaxWait(5*time.Second))
		if err != nil && !errors.Is(err, nats.ErrTimeout) {
			c.logger.Error("failed to fetch messages", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		for _, msg := range msgs {
			c.process(msg)
		}
	}
}

func (c *VisitConsumer) process(msg *nats.Msg) {
	var visit model.VisitRecord
	if err := json.Unmarshal(msg.Data, &visit); err != nil {
		c.logger.Error("failed to unmarshal visit event", zap.Error(err))
		// Poison message: redelivery would fail the same way.
		_ = msg.Term()
		return
	}

	c.logger.Info(model.FormatVisitLog(&visit),
		zap.String("visit_id", visit.ID),
		zap.String("ip", visit.IPAddress),
	)
	_ = msg.Ack()
}
