package service

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/sifan077/VisitAudit/internal/app/model"
)

// VisitPublisher publishes ingested visits to NATS JetStream
type VisitPublisher struct {
	js nats.JetStreamContext
}

// NewVisitPublisher creates a new visit event publisher
func NewVisitPublisher(js nats.JetStreamContext) *VisitPublisher {
	return &VisitPublisher{js: js}
}

// Publish publishes a visit to the stream. The visit id doubles as the message id so
// JetStream drops duplicates inside its dedupe window.
func (p *VisitPublisher) Publish(ctx context.Context, visit *model.VisitRecord) error {
	data, err := json.Marshal(visit)
	if err != nil {
		return err
	}

	_, err = p.js.Publish(model.VisitStreamSubject, data, nats.Context(ctx), nats.MsgId(visit.ID))
	return err
}
