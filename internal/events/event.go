// Package events publishes policy lifecycle events to RabbitMQ.
package events

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	TypePolicyIssued       = "policy.issued"
	TypePolicyCancelled    = "policy.cancelled"
	TypeInstallmentPaid    = "installment.paid"
	TypeInstallmentOverdue = "installment.overdue"
)

// Event is the envelope written to the exchange. The routing key is Type.
type Event struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data"`
}

func New(eventType string, data map[string]any) Event {
	return Event{
		ID:         ulid.Make().String(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NoopPublisher drops every event. It is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
