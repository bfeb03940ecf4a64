// Package events carries work order lifecycle events to the broker.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Topic is the Kafka topic for lifecycle events
const Topic = "work-order-events"

// WorkOrderEvent records one successful lifecycle step
type WorkOrderEvent struct {
	ID          uuid.UUID `json:"id"`
	TenantID    uuid.UUID `json:"tenant_id"`
	WorkOrderID uuid.UUID `json:"work_order_id"`
	ActorID     uuid.UUID `json:"actor_id"`
	Transition  string    `json:"transition"`
	FromStatus  string    `json:"from_status,omitempty"`
	ToStatus    string    `json:"to_status"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Publisher hands events to a transport. Implementations must not block the caller.
type Publisher interface {
	Publish(ctx context.Context, event WorkOrderEvent) error
}

// NopPublisher drops every event
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, WorkOrderEvent) error { return nil }
