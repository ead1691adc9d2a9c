// Package notification delivers order decisions to interested parties.
// Delivery is fire-and-forget: a failed notification is logged by the event
// bus and never affects the decision that triggered it.
package notification

import (
	"context"
	"time"

	"github.com/Z3RO333/formularios/internal/domain/trade"
	"github.com/google/uuid"
)

// DefaultChannel is the Redis channel decisions are published to
const DefaultChannel = "orders.decisions"

// DecisionNotification is the message sent when an order is approved or rejected
type DecisionNotification struct {
	EventID     string `json:"event_id"`
	OrderID     string `json:"order_id"`
	RequesterID string `json:"requester_id"`
	Status      string `json:"status"` // APPROVED/REJECTED
	DecidedBy   string `json:"decided_by"`
	DecidedAt   string `json:"decided_at"`
	Note        string `json:"note,omitempty"`
	Timestamp   int64  `json:"timestamp"`
}

// NewDecisionNotification builds the message from a decision event
func NewDecisionNotification(e *trade.OrderDecidedEvent) *DecisionNotification {
	return &DecisionNotification{
		EventID:     e.EventID().String(),
		OrderID:     e.OrderID.String(),
		RequesterID: uuidString(e.RequesterID),
		Status:      string(e.Status),
		DecidedBy:   uuidString(e.DecidedBy),
		DecidedAt:   e.DecidedAt.UTC().Format(time.RFC3339),
		Note:        e.Note,
		Timestamp:   e.OccurredAt().Unix(),
	}
}

// Notifier sends decision notifications
type Notifier interface {
	Notify(ctx context.Context, n *DecisionNotification) error
	Close() error
}

func uuidString(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	return id.String()
}
