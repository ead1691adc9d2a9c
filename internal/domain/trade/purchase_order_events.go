package trade

import (
	"time"

	"github.com/Z3RO333/formularios/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constant
const AggregateTypePurchaseOrder = "PurchaseOrder"

// Event type constants
const (
	EventTypeOrderCreated  = "PurchaseOrderCreated"
	EventTypeOrderUpdated  = "PurchaseOrderUpdated"
	EventTypeOrderApproved = "PurchaseOrderApproved"
	EventTypeOrderRejected = "PurchaseOrderRejected"
)

// OrderCreatedEvent is raised when a new purchase order is created
type OrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID  `json:"order_id"`
	RequesterID uuid.UUID  `json:"requester_id"`
	SupplierID  *uuid.UUID `json:"supplier_id,omitempty"`
	Priority    Priority   `json:"priority"`
	ItemCount   int        `json:"item_count"`
}

// NewOrderCreatedEvent creates a new OrderCreatedEvent
func NewOrderCreatedEvent(o *PurchaseOrder) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCreated, AggregateTypePurchaseOrder, o.ID, o.RequesterID),
		OrderID:         o.ID,
		RequesterID:     o.RequesterID,
		SupplierID:      o.SupplierID,
		Priority:        o.Priority,
		ItemCount:       len(o.Items),
	}
}

// OrderUpdatedEvent is raised when a pending order is revised
type OrderUpdatedEvent struct {
	shared.BaseDomainEvent
	OrderID       uuid.UUID `json:"order_id"`
	ItemsInserted int       `json:"items_inserted"`
	ItemsUpdated  int       `json:"items_updated"`
	ItemsDeleted  int       `json:"items_deleted"`
}

// NewOrderUpdatedEvent creates a new OrderUpdatedEvent
func NewOrderUpdatedEvent(o *PurchaseOrder, actorID uuid.UUID, plan *ItemPlan) *OrderUpdatedEvent {
	return &OrderUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderUpdated, AggregateTypePurchaseOrder, o.ID, actorID),
		OrderID:         o.ID,
		ItemsInserted:   len(plan.ToInsert),
		ItemsUpdated:    len(plan.ToUpdate),
		ItemsDeleted:    len(plan.ToDelete),
	}
}

// OrderDecidedEvent carries what a notification about a decision needs
type OrderDecidedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID   `json:"order_id"`
	RequesterID uuid.UUID   `json:"requester_id"`
	Status      OrderStatus `json:"status"`
	DecidedBy   uuid.UUID   `json:"decided_by"`
	DecidedAt   time.Time   `json:"decided_at"`
	Note        string      `json:"note,omitempty"`
}

// OrderApprovedEvent is raised when an order is approved
type OrderApprovedEvent struct {
	OrderDecidedEvent
}

// NewOrderApprovedEvent creates a new OrderApprovedEvent
func NewOrderApprovedEvent(o *PurchaseOrder, note string) *OrderApprovedEvent {
	return &OrderApprovedEvent{OrderDecidedEvent: newDecidedEvent(EventTypeOrderApproved, o, note)}
}

// OrderRejectedEvent is raised when an order is rejected
type OrderRejectedEvent struct {
	OrderDecidedEvent
}

// NewOrderRejectedEvent creates a new OrderRejectedEvent
func NewOrderRejectedEvent(o *PurchaseOrder) *OrderRejectedEvent {
	return &OrderRejectedEvent{OrderDecidedEvent: newDecidedEvent(EventTypeOrderRejected, o, o.RejectionReason)}
}

func newDecidedEvent(eventType string, o *PurchaseOrder, note string) OrderDecidedEvent {
	e := OrderDecidedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypePurchaseOrder, o.ID, *o.DecidedBy),
		OrderID:         o.ID,
		RequesterID:     o.RequesterID,
		Status:          o.Status,
		DecidedBy:       *o.DecidedBy,
		Note:            note,
	}
	if o.DecidedAt != nil {
		e.DecidedAt = *o.DecidedAt
	}
	return e
}
