package trade

import (
	"time"

	"github.com/google/uuid"
)

// Default notes written to the history when the actor gives none
const (
	DefaultCreationNote = "Criado via formulário"
	DefaultApprovalNote = "Aprovado"
)

// StatusHistoryEntry is one immutable record of a status transition.
// PreviousStatus is nil only for the creation entry.
type StatusHistoryEntry struct {
	ID             uuid.UUID
	OrderID        uuid.UUID
	PreviousStatus *OrderStatus
	NewStatus      OrderStatus
	ActorID        uuid.UUID
	Note           string
	Timestamp      time.Time
}

// NewCreationEntry records the birth of an order in PENDING_APPROVAL
func NewCreationEntry(orderID, actorID uuid.UUID, at time.Time) *StatusHistoryEntry {
	return &StatusHistoryEntry{
		ID:        uuid.New(),
		OrderID:   orderID,
		NewStatus: OrderStatusPendingApproval,
		ActorID:   actorID,
		Note:      DefaultCreationNote,
		Timestamp: at.UTC(),
	}
}

// NewTransitionEntry records a move from one status to another
func NewTransitionEntry(orderID uuid.UUID, from, to OrderStatus, actorID uuid.UUID, note string, at time.Time) *StatusHistoryEntry {
	prev := from
	return &StatusHistoryEntry{
		ID:             uuid.New(),
		OrderID:        orderID,
		PreviousStatus: &prev,
		NewStatus:      to,
		ActorID:        actorID,
		Note:           note,
		Timestamp:      at.UTC(),
	}
}

// IsCreation reports whether the entry is the initial one
func (e *StatusHistoryEntry) IsCreation() bool {
	return e.PreviousStatus == nil
}
