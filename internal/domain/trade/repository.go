package trade

import (
	"context"
	"time"

	"github.com/Z3RO333/formularios/internal/domain/shared"
	"github.com/google/uuid"
)

// OrderFilter narrows order listings
type OrderFilter struct {
	shared.Filter
	Status      OrderStatus
	SupplierID  *uuid.UUID
	RequesterID *uuid.UUID
	Department  string
	Location    string
	Competence  string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// PurchaseOrderRepository defines the interface for purchase order persistence
type PurchaseOrderRepository interface {
	// FindByID finds an order with its items
	FindByID(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)

	// FindByIDForUpdate finds an order with its items and locks the order row
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)

	// FindAll returns a page of order headers, newest first
	FindAll(ctx context.Context, filter OrderFilter) ([]PurchaseOrder, int64, error)

	// Create inserts the order header and all of its items
	Create(ctx context.Context, order *PurchaseOrder) error

	// SaveHeader writes header, supplier and decision fields, checking the
	// previous version for optimistic locking
	SaveHeader(ctx context.Context, order *PurchaseOrder) error

	// ApplyItemPlan writes an item diff: updates, then inserts, then deletes
	ApplyItemPlan(ctx context.Context, orderID uuid.UUID, plan *ItemPlan) error

	// ReassignSupplier points every order of one supplier at another
	ReassignSupplier(ctx context.Context, fromID, toID uuid.UUID) (int64, error)
}

// StatusHistoryRepository stores the append-only status log
type StatusHistoryRepository interface {
	// Append inserts one entry; entries are never updated or deleted
	Append(ctx context.Context, entry *StatusHistoryEntry) error

	// ListByOrder returns the entries of an order, oldest first
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]StatusHistoryEntry, error)
}

// AttachmentRepository stores attachment metadata
type AttachmentRepository interface {
	// Create inserts attachment metadata
	Create(ctx context.Context, attachment *Attachment) error

	// FindByID finds an attachment by id
	FindByID(ctx context.Context, id uuid.UUID) (*Attachment, error)

	// ListByOrder returns the attachments of an order, oldest first
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]Attachment, error)

	// ReassignSupplier points every attachment of one supplier at another
	ReassignSupplier(ctx context.Context, fromID, toID uuid.UUID) (int64, error)
}
