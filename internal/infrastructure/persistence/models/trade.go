package models

import (
	"time"

	"github.com/Z3RO333/formularios/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrderModel is the persistence model for the PurchaseOrder aggregate root.
type PurchaseOrderModel struct {
	AggregateModel
	RequesterID     uuid.UUID         `gorm:"type:uuid;not null;index"`
	Department      string            `gorm:"type:varchar(120);not null;index"`
	Location        string            `gorm:"type:varchar(120);not null;index"`
	Kind            string            `gorm:"type:varchar(120);not null"`
	Description     string            `gorm:"type:text;not null"`
	Justification   string            `gorm:"type:text;not null"`
	Priority        trade.Priority    `gorm:"type:varchar(10);not null"`
	SupplierName    string            `gorm:"type:varchar(200)"`
	SupplierTaxID   string            `gorm:"column:supplier_tax_id;type:varchar(20)"`
	SupplierEmail   string            `gorm:"type:varchar(200)"`
	SupplierID      *uuid.UUID        `gorm:"type:uuid;index"`
	Competence      string            `gorm:"type:varchar(7);not null;index"`
	Status          trade.OrderStatus `gorm:"type:varchar(20);not null;default:'PENDING_APPROVAL';index"`
	DecidedBy       *uuid.UUID        `gorm:"type:uuid"`
	DecidedAt       *time.Time
	DecisionNote    string                   `gorm:"type:text"`
	RejectionReason string                   `gorm:"type:text"`
	Items           []PurchaseOrderItemModel `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (PurchaseOrderModel) TableName() string {
	return "purchase_orders"
}

// ToDomain converts the persistence model to a domain PurchaseOrder.
func (m *PurchaseOrderModel) ToDomain() *trade.PurchaseOrder {
	order := &trade.PurchaseOrder{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		RequesterID:       m.RequesterID,
		Department:        m.Department,
		Location:          m.Location,
		Kind:              m.Kind,
		Description:       m.Description,
		Justification:     m.Justification,
		Priority:          m.Priority,
		SupplierName:      m.SupplierName,
		SupplierTaxID:     m.SupplierTaxID,
		SupplierEmail:     m.SupplierEmail,
		SupplierID:        m.SupplierID,
		Competence:        m.Competence,
		Status:            m.Status,
		DecidedBy:         m.DecidedBy,
		DecisionNote:      m.DecisionNote,
		RejectionReason:   m.RejectionReason,
		Items:             make([]trade.PurchaseOrderItem, len(m.Items)),
	}
	if m.DecidedAt != nil {
		at := m.DecidedAt.UTC()
		order.DecidedAt = &at
	}
	for i := range m.Items {
		order.Items[i] = *m.Items[i].ToDomain()
	}
	return order
}

// FromDomain populates the persistence model from a domain PurchaseOrder.
func (m *PurchaseOrderModel) FromDomain(o *trade.PurchaseOrder) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.RequesterID = o.RequesterID
	m.Department = o.Department
	m.Location = o.Location
	m.Kind = o.Kind
	m.Description = o.Description
	m.Justification = o.Justification
	m.Priority = o.Priority
	m.SupplierName = o.SupplierName
	m.SupplierTaxID = o.SupplierTaxID
	m.SupplierEmail = o.SupplierEmail
	m.SupplierID = o.SupplierID
	m.Competence = o.Competence
	m.Status = o.Status
	m.DecidedBy = o.DecidedBy
	m.DecidedAt = o.DecidedAt
	m.DecisionNote = o.DecisionNote
	m.RejectionReason = o.RejectionReason

	m.Items = make([]PurchaseOrderItemModel, len(o.Items))
	for i := range o.Items {
		m.Items[i].FromDomain(&o.Items[i])
	}
}

// PurchaseOrderModelFromDomain creates a new persistence model from a domain PurchaseOrder.
func PurchaseOrderModelFromDomain(o *trade.PurchaseOrder) *PurchaseOrderModel {
	m := &PurchaseOrderModel{}
	m.FromDomain(o)
	return m
}

// PurchaseOrderItemModel is the persistence model for PurchaseOrderItem.
type PurchaseOrderItemModel struct {
	ID                 uuid.UUID        `gorm:"type:uuid;primary_key"`
	OrderID            uuid.UUID        `gorm:"type:uuid;not null;index"`
	Position           int              `gorm:"not null;default:0"`
	Description        string           `gorm:"type:varchar(500);not null"`
	Quantity           decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	Unit               string           `gorm:"type:varchar(20);not null;default:'UN'"`
	EstimatedUnitPrice *decimal.Decimal `gorm:"type:decimal(18,4)"`
	Note               string           `gorm:"type:text"`
	CreatedAt          time.Time        `gorm:"not null"`
	UpdatedAt          time.Time        `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PurchaseOrderItemModel) TableName() string {
	return "purchase_order_items"
}

// ToDomain converts the persistence model to a domain PurchaseOrderItem.
func (m *PurchaseOrderItemModel) ToDomain() *trade.PurchaseOrderItem {
	return &trade.PurchaseOrderItem{
		ID:                 m.ID,
		OrderID:            m.OrderID,
		Position:           m.Position,
		Description:        m.Description,
		Quantity:           m.Quantity,
		Unit:               m.Unit,
		EstimatedUnitPrice: m.EstimatedUnitPrice,
		Note:               m.Note,
		CreatedAt:          m.CreatedAt.UTC(),
		UpdatedAt:          m.UpdatedAt.UTC(),
	}
}

// FromDomain populates the persistence model from a domain PurchaseOrderItem.
func (m *PurchaseOrderItemModel) FromDomain(i *trade.PurchaseOrderItem) {
	m.ID = i.ID
	m.OrderID = i.OrderID
	m.Position = i.Position
	m.Description = i.Description
	m.Quantity = i.Quantity
	m.Unit = i.Unit
	m.EstimatedUnitPrice = i.EstimatedUnitPrice
	m.Note = i.Note
	m.CreatedAt = i.CreatedAt
	m.UpdatedAt = i.UpdatedAt
}

// PurchaseOrderItemModelFromDomain creates a new persistence model from a domain item.
func PurchaseOrderItemModelFromDomain(i *trade.PurchaseOrderItem) *PurchaseOrderItemModel {
	m := &PurchaseOrderItemModel{}
	m.FromDomain(i)
	return m
}

// StatusHistoryModel is one row of the append-only status log
type StatusHistoryModel struct {
	ID             uuid.UUID          `gorm:"type:uuid;primary_key"`
	OrderID        uuid.UUID          `gorm:"type:uuid;not null;index"`
	PreviousStatus *trade.OrderStatus `gorm:"type:varchar(20)"`
	NewStatus      trade.OrderStatus  `gorm:"type:varchar(20);not null"`
	ActorID        uuid.UUID          `gorm:"type:uuid;not null"`
	Note           string             `gorm:"type:text"`
	ChangedAt      time.Time          `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (StatusHistoryModel) TableName() string {
	return "purchase_order_status_history"
}

// ToDomain converts the persistence model to a domain StatusHistoryEntry.
func (m *StatusHistoryModel) ToDomain() *trade.StatusHistoryEntry {
	return &trade.StatusHistoryEntry{
		ID:             m.ID,
		OrderID:        m.OrderID,
		PreviousStatus: m.PreviousStatus,
		NewStatus:      m.NewStatus,
		ActorID:        m.ActorID,
		Note:           m.Note,
		Timestamp:      m.ChangedAt.UTC(),
	}
}

// StatusHistoryModelFromDomain creates a new persistence model from a history entry.
func StatusHistoryModelFromDomain(e *trade.StatusHistoryEntry) *StatusHistoryModel {
	return &StatusHistoryModel{
		ID:             e.ID,
		OrderID:        e.OrderID,
		PreviousStatus: e.PreviousStatus,
		NewStatus:      e.NewStatus,
		ActorID:        e.ActorID,
		Note:           e.Note,
		ChangedAt:      e.Timestamp,
	}
}

// AttachmentModel is the persistence model for attachment metadata
type AttachmentModel struct {
	ID          uuid.UUID          `gorm:"type:uuid;primary_key"`
	OrderID     uuid.UUID          `gorm:"type:uuid;not null;index"`
	SupplierID  *uuid.UUID         `gorm:"type:uuid;index"`
	DocType     trade.DocumentType `gorm:"type:varchar(30);not null"`
	Competence  string             `gorm:"type:varchar(7);not null;index"`
	FileName    string             `gorm:"type:varchar(255);not null"`
	ContentType string             `gorm:"type:varchar(100);not null"`
	Size        int64              `gorm:"not null"`
	StorageKey  string             `gorm:"type:varchar(500);not null;uniqueIndex"`
	UploadedBy  uuid.UUID          `gorm:"type:uuid;not null"`
	CreatedAt   time.Time          `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AttachmentModel) TableName() string {
	return "order_attachments"
}

// ToDomain converts the persistence model to a domain Attachment.
func (m *AttachmentModel) ToDomain() *trade.Attachment {
	return &trade.Attachment{
		ID:          m.ID,
		OrderID:     m.OrderID,
		SupplierID:  m.SupplierID,
		DocType:     m.DocType,
		Competence:  m.Competence,
		FileName:    m.FileName,
		ContentType: m.ContentType,
		Size:        m.Size,
		StorageKey:  m.StorageKey,
		UploadedBy:  m.UploadedBy,
		CreatedAt:   m.CreatedAt.UTC(),
	}
}

// AttachmentModelFromDomain creates a new persistence model from a domain Attachment.
func AttachmentModelFromDomain(a *trade.Attachment) *AttachmentModel {
	return &AttachmentModel{
		ID:          a.ID,
		OrderID:     a.OrderID,
		SupplierID:  a.SupplierID,
		DocType:     a.DocType,
		Competence:  a.Competence,
		FileName:    a.FileName,
		ContentType: a.ContentType,
		Size:        a.Size,
		StorageKey:  a.StorageKey,
		UploadedBy:  a.UploadedBy,
		CreatedAt:   a.CreatedAt,
	}
}
