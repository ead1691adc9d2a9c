package trade

import (
	"time"

	"github.com/Z3RO333/formularios/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ==================== Purchase Order DTOs ====================

// SupplierInput is the supplier as typed on the request form
type SupplierInput struct {
	Name  string `json:"name" binding:"max=200"`
	TaxID string `json:"tax_id" binding:"max=30"`
	Email string `json:"email" binding:"max=200"`
}

// OrderItemInput is one desired line item. ID is set when the item already
// exists on the order.
type OrderItemInput struct {
	ID                 *uuid.UUID       `json:"id"`
	Description        string           `json:"description" binding:"max=500"`
	Quantity           decimal.Decimal  `json:"quantity"`
	Unit               string           `json:"unit" binding:"max=20"`
	EstimatedUnitPrice *decimal.Decimal `json:"estimated_unit_price"`
	Note               string           `json:"note" binding:"max=500"`
}

// CreateOrderRequest represents a request to create a purchase order
type CreateOrderRequest struct {
	Department    string           `json:"department" binding:"max=100"`
	Location      string           `json:"location" binding:"max=100"`
	Kind          string           `json:"kind" binding:"max=100"`
	Description   string           `json:"description" binding:"max=2000"`
	Justification string           `json:"justification" binding:"max=2000"`
	Priority      string           `json:"priority" binding:"max=20"`
	Supplier      SupplierInput    `json:"supplier"`
	Items         []OrderItemInput `json:"items" binding:"dive"`
	// IdempotencyKey comes from the Idempotency-Key header
	IdempotencyKey string `json:"-"`
}

// UpdateOrderRequest replaces header, supplier and items of a pending order
type UpdateOrderRequest struct {
	Department    string           `json:"department" binding:"max=100"`
	Location      string           `json:"location" binding:"max=100"`
	Kind          string           `json:"kind" binding:"max=100"`
	Description   string           `json:"description" binding:"max=2000"`
	Justification string           `json:"justification" binding:"max=2000"`
	Priority      string           `json:"priority" binding:"max=20"`
	Supplier      SupplierInput    `json:"supplier"`
	Items         []OrderItemInput `json:"items" binding:"dive"`
}

// ApproveOrderRequest represents a request to approve an order
type ApproveOrderRequest struct {
	Note string `json:"note" binding:"max=1000"`
}

// RejectOrderRequest represents a request to reject an order
type RejectOrderRequest struct {
	Reason string `json:"reason" binding:"max=1000"`
}

// OrderListFilter represents filter options for order list
type OrderListFilter struct {
	Status      string     `form:"status" binding:"omitempty,oneof=PENDING_APPROVAL APPROVED REJECTED"`
	SupplierID  *uuid.UUID `form:"supplier_id"`
	RequesterID *uuid.UUID `form:"requester_id"`
	Department  string     `form:"department"`
	Location    string     `form:"location"`
	Competence  string     `form:"competence" binding:"omitempty,datetime=2006-01"`
	Search      string     `form:"search"`
	CreatedFrom *time.Time `form:"created_from" time_format:"2006-01-02"`
	CreatedTo   *time.Time `form:"created_to" time_format:"2006-01-02"`
	Page        int        `form:"page" binding:"omitempty,min=1"`
	PageSize    int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy     string     `form:"order_by"`
	OrderDir    string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// OrderItemResponse represents an order line item in API responses
type OrderItemResponse struct {
	ID                 uuid.UUID        `json:"id"`
	Position           int              `json:"position"`
	Description        string           `json:"description"`
	Quantity           decimal.Decimal  `json:"quantity"`
	Unit               string           `json:"unit"`
	EstimatedUnitPrice *decimal.Decimal `json:"estimated_unit_price,omitempty"`
	EstimatedTotal     decimal.Decimal  `json:"estimated_total"`
	Note               string           `json:"note,omitempty"`
}

// HistoryEntryResponse represents one status history entry
type HistoryEntryResponse struct {
	ID             uuid.UUID `json:"id"`
	PreviousStatus *string   `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	ActorID        uuid.UUID `json:"actor_id"`
	Note           string    `json:"note"`
	Timestamp      time.Time `json:"timestamp"`
}

// AttachmentResponse represents attachment metadata in API responses
type AttachmentResponse struct {
	ID          uuid.UUID  `json:"id"`
	OrderID     uuid.UUID  `json:"order_id"`
	SupplierID  *uuid.UUID `json:"supplier_id,omitempty"`
	DocType     string     `json:"doc_type"`
	Competence  string     `json:"competence"`
	FileName    string     `json:"file_name"`
	ContentType string     `json:"content_type"`
	Size        int64      `json:"size"`
	UploadedBy  uuid.UUID  `json:"uploaded_by"`
	CreatedAt   time.Time  `json:"created_at"`
}

// DownloadResponse carries a time-limited download location
type DownloadResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
	FileName  string    `json:"file_name"`
}

// OrderResponse represents a purchase order in API responses
type OrderResponse struct {
	ID              uuid.UUID              `json:"id"`
	RequesterID     uuid.UUID              `json:"requester_id"`
	Department      string                 `json:"department"`
	Location        string                 `json:"location"`
	Kind            string                 `json:"kind"`
	Description     string                 `json:"description"`
	Justification   string                 `json:"justification"`
	Priority        string                 `json:"priority"`
	SupplierName    string                 `json:"supplier_name"`
	SupplierTaxID   string                 `json:"supplier_tax_id,omitempty"`
	SupplierEmail   string                 `json:"supplier_email,omitempty"`
	SupplierID      *uuid.UUID             `json:"supplier_id,omitempty"`
	Competence      string                 `json:"competence"`
	Status          string                 `json:"status"`
	DecidedBy       *uuid.UUID             `json:"decided_by,omitempty"`
	DecidedAt       *time.Time             `json:"decided_at,omitempty"`
	DecisionNote    string                 `json:"decision_note,omitempty"`
	RejectionReason string                 `json:"rejection_reason,omitempty"`
	EstimatedTotal  decimal.Decimal        `json:"estimated_total"`
	Items           []OrderItemResponse    `json:"items"`
	History         []HistoryEntryResponse `json:"history,omitempty"`
	Attachments     []AttachmentResponse   `json:"attachments,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
	Version         int                    `json:"version"`
}

// OrderListItemResponse represents an order header in list responses
type OrderListItemResponse struct {
	ID           uuid.UUID  `json:"id"`
	RequesterID  uuid.UUID  `json:"requester_id"`
	Department   string     `json:"department"`
	Location     string     `json:"location"`
	Kind         string     `json:"kind"`
	Description  string     `json:"description"`
	Priority     string     `json:"priority"`
	SupplierName string     `json:"supplier_name"`
	SupplierID   *uuid.UUID `json:"supplier_id,omitempty"`
	Competence   string     `json:"competence"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// OrderListResponse is a page of orders
type OrderListResponse struct {
	Items      []OrderListItemResponse `json:"items"`
	Total      int64                   `json:"total"`
	Page       int                     `json:"page"`
	PageSize   int                     `json:"page_size"`
	TotalPages int                     `json:"total_pages"`
}

// ToOrderResponse converts a domain order to OrderResponse
func ToOrderResponse(order *trade.PurchaseOrder) OrderResponse {
	total := decimal.Zero
	items := make([]OrderItemResponse, len(order.Items))
	for i := range order.Items {
		items[i] = ToOrderItemResponse(&order.Items[i])
		total = total.Add(items[i].EstimatedTotal)
	}
	return OrderResponse{
		ID:              order.ID,
		RequesterID:     order.RequesterID,
		Department:      order.Department,
		Location:        order.Location,
		Kind:            order.Kind,
		Description:     order.Description,
		Justification:   order.Justification,
		Priority:        string(order.Priority),
		SupplierName:    order.SupplierName,
		SupplierTaxID:   order.SupplierTaxID,
		SupplierEmail:   order.SupplierEmail,
		SupplierID:      order.SupplierID,
		Competence:      order.Competence,
		Status:          string(order.Status),
		DecidedBy:       order.DecidedBy,
		DecidedAt:       order.DecidedAt,
		DecisionNote:    order.DecisionNote,
		RejectionReason: order.RejectionReason,
		EstimatedTotal:  total,
		Items:           items,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
		Version:         order.Version,
	}
}

// ToOrderItemResponse converts a domain item to OrderItemResponse
func ToOrderItemResponse(item *trade.PurchaseOrderItem) OrderItemResponse {
	return OrderItemResponse{
		ID:                 item.ID,
		Position:           item.Position,
		Description:        item.Description,
		Quantity:           item.Quantity,
		Unit:               item.Unit,
		EstimatedUnitPrice: item.EstimatedUnitPrice,
		EstimatedTotal:     item.EstimatedTotal(),
		Note:               item.Note,
	}
}

// ToOrderListItemResponse converts a domain order to OrderListItemResponse
func ToOrderListItemResponse(order *trade.PurchaseOrder) OrderListItemResponse {
	return OrderListItemResponse{
		ID:           order.ID,
		RequesterID:  order.RequesterID,
		Department:   order.Department,
		Location:     order.Location,
		Kind:         order.Kind,
		Description:  order.Description,
		Priority:     string(order.Priority),
		SupplierName: order.SupplierName,
		SupplierID:   order.SupplierID,
		Competence:   order.Competence,
		Status:       string(order.Status),
		CreatedAt:    order.CreatedAt,
		UpdatedAt:    order.UpdatedAt,
	}
}

// ToOrderListItemResponses converts a slice of domain orders to list responses
func ToOrderListItemResponses(orders []trade.PurchaseOrder) []OrderListItemResponse {
	responses := make([]OrderListItemResponse, len(orders))
	for i := range orders {
		responses[i] = ToOrderListItemResponse(&orders[i])
	}
	return responses
}

// ToHistoryEntryResponses converts history entries to their API form
func ToHistoryEntryResponses(entries []trade.StatusHistoryEntry) []HistoryEntryResponse {
	responses := make([]HistoryEntryResponse, len(entries))
	for i, e := range entries {
		var prev *string
		if e.PreviousStatus != nil {
			s := string(*e.PreviousStatus)
			prev = &s
		}
		responses[i] = HistoryEntryResponse{
			ID:             e.ID,
			PreviousStatus: prev,
			NewStatus:      string(e.NewStatus),
			ActorID:        e.ActorID,
			Note:           e.Note,
			Timestamp:      e.Timestamp,
		}
	}
	return responses
}

// ToAttachmentResponse converts attachment metadata to its API form
func ToAttachmentResponse(a *trade.Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:          a.ID,
		OrderID:     a.OrderID,
		SupplierID:  a.SupplierID,
		DocType:     string(a.DocType),
		Competence:  a.Competence,
		FileName:    a.FileName,
		ContentType: a.ContentType,
		Size:        a.Size,
		UploadedBy:  a.UploadedBy,
		CreatedAt:   a.CreatedAt,
	}
}

// ToAttachmentResponses converts a slice of attachments to their API form
func ToAttachmentResponses(attachments []trade.Attachment) []AttachmentResponse {
	responses := make([]AttachmentResponse, len(attachments))
	for i := range attachments {
		responses[i] = ToAttachmentResponse(&attachments[i])
	}
	return responses
}

func (s SupplierInput) toDomain() trade.SupplierInput {
	return trade.SupplierInput{Name: s.Name, TaxID: s.TaxID, Email: s.Email}
}

func toItemInputs(items []OrderItemInput) []trade.ItemInput {
	inputs := make([]trade.ItemInput, len(items))
	for i, it := range items {
		inputs[i] = trade.ItemInput{
			Description:        it.Description,
			Quantity:           it.Quantity,
			Unit:               it.Unit,
			EstimatedUnitPrice: it.EstimatedUnitPrice,
			Note:               it.Note,
		}
		if it.ID != nil {
			inputs[i].ID = *it.ID
		}
	}
	return inputs
}

func headerOf(department, location, kind, description, justification, priority string) trade.OrderHeader {
	return trade.OrderHeader{
		Department:    department,
		Location:      location,
		Kind:          kind,
		Description:   description,
		Justification: justification,
		Priority:      trade.ParsePriority(priority),
	}
}
