package trade

import (
	"fmt"
	"strings"
	"time"

	"github.com/Z3RO333/formularios/internal/domain/matching"
	"github.com/Z3RO333/formularios/internal/domain/shared"
	"github.com/google/uuid"
)

// OrderStatus represents the status of a purchase order
type OrderStatus string

const (
	OrderStatusPendingApproval OrderStatus = "PENDING_APPROVAL"
	OrderStatusApproved        OrderStatus = "APPROVED"
	OrderStatusRejected        OrderStatus = "REJECTED"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPendingApproval, OrderStatusApproved, OrderStatusRejected:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition is possible
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusApproved || s == OrderStatusRejected
}

// CanTransitionTo checks if the status can transition to the target status
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case OrderStatusPendingApproval:
		return target == OrderStatusApproved || target == OrderStatusRejected
	case OrderStatusApproved, OrderStatusRejected:
		return false // Terminal states
	}
	return false
}

// Priority is the urgency the requester assigned to the order
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// IsValid checks if the priority is one of the known values
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// ParsePriority accepts the canonical values case-insensitively, plus the
// Portuguese labels used by the request forms.
func ParsePriority(raw string) Priority {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "LOW", "BAIXA":
		return PriorityLow
	case "MEDIUM", "MEDIA", "MÉDIA":
		return PriorityMedium
	case "HIGH", "ALTA":
		return PriorityHigh
	case "URGENT", "URGENTE":
		return PriorityUrgent
	}
	return Priority(strings.ToUpper(strings.TrimSpace(raw)))
}

// OrderHeader holds the requester-provided header fields
type OrderHeader struct {
	Department    string
	Location      string
	Kind          string
	Description   string
	Justification string
	Priority      Priority
}

// Validate records every missing or invalid header field
func (h OrderHeader) Validate(errs *shared.FieldErrors) {
	required := []struct {
		field string
		value string
	}{
		{"department", h.Department},
		{"location", h.Location},
		{"kind", h.Kind},
		{"description", h.Description},
		{"justification", h.Justification},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs.Add(r.field, "is required")
		}
	}
	switch {
	case h.Priority == "":
		errs.Add("priority", "is required")
	case !h.Priority.IsValid():
		errs.Add("priority", "must be one of LOW, MEDIUM, HIGH, URGENT")
	}
}

func (h OrderHeader) trimmed() OrderHeader {
	return OrderHeader{
		Department:    strings.TrimSpace(h.Department),
		Location:      strings.TrimSpace(h.Location),
		Kind:          strings.TrimSpace(h.Kind),
		Description:   strings.TrimSpace(h.Description),
		Justification: strings.TrimSpace(h.Justification),
		Priority:      h.Priority,
	}
}

// SupplierInput is the supplier information as typed on the form
type SupplierInput struct {
	Name  string
	TaxID string
	Email string
}

// IsEmpty reports whether the requester left every supplier field blank
func (s SupplierInput) IsEmpty() bool {
	return strings.TrimSpace(s.Name) == "" && matching.NormalizeTaxID(s.TaxID) == "" && strings.TrimSpace(s.Email) == ""
}

// PurchaseOrder is the aggregate root for a purchase request: header, line
// items and approval decision.
type PurchaseOrder struct {
	shared.BaseAggregateRoot
	RequesterID     uuid.UUID
	Department      string
	Location        string
	Kind            string
	Description     string
	Justification   string
	Priority        Priority
	SupplierName    string
	SupplierTaxID   string
	SupplierEmail   string
	SupplierID      *uuid.UUID
	Competence      string // YYYY-MM of creation
	Status          OrderStatus
	DecidedBy       *uuid.UUID
	DecidedAt       *time.Time
	DecisionNote    string
	RejectionReason string
	Items           []PurchaseOrderItem
}

// Header returns the header fields of the order
func (o *PurchaseOrder) Header() OrderHeader {
	return OrderHeader{
		Department:    o.Department,
		Location:      o.Location,
		Kind:          o.Kind,
		Description:   o.Description,
		Justification: o.Justification,
		Priority:      o.Priority,
	}
}

// NewPurchaseOrder creates a pending order together with its creation
// history entry. supplierID is the already resolved supplier, if any.
func NewPurchaseOrder(requesterID uuid.UUID, header OrderHeader, supplier SupplierInput, supplierID *uuid.UUID, items []ItemInput) (*PurchaseOrder, *StatusHistoryEntry, error) {
	var errs shared.FieldErrors
	if requesterID == uuid.Nil {
		errs.Add("requester_id", "is required")
	}
	header.Validate(&errs)
	ValidateItems(items, &errs)
	if err := errs.Err(); err != nil {
		return nil, nil, err
	}

	header = header.trimmed()
	order := &PurchaseOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		RequesterID:       requesterID,
		Department:        header.Department,
		Location:          header.Location,
		Kind:              header.Kind,
		Description:       header.Description,
		Justification:     header.Justification,
		Priority:          header.Priority,
		Status:            OrderStatusPendingApproval,
	}
	order.Competence = CompetenceOf(order.CreatedAt)
	order.setSupplier(supplier, supplierID)

	order.Items = make([]PurchaseOrderItem, 0, len(items))
	for i, in := range items {
		order.Items = append(order.Items, newItem(order.ID, i, in, order.CreatedAt))
	}

	entry := NewCreationEntry(order.ID, requesterID, order.CreatedAt)
	order.AddDomainEvent(NewOrderCreatedEvent(order))
	return order, entry, nil
}

func (o *PurchaseOrder) setSupplier(supplier SupplierInput, supplierID *uuid.UUID) {
	o.SupplierName = strings.TrimSpace(supplier.Name)
	o.SupplierTaxID = matching.NormalizeTaxID(supplier.TaxID)
	o.SupplierEmail = strings.TrimSpace(strings.ToLower(supplier.Email))
	o.SupplierID = supplierID
}

// Revise replaces header, supplier and items of a pending order. It returns
// the item plan the repository must apply and whether anything changed.
func (o *PurchaseOrder) Revise(actorID uuid.UUID, header OrderHeader, supplier SupplierInput, supplierID *uuid.UUID, items []ItemInput) (*ItemPlan, bool, error) {
	if o.Status != OrderStatusPendingApproval {
		return nil, false, shared.NewInvalidTransitionError(fmt.Sprintf("Cannot update order in %s status", o.Status))
	}

	var errs shared.FieldErrors
	header.Validate(&errs)
	ValidateItems(items, &errs)
	plan, planErrs := o.planItems(items)
	errs = append(errs, planErrs...)
	if err := errs.Err(); err != nil {
		return nil, false, err
	}

	header = header.trimmed()
	before := o.snapshot()
	o.Department = header.Department
	o.Location = header.Location
	o.Kind = header.Kind
	o.Description = header.Description
	o.Justification = header.Justification
	o.Priority = header.Priority
	o.setSupplier(supplier, supplierID)

	headerChanged := before != o.snapshot()
	if !headerChanged && plan.IsEmpty() {
		return plan, false, nil
	}

	o.Items = plan.Result
	o.Touch()
	o.IncrementVersion()
	o.AddDomainEvent(NewOrderUpdatedEvent(o, actorID, plan))
	return plan, true, nil
}

type headerSnapshot struct {
	department, location, kind, description, justification string
	priority                                               Priority
	supplierName, supplierTaxID, supplierEmail             string
	supplierID                                             uuid.UUID
}

func (o *PurchaseOrder) snapshot() headerSnapshot {
	s := headerSnapshot{
		department:    o.Department,
		location:      o.Location,
		kind:          o.Kind,
		description:   o.Description,
		justification: o.Justification,
		priority:      o.Priority,
		supplierName:  o.SupplierName,
		supplierTaxID: o.SupplierTaxID,
		supplierEmail: o.SupplierEmail,
	}
	if o.SupplierID != nil {
		s.supplierID = *o.SupplierID
	}
	return s
}

// Approve moves a pending order to APPROVED and returns its history entry
func (o *PurchaseOrder) Approve(actorID uuid.UUID, note string, at time.Time) (*StatusHistoryEntry, error) {
	if actorID == uuid.Nil {
		return nil, shared.NewValidationError(shared.FieldError{Field: "actor_id", Message: "is required"})
	}
	if !o.Status.CanTransitionTo(OrderStatusApproved) {
		return nil, shared.NewInvalidTransitionError(fmt.Sprintf("Cannot approve order in %s status", o.Status))
	}

	note = strings.TrimSpace(note)
	previous := o.Status
	o.Status = OrderStatusApproved
	o.decide(actorID, at)
	o.DecisionNote = note

	if note == "" {
		note = DefaultApprovalNote
	}
	entry := NewTransitionEntry(o.ID, previous, o.Status, actorID, note, at)
	o.AddDomainEvent(NewOrderApprovedEvent(o, note))
	return entry, nil
}

// Reject moves a pending order to REJECTED. The reason is mandatory and is
// checked before the state machine.
func (o *PurchaseOrder) Reject(actorID uuid.UUID, reason string, at time.Time) (*StatusHistoryEntry, error) {
	var errs shared.FieldErrors
	if actorID == uuid.Nil {
		errs.Add("actor_id", "is required")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		errs.Add("reason", "is required")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	if !o.Status.CanTransitionTo(OrderStatusRejected) {
		return nil, shared.NewInvalidTransitionError(fmt.Sprintf("Cannot reject order in %s status", o.Status))
	}

	previous := o.Status
	o.Status = OrderStatusRejected
	o.decide(actorID, at)
	o.RejectionReason = reason

	entry := NewTransitionEntry(o.ID, previous, o.Status, actorID, reason, at)
	o.AddDomainEvent(NewOrderRejectedEvent(o))
	return entry, nil
}

func (o *PurchaseOrder) decide(actorID uuid.UUID, at time.Time) {
	decidedAt := at.UTC()
	o.DecidedBy = &actorID
	o.DecidedAt = &decidedAt
	o.UpdatedAt = decidedAt
	o.IncrementVersion()
}

// CompetenceOf formats the accounting month of t as YYYY-MM
func CompetenceOf(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// IsValidCompetence checks the YYYY-MM format
func IsValidCompetence(c string) bool {
	_, err := time.Parse("2006-01", c)
	return err == nil
}
