package partner

import (
	"github.com/Z3RO333/formularios/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constant for Supplier
const AggregateTypeSupplier = "Supplier"

// Event type constants for Supplier
const (
	EventTypeSupplierCreated         = "SupplierCreated"
	EventTypeSupplierAliasRegistered = "SupplierAliasRegistered"
	EventTypeSupplierResolved        = "SupplierResolved"
	EventTypeSuppliersMerged         = "SuppliersMerged"
)

// MatchKind tells how a resolution found its supplier
type MatchKind string

const (
	MatchKindTaxID   MatchKind = "tax_id"
	MatchKindFuzzy   MatchKind = "fuzzy"
	MatchKindCreated MatchKind = "created"
)

// SupplierCreatedEvent is published when a new supplier is created
type SupplierCreatedEvent struct {
	shared.BaseDomainEvent
	SupplierID    uuid.UUID `json:"supplier_id"`
	CanonicalName string    `json:"canonical_name"`
	TaxID         string    `json:"tax_id,omitempty"`
}

// NewSupplierCreatedEvent creates a new SupplierCreatedEvent
func NewSupplierCreatedEvent(s *Supplier, actorID uuid.UUID) *SupplierCreatedEvent {
	return &SupplierCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSupplierCreated, AggregateTypeSupplier, s.ID, actorID),
		SupplierID:      s.ID,
		CanonicalName:   s.CanonicalName,
		TaxID:           s.TaxID,
	}
}

// SupplierAliasRegisteredEvent is published when resolution learns a new spelling
type SupplierAliasRegisteredEvent struct {
	shared.BaseDomainEvent
	SupplierID uuid.UUID `json:"supplier_id"`
	Alias      string    `json:"alias"`
}

// NewSupplierAliasRegisteredEvent creates a new SupplierAliasRegisteredEvent
func NewSupplierAliasRegisteredEvent(s *Supplier, alias string, actorID uuid.UUID) *SupplierAliasRegisteredEvent {
	return &SupplierAliasRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSupplierAliasRegistered, AggregateTypeSupplier, s.ID, actorID),
		SupplierID:      s.ID,
		Alias:           alias,
	}
}

// SupplierResolvedEvent records the outcome of one resolution
type SupplierResolvedEvent struct {
	shared.BaseDomainEvent
	SupplierID uuid.UUID `json:"supplier_id"`
	Input      string    `json:"input"`
	Kind       MatchKind `json:"kind"`
	Score      float64   `json:"score"`
}

// NewSupplierResolvedEvent creates a new SupplierResolvedEvent
func NewSupplierResolvedEvent(s *Supplier, input string, kind MatchKind, score float64, actorID uuid.UUID) *SupplierResolvedEvent {
	return &SupplierResolvedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSupplierResolved, AggregateTypeSupplier, s.ID, actorID),
		SupplierID:      s.ID,
		Input:           input,
		Kind:            kind,
		Score:           score,
	}
}

// SuppliersMergedEvent is published when a duplicate is folded into a primary
type SuppliersMergedEvent struct {
	shared.BaseDomainEvent
	PrimaryID        uuid.UUID `json:"primary_id"`
	SecondaryID      uuid.UUID `json:"secondary_id"`
	InheritedAliases []string  `json:"inherited_aliases"`
	OrdersMoved      int64     `json:"orders_moved"`
	AttachmentsMoved int64     `json:"attachments_moved"`
}

// NewSuppliersMergedEvent creates a new SuppliersMergedEvent. The moved counts
// are filled in by the merger once the cascade has run.
func NewSuppliersMergedEvent(primary, secondary *Supplier, inherited []string, actorID uuid.UUID) *SuppliersMergedEvent {
	return &SuppliersMergedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeSuppliersMerged, AggregateTypeSupplier, secondary.ID, actorID),
		PrimaryID:        primary.ID,
		SecondaryID:      secondary.ID,
		InheritedAliases: inherited,
	}
}
