package partner

import (
	"time"

	"github.com/Z3RO333/formularios/internal/domain/partner"
	"github.com/google/uuid"
)

// =============================================================================
// Supplier DTOs
// =============================================================================

// SupplierResponse represents a supplier in API responses
type SupplierResponse struct {
	ID            uuid.UUID  `json:"id"`
	CanonicalName string     `json:"canonical_name"`
	TaxID         string     `json:"tax_id,omitempty"`
	Email         string     `json:"email,omitempty"`
	Aliases       []string   `json:"aliases"`
	MergedInto    *uuid.UUID `json:"merged_into,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	Version       int        `json:"version"`
}

// SupplierListFilter represents filter options for supplier list
type SupplierListFilter struct {
	Search   string `form:"search" binding:"max=200"`
	TaxID    string `form:"tax_id" binding:"max=20"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=canonical_name created_at updated_at"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// SupplierListResponse is a page of suppliers
type SupplierListResponse struct {
	Items      []SupplierResponse `json:"items"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	TotalPages int                `json:"total_pages"`
}

// ResolveSupplierRequest is the supplier data as typed by a requester
type ResolveSupplierRequest struct {
	Name  string `json:"name" binding:"max=200"`
	TaxID string `json:"tax_id" binding:"max=30"`
	Email string `json:"email" binding:"omitempty,email,max=200"`
}

// ResolveSupplierResponse reports which supplier a typed name resolved to
type ResolveSupplierResponse struct {
	Supplier SupplierResponse `json:"supplier"`
	Kind     string           `json:"kind"`
	Score    float64          `json:"score"`
}

// MergeSuppliersRequest folds SecondaryID into PrimaryID
type MergeSuppliersRequest struct {
	PrimaryID   uuid.UUID `json:"primary_id" binding:"required"`
	SecondaryID uuid.UUID `json:"secondary_id" binding:"required"`
}

// MergeSuppliersResponse summarizes a completed merge
type MergeSuppliersResponse struct {
	PrimaryID        uuid.UUID `json:"primary_id"`
	SecondaryID      uuid.UUID `json:"secondary_id"`
	InheritedAliases []string  `json:"inherited_aliases"`
	OrdersMoved      int64     `json:"orders_moved"`
	AttachmentsMoved int64     `json:"attachments_moved"`
}

// SupplierSummary is the short form of a supplier used in duplicate reports
type SupplierSummary struct {
	ID            uuid.UUID `json:"id"`
	CanonicalName string    `json:"canonical_name"`
	TaxID         string    `json:"tax_id,omitempty"`
}

// DuplicateCandidateResponse is a pair of live suppliers that look alike
type DuplicateCandidateResponse struct {
	First  SupplierSummary `json:"first"`
	Second SupplierSummary `json:"second"`
	Score  float64         `json:"score"`
}

// ToSupplierResponse converts a domain Supplier to SupplierResponse
func ToSupplierResponse(s *partner.Supplier) SupplierResponse {
	aliases := make([]string, len(s.Aliases))
	copy(aliases, s.Aliases)
	return SupplierResponse{
		ID:            s.ID,
		CanonicalName: s.CanonicalName,
		TaxID:         s.TaxID,
		Email:         s.Email,
		Aliases:       aliases,
		MergedInto:    s.MergedInto,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
		Version:       s.Version,
	}
}

// ToSupplierResponses converts a slice of domain Suppliers to SupplierResponses
func ToSupplierResponses(suppliers []partner.Supplier) []SupplierResponse {
	responses := make([]SupplierResponse, len(suppliers))
	for i := range suppliers {
		responses[i] = ToSupplierResponse(&suppliers[i])
	}
	return responses
}

// ToResolveSupplierResponse converts a Resolution to its API form
func ToResolveSupplierResponse(r *Resolution) ResolveSupplierResponse {
	return ResolveSupplierResponse{
		Supplier: ToSupplierResponse(r.Supplier),
		Kind:     string(r.Kind),
		Score:    r.Score,
	}
}

// ToMergeSuppliersResponse converts a MergeResult to its API form
func ToMergeSuppliersResponse(r *MergeResult) MergeSuppliersResponse {
	inherited := r.InheritedAliases
	if inherited == nil {
		inherited = []string{}
	}
	return MergeSuppliersResponse{
		PrimaryID:        r.PrimaryID,
		SecondaryID:      r.SecondaryID,
		InheritedAliases: inherited,
		OrdersMoved:      r.OrdersMoved,
		AttachmentsMoved: r.AttachmentsMoved,
	}
}

// ToDuplicateCandidateResponses converts duplicate candidates to their API form
func ToDuplicateCandidateResponses(candidates []DuplicateCandidate) []DuplicateCandidateResponse {
	responses := make([]DuplicateCandidateResponse, len(candidates))
	for i, c := range candidates {
		responses[i] = DuplicateCandidateResponse{
			First:  toSupplierSummary(c.First),
			Second: toSupplierSummary(c.Second),
			Score:  c.Score,
		}
	}
	return responses
}

func toSupplierSummary(s *partner.Supplier) SupplierSummary {
	return SupplierSummary{
		ID:            s.ID,
		CanonicalName: s.CanonicalName,
		TaxID:         s.TaxID,
	}
}
