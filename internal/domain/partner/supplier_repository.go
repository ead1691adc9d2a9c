package partner

import (
	"context"

	"github.com/Z3RO333/formularios/internal/domain/shared"
	"github.com/google/uuid"
)

// SupplierFilter narrows supplier listings
type SupplierFilter struct {
	shared.Filter
	// TaxID matches digits-only tax ids exactly
	TaxID string
}

// SupplierRepository defines the interface for supplier persistence.
// Every method that returns suppliers loads their aliases.
type SupplierRepository interface {
	// FindByID finds a supplier by its ID, tombstones included
	FindByID(ctx context.Context, id uuid.UUID) (*Supplier, error)

	// FindByIDForUpdate finds a supplier and locks its row until the transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Supplier, error)

	// FindActiveByTaxID finds the live supplier holding a digits-only tax id
	FindActiveByTaxID(ctx context.Context, taxID string) (*Supplier, error)

	// FindMergedByTaxID finds the most recently merged tombstone holding a
	// digits-only tax id
	FindMergedByTaxID(ctx context.Context, taxID string) (*Supplier, error)

	// ListActive returns every live supplier ordered by creation time then id
	ListActive(ctx context.Context) ([]Supplier, error)

	// FindActive returns a page of live suppliers matching the filter
	FindActive(ctx context.Context, filter SupplierFilter) ([]Supplier, int64, error)

	// Create inserts a new supplier together with its aliases
	Create(ctx context.Context, supplier *Supplier) error

	// AddAliases registers aliases for a supplier, ignoring ones already present
	AddAliases(ctx context.Context, supplierID uuid.UUID, aliases ...string) error

	// MarkMerged tombstones secondaryID in favor of primaryID
	MarkMerged(ctx context.Context, secondaryID, primaryID uuid.UUID) error

	// SetTaxID stores a digits-only tax id on a live supplier
	SetTaxID(ctx context.Context, id uuid.UUID, taxID string) error

	// LockRegistry serializes match-or-create decisions for the rest of the transaction
	LockRegistry(ctx context.Context) error
}
