package partner

import (
	"context"

	"github.com/Z3RO333/formularios/internal/application/uow"
	"github.com/Z3RO333/formularios/internal/domain/matching"
	"github.com/Z3RO333/formularios/internal/domain/partner"
	"github.com/Z3RO333/formularios/internal/domain/shared"
	"github.com/google/uuid"
)

// SupplierService answers read queries against the supplier registry
type SupplierService struct {
	supplierRepo partner.SupplierRepository
}

// NewSupplierService creates a new SupplierService
func NewSupplierService(supplierRepo partner.SupplierRepository) *SupplierService {
	return &SupplierService{
		supplierRepo: supplierRepo,
	}
}

// GetByID retrieves a live supplier. Merged suppliers are reported as not found.
func (s *SupplierService) GetByID(ctx context.Context, id uuid.UUID) (*SupplierResponse, error) {
	var supplier *partner.Supplier
	err := uow.ReadWithRetry(ctx, func(ctx context.Context) error {
		var err error
		supplier, err = s.supplierRepo.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if supplier.IsTombstoned() {
		return nil, shared.NewNotFoundError("supplier", id)
	}

	response := ToSupplierResponse(supplier)
	return &response, nil
}

// List retrieves a page of live suppliers
func (s *SupplierService) List(ctx context.Context, filter SupplierListFilter) (*SupplierListResponse, error) {
	domainFilter := partner.SupplierFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			Search:   filter.Search,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
		}.Normalize(),
		TaxID: matching.NormalizeTaxID(filter.TaxID),
	}

	var (
		suppliers []partner.Supplier
		total     int64
	)
	err := uow.ReadWithRetry(ctx, func(ctx context.Context) error {
		var err error
		suppliers, total, err = s.supplierRepo.FindActive(ctx, domainFilter)
		return err
	})
	if err != nil {
		return nil, err
	}

	page := shared.NewPaginated(ToSupplierResponses(suppliers), total, domainFilter.Page, domainFilter.PageSize)
	return &SupplierListResponse{
		Items:      page.Items,
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}, nil
}
