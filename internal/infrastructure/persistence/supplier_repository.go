package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Z3RO333/formularios/internal/domain/partner"
	"github.com/Z3RO333/formularios/internal/domain/shared"
	"github.com/Z3RO333/formularios/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// supplierRegistryLockKey is the advisory lock taken before a match-or-create
// decision. Any constant works as long as every resolver uses the same one.
const supplierRegistryLockKey int64 = 0x5355_5050_4c52 // "SUPPLR"

// GormSupplierRepository implements SupplierRepository using GORM
type GormSupplierRepository struct {
	db *gorm.DB
}

// NewGormSupplierRepository creates a new GormSupplierRepository
func NewGormSupplierRepository(db *gorm.DB) *GormSupplierRepository {
	return &GormSupplierRepository{db: db}
}

// FindByID finds a supplier by its ID, tombstones included
func (r *GormSupplierRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Supplier, error) {
	return r.findOne(ctx, r.db.WithContext(ctx), id)
}

// FindByIDForUpdate finds a supplier and locks its row until the transaction ends
func (r *GormSupplierRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*partner.Supplier, error) {
	query := r.db.WithContext(ctx)
	if isPostgres(r.db) {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.findOne(ctx, query, id)
}

func (r *GormSupplierRepository) findOne(ctx context.Context, query *gorm.DB, id uuid.UUID) (*partner.Supplier, error) {
	var model models.SupplierModel
	if err := query.Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateLookupError(err, "supplier", id)
	}
	suppliers, err := r.withAliases(ctx, []models.SupplierModel{model})
	if err != nil {
		return nil, err
	}
	return &suppliers[0], nil
}

// FindActiveByTaxID finds the live supplier holding a digits-only tax id
func (r *GormSupplierRepository) FindActiveByTaxID(ctx context.Context, taxID string) (*partner.Supplier, error) {
	if taxID == "" {
		return nil, shared.ErrNotFound
	}
	var model models.SupplierModel
	err := r.db.WithContext(ctx).
		Where("tax_id = ? AND merged_into IS NULL", taxID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewDomainError(shared.KindNotFound, "NOT_FOUND", "No live supplier holds this tax id")
		}
		return nil, translateError(err)
	}
	suppliers, err := r.withAliases(ctx, []models.SupplierModel{model})
	if err != nil {
		return nil, err
	}
	return &suppliers[0], nil
}

// FindMergedByTaxID finds the most recently merged tombstone holding a
// digits-only tax id
func (r *GormSupplierRepository) FindMergedByTaxID(ctx context.Context, taxID string) (*partner.Supplier, error) {
	if taxID == "" {
		return nil, shared.ErrNotFound
	}
	var model models.SupplierModel
	err := r.db.WithContext(ctx).
		Where("tax_id = ? AND merged_into IS NOT NULL", taxID).
		Order("updated_at DESC, id ASC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewDomainError(shared.KindNotFound, "NOT_FOUND", "No merged supplier holds this tax id")
		}
		return nil, translateError(err)
	}
	suppliers, err := r.withAliases(ctx, []models.SupplierModel{model})
	if err != nil {
		return nil, err
	}
	return &suppliers[0], nil
}

// ListActive returns every live supplier ordered by creation time then id
func (r *GormSupplierRepository) ListActive(ctx context.Context) ([]partner.Supplier, error) {
	var rows []models.SupplierModel
	if err := r.db.WithContext(ctx).
		Where("merged_into IS NULL").
		Order("created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	return r.withAliases(ctx, rows)
}

// FindActive returns a page of live suppliers matching the filter
func (r *GormSupplierRepository) FindActive(ctx context.Context, filter partner.SupplierFilter) ([]partner.Supplier, int64, error) {
	filter.Filter = filter.Filter.Normalize()

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.SupplierModel{}).
		Scopes(activeSupplierFilter(filter)).
		Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	sortField := ValidateSortField(filter.OrderBy, SupplierSortFields, "canonical_name")
	sortOrder := "ASC"
	if filter.OrderDir != "" {
		sortOrder = ValidateSortOrder(filter.OrderDir)
	}

	var rows []models.SupplierModel
	if err := r.db.WithContext(ctx).
		Scopes(activeSupplierFilter(filter)).
		Order(sortField + " " + sortOrder).
		Order("id ASC").
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, translateError(err)
	}

	suppliers, err := r.withAliases(ctx, rows)
	if err != nil {
		return nil, 0, err
	}
	return suppliers, total, nil
}

// activeSupplierFilter applies the listing conditions without pagination
func activeSupplierFilter(filter partner.SupplierFilter) func(*gorm.DB) *gorm.DB {
	return func(query *gorm.DB) *gorm.DB {
		query = query.Where("merged_into IS NULL")
		if filter.TaxID != "" {
			query = query.Where("tax_id = ?", filter.TaxID)
		}
		if search := strings.TrimSpace(filter.Search); search != "" {
			pattern := "%" + strings.ToLower(search) + "%"
			query = query.Where(
				"LOWER(canonical_name) LIKE ? OR EXISTS (SELECT 1 FROM supplier_aliases a WHERE a.supplier_id = suppliers.id AND LOWER(a.alias) LIKE ?)",
				pattern, pattern,
			)
		}
		return query
	}
}

// Create inserts a new supplier together with its aliases
func (r *GormSupplierRepository) Create(ctx context.Context, supplier *partner.Supplier) error {
	db := r.db.WithContext(ctx)
	if err := db.Create(models.SupplierModelFromDomain(supplier)).Error; err != nil {
		return translateError(err)
	}
	return r.insertAliases(db, supplier.ID, supplier.Aliases)
}

// AddAliases registers aliases for a supplier, ignoring ones already present
func (r *GormSupplierRepository) AddAliases(ctx context.Context, supplierID uuid.UUID, aliases ...string) error {
	return r.insertAliases(r.db.WithContext(ctx), supplierID, aliases)
}

func (r *GormSupplierRepository) insertAliases(db *gorm.DB, supplierID uuid.UUID, aliases []string) error {
	cleaned := make([]string, 0, len(aliases))
	for _, a := range aliases {
		if a = strings.TrimSpace(a); a != "" {
			cleaned = append(cleaned, a)
		}
	}
	if len(cleaned) == 0 {
		return nil
	}
	rows := models.SupplierAliasModels(supplierID, cleaned, time.Now().UTC())
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
		return translateError(err)
	}
	return nil
}

// MarkMerged tombstones secondaryID in favor of primaryID. Only a live
// supplier can be tombstoned; anything else is a NotFound.
func (r *GormSupplierRepository) MarkMerged(ctx context.Context, secondaryID, primaryID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.SupplierModel{}).
		Where("id = ? AND merged_into IS NULL", secondaryID).
		Updates(map[string]any{
			"merged_into": primaryID,
			"version":     gorm.Expr("version + 1"),
			"updated_at":  time.Now().UTC(),
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("supplier", secondaryID)
	}
	return nil
}

// SetTaxID stores a digits-only tax id on a live supplier
func (r *GormSupplierRepository) SetTaxID(ctx context.Context, id uuid.UUID, taxID string) error {
	result := r.db.WithContext(ctx).
		Model(&models.SupplierModel{}).
		Where("id = ? AND merged_into IS NULL", id).
		Updates(map[string]any{
			"tax_id":     taxID,
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("supplier", id)
	}
	return nil
}

// LockRegistry serializes match-or-create decisions for the rest of the
// transaction. On SQLite the single writer connection already does.
func (r *GormSupplierRepository) LockRegistry(ctx context.Context) error {
	if !isPostgres(r.db) {
		return nil
	}
	if err := r.db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(?)", supplierRegistryLockKey).Error; err != nil {
		return translateError(err)
	}
	return nil
}

// withAliases converts rows to domain suppliers, loading every alias in one query
func (r *GormSupplierRepository) withAliases(ctx context.Context, rows []models.SupplierModel) ([]partner.Supplier, error) {
	suppliers := make([]partner.Supplier, 0, len(rows))
	if len(rows) == 0 {
		return suppliers, nil
	}

	ids := make([]uuid.UUID, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}

	var aliasRows []models.SupplierAliasModel
	if err := r.db.WithContext(ctx).
		Where("supplier_id IN ?", ids).
		Order("created_at ASC, alias ASC").
		Find(&aliasRows).Error; err != nil {
		return nil, translateError(err)
	}

	bySupplier := make(map[uuid.UUID][]string, len(rows))
	for _, a := range aliasRows {
		bySupplier[a.SupplierID] = append(bySupplier[a.SupplierID], a.Alias)
	}

	for i := range rows {
		suppliers = append(suppliers, *rows[i].ToDomain(bySupplier[rows[i].ID]))
	}
	return suppliers, nil
}

// Ensure GormSupplierRepository implements SupplierRepository
var _ partner.SupplierRepository = (*GormSupplierRepository)(nil)
