package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/Z3RO333/formularios/internal/domain/shared"
	"github.com/Z3RO333/formularios/internal/domain/trade"
	"github.com/Z3RO333/formularios/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPurchaseOrderRepository implements PurchaseOrderRepository using GORM
type GormPurchaseOrderRepository struct {
	db *gorm.DB
}

// NewGormPurchaseOrderRepository creates a new GormPurchaseOrderRepository
func NewGormPurchaseOrderRepository(db *gorm.DB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{db: db}
}

// FindByID finds an order with its items
func (r *GormPurchaseOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.PurchaseOrder, error) {
	return r.findOne(ctx, r.db.WithContext(ctx), id)
}

// FindByIDForUpdate finds an order with its items and locks the order row
// until the transaction ends
func (r *GormPurchaseOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*trade.PurchaseOrder, error) {
	query := r.db.WithContext(ctx)
	if isPostgres(r.db) {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.findOne(ctx, query, id)
}

func (r *GormPurchaseOrderRepository) findOne(ctx context.Context, query *gorm.DB, id uuid.UUID) (*trade.PurchaseOrder, error) {
	var model models.PurchaseOrderModel
	if err := query.Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateLookupError(err, "purchase order", id)
	}
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", id).
		Order("position ASC, created_at ASC").
		Find(&model.Items).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll returns a page of order headers, newest first unless the filter
// asks for another order. Items are not loaded.
func (r *GormPurchaseOrderRepository) FindAll(ctx context.Context, filter trade.OrderFilter) ([]trade.PurchaseOrder, int64, error) {
	filter.Filter = filter.Filter.Normalize()

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.PurchaseOrderModel{}).
		Scopes(orderFilter(filter)).
		Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	sortField := ValidateSortField(filter.OrderBy, PurchaseOrderSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)

	var rows []models.PurchaseOrderModel
	if err := r.db.WithContext(ctx).
		Scopes(orderFilter(filter)).
		Order(sortField + " " + sortOrder).
		Order("id " + sortOrder).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, translateError(err)
	}

	orders := make([]trade.PurchaseOrder, len(rows))
	for i := range rows {
		orders[i] = *rows[i].ToDomain()
	}
	return orders, total, nil
}

// orderFilter applies the listing conditions without pagination
func orderFilter(filter trade.OrderFilter) func(*gorm.DB) *gorm.DB {
	return func(query *gorm.DB) *gorm.DB {
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
		if filter.SupplierID != nil {
			query = query.Where("supplier_id = ?", *filter.SupplierID)
		}
		if filter.RequesterID != nil {
			query = query.Where("requester_id = ?", *filter.RequesterID)
		}
		if filter.Department != "" {
			query = query.Where("department = ?", filter.Department)
		}
		if filter.Location != "" {
			query = query.Where("location = ?", filter.Location)
		}
		if filter.Competence != "" {
			query = query.Where("competence = ?", filter.Competence)
		}
		if filter.CreatedFrom != nil {
			query = query.Where("created_at >= ?", filter.CreatedFrom.UTC())
		}
		if filter.CreatedTo != nil {
			query = query.Where("created_at <= ?", filter.CreatedTo.UTC())
		}
		if search := strings.TrimSpace(filter.Search); search != "" {
			pattern := "%" + strings.ToLower(search) + "%"
			query = query.Where("LOWER(description) LIKE ? OR LOWER(supplier_name) LIKE ?", pattern, pattern)
		}
		return query
	}
}

// Create inserts the order header and all of its items
func (r *GormPurchaseOrderRepository) Create(ctx context.Context, order *trade.PurchaseOrder) error {
	db := r.db.WithContext(ctx)
	model := models.PurchaseOrderModelFromDomain(order)
	items := model.Items
	model.Items = nil

	if err := db.Omit(clause.Associations).Create(model).Error; err != nil {
		return translateError(err)
	}
	if len(items) == 0 {
		return nil
	}
	if err := db.Create(&items).Error; err != nil {
		return translateError(err)
	}
	return nil
}

// SaveHeader writes header, supplier and decision fields. The order's version
// must already be bumped by the domain; the row is only written when the
// stored version is the one before it.
func (r *GormPurchaseOrderRepository) SaveHeader(ctx context.Context, order *trade.PurchaseOrder) error {
	expected := order.Version - 1
	result := r.db.WithContext(ctx).
		Model(&models.PurchaseOrderModel{}).
		Where("id = ? AND version = ?", order.ID, expected).
		Updates(map[string]any{
			"department":       order.Department,
			"location":         order.Location,
			"kind":             order.Kind,
			"description":      order.Description,
			"justification":    order.Justification,
			"priority":         order.Priority,
			"supplier_name":    order.SupplierName,
			"supplier_tax_id":  order.SupplierTaxID,
			"supplier_email":   order.SupplierEmail,
			"supplier_id":      order.SupplierID,
			"status":           order.Status,
			"decided_by":       order.DecidedBy,
			"decided_at":       order.DecidedAt,
			"decision_note":    order.DecisionNote,
			"rejection_reason": order.RejectionReason,
			"version":          order.Version,
			"updated_at":       order.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewConflictError("The order has been modified by another user", nil)
	}
	return nil
}

// ApplyItemPlan writes an item diff: updates, then inserts, then deletes.
// Callers run it inside a unit of work so a failure at any step leaves the
// stored items untouched.
func (r *GormPurchaseOrderRepository) ApplyItemPlan(ctx context.Context, orderID uuid.UUID, plan *trade.ItemPlan) error {
	db := r.db.WithContext(ctx)

	for i := range plan.ToUpdate {
		item := &plan.ToUpdate[i]
		result := db.Model(&models.PurchaseOrderItemModel{}).
			Where("id = ? AND order_id = ?", item.ID, orderID).
			Updates(map[string]any{
				"position":             item.Position,
				"description":          item.Description,
				"quantity":             item.Quantity,
				"unit":                 item.Unit,
				"estimated_unit_price": item.EstimatedUnitPrice,
				"note":                 item.Note,
				"updated_at":           item.UpdatedAt,
			})
		if result.Error != nil {
			return translateError(result.Error)
		}
		if result.RowsAffected == 0 {
			return shared.NewConflictError("An order item was removed by another user", nil)
		}
	}

	if len(plan.ToInsert) > 0 {
		rows := make([]models.PurchaseOrderItemModel, len(plan.ToInsert))
		for i := range plan.ToInsert {
			rows[i].FromDomain(&plan.ToInsert[i])
			rows[i].OrderID = orderID
		}
		if err := db.Create(&rows).Error; err != nil {
			return translateError(err)
		}
	}

	if len(plan.ToDelete) > 0 {
		if err := db.Where("order_id = ? AND id IN ?", orderID, plan.ToDelete).
			Delete(&models.PurchaseOrderItemModel{}).Error; err != nil {
			return translateError(err)
		}
	}
	return nil
}

// ReassignSupplier points every order of one supplier at another. Each moved
// order gets a new version so a stale edit cannot write the old supplier back.
func (r *GormPurchaseOrderRepository) ReassignSupplier(ctx context.Context, fromID, toID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.PurchaseOrderModel{}).
		Where("supplier_id = ?", fromID).
		Updates(map[string]any{
			"supplier_id": toID,
			"version":     gorm.Expr("version + 1"),
			"updated_at":  time.Now().UTC(),
		})
	if result.Error != nil {
		return 0, translateError(result.Error)
	}
	return result.RowsAffected, nil
}

// Ensure GormPurchaseOrderRepository implements PurchaseOrderRepository
var _ trade.PurchaseOrderRepository = (*GormPurchaseOrderRepository)(nil)
