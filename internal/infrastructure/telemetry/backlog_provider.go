package telemetry

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// GormBacklogProvider implements BacklogProvider using GORM.
// It queries the purchase_orders and suppliers tables directly.
type GormBacklogProvider struct {
	db *gorm.DB
}

// NewGormBacklogProvider creates a new GormBacklogProvider.
func NewGormBacklogProvider(db *gorm.DB) *GormBacklogProvider {
	return &GormBacklogProvider{db: db}
}

// CountPendingOrders returns how many orders await a decision.
func (p *GormBacklogProvider) CountPendingOrders(ctx context.Context) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("purchase_orders").
		Where("status = ?", "PENDING_APPROVAL").
		Count(&count).Error
	return count, err
}

// OldestPendingSince returns the creation time of the oldest pending order.
func (p *GormBacklogProvider) OldestPendingSince(ctx context.Context) (time.Time, error) {
	var oldest []time.Time
	err := p.db.WithContext(ctx).
		Table("purchase_orders").
		Where("status = ?", "PENDING_APPROVAL").
		Order("created_at ASC").
		Limit(1).
		Pluck("created_at", &oldest).Error
	if err != nil || len(oldest) == 0 {
		return time.Time{}, err
	}
	return oldest[0], nil
}

// CountActiveSuppliers returns the number of live suppliers.
func (p *GormBacklogProvider) CountActiveSuppliers(ctx context.Context) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("suppliers").
		Where("merged_into IS NULL").
		Count(&count).Error
	return count, err
}

var _ BacklogProvider = (*GormBacklogProvider)(nil)
