package persistence

import (
	"context"

	"github.com/Z3RO333/formularios/internal/domain/trade"
	"github.com/Z3RO333/formularios/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStatusHistoryRepository implements StatusHistoryRepository using GORM.
// It only ever inserts and reads.
type GormStatusHistoryRepository struct {
	db *gorm.DB
}

// NewGormStatusHistoryRepository creates a new GormStatusHistoryRepository
func NewGormStatusHistoryRepository(db *gorm.DB) *GormStatusHistoryRepository {
	return &GormStatusHistoryRepository{db: db}
}

// Append inserts one entry
func (r *GormStatusHistoryRepository) Append(ctx context.Context, entry *trade.StatusHistoryEntry) error {
	if err := r.db.WithContext(ctx).Create(models.StatusHistoryModelFromDomain(entry)).Error; err != nil {
		return translateError(err)
	}
	return nil
}

// ListByOrder returns the entries of an order, oldest first. The creation
// entry sorts first when timestamps collide.
func (r *GormStatusHistoryRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]trade.StatusHistoryEntry, error) {
	var rows []models.StatusHistoryModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("changed_at ASC").
		Order("CASE WHEN previous_status IS NULL THEN 0 ELSE 1 END").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}

	entries := make([]trade.StatusHistoryEntry, len(rows))
	for i := range rows {
		entries[i] = *rows[i].ToDomain()
	}
	return entries, nil
}

// Ensure GormStatusHistoryRepository implements StatusHistoryRepository
var _ trade.StatusHistoryRepository = (*GormStatusHistoryRepository)(nil)
