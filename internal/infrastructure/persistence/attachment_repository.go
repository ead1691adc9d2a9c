package persistence

import (
	"context"

	"github.com/Z3RO333/formularios/internal/domain/trade"
	"github.com/Z3RO333/formularios/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAttachmentRepository implements AttachmentRepository using GORM
type GormAttachmentRepository struct {
	db *gorm.DB
}

// NewGormAttachmentRepository creates a new GormAttachmentRepository
func NewGormAttachmentRepository(db *gorm.DB) *GormAttachmentRepository {
	return &GormAttachmentRepository{db: db}
}

// Create inserts attachment metadata
func (r *GormAttachmentRepository) Create(ctx context.Context, attachment *trade.Attachment) error {
	if err := r.db.WithContext(ctx).Create(models.AttachmentModelFromDomain(attachment)).Error; err != nil {
		return translateError(err)
	}
	return nil
}

// FindByID finds an attachment by id
func (r *GormAttachmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Attachment, error) {
	var model models.AttachmentModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateLookupError(err, "attachment", id)
	}
	return model.ToDomain(), nil
}

// ListByOrder returns the attachments of an order, oldest first
func (r *GormAttachmentRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]trade.Attachment, error) {
	var rows []models.AttachmentModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	attachments := make([]trade.Attachment, len(rows))
	for i := range rows {
		attachments[i] = *rows[i].ToDomain()
	}
	return attachments, nil
}

// ReassignSupplier points every attachment of one supplier at another
func (r *GormAttachmentRepository) ReassignSupplier(ctx context.Context, fromID, toID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.AttachmentModel{}).
		Where("supplier_id = ?", fromID).
		Update("supplier_id", toID)
	if result.Error != nil {
		return 0, translateError(result.Error)
	}
	return result.RowsAffected, nil
}

// Ensure GormAttachmentRepository implements AttachmentRepository
var _ trade.AttachmentRepository = (*GormAttachmentRepository)(nil)
