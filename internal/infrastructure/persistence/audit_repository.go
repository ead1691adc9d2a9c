package persistence

import (
	"context"
	"time"

	"github.com/Z3RO333/formularios/internal/domain/shared"
	"github.com/Z3RO333/formularios/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAuditRepository writes audit_log rows
type GormAuditRepository struct {
	db *gorm.DB
}

// NewGormAuditRepository creates a new GormAuditRepository
func NewGormAuditRepository(db *gorm.DB) *GormAuditRepository {
	return &GormAuditRepository{db: db}
}

// Record inserts one audit entry
func (r *GormAuditRepository) Record(ctx context.Context, entry *shared.AuditEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	model := &models.AuditEntryModel{
		ID:         entry.ID,
		ActorID:    entry.ActorID,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Details:    entry.Details,
		CreatedAt:  entry.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError(err)
	}
	return nil
}

// ListByEntity returns the audit entries of one entity, oldest first
func (r *GormAuditRepository) ListByEntity(ctx context.Context, entityID uuid.UUID) ([]shared.AuditEntry, error) {
	var rows []models.AuditEntryModel
	if err := r.db.WithContext(ctx).
		Where("entity_id = ?", entityID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	entries := make([]shared.AuditEntry, len(rows))
	for i, row := range rows {
		entries[i] = shared.AuditEntry{
			ID:         row.ID,
			ActorID:    row.ActorID,
			Action:     row.Action,
			EntityType: row.EntityType,
			EntityID:   row.EntityID,
			Details:    row.Details,
			CreatedAt:  row.CreatedAt.UTC(),
		}
	}
	return entries, nil
}

// Ensure GormAuditRepository implements AuditLog
var _ shared.AuditLog = (*GormAuditRepository)(nil)
