package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditEntryModel is one best-effort audit log row
type AuditEntryModel struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key"`
	ActorID    *uuid.UUID `gorm:"type:uuid;index"`
	Action     string     `gorm:"type:varchar(100);not null;index"`
	EntityType string     `gorm:"type:varchar(50);not null"`
	EntityID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	Details    string     `gorm:"type:text"`
	CreatedAt  time.Time  `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (AuditEntryModel) TableName() string {
	return "audit_log"
}
