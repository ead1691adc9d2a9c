package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AuditEntry is one best-effort audit log row
type AuditEntry struct {
	ID         uuid.UUID
	ActorID    *uuid.UUID
	Action     string
	EntityType string
	EntityID   uuid.UUID
	Details    string // JSON document
	CreatedAt  time.Time
}

// AuditLog persists audit entries. Callers log and continue on failure.
type AuditLog interface {
	Record(ctx context.Context, entry *AuditEntry) error
}
