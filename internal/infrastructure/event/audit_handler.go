package event

import (
	"context"
	"fmt"

	"github.com/Z3RO333/formularios/internal/domain/partner"
	"github.com/Z3RO333/formularios/internal/domain/shared"
	"github.com/Z3RO333/formularios/internal/domain/trade"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuditedEventTypes are the events that leave an audit row
var AuditedEventTypes = []string{
	partner.EventTypeSupplierResolved,
	partner.EventTypeSuppliersMerged,
	trade.EventTypeOrderApproved,
	trade.EventTypeOrderRejected,
}

// AuditHandler turns domain events into audit log rows
type AuditHandler struct {
	log    shared.AuditLog
	codec  *Codec
	logger *zap.Logger
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(log shared.AuditLog, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{
		log:    log,
		codec:  NewDomainCodec(),
		logger: logger,
	}
}

// Handle records the event. The returned error is only logged by the bus.
func (h *AuditHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	details, err := h.codec.Encode(event)
	if err != nil {
		return err
	}

	entry := &shared.AuditEntry{
		Action:     event.EventType(),
		EntityType: event.AggregateType(),
		EntityID:   event.AggregateID(),
		Details:    string(details),
		CreatedAt:  event.OccurredAt().UTC(),
	}
	if actor := event.ActorID(); actor != uuid.Nil {
		entry.ActorID = &actor
	}

	if err := h.log.Record(ctx, entry); err != nil {
		return fmt.Errorf("record audit entry for %s: %w", event.EventType(), err)
	}
	h.logger.Debug("audit entry recorded",
		zap.String("action", entry.Action),
		zap.String("entity_id", entry.EntityID.String()),
	)
	return nil
}

// EventTypes returns the audited event types
func (h *AuditHandler) EventTypes() []string {
	return AuditedEventTypes
}

// Ensure AuditHandler implements EventHandler
var _ shared.EventHandler = (*AuditHandler)(nil)
