package notification

import (
	"context"
	"fmt"

	"github.com/Z3RO333/formularios/internal/domain/shared"
	"github.com/Z3RO333/formularios/internal/domain/trade"
	"go.uber.org/zap"
)

// DecisionHandler forwards approved and rejected orders to a Notifier
type DecisionHandler struct {
	notifier Notifier
	logger   *zap.Logger
}

// NewDecisionHandler creates a new DecisionHandler
func NewDecisionHandler(notifier Notifier, logger *zap.Logger) *DecisionHandler {
	return &DecisionHandler{notifier: notifier, logger: logger}
}

// Handle sends one notification per decision event
func (h *DecisionHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	var decided *trade.OrderDecidedEvent
	switch e := event.(type) {
	case *trade.OrderApprovedEvent:
		decided = &e.OrderDecidedEvent
	case *trade.OrderRejectedEvent:
		decided = &e.OrderDecidedEvent
	default:
		h.logger.Warn("unexpected event type for decision handler", zap.String("event_type", event.EventType()))
		return nil
	}

	if err := h.notifier.Notify(ctx, NewDecisionNotification(decided)); err != nil {
		return fmt.Errorf("notify decision on order %s: %w", decided.OrderID, err)
	}
	h.logger.Debug("decision notification sent",
		zap.String("order_id", decided.OrderID.String()),
		zap.String("status", string(decided.Status)),
	)
	return nil
}

// EventTypes returns the decision event types
func (h *DecisionHandler) EventTypes() []string {
	return []string{trade.EventTypeOrderApproved, trade.EventTypeOrderRejected}
}

var _ shared.EventHandler = (*DecisionHandler)(nil)
