package trade

import (
	"context"
	"strings"
	"time"

	"github.com/Z3RO333/formularios/internal/application/uow"
	"github.com/Z3RO333/formularios/internal/domain/shared"
	"github.com/Z3RO333/formularios/internal/domain/trade"
	"github.com/Z3RO333/formularios/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ApproveInput identifies the order being approved and by whom
type ApproveInput struct {
	OrderID uuid.UUID
	ActorID uuid.UUID
	Note    string
}

// RejectInput identifies the order being rejected and why
type RejectInput struct {
	OrderID uuid.UUID
	ActorID uuid.UUID
	Reason  string
}

// LifecycleService moves orders through the approval workflow. Each decision
// writes the status change and exactly one history entry in one unit of work.
type LifecycleService struct {
	scope           uow.TransactionScope
	logger          *zap.Logger
	eventPublisher  shared.EventPublisher
	businessMetrics *telemetry.BusinessMetrics
	now             func() time.Time
}

// NewLifecycleService creates a new LifecycleService
func NewLifecycleService(scope uow.TransactionScope, logger *zap.Logger) *LifecycleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LifecycleService{
		scope:  scope,
		logger: logger,
		now:    time.Now,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *LifecycleService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetBusinessMetrics sets the business metrics collector
func (s *LifecycleService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// Approve moves a pending order to APPROVED
func (s *LifecycleService) Approve(ctx context.Context, in ApproveInput) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "purchase_order", "approve", "order_id", in.OrderID.String())
	defer span.End()

	order, err := s.decide(ctx, in.OrderID, func(order *trade.PurchaseOrder, at time.Time) (*trade.StatusHistoryEntry, error) {
		return order.Approve(in.ActorID, in.Note, at)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Purchase order approved",
		zap.String("order_id", order.ID.String()),
		zap.String("actor_id", in.ActorID.String()))
	s.afterDecision(ctx, order, telemetry.DecisionApproved)

	response := ToOrderResponse(order)
	return &response, nil
}

// Reject moves a pending order to REJECTED. A blank reason fails before the
// order is loaded.
func (s *LifecycleService) Reject(ctx context.Context, in RejectInput) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "purchase_order", "reject", "order_id", in.OrderID.String())
	defer span.End()

	var errs shared.FieldErrors
	if in.ActorID == uuid.Nil {
		errs.Add("actor_id", "is required")
	}
	if strings.TrimSpace(in.Reason) == "" {
		errs.Add("reason", "is required")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	order, err := s.decide(ctx, in.OrderID, func(order *trade.PurchaseOrder, at time.Time) (*trade.StatusHistoryEntry, error) {
		return order.Reject(in.ActorID, in.Reason, at)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Purchase order rejected",
		zap.String("order_id", order.ID.String()),
		zap.String("actor_id", in.ActorID.String()),
		zap.String("reason", order.RejectionReason))
	s.afterDecision(ctx, order, telemetry.DecisionRejected)

	response := ToOrderResponse(order)
	return &response, nil
}

// History returns the status history of an order, oldest first
func (s *LifecycleService) History(ctx context.Context, orderID uuid.UUID) ([]HistoryEntryResponse, error) {
	var entries []trade.StatusHistoryEntry
	err := uow.ReadWithRetry(ctx, func(ctx context.Context) error {
		return s.scope.Execute(ctx, func(repos uow.TransactionalRepositories) error {
			if _, err := repos.Orders().FindByID(ctx, orderID); err != nil {
				return err
			}
			var err error
			entries, err = repos.History().ListByOrder(ctx, orderID)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return ToHistoryEntryResponses(entries), nil
}

func (s *LifecycleService) decide(ctx context.Context, orderID uuid.UUID, transition func(*trade.PurchaseOrder, time.Time) (*trade.StatusHistoryEntry, error)) (*trade.PurchaseOrder, error) {
	var order *trade.PurchaseOrder
	err := s.scope.Execute(ctx, func(repos uow.TransactionalRepositories) error {
		var err error
		order, err = repos.Orders().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		entry, err := transition(order, s.now())
		if err != nil {
			return err
		}
		if err := repos.Orders().SaveHeader(ctx, order); err != nil {
			return err
		}
		return repos.History().Append(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *LifecycleService) afterDecision(ctx context.Context, order *trade.PurchaseOrder, decision telemetry.Decision) {
	if s.businessMetrics != nil {
		s.businessMetrics.RecordDecision(ctx, decision)
	}

	events := order.GetDomainEvents()
	order.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Error("Failed to publish decision events",
			zap.String("order_id", order.ID.String()),
			zap.Error(err))
	}
}
