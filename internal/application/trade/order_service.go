package trade

import (
	"context"
	"errors"
	"strings"

	partnerapp "github.com/Z3RO333/formularios/internal/application/partner"
	"github.com/Z3RO333/formularios/internal/application/uow"
	"github.com/Z3RO333/formularios/internal/domain/shared"
	"github.com/Z3RO333/formularios/internal/domain/trade"
	"github.com/Z3RO333/formularios/internal/infrastructure/telemetry"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var validate = validator.New()

// OrderService handles purchase order submission, revision and queries
type OrderService struct {
	scope            uow.TransactionScope
	resolver         *partnerapp.SupplierResolver
	logger           *zap.Logger
	eventPublisher   shared.EventPublisher
	businessMetrics  *telemetry.BusinessMetrics
	submissionGuard  shared.SubmissionGuard
	submissionConfig shared.SubmissionConfig
}

// NewOrderService creates a new OrderService
func NewOrderService(scope uow.TransactionScope, resolver *partnerapp.SupplierResolver, logger *zap.Logger) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		scope:            scope,
		resolver:         resolver,
		logger:           logger,
		submissionConfig: shared.DefaultSubmissionConfig(),
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *OrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetBusinessMetrics sets the business metrics collector
func (s *OrderService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// SetSubmissionGuard enables Idempotency-Key deduplication on Create
func (s *OrderService) SetSubmissionGuard(guard shared.SubmissionGuard, cfg shared.SubmissionConfig) {
	s.submissionGuard = guard
	if cfg.TTL <= 0 {
		cfg.TTL = shared.DefaultSubmissionConfig().TTL
	}
	s.submissionConfig = cfg
}

// Create validates and stores a new purchase order in PENDING_APPROVAL,
// resolving the supplier when any supplier field was filled in.
func (s *OrderService) Create(ctx context.Context, requesterID uuid.UUID, req CreateOrderRequest) (*OrderResponse, error) {
	header := headerOf(req.Department, req.Location, req.Kind, req.Description, req.Justification, req.Priority)
	items := toItemInputs(req.Items)

	var errs shared.FieldErrors
	if requesterID == uuid.Nil {
		errs.Add("requester_id", "is required")
	}
	header.Validate(&errs)
	trade.ValidateItems(items, &errs)
	validateSupplierEmail(req.Supplier.Email, &errs)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	key := strings.TrimSpace(req.IdempotencyKey)
	if key != "" && s.submissionGuard != nil && s.submissionConfig.Enabled {
		claimed, err := s.submissionGuard.Claim(ctx, submissionKey(requesterID, key), s.submissionConfig.TTL)
		if err != nil {
			s.logger.Warn("Submission guard unavailable, continuing without deduplication", zap.Error(err))
		} else if !claimed {
			return nil, shared.NewConflictError("This request was already submitted", nil)
		}
	}

	order, resolution, err := s.createOrder(ctx, requesterID, header, req.Supplier.toDomain(), items)
	if errors.Is(err, shared.ErrConflict) {
		s.logger.Info("Order creation lost a supplier race, retrying", zap.Error(err))
		order, resolution, err = s.createOrder(ctx, requesterID, header, req.Supplier.toDomain(), items)
	}
	if err != nil {
		if key != "" && s.submissionGuard != nil && s.submissionConfig.Enabled {
			if relErr := s.submissionGuard.Release(ctx, submissionKey(requesterID, key)); relErr != nil {
				s.logger.Warn("Failed to release submission key", zap.Error(relErr))
			}
		}
		return nil, err
	}

	s.logger.Info("Purchase order created",
		zap.String("order_id", order.ID.String()),
		zap.String("requester_id", requesterID.String()),
		zap.Int("items", len(order.Items)))

	if resolution != nil && s.resolver != nil {
		s.resolver.PublishResolution(ctx, resolution)
	}
	response := ToOrderResponse(order)
	if s.businessMetrics != nil {
		s.businessMetrics.RecordOrderCreated(ctx, string(order.Priority), order.Department)
		s.businessMetrics.RecordOrderEstimate(ctx, order.Department, response.EstimatedTotal)
	}
	s.publish(ctx, order)
	return &response, nil
}

func (s *OrderService) createOrder(ctx context.Context, requesterID uuid.UUID, header trade.OrderHeader, supplier trade.SupplierInput, items []trade.ItemInput) (*trade.PurchaseOrder, *partnerapp.Resolution, error) {
	var (
		order      *trade.PurchaseOrder
		resolution *partnerapp.Resolution
	)
	err := s.scope.Execute(ctx, func(repos uow.TransactionalRepositories) error {
		var err error
		resolution, err = s.resolveSupplier(ctx, repos, requesterID, supplier)
		if err != nil {
			return err
		}

		var entry *trade.StatusHistoryEntry
		order, entry, err = trade.NewPurchaseOrder(requesterID, header, supplier, supplierIDOf(resolution), items)
		if err != nil {
			return err
		}
		if err := repos.Orders().Create(ctx, order); err != nil {
			return err
		}
		return repos.History().Append(ctx, entry)
	})
	if err != nil {
		return nil, nil, err
	}
	return order, resolution, nil
}

// Update replaces header, supplier and items of a pending order. Items are
// written as a diff so untouched items keep their ids. No history entry is
// written; only status changes are recorded.
func (s *OrderService) Update(ctx context.Context, actorID, orderID uuid.UUID, req UpdateOrderRequest) error {
	header := headerOf(req.Department, req.Location, req.Kind, req.Description, req.Justification, req.Priority)
	items := toItemInputs(req.Items)

	var errs shared.FieldErrors
	if actorID == uuid.Nil {
		errs.Add("actor_id", "is required")
	}
	header.Validate(&errs)
	trade.ValidateItems(items, &errs)
	validateSupplierEmail(req.Supplier.Email, &errs)
	if err := errs.Err(); err != nil {
		return err
	}

	supplier := req.Supplier.toDomain()
	var (
		order      *trade.PurchaseOrder
		resolution *partnerapp.Resolution
		changed    bool
	)
	err := s.scope.Execute(ctx, func(repos uow.TransactionalRepositories) error {
		var err error
		order, err = repos.Orders().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status != trade.OrderStatusPendingApproval {
			return shared.NewInvalidTransitionError("Cannot update order in " + order.Status.String() + " status")
		}

		resolution, err = s.resolveSupplier(ctx, repos, actorID, supplier)
		if err != nil {
			return err
		}

		var plan *trade.ItemPlan
		plan, changed, err = order.Revise(actorID, header, supplier, supplierIDOf(resolution), items)
		if err != nil || !changed {
			return err
		}
		if err := repos.Orders().SaveHeader(ctx, order); err != nil {
			return err
		}
		return repos.Orders().ApplyItemPlan(ctx, order.ID, plan)
	})
	if err != nil {
		return err
	}

	if resolution != nil && s.resolver != nil {
		s.resolver.PublishResolution(ctx, resolution)
	}
	if !changed {
		s.logger.Debug("Purchase order update was a no-op", zap.String("order_id", orderID.String()))
		return nil
	}

	s.logger.Info("Purchase order updated",
		zap.String("order_id", order.ID.String()),
		zap.String("actor_id", actorID.String()),
		zap.Int("version", order.GetVersion()))
	s.publish(ctx, order)
	return nil
}

// Get retrieves an order with its items, history and attachments
func (s *OrderService) Get(ctx context.Context, id uuid.UUID) (*OrderResponse, error) {
	var (
		order       *trade.PurchaseOrder
		history     []trade.StatusHistoryEntry
		attachments []trade.Attachment
	)
	err := uow.ReadWithRetry(ctx, func(ctx context.Context) error {
		return s.scope.Execute(ctx, func(repos uow.TransactionalRepositories) error {
			var err error
			if order, err = repos.Orders().FindByID(ctx, id); err != nil {
				return err
			}
			if history, err = repos.History().ListByOrder(ctx, id); err != nil {
				return err
			}
			attachments, err = repos.Attachments().ListByOrder(ctx, id)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	response := ToOrderResponse(order)
	response.History = ToHistoryEntryResponses(history)
	response.Attachments = ToAttachmentResponses(attachments)
	return &response, nil
}

// List retrieves a page of orders, newest first
func (s *OrderService) List(ctx context.Context, filter OrderListFilter) (*OrderListResponse, error) {
	domainFilter := trade.OrderFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			Search:   filter.Search,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
		}.Normalize(),
		Status:      trade.OrderStatus(strings.ToUpper(strings.TrimSpace(filter.Status))),
		SupplierID:  filter.SupplierID,
		RequesterID: filter.RequesterID,
		Department:  strings.TrimSpace(filter.Department),
		Location:    strings.TrimSpace(filter.Location),
		Competence:  strings.TrimSpace(filter.Competence),
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
	}

	var errs shared.FieldErrors
	if domainFilter.Status != "" && !domainFilter.Status.IsValid() {
		errs.Add("status", "must be one of PENDING_APPROVAL, APPROVED, REJECTED")
	}
	if domainFilter.Competence != "" && !trade.IsValidCompetence(domainFilter.Competence) {
		errs.Add("competence", "must use the YYYY-MM format")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	var (
		orders []trade.PurchaseOrder
		total  int64
	)
	err := uow.ReadWithRetry(ctx, func(ctx context.Context) error {
		return s.scope.Execute(ctx, func(repos uow.TransactionalRepositories) error {
			var err error
			orders, total, err = repos.Orders().FindAll(ctx, domainFilter)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	page := shared.NewPaginated(ToOrderListItemResponses(orders), total, domainFilter.Page, domainFilter.PageSize)
	return &OrderListResponse{
		Items:      page.Items,
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}, nil
}

func (s *OrderService) resolveSupplier(ctx context.Context, repos uow.TransactionalRepositories, actorID uuid.UUID, supplier trade.SupplierInput) (*partnerapp.Resolution, error) {
	if supplier.IsEmpty() || s.resolver == nil {
		return nil, nil
	}
	return s.resolver.ResolveWith(ctx, repos, partnerapp.ResolveInput{
		Name:    supplier.Name,
		TaxID:   supplier.TaxID,
		Email:   supplier.Email,
		ActorID: actorID,
	})
}

func (s *OrderService) publish(ctx context.Context, order *trade.PurchaseOrder) {
	events := order.GetDomainEvents()
	order.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Error("Failed to publish order events",
			zap.String("order_id", order.ID.String()),
			zap.Error(err))
	}
}

func supplierIDOf(res *partnerapp.Resolution) *uuid.UUID {
	if res == nil || res.Supplier == nil {
		return nil
	}
	id := res.Supplier.ID
	return &id
}

func validateSupplierEmail(email string, errs *shared.FieldErrors) {
	email = strings.TrimSpace(email)
	if email == "" {
		return
	}
	if err := validate.Var(email, "email"); err != nil {
		errs.Add("supplier.email", "must be a valid email address")
	}
}

func submissionKey(requesterID uuid.UUID, key string) string {
	return "order:" + requesterID.String() + ":" + key
}
