package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics provides business metrics for purchase-order intake.
// It tracks order submissions, approval decisions and supplier registry activity.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	orderCreatedTotal       *Counter
	orderEstimatedCents     *Counter
	orderDecisionTotal      *Counter
	supplierResolutionTotal *Counter
	supplierMergeTotal      *Counter
	mergeRedirectTotal      *Counter

	// Gauge metrics (point-in-time values)
	ordersPending       *Gauge
	suppliersActive     *Gauge
	oldestPendingAge    *Gauge
	suspectedDuplicates *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	backlogProvider BacklogProvider
}

// BacklogProvider provides registry and approval backlog figures for
// periodic collection without tying telemetry to the domain packages.
type BacklogProvider interface {
	// CountPendingOrders returns how many orders await a decision
	CountPendingOrders(ctx context.Context) (int64, error)

	// OldestPendingSince returns the creation time of the oldest pending
	// order, or the zero time when there is none
	OldestPendingSince(ctx context.Context) (time.Time, error)

	// CountActiveSuppliers returns the number of live suppliers
	CountActiveSuppliers(ctx context.Context) (int64, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration // Default: 5 minutes
	BacklogProvider BacklogProvider
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:           cfg.Meter,
		logger:          logger,
		stopChan:        make(chan struct{}),
		backlogProvider: cfg.BacklogProvider,
	}

	counters := []struct {
		target **Counter
		name   string
		desc   string
		unit   string
	}{
		{&bm.orderCreatedTotal, "forms_order_created_total", "Total number of purchase orders submitted", "{orders}"},
		{&bm.orderEstimatedCents, "forms_order_estimated_amount_total", "Estimated amount of submitted orders in cents", "{cents}"},
		{&bm.orderDecisionTotal, "forms_order_decision_total", "Total number of approval decisions", "{decisions}"},
		{&bm.supplierResolutionTotal, "forms_supplier_resolution_total", "Total number of supplier resolutions by outcome", "{resolutions}"},
		{&bm.supplierMergeTotal, "forms_supplier_merge_total", "Total number of supplier merges", "{merges}"},
		{&bm.mergeRedirectTotal, "forms_supplier_merge_redirect_total", "Rows redirected to the surviving supplier by merges", "{rows}"},
	}
	for _, c := range counters {
		counter, err := NewCounter(cfg.Meter, c.name, c.desc, c.unit)
		if err != nil {
			return nil, err
		}
		*c.target = counter
	}

	var err error
	bm.ordersPending, err = NewGauge(
		cfg.Meter,
		"forms_orders_pending",
		"Current number of orders awaiting approval",
		"{orders}",
	)
	if err != nil {
		return nil, err
	}

	bm.oldestPendingAge, err = NewGauge(
		cfg.Meter,
		"forms_orders_oldest_pending_age_seconds",
		"Age of the oldest order awaiting approval",
		"s",
	)
	if err != nil {
		return nil, err
	}

	bm.suppliersActive, err = NewGauge(
		cfg.Meter,
		"forms_suppliers_active",
		"Current number of live suppliers in the registry",
		"{suppliers}",
	)
	if err != nil {
		return nil, err
	}

	bm.suspectedDuplicates, err = NewGauge(
		cfg.Meter,
		"forms_suppliers_suspected_duplicates",
		"Supplier pairs flagged by the last duplicate scan",
		"{pairs}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// =============================================================================
// Order Metrics
// =============================================================================

// Decision labels an approval outcome.
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// RecordOrderCreated records an order submission with its priority and
// department.
func (bm *BusinessMetrics) RecordOrderCreated(ctx context.Context, priority, department string) {
	bm.orderCreatedTotal.Inc(ctx,
		AttrPriority.String(priority),
		AttrDepartment.String(department),
	)
}

// RecordOrderEstimate adds the estimated value of a submitted order.
// Orders without any priced item are not recorded.
func (bm *BusinessMetrics) RecordOrderEstimate(ctx context.Context, department string, amount decimal.Decimal) {
	if !amount.IsPositive() {
		return
	}
	cents := amount.Mul(decimal.NewFromInt(100)).IntPart()
	bm.orderEstimatedCents.Add(ctx, cents, AttrDepartment.String(department))
}

// RecordDecision records an approval or rejection.
func (bm *BusinessMetrics) RecordDecision(ctx context.Context, decision Decision) {
	bm.orderDecisionTotal.Inc(ctx, AttrDecision.String(string(decision)))
}

// =============================================================================
// Supplier Metrics
// =============================================================================

// RecordResolution records how a supplier resolution ended: tax_id, fuzzy or
// created.
func (bm *BusinessMetrics) RecordResolution(ctx context.Context, kind string) {
	bm.supplierResolutionTotal.Inc(ctx, AttrMatchKind.String(kind))
}

// RecordMerge records a merge and the rows it redirected.
func (bm *BusinessMetrics) RecordMerge(ctx context.Context, ordersMoved, attachmentsMoved int64) {
	bm.supplierMergeTotal.Inc(ctx)
	if ordersMoved > 0 {
		bm.mergeRedirectTotal.Add(ctx, ordersMoved, AttrRedirectTarget.String("orders"))
	}
	if attachmentsMoved > 0 {
		bm.mergeRedirectTotal.Add(ctx, attachmentsMoved, AttrRedirectTarget.String("attachments"))
	}
}

// =============================================================================
// Backlog Metrics
// =============================================================================

// RecordPendingOrders records the approval backlog.
func (bm *BusinessMetrics) RecordPendingOrders(ctx context.Context, count int64) {
	bm.ordersPending.Record(ctx, count)
}

// RecordOldestPendingAge records how long the oldest pending order has waited.
func (bm *BusinessMetrics) RecordOldestPendingAge(ctx context.Context, age time.Duration) {
	bm.oldestPendingAge.Record(ctx, int64(age.Seconds()))
}

// RecordActiveSuppliers records the size of the live registry.
func (bm *BusinessMetrics) RecordActiveSuppliers(ctx context.Context, count int64) {
	bm.suppliersActive.Record(ctx, count)
}

// RecordSuspectedDuplicates records how many pairs the last duplicate scan found.
func (bm *BusinessMetrics) RecordSuspectedDuplicates(ctx context.Context, count int64) {
	bm.suspectedDuplicates.Record(ctx, count)
}

// =============================================================================
// Periodic Collection
// =============================================================================

// StartPeriodicCollection starts periodic collection of gauge metrics.
// This is non-blocking - use Stop() to stop collection.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go bm.runPeriodicCollection(ctx, interval)
	})
}

func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on start
	bm.collectBacklog(ctx)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.collectBacklog(ctx)
		}
	}
}

func (bm *BusinessMetrics) collectBacklog(ctx context.Context) {
	if bm.backlogProvider == nil {
		bm.logger.Debug("No backlog provider configured, skipping backlog metrics collection")
		return
	}

	if pending, err := bm.backlogProvider.CountPendingOrders(ctx); err != nil {
		bm.logger.Warn("Failed to count pending orders", zap.Error(err))
	} else {
		bm.RecordPendingOrders(ctx, pending)
	}

	if since, err := bm.backlogProvider.OldestPendingSince(ctx); err != nil {
		bm.logger.Warn("Failed to get oldest pending order", zap.Error(err))
	} else if since.IsZero() {
		bm.RecordOldestPendingAge(ctx, 0)
	} else {
		bm.RecordOldestPendingAge(ctx, time.Since(since))
	}

	if active, err := bm.backlogProvider.CountActiveSuppliers(ctx); err != nil {
		bm.logger.Warn("Failed to count active suppliers", zap.Error(err))
	} else {
		bm.RecordActiveSuppliers(ctx, active)
	}
}

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// Business metrics attribute keys not already defined in metrics.go
var (
	AttrRedirectTarget = attribute.Key("redirect_target")
)
