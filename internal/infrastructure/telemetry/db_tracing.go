package telemetry

import (
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultSlowQueryThreshold applies when the configuration leaves it zero
const DefaultSlowQueryThreshold = 200 * time.Millisecond

const queryStartKey = "forms:query_start"

// RegisterDBTracing installs the otelgorm plugin when database tracing is
// enabled, and a slow-query detector that annotates the active span and logs
// a warning. Query variables stay out of spans unless DBLogFullSQL is set.
func RegisterDBTracing(db *gorm.DB, cfg Config, logger *zap.Logger) error {
	if cfg.DBTraceEnabled {
		opts := []otelgorm.Option{otelgorm.WithDBName(db.Dialector.Name())}
		if !cfg.DBLogFullSQL {
			opts = append(opts, otelgorm.WithoutQueryVariables())
		}
		if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
			return err
		}
	}

	threshold := cfg.DBSlowQueryThresh
	if threshold <= 0 {
		threshold = DefaultSlowQueryThreshold
	}
	d := &slowQueryDetector{threshold: threshold, logger: logger}
	if err := d.register(db); err != nil {
		return err
	}

	logger.Info("database instrumentation registered",
		zap.Bool("tracing", cfg.DBTraceEnabled),
		zap.Duration("slow_query_threshold", threshold),
	)
	return nil
}

type slowQueryDetector struct {
	threshold time.Duration
	logger    *zap.Logger
}

func (d *slowQueryDetector) register(db *gorm.DB) error {
	cb := db.Callback()
	pairs := []struct {
		op     string
		before func(string, func(*gorm.DB)) error
		after  func(string, func(*gorm.DB)) error
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}
	for _, p := range pairs {
		if err := p.before("forms:slow_query_start_"+p.op, d.start); err != nil {
			return err
		}
		if err := p.after("forms:slow_query_check_"+p.op, d.check); err != nil {
			return err
		}
	}
	return nil
}

func (d *slowQueryDetector) start(db *gorm.DB) {
	db.InstanceSet(queryStartKey, time.Now())
}

func (d *slowQueryDetector) check(db *gorm.DB) {
	v, ok := db.InstanceGet(queryStartKey)
	if !ok {
		return
	}
	start, ok := v.(time.Time)
	if !ok {
		return
	}
	elapsed := time.Since(start)

	if db.Statement.Context != nil {
		span := trace.SpanFromContext(db.Statement.Context)
		if span.IsRecording() {
			span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
			if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
				RecordError(span, db.Error)
			}
			if elapsed > d.threshold {
				span.SetAttributes(attribute.Bool("db.slow_query", true))
			}
		}
	}

	if elapsed > d.threshold {
		d.logger.Warn("slow query",
			zap.String("table", db.Statement.Table),
			zap.Duration("elapsed", elapsed),
			zap.Duration("threshold", d.threshold),
			zap.Int64("rows", db.Statement.RowsAffected),
		)
	}
}
