// Package telemetry wires OpenTelemetry traces, metrics and logs, database
// tracing and Pyroscope profiling for the order intake service.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/Z3RO333/formularios/internal/infrastructure/config"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
)

// DefaultServiceName is used when the configuration leaves it empty
const DefaultServiceName = "formularios"

// Config holds the exporter settings shared by all signals
type Config struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	ServiceVersion    string
	Insecure          bool

	MetricsEnabled        bool
	MetricsExportInterval time.Duration
	LogsEnabled           bool

	DBTraceEnabled    bool
	DBLogFullSQL      bool
	DBSlowQueryThresh time.Duration

	ProfilingEnabled bool
	PyroscopeAddress string
}

// FromConfig maps the application configuration section
func FromConfig(cfg config.TelemetryConfig) Config {
	name := cfg.ServiceName
	if name == "" {
		name = DefaultServiceName
	}
	return Config{
		Enabled:               cfg.Enabled,
		CollectorEndpoint:     cfg.CollectorEndpoint,
		SamplingRatio:         cfg.SamplingRatio,
		ServiceName:           name,
		ServiceVersion:        buildVersion(),
		Insecure:              cfg.Insecure,
		MetricsEnabled:        cfg.Enabled && cfg.MetricsEnabled,
		MetricsExportInterval: cfg.MetricsExportInterval,
		LogsEnabled:           cfg.Enabled && cfg.LogsEnabled,
		DBTraceEnabled:        cfg.Enabled && cfg.DBTraceEnabled,
		DBLogFullSQL:          cfg.DBLogFullSQL,
		DBSlowQueryThresh:     cfg.DBSlowQueryThresh,
		ProfilingEnabled:      cfg.ProfilingEnabled,
		PyroscopeAddress:      cfg.PyroscopeAddress,
	}
}

// Providers groups the started signal providers
type Providers struct {
	Tracer   *TracerProvider
	Meter    *MeterProvider
	Logs     *LoggerProvider
	Profiler *Profiler
	logger   *zap.Logger
}

// Setup starts every enabled provider. Disabled signals get no-op providers,
// so callers never need nil checks.
func Setup(ctx context.Context, cfg Config, logger *zap.Logger) (*Providers, error) {
	p := &Providers{logger: logger}
	var err error

	if p.Tracer, err = NewTracerProvider(ctx, cfg, logger); err != nil {
		return nil, err
	}
	if p.Meter, err = NewMeterProvider(ctx, cfg, logger); err != nil {
		_ = p.Shutdown(ctx)
		return nil, err
	}
	if p.Logs, err = NewLoggerProvider(ctx, cfg, logger); err != nil {
		_ = p.Shutdown(ctx)
		return nil, err
	}
	if p.Profiler, err = NewProfiler(cfg, logger); err != nil {
		_ = p.Shutdown(ctx)
		return nil, err
	}
	if p.Profiler.IsRunning() {
		p.Tracer.EnableSpanProfiles()
	}
	return p, nil
}

// Shutdown flushes and stops every provider, returning all errors joined
func (p *Providers) Shutdown(ctx context.Context) error {
	var errs []error
	if p.Tracer != nil {
		errs = append(errs, p.Tracer.Shutdown(ctx))
	}
	if p.Meter != nil {
		errs = append(errs, p.Meter.Shutdown(ctx))
	}
	if p.Logs != nil {
		errs = append(errs, p.Logs.Shutdown(ctx))
	}
	if p.Profiler != nil {
		errs = append(errs, p.Profiler.Stop())
	}
	return errors.Join(errs...)
}

func newResource(cfg Config) (*resource.Resource, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}

func shutdownTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, 10*time.Second)
}
