package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Z3RO333/formularios/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func setupSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func TestFromConfig(t *testing.T) {
	cfg := FromConfig(config.TelemetryConfig{
		Enabled:          false,
		MetricsEnabled:   true,
		LogsEnabled:      true,
		DBTraceEnabled:   true,
		ProfilingEnabled: true,
		PyroscopeAddress: "http://pyroscope:4040",
	})

	assert.Equal(t, DefaultServiceName, cfg.ServiceName)
	assert.False(t, cfg.MetricsEnabled, "metrics follow the master switch")
	assert.False(t, cfg.LogsEnabled)
	assert.False(t, cfg.DBTraceEnabled)
	assert.True(t, cfg.ProfilingEnabled, "profiling is independent of the collector")
	assert.NotEmpty(t, cfg.ServiceVersion)

	named := FromConfig(config.TelemetryConfig{Enabled: true, MetricsEnabled: true, ServiceName: "forms-api"})
	assert.Equal(t, "forms-api", named.ServiceName)
	assert.True(t, named.MetricsEnabled)
}

func TestSetup_AllDisabled(t *testing.T) {
	providers, err := Setup(context.Background(), Config{ServiceName: "test"}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, providers.Tracer.IsEnabled())
	assert.False(t, providers.Meter.IsEnabled())
	assert.False(t, providers.Logs.IsEnabled())
	assert.False(t, providers.Profiler.IsRunning())
	assert.False(t, providers.Tracer.SpanProfilesEnabled())
	assert.NotNil(t, providers.Meter.Meter(MeterName))

	require.NoError(t, providers.Shutdown(context.Background()))
}

func TestSamplerFor(t *testing.T) {
	assert.Contains(t, samplerFor(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, samplerFor(0).Description(), "AlwaysOffSampler")
	assert.Contains(t, samplerFor(0.25).Description(), "TraceIDRatioBased{0.25}")
}

func TestNewProfiler(t *testing.T) {
	t.Run("disabled is a no-op", func(t *testing.T) {
		p, err := NewProfiler(Config{}, zap.NewNop())
		require.NoError(t, err)
		assert.False(t, p.IsRunning())
		assert.NoError(t, p.Stop())
		assert.NoError(t, p.Stop())
	})

	t.Run("enabled without address", func(t *testing.T) {
		_, err := NewProfiler(Config{ProfilingEnabled: true, ServiceName: "test"}, zap.NewNop())
		assert.Error(t, err)
	})
}

func TestWithRequestLabels_RunsFn(t *testing.T) {
	called := false
	WithRequestLabels(context.Background(), "POST", "/api/v1/orders", func(ctx context.Context) {
		called = ctx != nil
	})
	assert.True(t, called)
}

func TestStartServiceSpan(t *testing.T) {
	sr := setupSpanRecorder(t)

	ctx, span := StartServiceSpan(context.Background(), "purchase_order", "create",
		SpanAttrItemCount, 3,
		SpanAttrMatchKind, "fuzzy",
		42, "skipped",
	)
	assert.NotEmpty(t, TraceID(ctx))
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "purchase_order.create", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.Int(SpanAttrItemCount, 3))
	assert.Contains(t, spans[0].Attributes(), attribute.String(SpanAttrMatchKind, "fuzzy"))
	assert.Len(t, spans[0].Attributes(), 2)
}

func TestRecordError(t *testing.T) {
	sr := setupSpanRecorder(t)

	_, span := StartServiceSpan(context.Background(), "supplier", "merge")
	RecordError(span, nil)
	RecordError(span, errors.New("boom"))
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "boom", spans[0].Status().Description)
	require.Len(t, spans[0].Events(), 1)
}

func TestTraceID_NoSpan(t *testing.T) {
	assert.Empty(t, TraceID(context.Background()))
}

func TestToAttribute(t *testing.T) {
	assert.Equal(t, attribute.Bool("b", true), toAttribute("b", true))
	assert.Equal(t, attribute.Int64("i", 7), toAttribute("i", int64(7)))
	assert.Equal(t, attribute.Float64("f", 1.5), toAttribute("f", 1.5))
	assert.Equal(t, attribute.String("d", "2s"), toAttribute("d", 2*time.Second))
	assert.Equal(t, attribute.String("s", "[1 2]"), toAttribute("s", []int{1, 2}))
}

func TestHTTPMetrics_Observe(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := NewMeterProviderWithReader(reader)
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewHTTPMetrics(mp.Meter(MeterName))
	require.NoError(t, err)

	ctx := context.Background()
	m.Observe(ctx, "POST", "/api/v1/orders", 201, 30*time.Millisecond)
	m.Observe(ctx, "POST", "/api/v1/orders", 201, 50*time.Millisecond)
	m.Observe(ctx, "GET", "/api/v1/orders/:id", 404, time.Millisecond)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	var total int64
	var histogramCount uint64
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			switch data := md.Data.(type) {
			case metricdata.Sum[int64]:
				if md.Name == "forms_http_requests_total" {
					for _, dp := range data.DataPoints {
						total += dp.Value
					}
				}
			case metricdata.Histogram[float64]:
				if md.Name == "forms_http_request_duration_seconds" {
					for _, dp := range data.DataPoints {
						histogramCount += dp.Count
					}
				}
			}
		}
	}
	assert.Equal(t, int64(3), total)
	assert.Equal(t, uint64(3), histogramCount)
}

func TestNewHTTPMetrics_NilMeter(t *testing.T) {
	_, err := NewHTTPMetrics(nil)
	assert.ErrorIs(t, err, ErrMeterNil)
}

type recordingProcessor struct {
	mu     sync.Mutex
	bodies []string
}

func (p *recordingProcessor) OnEmit(_ context.Context, r *sdklog.Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bodies = append(p.bodies, r.Body().AsString())
	return nil
}

func (p *recordingProcessor) Shutdown(context.Context) error                         { return nil }
func (p *recordingProcessor) ForceFlush(context.Context) error                       { return nil }
func (p *recordingProcessor) Enabled(context.Context, sdklog.EnabledParameters) bool { return true }

func (p *recordingProcessor) messages() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.bodies...)
}

func TestBridgeLogger(t *testing.T) {
	t.Run("disabled provider returns base", func(t *testing.T) {
		base := zap.NewNop()
		assert.Same(t, base, BridgeLogger(base, &LoggerProvider{}, "test", zapcore.InfoLevel))
	})

	t.Run("forwards entries at or above level", func(t *testing.T) {
		proc := &recordingProcessor{}
		lp := NewLoggerProviderWithProcessor(proc)
		t.Cleanup(func() { _ = lp.Shutdown(context.Background()) })

		core, logs := observer.New(zapcore.DebugLevel)
		logger := BridgeLogger(zap.New(core), lp, "test", zapcore.InfoLevel)

		logger.Debug("too quiet")
		logger.Info("order created")
		logger.Warn("slow query")

		assert.Equal(t, 3, logs.Len(), "base core keeps every entry")
		assert.Equal(t, []string{"order created", "slow query"}, proc.messages())
	})
}
