package infrastructure

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"bizdash/internal/config"
	"bizdash/internal/shared/testutil"
)

func TestInitializeOTel(t *testing.T) {
	tests := []struct {
		name        string
		cfg         *OTelConfig
		wantTracing bool
		wantMetrics bool
	}{
		{"defaults", nil, false, true},
		{"all signals", &OTelConfig{ServiceName: "t", EnableTracing: true, EnableMetrics: true, SampleRatio: 1, TraceWriter: io.Discard}, true, true},
		{"nothing", &OTelConfig{ServiceName: "t"}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			providers, err := InitializeOTel(tt.cfg, logger)
			require.NoError(t, err)
			defer providers.Shutdown(context.Background())

			assert.NotNil(t, providers.Tracer)
			assert.NotNil(t, providers.Meter)
			assert.Equal(t, tt.wantTracing, providers.TracerProvider != nil)
			assert.Equal(t, tt.wantMetrics, providers.MeterProvider != nil)
			assert.Equal(t, tt.wantMetrics, providers.PrometheusHTTP != nil)
		})
	}
}

func TestOTelConfigFrom(t *testing.T) {
	c := OTelConfigFrom(config.TelemetryConfig{ServiceName: "dash", TracesEnabled: true})
	assert.Equal(t, "dash", c.ServiceName)
	assert.True(t, c.EnableTracing)
	assert.False(t, c.EnableMetrics)

	c = OTelConfigFrom(config.TelemetryConfig{MetricsEnabled: true})
	assert.Equal(t, config.AppName, c.ServiceName)
}

func TestPrometheusEndpoint(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	providers, err := InitializeOTel(DefaultOTelConfig(), logger)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	metrics, err := CreateBusinessMetrics(providers.Meter)
	require.NoError(t, err)
	metrics.RecordRun(context.Background(), "Sales", 20*time.Millisecond, 3, 2, nil)

	server := httptest.NewServer(providers.PrometheusHTTP)
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "processing_runs_total")
	assert.Contains(t, string(body), "go_goroutines")
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestBusinessMetrics_Record(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	m, err := CreateBusinessMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordRun(ctx, "CRM", time.Second, 4, 2, nil)
	m.RecordRun(ctx, "CRM", time.Second, 4, 0, errors.New("schema"))
	m.RecordIngestion(ctx, "upload", "csv", nil)
	m.RecordExport(ctx, "png", errors.New("no browser"))
	m.RecordCacheLookup(ctx, true)
	m.RecordCacheLookup(ctx, false)
	m.SessionOpened(ctx, 1)

	got := collect(t, reader)

	runs, ok := got["processing_runs_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, runs.DataPoints, 2)
	var total int64
	for _, dp := range runs.DataPoints {
		total += dp.Value
	}
	assert.Equal(t, int64(2), total)

	rowsOut, ok := got["processing_rows_out"].Data.(metricdata.Histogram[int64])
	require.True(t, ok)
	require.Len(t, rowsOut.DataPoints, 1)
	assert.Equal(t, uint64(1), rowsOut.DataPoints[0].Count)

	lookups, ok := got["dataset_cache_lookups_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Len(t, lookups.DataPoints, 2)

	assert.Contains(t, got, "ingestions_total")
	assert.Contains(t, got, "report_exports_total")
	assert.Contains(t, got, "websocket_sessions_active")
}

func TestBusinessMetrics_NilSafe(t *testing.T) {
	var m *BusinessMetrics
	assert.NotPanics(t, func() {
		m.RecordRun(context.Background(), "HR", 0, 0, 0, nil)
		m.RecordIngestion(context.Background(), "upload", "csv", nil)
		m.RecordExport(context.Background(), "csv", nil)
		m.RecordCacheLookup(context.Background(), true)
		m.RecordHTTPRequest(context.Background(), "GET", "/", 200, 0)
		m.HTTPRequestStarted(context.Background(), 1)
		m.SessionOpened(context.Background(), 1)
	})
}

func TestSpanHelpers(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	providers, err := InitializeOTel(&OTelConfig{ServiceName: "t", EnableTracing: true, SampleRatio: 1, TraceWriter: io.Discard}, logger)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	ctx, span := StartSpan(context.Background(), "test-span")
	defer span.End()

	assert.True(t, span.IsRecording())
	assert.Equal(t, span.SpanContext().TraceID().String(), TraceIDFromContext(ctx))
	assert.Equal(t, TraceIDFromContext(ctx), GetTraceID(ctx))

	AddSpanEvent(ctx, "test.event")
	RecordError(ctx, assert.AnError)
	RecordError(ctx, nil)
}

func TestReadRuntimeStats(t *testing.T) {
	stats := ReadRuntimeStats(time.Now().Add(-time.Minute))
	assert.Positive(t, stats.Goroutines)
	assert.Positive(t, stats.SysBytes)
	assert.GreaterOrEqual(t, stats.UptimeSeconds, 60.0)
}
