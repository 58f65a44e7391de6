package infrastructure

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Status attribute values.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// BusinessMetrics holds the application's instruments. All Record methods
// are safe on a nil receiver.
type BusinessMetrics struct {
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	ProcessingRunsTotal metric.Int64Counter
	ProcessingDuration  metric.Float64Histogram
	RowsIn              metric.Int64Histogram
	RowsOut             metric.Int64Histogram

	IngestionsTotal     metric.Int64Counter
	ExportsTotal        metric.Int64Counter
	DatasetCacheLookups metric.Int64Counter
	WebSocketSessions   metric.Int64UpDownCounter
}

// CreateBusinessMetrics creates application-specific metrics
func CreateBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	m := &BusinessMetrics{}
	var err error

	if m.HTTPRequestsTotal, err = meter.Int64Counter("http_requests_total",
		metric.WithDescription("Total number of HTTP requests")); err != nil {
		return nil, err
	}
	if m.HTTPRequestDuration, err = meter.Float64Histogram("http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if m.HTTPActiveRequests, err = meter.Int64UpDownCounter("http_active_requests",
		metric.WithDescription("Number of active HTTP requests")); err != nil {
		return nil, err
	}

	if m.ProcessingRunsTotal, err = meter.Int64Counter("processing_runs_total",
		metric.WithDescription("Total number of strategy runs by domain and status")); err != nil {
		return nil, err
	}
	if m.ProcessingDuration, err = meter.Float64Histogram("processing_duration_seconds",
		metric.WithDescription("Strategy run duration in seconds"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if m.RowsIn, err = meter.Int64Histogram("processing_rows_in",
		metric.WithDescription("Rows in the dataset handed to a strategy"),
		metric.WithExplicitBucketBoundaries(10, 100, 1000, 10000, 100000, 1000000)); err != nil {
		return nil, err
	}
	if m.RowsOut, err = meter.Int64Histogram("processing_rows_out",
		metric.WithDescription("Rows in a strategy result"),
		metric.WithExplicitBucketBoundaries(10, 100, 1000, 10000, 100000, 1000000)); err != nil {
		return nil, err
	}

	if m.IngestionsTotal, err = meter.Int64Counter("ingestions_total",
		metric.WithDescription("Total number of dataset ingestions by source and status")); err != nil {
		return nil, err
	}
	if m.ExportsTotal, err = meter.Int64Counter("report_exports_total",
		metric.WithDescription("Total number of report files written by format and status")); err != nil {
		return nil, err
	}
	if m.DatasetCacheLookups, err = meter.Int64Counter("dataset_cache_lookups_total",
		metric.WithDescription("Dataset cache lookups by result")); err != nil {
		return nil, err
	}
	if m.WebSocketSessions, err = meter.Int64UpDownCounter("websocket_sessions_active",
		metric.WithDescription("Number of open dashboard sessions")); err != nil {
		return nil, err
	}
	return m, nil
}

func status(err error) string {
	if err != nil {
		return StatusFailure
	}
	return StatusSuccess
}

// RecordRun records one strategy invocation.
func (m *BusinessMetrics) RecordRun(ctx context.Context, domain string, d time.Duration, rowsIn, rowsOut int, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("domain", domain),
		attribute.String("status", status(err)),
	)
	m.ProcessingRunsTotal.Add(ctx, 1, attrs)
	m.ProcessingDuration.Record(ctx, d.Seconds(), attrs)
	domainAttr := metric.WithAttributes(attribute.String("domain", domain))
	m.RowsIn.Record(ctx, int64(rowsIn), domainAttr)
	if err == nil {
		m.RowsOut.Record(ctx, int64(rowsOut), domainAttr)
	}
}

// RecordIngestion records a dataset load from an upload, a file or a spreadsheet.
func (m *BusinessMetrics) RecordIngestion(ctx context.Context, source, format string, err error) {
	if m == nil {
		return
	}
	m.IngestionsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("format", format),
		attribute.String("status", status(err)),
	))
}

// RecordExport records one report export.
func (m *BusinessMetrics) RecordExport(ctx context.Context, format string, err error) {
	if m == nil {
		return
	}
	m.ExportsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("format", format),
		attribute.String("status", status(err)),
	))
}

// RecordCacheLookup records a dataset cache hit or miss.
func (m *BusinessMetrics) RecordCacheLookup(ctx context.Context, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.DatasetCacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// RecordHTTPRequest records a finished HTTP request.
func (m *BusinessMetrics) RecordHTTPRequest(ctx context.Context, method, route string, code int, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.String("code", strconv.Itoa(code)),
	)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)
	m.HTTPRequestDuration.Record(ctx, d.Seconds(), attrs)
}

// HTTPRequestStarted adjusts the active request gauge by delta.
func (m *BusinessMetrics) HTTPRequestStarted(ctx context.Context, delta int64) {
	if m == nil {
		return
	}
	m.HTTPActiveRequests.Add(ctx, delta)
}

// SessionOpened adjusts the open session gauge by delta.
func (m *BusinessMetrics) SessionOpened(ctx context.Context, delta int64) {
	if m == nil {
		return
	}
	m.WebSocketSessions.Add(ctx, delta)
}
