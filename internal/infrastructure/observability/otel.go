package observability

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/Aftab48/Haemologix-sub000"

// Metrics holds all application metrics
type Metrics struct {
	RequestCount      metric.Int64Counter
	RequestDuration   metric.Float64Histogram
	DecisionCount     metric.Int64Counter
	ModelAttemptCount metric.Int64Counter
	ExampleWriteCount metric.Int64Counter
	ExportRecordCount metric.Int64Counter
}

// Setup initializes OpenTelemetry trace and metric export over OTLP/gRPC
func Setup(ctx context.Context, serviceName, serviceVersion, endpoint string) (func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	metricExporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		_ = tracerProvider.Shutdown(ctx)
		return nil, err
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(30*time.Second))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(meterProvider)

	shutdown := func(ctx context.Context) error {
		return errors.Join(
			tracerProvider.Shutdown(ctx),
			meterProvider.Shutdown(ctx),
		)
	}

	return shutdown, nil
}

// InitMetrics initializes application metrics on the global meter provider
func InitMetrics() (*Metrics, error) {
	return NewMetrics(otel.Meter(instrumentationName))
}

// NewMetrics creates the instruments on the given meter
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	requestCount, err := meter.Int64Counter(
		"http.server.request.count",
		metric.WithDescription("Number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	decisionCount, err := meter.Int64Counter(
		"decision.count",
		metric.WithDescription("Decisions made, by task type and source (model or heuristic)"),
	)
	if err != nil {
		return nil, err
	}

	modelAttemptCount, err := meter.Int64Counter(
		"model.attempt.count",
		metric.WithDescription("Prediction service attempts, by task type and result"),
	)
	if err != nil {
		return nil, err
	}

	exampleWriteCount, err := meter.Int64Counter(
		"training.example.write.count",
		metric.WithDescription("Training example writes, by task type and result"),
	)
	if err != nil {
		return nil, err
	}

	exportRecordCount, err := meter.Int64Counter(
		"training.export.records",
		metric.WithDescription("Training examples written to dataset files"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCount:      requestCount,
		RequestDuration:   requestDuration,
		DecisionCount:     decisionCount,
		ModelAttemptCount: modelAttemptCount,
		ExampleWriteCount: exampleWriteCount,
		ExportRecordCount: exportRecordCount,
	}, nil
}

// StartSpan starts a new trace span
func StartSpan(ctx context.Context, spanName string) (context.Context, trace.Span) {
	tracer := otel.Tracer(instrumentationName)
	return tracer.Start(ctx, spanName)
}

// RecordError records an error in the current span
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
	}
}

// SetSpanAttributes sets attributes on a span
func SetSpanAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	span.SetAttributes(attrs...)
}

// RecordRequestMetric records an HTTP request
func RecordRequestMetric(ctx context.Context, metrics *Metrics, method, path string, statusCode int, duration time.Duration) {
	if metrics == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.route", path),
		attribute.Int("http.status_code", statusCode),
	}

	metrics.RequestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	metrics.RequestDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordDecision counts one decision
func (m *Metrics) RecordDecision(ctx context.Context, taskType, source string) {
	if m == nil {
		return
	}
	m.DecisionCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("source", source),
	))
}

// RecordModelAttempts counts the attempts of one prediction request
func (m *Metrics) RecordModelAttempts(ctx context.Context, taskType, result string, attempts int) {
	if m == nil || attempts == 0 {
		return
	}
	m.ModelAttemptCount.Add(ctx, int64(attempts), metric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("result", result),
	))
}

// RecordExampleWrite counts one training example write
func (m *Metrics) RecordExampleWrite(ctx context.Context, taskType, result string) {
	if m == nil {
		return
	}
	m.ExampleWriteCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("result", result),
	))
}

// RecordExport counts examples written to one dataset split
func (m *Metrics) RecordExport(ctx context.Context, taskType, split string, records int) {
	if m == nil || records == 0 {
		return
	}
	m.ExportRecordCount.Add(ctx, int64(records), metric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("split", split),
	))
}
