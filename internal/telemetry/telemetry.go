package telemetry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

// ShutdownFunc flushes and stops the tracer and meter providers. Safe to call
// more than once.
type ShutdownFunc func(context.Context) error

// Init installs global tracer and meter providers exporting over OTLP/HTTP to
// the collector at endpoint, e.g. http://collector:4318. With an empty
// endpoint both globals stay no-op.
func Init(ctx context.Context, endpoint, serviceName, environment string, logger *zap.Logger) (ShutdownFunc, error) {
	if endpoint == "" {
		logger.Debug("telemetry export disabled")
		return func(context.Context) error { return nil }, nil
	}

	traceExporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(signalURL(endpoint, "traces")))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}
	metricExporter, err := otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpointURL(signalURL(endpoint, "metrics")))
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", serviceName),
			attribute.String("deployment.environment", environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
		sdkmetric.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	logger.Info("telemetry export enabled", zap.String("endpoint", endpoint))

	var once sync.Once
	var shutdownErr error
	return func(ctx context.Context) error {
		once.Do(func() {
			shutdownErr = errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
		})
		return shutdownErr
	}, nil
}

// signalURL maps a collector base URL to the OTLP/HTTP path of one signal.
// A URL already ending in a signal path is rebased first.
func signalURL(endpoint, signal string) string {
	base := strings.TrimSuffix(endpoint, "/")
	for _, s := range []string{"/v1/traces", "/v1/metrics"} {
		base = strings.TrimSuffix(base, s)
	}
	return base + "/v1/" + signal
}
