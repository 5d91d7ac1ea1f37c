package internal

import (
	"context"
	"io"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"github.com/sanLimbu/tasksync/internal"
	"github.com/sanLimbu/tasksync/internal/envvar"
)

// OTExporter holds the installed OpenTelemetry providers.
type OTExporter struct {
	Prometheus *prometheus.Exporter

	meterProvider *metric.MeterProvider
	traceProvider *sdktrace.TracerProvider
}

// Shutdown flushes pending spans and stops the providers.
func (o *OTExporter) Shutdown(ctx context.Context) error {
	if err := o.traceProvider.Shutdown(ctx); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "traceProvider.Shutdown")
	}

	if err := o.meterProvider.Shutdown(ctx); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "meterProvider.Shutdown")
	}

	return nil
}

// NewOTExporter instantiates the OpenTelemetry exporters using configuration defined in
// environment variables. Spans go to JAEGER_ENDPOINT when set, otherwise to traceOut when it
// is not nil.
func NewOTExporter(conf *envvar.Configuration, serviceName string, traceOut io.Writer) (*OTExporter, error) {
	// Set up prometheus exporter
	promExporter, err := prometheus.New(prometheus.WithoutUnits())
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "prometheus.New")
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(serviceName),
	)

	meterProvider := metric.NewMeterProvider(
		metric.WithReader(promExporter),
		metric.WithResource(res),
	)

	otel.SetMeterProvider(meterProvider)

	if err := runtime.Start(runtime.WithMinimumReadMemStatsInterval(time.Second)); err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "runtime.Start")
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
	}

	jaegerEndpoint, err := conf.Get("JAEGER_ENDPOINT")
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "conf.Get JAEGER_ENDPOINT")
	}

	switch {
	case jaegerEndpoint != "":
		jaegerExporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(jaegerEndpoint)))
		if err != nil {
			return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "jaeger.New")
		}

		opts = append(opts, sdktrace.WithBatcher(jaegerExporter))
	case traceOut != nil:
		stdoutExporter, err := stdouttrace.New(stdouttrace.WithWriter(traceOut))
		if err != nil {
			return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "stdouttrace.New")
		}

		opts = append(opts, sdktrace.WithBatcher(stdoutExporter))
	}

	traceProvider := sdktrace.NewTracerProvider(opts...)

	otel.SetTracerProvider(traceProvider)

	// Set global propagator
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return &OTExporter{
		Prometheus:    promExporter,
		meterProvider: meterProvider,
		traceProvider: traceProvider,
	}, nil
}
