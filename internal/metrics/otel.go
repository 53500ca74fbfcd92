package metrics

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// EnvOTLPEndpoint enables OTLP export when set.
const EnvOTLPEndpoint = "OTEL_EXPORTER_OTLP_ENDPOINT"

// Providers are the meter and tracer providers installed by Setup.
type Providers struct {
	Meter    metric.MeterProvider
	Tracer   trace.TracerProvider
	flush    []func(context.Context) error
	shutdown []func(context.Context) error
}

// Exporting reports whether Setup installed OTLP exporting providers.
func (p *Providers) Exporting() bool { return len(p.shutdown) > 0 }

// Setup installs OTLP/gRPC exporting meter and tracer providers as the
// globals when EnvOTLPEndpoint is set. Otherwise the current globals are
// returned untouched.
func Setup(ctx context.Context, service string) (*Providers, error) {
	if os.Getenv(EnvOTLPEndpoint) == "" {
		return &Providers{Meter: otel.GetMeterProvider(), Tracer: otel.GetTracerProvider()}, nil
	}

	res := resource.NewSchemaless(attribute.String("service.name", service))

	metricExp, err := otlpmetricgrpc.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP metric exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp)),
		sdkmetric.WithResource(res),
	)

	traceExp, err := otlptracegrpc.New(ctx)
	if err != nil {
		_ = mp.Shutdown(ctx)
		return nil, fmt.Errorf("creating OTLP trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExp),
		sdktrace.WithResource(res),
	)

	otel.SetMeterProvider(mp)
	otel.SetTracerProvider(tp)
	return &Providers{
		Meter:    mp,
		Tracer:   tp,
		flush:    []func(context.Context) error{mp.ForceFlush, tp.ForceFlush},
		shutdown: []func(context.Context) error{mp.Shutdown, tp.Shutdown},
	}, nil
}

// ForceFlush exports everything recorded so far, if exporting.
func (p *Providers) ForceFlush(ctx context.Context) error {
	var errs []error
	for _, fn := range p.flush {
		errs = append(errs, fn(ctx))
	}
	return errors.Join(errs...)
}

// Shutdown flushes and stops the exporting providers, if any.
func (p *Providers) Shutdown(ctx context.Context) error {
	var errs []error
	for _, fn := range p.shutdown {
		errs = append(errs, fn(ctx))
	}
	return errors.Join(errs...)
}
