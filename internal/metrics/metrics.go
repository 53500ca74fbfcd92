// Package metrics defines the OpenTelemetry instruments shared by the
// status poller and the state observer.
package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// Scope is the instrumentation scope name.
const Scope = "github.com/dwsmith1983/gluetrigger"

// Instrument names.
const (
	StatusChecks = "gluetrigger.status.checks"
	StateChanges = "gluetrigger.state_changes"
	BreakerTrips = "gluetrigger.status.breaker_trips"
)

// Instruments bundles the counters recorded by this module.
type Instruments struct {
	StatusChecks metric.Int64Counter
	StateChanges metric.Int64Counter
	BreakerTrips metric.Int64Counter
}

// New creates the instruments on meter. A nil meter falls back to the
// global provider.
func New(meter metric.Meter) (*Instruments, error) {
	if meter == nil {
		meter = otel.Meter(Scope)
	}
	checks, err := meter.Int64Counter(StatusChecks,
		metric.WithDescription("GetTrigger calls made by the status poller, by outcome"))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", StatusChecks, err)
	}
	changes, err := meter.Int64Counter(StateChanges,
		metric.WithDescription("Glue state change events observed, by detail type and state"))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", StateChanges, err)
	}
	trips, err := meter.Int64Counter(BreakerTrips,
		metric.WithDescription("Circuit breaker transitions to open"))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", BreakerTrips, err)
	}
	return &Instruments{StatusChecks: checks, StateChanges: changes, BreakerTrips: trips}, nil
}

// Recorder is an in-process meter provider whose totals can be read back,
// used where no exporter is configured.
type Recorder struct {
	reader   *sdkmetric.ManualReader
	provider *sdkmetric.MeterProvider
}

// NewRecorder returns a Recorder backed by a manual reader.
func NewRecorder() *Recorder {
	reader := sdkmetric.NewManualReader()
	return &Recorder{
		reader:   reader,
		provider: sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
	}
}

// Meter returns the module meter on this recorder.
func (r *Recorder) Meter() metric.Meter {
	return r.provider.Meter(Scope)
}

// Totals collects every int64 sum recorded so far, summed across attributes.
func (r *Recorder) Totals(ctx context.Context) (map[string]int64, error) {
	var rm metricdata.ResourceMetrics
	if err := r.reader.Collect(ctx, &rm); err != nil {
		return nil, fmt.Errorf("collecting metrics: %w", err)
	}
	totals := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				totals[m.Name] += dp.Value
			}
		}
	}
	return totals, nil
}

// Shutdown flushes and stops the provider.
func (r *Recorder) Shutdown(ctx context.Context) error {
	return r.provider.Shutdown(ctx)
}
