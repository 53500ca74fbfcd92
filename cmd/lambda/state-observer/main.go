// state-observer Lambda logs Glue job, crawler and trigger state changes.
// Invoked by the EventBridge rules declared for each monitored trigger.
package main

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-lambda-go/events"
	awslambda "github.com/aws/aws-lambda-go/lambda"
	"go.opentelemetry.io/otel/metric"

	"github.com/dwsmith1983/gluetrigger/internal/metrics"
	"github.com/dwsmith1983/gluetrigger/internal/observe"
)

const serviceName = "gluetrigger-state-observer"

// deps are initialized once per execution environment.
type deps struct {
	handler   *observe.Handler
	telemetry *metrics.Providers
	// recorder keeps counts in memory when no OTLP endpoint is configured.
	recorder *metrics.Recorder
}

var (
	shared   *deps
	depsOnce sync.Once
	depsErr  error
)

func getDeps(ctx context.Context) (*deps, error) {
	depsOnce.Do(func() {
		shared, depsErr = newDeps(ctx)
	})
	return shared, depsErr
}

func newDeps(ctx context.Context) (*deps, error) {
	telemetry, err := metrics.Setup(ctx, serviceName)
	if err != nil {
		return nil, err
	}
	d := &deps{telemetry: telemetry}

	var meter metric.Meter
	if telemetry.Exporting() {
		meter = telemetry.Meter.Meter(metrics.Scope)
	} else {
		d.recorder = metrics.NewRecorder()
		meter = d.recorder.Meter()
	}
	d.handler, err = observe.NewHandler(slog.Default(), meter)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func handle(ctx context.Context, evt events.CloudWatchEvent) error {
	d, err := getDeps(ctx)
	if err != nil {
		return err
	}
	if err := d.handler.Handle(ctx, evt); err != nil {
		return err
	}

	// The environment may be frozen after returning, so export now.
	if err := d.telemetry.ForceFlush(ctx); err != nil {
		slog.Warn("flushing telemetry", "error", err)
	}
	if d.recorder != nil {
		if totals, err := d.recorder.Totals(ctx); err == nil {
			slog.Debug("observer totals", "stateChanges", totals[metrics.StateChanges])
		}
	}
	return nil
}

// shutdown stops whichever providers were started.
func shutdown() {
	if shared == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := shared.telemetry.Shutdown(ctx); err != nil {
		slog.Warn("shutting down telemetry", "error", err)
	}
	if shared.recorder != nil {
		if err := shared.recorder.Shutdown(ctx); err != nil {
			slog.Warn("shutting down recorder", "error", err)
		}
	}
}

func logLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(os.Getenv("LOG_LEVEL")),
	})).With("stack", os.Getenv("STACK_NAME")))
	awslambda.StartWithOptions(handle, awslambda.WithEnableSIGTERM(shutdown))
}
