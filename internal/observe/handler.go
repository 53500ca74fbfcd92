package observe

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/dwsmith1983/gluetrigger/internal/metrics"
)

// Log messages of recorded state changes. LogReader filters on them.
const (
	MsgStateChange = "glue state change"
	MsgRunFailed   = "glue run did not succeed"
)

// Handler logs decoded state changes and counts them.
type Handler struct {
	logger *slog.Logger
	inst   *metrics.Instruments
	// onChange, when set, receives every decoded change after it is logged.
	onChange func(context.Context, StateChange) error
}

// NewHandler creates a Handler. A nil logger uses slog.Default() and a nil
// meter the global provider.
func NewHandler(logger *slog.Logger, meter metric.Meter) (*Handler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	inst, err := metrics.New(meter)
	if err != nil {
		return nil, err
	}
	return &Handler{logger: logger, inst: inst}, nil
}

// Handle processes one EventBridge delivery. Events that are not Glue state
// changes are logged and dropped so EventBridge does not retry them.
func (h *Handler) Handle(ctx context.Context, evt events.CloudWatchEvent) error {
	sc, err := Parse(evt)
	if err != nil {
		if errors.Is(err, ErrNotGlue) || errors.Is(err, ErrUnsupportedDetailType) {
			h.logger.Warn("ignoring event", "id", evt.ID, "source", evt.Source, "detailType", evt.DetailType)
			return nil
		}
		h.logger.Error("malformed glue event", "id", evt.ID, "error", err)
		return nil
	}

	h.inst.StateChanges.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", string(sc.Kind)),
		attribute.String("state", sc.State),
	))

	attrs := []any{
		"kind", sc.Kind,
		"name", sc.Name,
		"state", sc.State,
		"account", sc.Account,
		"region", sc.Region,
	}
	if sc.RunID != "" {
		attrs = append(attrs, "runId", sc.RunID)
	}
	if sc.Message != "" {
		attrs = append(attrs, "message", sc.Message)
	}
	if sc.Failed() {
		h.logger.Warn(MsgRunFailed, attrs...)
	} else {
		h.logger.Info(MsgStateChange, attrs...)
	}

	if h.onChange != nil {
		return h.onChange(ctx, sc)
	}
	return nil
}
