package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwsmith1983/gluetrigger/internal/metrics"
	"github.com/dwsmith1983/gluetrigger/pkg/glue"
)

func newTestHandler(t *testing.T) (*Handler, *bytes.Buffer, *metrics.Recorder) {
	t.Helper()
	var buf bytes.Buffer
	rec := metrics.NewRecorder()
	t.Cleanup(func() { _ = rec.Shutdown(context.Background()) })
	h, err := NewHandler(slog.New(slog.NewJSONHandler(&buf, nil)), rec.Meter())
	require.NoError(t, err)
	return h, &buf, rec
}

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(line, &m))
		out = append(out, m)
	}
	return out
}

func TestHandle_LogsFailureAsWarning(t *testing.T) {
	h, buf, rec := newTestHandler(t)
	ctx := context.Background()

	require.NoError(t, h.Handle(ctx, glueEvent(glue.JobStateChangeDetailType,
		`{"jobName":"extract","state":"TIMEOUT","jobRunId":"jr_9"}`)))

	lines := logLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "WARN", lines[0]["level"])
	assert.Equal(t, "extract", lines[0]["name"])
	assert.Equal(t, "jr_9", lines[0]["runId"])

	totals, err := rec.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), totals[metrics.StateChanges])
}

func TestHandle_SuccessIsInfo(t *testing.T) {
	h, buf, _ := newTestHandler(t)
	require.NoError(t, h.Handle(context.Background(), glueEvent(glue.TriggerStateChangeDetailType,
		`{"triggerName":"nightly","state":"ACTIVATED"}`)))

	lines := logLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "INFO", lines[0]["level"])
	assert.Equal(t, "trigger", lines[0]["kind"])
}

func TestHandle_DropsForeignEvents(t *testing.T) {
	h, buf, rec := newTestHandler(t)
	ctx := context.Background()

	err := h.Handle(ctx, events.CloudWatchEvent{ID: "x", Source: "aws.ec2", DetailType: "EC2 Instance State-change Notification"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "ignoring event")

	totals, err := rec.Totals(ctx)
	require.NoError(t, err)
	assert.Zero(t, totals[metrics.StateChanges])
}

func TestHandle_OnChange(t *testing.T) {
	h, _, _ := newTestHandler(t)
	var got []StateChange
	h.onChange = func(_ context.Context, sc StateChange) error {
		got = append(got, sc)
		return nil
	}

	require.NoError(t, h.Handle(context.Background(), glueEvent(glue.JobStateChangeDetailType,
		`{"jobName":"load","state":"SUCCEEDED"}`)))
	require.Len(t, got, 1)
	assert.Equal(t, "load", got[0].Name)

	h.onChange = func(context.Context, StateChange) error { return assert.AnError }
	assert.ErrorIs(t, h.Handle(context.Background(), glueEvent(glue.JobStateChangeDetailType,
		`{"jobName":"load","state":"SUCCEEDED"}`)), assert.AnError)
}
