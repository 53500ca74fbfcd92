package status

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestCheck_Spans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	mock := newMock()
	mock.errs["broken"] = errors.New("throttled")
	p, err := NewPoller(WithGlueClient(mock), WithTracerProvider(tp))
	require.NoError(t, err)

	_, err = p.Check(context.Background(), []string{"nightly", "missing", "broken"})
	require.Error(t, err)

	ended := sr.Ended()
	require.Len(t, ended, 4)

	byTrigger := map[string]sdktrace.ReadOnlySpan{}
	var root sdktrace.ReadOnlySpan
	for _, s := range ended {
		if s.Name() == "status.Check" {
			root = s
			continue
		}
		assert.Equal(t, "glue.GetTrigger", s.Name())
		for _, kv := range s.Attributes() {
			if kv.Key == "glue.trigger" {
				byTrigger[kv.Value.AsString()] = s
			}
		}
	}
	require.NotNil(t, root)
	assert.Equal(t, codes.Error, root.Status().Code)

	require.Len(t, byTrigger, 3)
	for _, name := range []string{"nightly", "missing", "broken"} {
		assert.Equal(t, root.SpanContext().SpanID(), byTrigger[name].Parent().SpanID(), name)
	}
	assert.Equal(t, codes.Unset, byTrigger["nightly"].Status().Code)
	assert.Equal(t, codes.Unset, byTrigger["missing"].Status().Code)
	assert.Equal(t, codes.Error, byTrigger["broken"].Status().Code)
}
