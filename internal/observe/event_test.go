package observe

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwsmith1983/gluetrigger/pkg/glue"
)

func glueEvent(detailType, detail string) events.CloudWatchEvent {
	return events.CloudWatchEvent{
		ID:         "evt-1",
		Source:     glue.EventSource,
		DetailType: detailType,
		AccountID:  "123456789012",
		Region:     "us-east-1",
		Time:       time.Date(2026, 10, 14, 2, 0, 0, 0, time.UTC),
		Detail:     json.RawMessage(detail),
	}
}

func TestParse_JobStateChange(t *testing.T) {
	sc, err := Parse(glueEvent(glue.JobStateChangeDetailType,
		`{"jobName":"extract","severity":"ERROR","state":"FAILED","jobRunId":"jr_1","message":"OOM"}`))
	require.NoError(t, err)

	assert.Equal(t, KindJob, sc.Kind)
	assert.Equal(t, "extract", sc.Name)
	assert.Equal(t, "FAILED", sc.State)
	assert.Equal(t, "jr_1", sc.RunID)
	assert.Equal(t, "ERROR", sc.Severity)
	assert.Equal(t, "OOM", sc.Message)
	assert.Equal(t, "123456789012", sc.Account)
	assert.Equal(t, 2026, sc.Time.Year())
	assert.True(t, sc.Failed())
}

func TestParse_TriggerStateChange(t *testing.T) {
	sc, err := Parse(glueEvent(glue.TriggerStateChangeDetailType, `{"triggerName":"nightly","state":"ACTIVATED"}`))
	require.NoError(t, err)
	assert.Equal(t, KindTrigger, sc.Kind)
	assert.Equal(t, "nightly", sc.Name)
	assert.Equal(t, string(glue.TriggerActivated), sc.State)
	assert.False(t, sc.Failed())
}

func TestParse_CrawlerStateUpperCased(t *testing.T) {
	sc, err := Parse(glueEvent(CrawlerStateChangeDetailType, `{"crawlerName":"raw","state":"Failed"}`))
	require.NoError(t, err)
	assert.Equal(t, KindCrawler, sc.Kind)
	assert.Equal(t, "FAILED", sc.State)
	assert.True(t, sc.Failed())
}

func TestParse_Rejects(t *testing.T) {
	notGlue := glueEvent(glue.JobStateChangeDetailType, `{}`)
	notGlue.Source = "aws.s3"

	tests := []struct {
		name string
		evt  events.CloudWatchEvent
		is   error
	}{
		{"other source", notGlue, ErrNotGlue},
		{"other detail type", glueEvent("Glue Data Catalog Table State Change", `{}`), ErrUnsupportedDetailType},
		{"bad json", glueEvent(glue.JobStateChangeDetailType, `{"jobName":`), nil},
		{"missing state", glueEvent(glue.JobStateChangeDetailType, `{"jobName":"extract"}`), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.evt)
			require.Error(t, err)
			if tt.is != nil {
				assert.True(t, errors.Is(err, tt.is))
			}
		})
	}
}
