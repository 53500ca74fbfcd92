package observe

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
)

// LogsAPI is the subset of the CloudWatch Logs client used to read back
// recorded state changes.
type LogsAPI interface {
	FilterLogEvents(ctx context.Context, params *cloudwatchlogs.FilterLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.FilterLogEventsOutput, error)
}

// ObserverFunctionName is the physical name of the state observer function
// declared for stack.
func ObserverFunctionName(stack string) string { return stack + "-state-observer" }

// ObserverLogGroup is the log group the state observer of stack writes to.
func ObserverLogGroup(stack string) string { return "/aws/lambda/" + ObserverFunctionName(stack) }

// filterPattern matches the JSON log lines written by Handler.
var filterPattern = fmt.Sprintf(`{ ($.msg = %q) || ($.msg = %q) }`, MsgStateChange, MsgRunFailed)

// LoggedChange is a state change read back from the observer's log group.
type LoggedChange struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Kind    Kind      `json:"kind"`
	Name    string    `json:"name"`
	State   string    `json:"state"`
	RunID   string    `json:"runId,omitempty"`
	Message string    `json:"message,omitempty"`
	Account string    `json:"account,omitempty"`
	Region  string    `json:"region,omitempty"`
}

// Failed reports whether the line was logged for a run that did not succeed.
func (c LoggedChange) Failed() bool { return c.Level == slog.LevelWarn.String() }

// LogReader reads recorded state changes from CloudWatch Logs.
type LogReader struct {
	client LogsAPI
	logger *slog.Logger
}

// NewLogReader creates a LogReader. A nil logger uses slog.Default().
func NewLogReader(client LogsAPI, logger *slog.Logger) *LogReader {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogReader{client: client, logger: logger}
}

// Recent returns up to limit changes logged to group at or after since, in
// log order. A limit of zero or less returns every match.
func (r *LogReader) Recent(ctx context.Context, group string, since time.Time, limit int) ([]LoggedChange, error) {
	in := &cloudwatchlogs.FilterLogEventsInput{
		LogGroupName:  aws.String(group),
		FilterPattern: aws.String(filterPattern),
		StartTime:     aws.Int64(since.UnixMilli()),
	}
	pages := cloudwatchlogs.NewFilterLogEventsPaginator(r.client, in)

	var out []LoggedChange
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return out, fmt.Errorf("reading log group %s: %w", group, err)
		}
		for _, ev := range page.Events {
			var c LoggedChange
			if err := json.Unmarshal([]byte(aws.ToString(ev.Message)), &c); err != nil {
				r.logger.Debug("skipping unparseable log line", "group", group, "eventId", aws.ToString(ev.EventId), "error", err)
				continue
			}
			if c.Time.IsZero() && ev.Timestamp != nil {
				c.Time = time.UnixMilli(*ev.Timestamp).UTC()
			}
			out = append(out, c)
			if limit > 0 && len(out) >= limit {
				return out, nil
			}
		}
	}
	return out, nil
}
