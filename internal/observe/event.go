// Package observe decodes Glue state change events delivered by EventBridge.
package observe

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"github.com/dwsmith1983/gluetrigger/pkg/glue"
)

// CrawlerStateChangeDetailType is emitted when a crawler starts or finishes.
const CrawlerStateChangeDetailType = "Glue Crawler State Change"

// Kind is the Glue entity a state change refers to.
type Kind string

const (
	KindJob     Kind = "job"
	KindTrigger Kind = "trigger"
	KindCrawler Kind = "crawler"
)

var (
	// ErrNotGlue is returned for events whose source is not aws.glue.
	ErrNotGlue = errors.New("event source is not " + glue.EventSource)
	// ErrUnsupportedDetailType is returned for Glue events this package does not decode.
	ErrUnsupportedDetailType = errors.New("unsupported detail type")
)

// StateChange is a decoded Glue state change.
type StateChange struct {
	EventID    string    `json:"eventId"`
	DetailType string    `json:"detailType"`
	Kind       Kind      `json:"kind"`
	Name       string    `json:"name"`
	State      string    `json:"state"`
	RunID      string    `json:"runId,omitempty"`
	Severity   string    `json:"severity,omitempty"`
	Message    string    `json:"message,omitempty"`
	Account    string    `json:"account"`
	Region     string    `json:"region"`
	Time       time.Time `json:"time"`
}

// Failed reports whether the change is a job or crawler run that did not succeed.
func (s StateChange) Failed() bool {
	switch s.Kind {
	case KindJob:
		return s.State == string(glue.JobFailed) || s.State == string(glue.JobTimeout) || s.State == string(glue.JobStopped)
	case KindCrawler:
		return s.State == string(glue.CrawlFailed) || s.State == string(glue.CrawlCancelled)
	}
	return false
}

type detail struct {
	JobName     string `json:"jobName"`
	JobRunID    string `json:"jobRunId"`
	TriggerName string `json:"triggerName"`
	CrawlerName string `json:"crawlerName"`
	State       string `json:"state"`
	Severity    string `json:"severity"`
	Message     string `json:"message"`
}

// Parse decodes evt into a StateChange. States are upper-cased; crawler
// events report them in title case.
func Parse(evt events.CloudWatchEvent) (StateChange, error) {
	if evt.Source != glue.EventSource {
		return StateChange{}, fmt.Errorf("%w: %q", ErrNotGlue, evt.Source)
	}

	var d detail
	if len(evt.Detail) > 0 {
		if err := json.Unmarshal(evt.Detail, &d); err != nil {
			return StateChange{}, fmt.Errorf("decoding %s detail: %w", evt.DetailType, err)
		}
	}

	sc := StateChange{
		EventID:    evt.ID,
		DetailType: evt.DetailType,
		State:      strings.ToUpper(d.State),
		Severity:   d.Severity,
		Message:    d.Message,
		Account:    evt.AccountID,
		Region:     evt.Region,
		Time:       evt.Time,
	}
	switch evt.DetailType {
	case glue.JobStateChangeDetailType:
		sc.Kind, sc.Name, sc.RunID = KindJob, d.JobName, d.JobRunID
	case glue.TriggerStateChangeDetailType:
		sc.Kind, sc.Name = KindTrigger, d.TriggerName
	case CrawlerStateChangeDetailType:
		sc.Kind, sc.Name = KindCrawler, d.CrawlerName
	default:
		return StateChange{}, fmt.Errorf("%w: %q", ErrUnsupportedDetailType, evt.DetailType)
	}
	if sc.Name == "" || sc.State == "" {
		return StateChange{}, fmt.Errorf("%s event %s: missing name or state", evt.DetailType, evt.ID)
	}
	return sc, nil
}
