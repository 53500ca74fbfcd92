package glue

import (
	"fmt"
	"strings"

	gluetypes "github.com/aws/aws-sdk-go-v2/service/glue/types"
)

// TriggerType determines what fires a trigger. The tokens are the Glue API's own.
type TriggerType string

// TriggerType values enumerate the trigger kinds Glue supports.
const (
	TriggerScheduled   TriggerType = TriggerType(gluetypes.TriggerTypeScheduled)
	TriggerEvent       TriggerType = TriggerType(gluetypes.TriggerTypeEvent)
	TriggerOnDemand    TriggerType = TriggerType(gluetypes.TriggerTypeOnDemand)
	TriggerConditional TriggerType = TriggerType(gluetypes.TriggerTypeConditional)
)

// TriggerTypes returns every known TriggerType in declaration order.
func TriggerTypes() []TriggerType {
	return []TriggerType{TriggerScheduled, TriggerEvent, TriggerOnDemand, TriggerConditional}
}

// String returns the Glue token for the type.
func (t TriggerType) String() string { return string(t) }

// Valid reports whether t is one of the known trigger types.
func (t TriggerType) Valid() bool {
	for _, v := range TriggerTypes() {
		if t == v {
			return true
		}
	}
	return false
}

// ParseTriggerType accepts the Glue token in any case, with '-' or '_' separators.
func ParseTriggerType(s string) (TriggerType, error) {
	t := TriggerType(normalizeToken(s))
	if !t.Valid() {
		return "", fmt.Errorf("unknown trigger type %q", s)
	}
	return t, nil
}

// TriggerState is the lifecycle state Glue reports for a deployed trigger.
// It is observed, never set, by this package.
type TriggerState string

// TriggerState values mirror gluetypes.TriggerState.
const (
	TriggerCreating     TriggerState = TriggerState(gluetypes.TriggerStateCreating)
	TriggerCreated      TriggerState = TriggerState(gluetypes.TriggerStateCreated)
	TriggerActivating   TriggerState = TriggerState(gluetypes.TriggerStateActivating)
	TriggerActivated    TriggerState = TriggerState(gluetypes.TriggerStateActivated)
	TriggerDeactivating TriggerState = TriggerState(gluetypes.TriggerStateDeactivating)
	TriggerDeactivated  TriggerState = TriggerState(gluetypes.TriggerStateDeactivated)
	TriggerUpdating     TriggerState = TriggerState(gluetypes.TriggerStateUpdating)
	TriggerDeleting     TriggerState = TriggerState(gluetypes.TriggerStateDeleting)
)

// TriggerStates returns every known TriggerState.
func TriggerStates() []TriggerState {
	return []TriggerState{
		TriggerCreating, TriggerCreated, TriggerActivating, TriggerActivated,
		TriggerDeactivating, TriggerDeactivated, TriggerUpdating, TriggerDeleting,
	}
}

// String returns the Glue token for the state.
func (s TriggerState) String() string { return string(s) }

// Valid reports whether s is one of the known trigger states.
func (s TriggerState) Valid() bool {
	for _, v := range TriggerStates() {
		if s == v {
			return true
		}
	}
	return false
}

// ParseTriggerState accepts the Glue token in any case.
func ParseTriggerState(s string) (TriggerState, error) {
	st := TriggerState(normalizeToken(s))
	if !st.Valid() {
		return "", fmt.Errorf("unknown trigger state %q", s)
	}
	return st, nil
}

// JobState is a job run outcome that a predicate condition or event rule can match.
type JobState string

const (
	JobSucceeded JobState = JobState(gluetypes.JobRunStateSucceeded)
	JobStopped   JobState = JobState(gluetypes.JobRunStateStopped)
	JobFailed    JobState = JobState(gluetypes.JobRunStateFailed)
	JobTimeout   JobState = JobState(gluetypes.JobRunStateTimeout)
)

// conditionJobStates are the job states Glue accepts inside a predicate.
var conditionJobStates = []JobState{JobSucceeded, JobStopped, JobFailed, JobTimeout}

// CrawlState is a crawler run outcome that a predicate condition can match.
type CrawlState string

const (
	CrawlSucceeded CrawlState = CrawlState(gluetypes.CrawlStateSucceeded)
	CrawlFailed    CrawlState = CrawlState(gluetypes.CrawlStateFailed)
	CrawlCancelled CrawlState = CrawlState(gluetypes.CrawlStateCancelled)
)

var conditionCrawlStates = []CrawlState{CrawlSucceeded, CrawlFailed, CrawlCancelled}

// PredicateLogical combines the conditions of a predicate.
type PredicateLogical string

const (
	LogicalAnd PredicateLogical = PredicateLogical(gluetypes.LogicalAnd)
	LogicalAny PredicateLogical = PredicateLogical(gluetypes.LogicalAny)
)

// ConditionOperator compares a watched run's state. Glue only supports EQUALS.
type ConditionOperator string

const OperatorEquals ConditionOperator = ConditionOperator(gluetypes.LogicalOperatorEquals)

// MetricType is the value of the Type dimension on Glue metrics.
type MetricType string

const (
	MetricCount MetricType = "count"
	MetricGauge MetricType = "gauge"
)

func normalizeToken(s string) string {
	s = strings.TrimSpace(strings.ToUpper(s))
	return strings.ReplaceAll(s, "-", "_")
}
