package glue

import (
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"

	"github.com/dwsmith1983/gluetrigger/pkg/deferred"
)

// JobRef is anything that names a Glue job: a *Job declared in the same app
// or an imported job.
type JobRef interface {
	JobName() deferred.String
}

type namedJob string

func (n namedJob) JobName() deferred.String { return deferred.Literal(string(n)) }

// JobNamed refers to an existing job by name.
func JobNamed(name string) JobRef { return namedJob(name) }

// TriggerProps are the construction parameters of a Trigger.
type TriggerProps struct {
	// TriggerName is the physical name. Generated from the construct path when empty.
	TriggerName string
	Description string
	// Type is mandatory.
	Type    TriggerType
	Actions []Action
	// Schedule is a Glue cron expression, e.g. "cron(0 12 * * ? *)".
	Schedule  string
	Predicate *Predicate
	// EventBatchingCondition applies to EVENT triggers only.
	EventBatchingCondition *EventBatchingCondition
	WorkflowName           *string
	StartOnCreation        *bool
	Tags                   map[string]string
	// Role is used as the grant principal. A Glue service role is declared when nil.
	Role awsiam.IRole
	// StrictValidation overrides the app-wide StrictValidationContextKey setting.
	StrictValidation *bool
}

// Action is one unit of work the trigger starts: a job or a crawler.
type Action struct {
	Job         JobRef
	JobName     string
	CrawlerName string
	Arguments   map[string]string
	// Timeout in minutes, overriding the job's own timeout.
	Timeout               *float64
	SecurityConfiguration string
	// NotifyDelayAfter in minutes before a run-delay notification is sent.
	NotifyDelayAfter *float64
}

// jobName returns the job this action starts, or nil for a crawler action.
func (a Action) jobName() *string {
	switch {
	case a.Job != nil:
		return a.Job.JobName().Token()
	case a.JobName != "":
		s := a.JobName
		return &s
	default:
		return nil
	}
}

// Predicate gates a CONDITIONAL trigger on the outcome of other runs.
type Predicate struct {
	// Logical defaults to AND.
	Logical    PredicateLogical
	Conditions []Condition
}

// Condition watches exactly one job or one crawler.
type Condition struct {
	Job         JobRef
	JobName     string
	State       JobState
	CrawlerName string
	CrawlState  CrawlState
	// LogicalOperator defaults to EQUALS.
	LogicalOperator ConditionOperator
}

func (c Condition) jobName() *string {
	switch {
	case c.Job != nil:
		return c.Job.JobName().Token()
	case c.JobName != "":
		s := c.JobName
		return &s
	default:
		return nil
	}
}

// EventBatchingCondition delays an EVENT trigger until BatchSize events
// arrive or BatchWindow seconds pass.
type EventBatchingCondition struct {
	BatchSize   float64
	BatchWindow *float64
}
