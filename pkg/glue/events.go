package glue

import (
	"github.com/aws/aws-cdk-go/awscdk/v2/awsevents"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

// EventBridge vocabulary for Glue.
const (
	EventSource                  = "aws.glue"
	JobStateChangeDetailType     = "Glue Job State Change"
	TriggerStateChangeDetailType = "Glue Trigger State Change"
)

// Child ids of the rules backing the Metric{Success,Failure,Timeout} helpers.
const (
	successMetricRuleID = "SuccessMetricRule"
	failureMetricRuleID = "FailureMetricRule"
	timeoutMetricRuleID = "TimeoutMetricRule"
)

// ruleSet creates event rules under a construct at most once per child id.
type ruleSet struct {
	scope constructs.Construct
	rules map[string]awsevents.Rule
}

func newRuleSet(scope constructs.Construct) *ruleSet {
	return &ruleSet{scope: scope, rules: make(map[string]awsevents.Rule)}
}

// getOrCreate returns the rule previously created under id, ignoring the
// new pattern and options. Otherwise it declares one matching pattern.
func (s *ruleSet) getOrCreate(id string, pattern *awsevents.EventPattern, opts *awsevents.OnEventOptions) (awsevents.Rule, error) {
	if r, ok := s.rules[id]; ok {
		return r, nil
	}
	if err := checkUnique(s.scope, id); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = &awsevents.OnEventOptions{}
	}

	rule := awsevents.NewRule(s.scope, jsii.String(id), &awsevents.RuleProps{
		Description:  opts.Description,
		RuleName:     opts.RuleName,
		EventPattern: opts.EventPattern,
	})
	rule.AddEventPattern(pattern)
	if opts.Target != nil {
		rule.AddTarget(opts.Target)
	}
	s.rules[id] = rule
	return rule, nil
}

func stringList(values ...string) []interface{} {
	out := make([]interface{}, 0, len(values))
	for _, v := range values {
		out = append(out, v)
	}
	return out
}

func tokenList(values []*string) []interface{} {
	out := make([]interface{}, 0, len(values))
	for _, v := range values {
		out = append(out, v)
	}
	return out
}

func jobStatePattern(jobNames []*string, states ...JobState) *awsevents.EventPattern {
	s := make([]string, 0, len(states))
	for _, st := range states {
		s = append(s, string(st))
	}
	return &awsevents.EventPattern{
		Source:     jsii.Strings(EventSource),
		DetailType: jsii.Strings(JobStateChangeDetailType),
		Detail: &map[string]interface{}{
			"jobName": tokenList(jobNames),
			"state":   stringList(s...),
		},
	}
}

// OnEvent declares (or returns the existing) rule id matching every Glue
// event about this trigger.
func (t *Trigger) OnEvent(id string, opts *awsevents.OnEventOptions) (awsevents.Rule, error) {
	return t.rules.getOrCreate(id, &awsevents.EventPattern{
		Source: jsii.Strings(EventSource),
		Detail: &map[string]interface{}{
			"triggerName": tokenList([]*string{t.name.Token()}),
		},
	}, opts)
}

// OnStateChange declares (or returns the existing) rule id matching this
// trigger entering state.
func (t *Trigger) OnStateChange(id string, state TriggerState, opts *awsevents.OnEventOptions) (awsevents.Rule, error) {
	if !state.Valid() {
		return nil, &ValidationError{Path: *t.Node().Path(), Field: "state", Reason: "unknown trigger state " + string(state)}
	}
	return t.rules.getOrCreate(id, &awsevents.EventPattern{
		Source:     jsii.Strings(EventSource),
		DetailType: jsii.Strings(TriggerStateChangeDetailType),
		Detail: &map[string]interface{}{
			"triggerName": tokenList([]*string{t.name.Token()}),
			"state":       stringList(string(state)),
		},
	}, opts)
}

// OnSuccess declares (or returns the existing) rule id matching a successful
// run of any job this trigger starts.
func (t *Trigger) OnSuccess(id string, opts *awsevents.OnEventOptions) (awsevents.Rule, error) {
	return t.onJobState(id, opts, JobSucceeded)
}

// OnFailure is OnSuccess for failed runs.
func (t *Trigger) OnFailure(id string, opts *awsevents.OnEventOptions) (awsevents.Rule, error) {
	return t.onJobState(id, opts, JobFailed)
}

// OnTimeout is OnSuccess for runs that timed out.
func (t *Trigger) OnTimeout(id string, opts *awsevents.OnEventOptions) (awsevents.Rule, error) {
	return t.onJobState(id, opts, JobTimeout)
}

func (t *Trigger) onJobState(id string, opts *awsevents.OnEventOptions, states ...JobState) (awsevents.Rule, error) {
	if r, ok := t.rules.rules[id]; ok {
		return r, nil
	}
	names := t.jobNames()
	if len(names) == 0 {
		return nil, &ValidationError{Path: *t.Node().Path(), Field: "Actions", Reason: "no job actions to observe"}
	}
	return t.rules.getOrCreate(id, jobStatePattern(names, states...), opts)
}
