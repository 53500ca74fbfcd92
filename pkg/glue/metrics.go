package glue

import (
	"github.com/aws/aws-cdk-go/awscdk/v2/awscloudwatch"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsevents"
	"github.com/aws/jsii-runtime-go"
)

const (
	glueMetricNamespace   = "Glue"
	eventsMetricNamespace = "AWS/Events"
	triggeredRulesMetric  = "TriggeredRules"
)

// Metric returns the Glue metric name for this trigger, dimensioned by
// TriggerName and Type. The statistic defaults to Sum.
func (t *Trigger) Metric(name string, kind MetricType, opts *awscloudwatch.MetricOptions) awscloudwatch.Metric {
	return withOptions(awscloudwatch.NewMetric(&awscloudwatch.MetricProps{
		Namespace:  jsii.String(glueMetricNamespace),
		MetricName: jsii.String(name),
		Statistic:  jsii.String("Sum"),
		DimensionsMap: &map[string]*string{
			"TriggerName": t.name.Token(),
			"Type":        jsii.String(string(kind)),
		},
	}), opts)
}

// MetricSuccess counts successful runs of the jobs this trigger starts.
// It shares the rule created by OnSuccess(SuccessMetricRule).
func (t *Trigger) MetricSuccess(opts *awscloudwatch.MetricOptions) (awscloudwatch.Metric, error) {
	rule, err := t.OnSuccess(successMetricRuleID, &awsevents.OnEventOptions{
		Description: jsii.String("Rule triggered when jobs started by this trigger succeed"),
	})
	if err != nil {
		return nil, err
	}
	return ruleMetric(rule, opts), nil
}

// MetricFailure counts failed runs of the jobs this trigger starts.
func (t *Trigger) MetricFailure(opts *awscloudwatch.MetricOptions) (awscloudwatch.Metric, error) {
	rule, err := t.OnFailure(failureMetricRuleID, &awsevents.OnEventOptions{
		Description: jsii.String("Rule triggered when jobs started by this trigger fail"),
	})
	if err != nil {
		return nil, err
	}
	return ruleMetric(rule, opts), nil
}

// MetricTimeout counts timed out runs of the jobs this trigger starts.
func (t *Trigger) MetricTimeout(opts *awscloudwatch.MetricOptions) (awscloudwatch.Metric, error) {
	rule, err := t.OnTimeout(timeoutMetricRuleID, &awsevents.OnEventOptions{
		Description: jsii.String("Rule triggered when jobs started by this trigger time out"),
	})
	if err != nil {
		return nil, err
	}
	return ruleMetric(rule, opts), nil
}

// ruleMetric counts invocations of rule.
func ruleMetric(rule awsevents.IRule, opts *awscloudwatch.MetricOptions) awscloudwatch.Metric {
	return withOptions(awscloudwatch.NewMetric(&awscloudwatch.MetricProps{
		Namespace:  jsii.String(eventsMetricNamespace),
		MetricName: jsii.String(triggeredRulesMetric),
		Statistic:  jsii.String("Sum"),
		DimensionsMap: &map[string]*string{
			"RuleName": rule.RuleName(),
		},
	}), opts)
}

func withOptions(m awscloudwatch.Metric, opts *awscloudwatch.MetricOptions) awscloudwatch.Metric {
	if opts == nil {
		return m
	}
	return m.With(opts)
}
