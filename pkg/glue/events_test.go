package glue

import (
	"errors"
	"testing"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/assertions"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscloudwatch"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsevents"
	"github.com/aws/jsii-runtime-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNamedTrigger(t *testing.T, stack awscdk.Stack) *Trigger {
	t.Helper()
	trig, err := NewTrigger(stack, "Trigger", &TriggerProps{
		TriggerName: "nightly",
		Type:        TriggerScheduled,
		Schedule:    "cron(0 12 * * ? *)",
		Actions:     []Action{{JobName: "extract"}, {CrawlerName: "raw"}, {JobName: "load"}},
	})
	require.NoError(t, err)
	return trig
}

func TestOnSuccess_Memoized(t *testing.T) {
	stack := newTestStack(t, nil)
	trig := newNamedTrigger(t, stack)

	first, err := trig.OnSuccess("Succeeded", nil)
	require.NoError(t, err)
	second, err := trig.OnSuccess("Succeeded", &awsevents.OnEventOptions{Description: jsii.String("ignored")})
	require.NoError(t, err)

	assert.Equal(t, *first.Node().Path(), *second.Node().Path())
	assertions.Template_FromStack(stack, nil).ResourceCountIs(jsii.String("AWS::Events::Rule"), jsii.Number(1))
}

func TestOnSuccess_Pattern(t *testing.T) {
	stack := newTestStack(t, nil)
	trig := newNamedTrigger(t, stack)

	_, err := trig.OnSuccess("Succeeded", &awsevents.OnEventOptions{Description: jsii.String("etl done")})
	require.NoError(t, err)

	assertions.Template_FromStack(stack, nil).HasResourceProperties(jsii.String("AWS::Events::Rule"), map[string]interface{}{
		"Description": jsii.String("etl done"),
		"EventPattern": map[string]interface{}{
			"source":      &[]interface{}{jsii.String("aws.glue")},
			"detail-type": &[]interface{}{jsii.String("Glue Job State Change")},
			"detail": map[string]interface{}{
				"jobName": &[]interface{}{jsii.String("extract"), jsii.String("load")},
				"state":   &[]interface{}{jsii.String("SUCCEEDED")},
			},
		},
	})
}

func TestOnFailureAndTimeout_States(t *testing.T) {
	stack := newTestStack(t, nil)
	trig := newNamedTrigger(t, stack)

	_, err := trig.OnFailure("Failed", nil)
	require.NoError(t, err)
	_, err = trig.OnTimeout("TimedOut", nil)
	require.NoError(t, err)

	tmpl := assertions.Template_FromStack(stack, nil)
	tmpl.ResourceCountIs(jsii.String("AWS::Events::Rule"), jsii.Number(2))
	for _, state := range []string{"FAILED", "TIMEOUT"} {
		tmpl.HasResourceProperties(jsii.String("AWS::Events::Rule"), map[string]interface{}{
			"EventPattern": assertions.Match_ObjectLike(&map[string]interface{}{
				"detail": assertions.Match_ObjectLike(&map[string]interface{}{
					"state": &[]interface{}{jsii.String(state)},
				}),
			}),
		})
	}
}

func TestOnStateChange(t *testing.T) {
	stack := newTestStack(t, nil)
	trig := newNamedTrigger(t, stack)

	_, err := trig.OnStateChange("Activated", TriggerActivated, nil)
	require.NoError(t, err)

	assertions.Template_FromStack(stack, nil).HasResourceProperties(jsii.String("AWS::Events::Rule"), map[string]interface{}{
		"EventPattern": map[string]interface{}{
			"source":      &[]interface{}{jsii.String("aws.glue")},
			"detail-type": &[]interface{}{jsii.String("Glue Trigger State Change")},
			"detail": map[string]interface{}{
				"triggerName": &[]interface{}{jsii.String("nightly")},
				"state":       &[]interface{}{jsii.String("ACTIVATED")},
			},
		},
	})

	_, err = trig.OnStateChange("Bogus", TriggerState("PAUSED"), nil)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
}

func TestOnEvent_ScopedToTriggerName(t *testing.T) {
	stack := newTestStack(t, nil)
	trig := newNamedTrigger(t, stack)

	_, err := trig.OnEvent("Any", nil)
	require.NoError(t, err)

	assertions.Template_FromStack(stack, nil).HasResourceProperties(jsii.String("AWS::Events::Rule"), map[string]interface{}{
		"EventPattern": map[string]interface{}{
			"source": &[]interface{}{jsii.String("aws.glue")},
			"detail": map[string]interface{}{
				"triggerName": &[]interface{}{jsii.String("nightly")},
			},
		},
	})
}

func TestOnSuccess_NoJobActions(t *testing.T) {
	stack := newTestStack(t, nil)
	trig, err := NewTrigger(stack, "Trigger", &TriggerProps{
		Type:    TriggerOnDemand,
		Actions: []Action{{CrawlerName: "raw"}},
	})
	require.NoError(t, err)

	_, err = trig.OnSuccess("Succeeded", nil)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Actions", verr.Field)

	assertions.Template_FromStack(stack, nil).ResourceCountIs(jsii.String("AWS::Events::Rule"), jsii.Number(0))
}

func TestOnSuccess_CollidesWithForeignChild(t *testing.T) {
	stack := newTestStack(t, nil)
	trig := newNamedTrigger(t, stack)

	// The Resource child already exists under the trigger.
	_, err := trig.OnSuccess("Resource", nil)
	var dup *DuplicateDeclarationError
	require.True(t, errors.As(err, &dup))
}

func TestMetricSuccess_SharesRule(t *testing.T) {
	stack := newTestStack(t, nil)
	trig := newNamedTrigger(t, stack)

	rule, err := trig.OnSuccess("SuccessMetricRule", nil)
	require.NoError(t, err)

	m1, err := trig.MetricSuccess(nil)
	require.NoError(t, err)
	m2, err := trig.MetricSuccess(&awscloudwatch.MetricOptions{Statistic: jsii.String("Average")})
	require.NoError(t, err)

	assertions.Template_FromStack(stack, nil).ResourceCountIs(jsii.String("AWS::Events::Rule"), jsii.Number(1))
	assert.Equal(t, "AWS/Events", *m1.Namespace())
	assert.Equal(t, "TriggeredRules", *m1.MetricName())
	assert.Equal(t, "Sum", *m1.Statistic())
	assert.Equal(t, "Average", *m2.Statistic())
	assert.Equal(t,
		stack.Resolve(rule.RuleName()),
		stack.Resolve((*m1.Dimensions())["RuleName"]))
}

func TestMetricFailureAndTimeout_SeparateRules(t *testing.T) {
	stack := newTestStack(t, nil)
	trig := newNamedTrigger(t, stack)

	_, err := trig.MetricSuccess(nil)
	require.NoError(t, err)
	_, err = trig.MetricFailure(nil)
	require.NoError(t, err)
	_, err = trig.MetricTimeout(nil)
	require.NoError(t, err)
	_, err = trig.MetricFailure(nil)
	require.NoError(t, err)

	assertions.Template_FromStack(stack, nil).ResourceCountIs(jsii.String("AWS::Events::Rule"), jsii.Number(3))
	for _, id := range []string{"SuccessMetricRule", "FailureMetricRule", "TimeoutMetricRule"} {
		assert.NotNil(t, trig.Node().TryFindChild(jsii.String(id)), id)
	}
}

func TestTriggerMetric(t *testing.T) {
	stack := newTestStack(t, nil)
	trig := newNamedTrigger(t, stack)

	m := trig.Metric("glue.driver.aggregate.numCompletedTasks", MetricCount, nil)
	assert.Equal(t, "Glue", *m.Namespace())
	assert.Equal(t, "glue.driver.aggregate.numCompletedTasks", *m.MetricName())
	assert.Equal(t, "Sum", *m.Statistic())

	dims := *m.Dimensions()
	assert.Equal(t, "nightly", stack.Resolve(dims["TriggerName"]))
	assert.Equal(t, "count", stack.Resolve(dims["Type"]))
}
