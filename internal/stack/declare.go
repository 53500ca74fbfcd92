package stack

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsevents"
	"github.com/aws/aws-cdk-go/awscdk/v2/awseventstargets"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambda"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslogs"
	"github.com/aws/aws-cdk-go/awscdk/v2/awssns"
	"github.com/aws/jsii-runtime-go"

	"github.com/dwsmith1983/gluetrigger/internal/manifest"
	"github.com/dwsmith1983/gluetrigger/internal/observe"
	"github.com/dwsmith1983/gluetrigger/pkg/glue"
)

func (b *builder) declareTargets(o options) {
	if o.alertTopic != "" {
		b.res.AlertTopic = awssns.NewTopic(b.stack, jsii.String("AlertTopic"), &awssns.TopicProps{
			TopicName: jsii.String(o.alertTopic),
		})
		b.targets = append(b.targets, awseventstargets.NewSnsTopic(b.res.AlertTopic, nil))
	}
	if o.observerCode != "" {
		b.res.Observer = awslambda.NewFunction(b.stack, jsii.String("StateObserver"), &awslambda.FunctionProps{
			FunctionName: jsii.String(observe.ObserverFunctionName(b.m.Stack.Name)),
			Runtime:      awslambda.Runtime_PROVIDED_AL2023(),
			Handler:      jsii.String("bootstrap"),
			Code:         awslambda.Code_FromAsset(jsii.String(filepath.Clean(o.observerCode)), nil),
			Architecture: awslambda.Architecture_ARM_64(),
			MemorySize:   jsii.Number(o.memorySize),
			Timeout:      awscdk.Duration_Seconds(jsii.Number(o.timeout)),
			Environment: &map[string]*string{
				"LOG_LEVEL":  jsii.String("info"),
				"STACK_NAME": jsii.String(b.m.Stack.Name),
			},
			LogRetention: logRetentionDays(o.logRetentionDays),
		})
		b.targets = append(b.targets, awseventstargets.NewLambdaFunction(b.res.Observer, nil))
	}
}

func (b *builder) securityConfigurations() {
	for _, s := range b.m.SecurityConfigurations {
		sc, err := glue.NewSecurityConfiguration(b.stack, s.ID, &glue.SecurityConfigurationProps{
			SecurityConfigurationName: s.Name,
			S3:                        encryption(s.S3),
			CloudWatch:                encryption(s.CloudWatch),
			JobBookmarks:              encryption(s.JobBookmarks),
		})
		if err != nil {
			b.fail(err)
			continue
		}
		b.res.SecurityConfigurations[s.ID] = sc
	}
}

func encryption(e *manifest.EncryptionSpec) *glue.Encryption {
	if e == nil {
		return nil
	}
	return &glue.Encryption{Mode: glue.EncryptionMode(strings.ToUpper(e.Mode)), KMSKeyArn: e.KMSKeyArn}
}

func (b *builder) connections() {
	for _, c := range b.m.Connections {
		conn, err := glue.NewConnection(b.stack, c.ID, &glue.ConnectionProps{
			ConnectionName: c.Name,
			Description:    c.Description,
			Type:           glue.ConnectionType(strings.ToUpper(c.Type)),
			Properties:     c.Properties,
			MatchCriteria:  c.MatchCriteria,
			CatalogID:      c.CatalogID,
		})
		if err != nil {
			b.fail(err)
			continue
		}
		b.res.Connections[c.ID] = conn
	}
}

func (b *builder) jobs() {
	for _, j := range b.m.Jobs {
		props := &glue.JobProps{
			JobName:          j.Name,
			Description:      j.Description,
			Command:          glue.JobCommand(strings.ToLower(j.Command)),
			ScriptLocation:   j.ScriptLocation,
			PythonVersion:    j.PythonVersion,
			GlueVersion:      j.GlueVersion,
			WorkerType:       j.WorkerType,
			NumberOfWorkers:  j.NumberOfWorkers,
			MaxRetries:       j.MaxRetries,
			Timeout:          j.Timeout,
			DefaultArguments: j.DefaultArguments,
			Tags:             j.Tags,
		}
		if j.SecurityConfiguration != "" {
			props.SecurityConfiguration = b.securityConfigurationRef(j.SecurityConfiguration)
		}
		for _, c := range j.Connections {
			if conn, ok := b.res.Connections[c]; ok {
				props.Connections = append(props.Connections, conn)
			} else {
				props.Connections = append(props.Connections, glue.ConnectionNamed(c))
			}
		}
		job, err := glue.NewJob(b.stack, j.ID, props)
		if err != nil {
			b.fail(err)
			continue
		}
		b.res.Jobs[j.ID] = job
	}
}

// securityConfigurationRef resolves a manifest id, falling back to a
// configuration deployed elsewhere under that name.
func (b *builder) securityConfigurationRef(ref string) glue.SecurityConfigurationRef {
	if sc, ok := b.res.SecurityConfigurations[ref]; ok {
		return sc
	}
	return glue.SecurityConfigurationNamed(ref)
}

func (b *builder) triggers() {
	for _, t := range b.m.Triggers {
		props, err := b.triggerProps(t)
		if err != nil {
			b.fail(err)
			continue
		}
		trig, err := glue.NewTrigger(b.stack, t.ID, props)
		if err != nil {
			b.fail(err)
			continue
		}
		b.res.Triggers[t.ID] = trig
		b.monitor(t, trig)
	}
}

func (b *builder) triggerProps(t manifest.TriggerSpec) (*glue.TriggerProps, error) {
	typ, err := glue.ParseTriggerType(t.Type)
	if err != nil {
		return nil, fmt.Errorf("trigger %s: %w", t.ID, err)
	}
	props := &glue.TriggerProps{
		TriggerName:      t.Name,
		Description:      t.Description,
		Type:             typ,
		Schedule:         t.Schedule,
		WorkflowName:     t.WorkflowName,
		StartOnCreation:  t.StartOnCreation,
		Tags:             t.Tags,
		StrictValidation: t.Strict,
	}
	for _, a := range t.Actions {
		action := glue.Action{
			JobName:          a.JobName,
			CrawlerName:      a.CrawlerName,
			Arguments:        a.Arguments,
			Timeout:          a.Timeout,
			NotifyDelayAfter: a.NotifyDelayAfter,
		}
		if a.Job != "" {
			job, ok := b.res.Jobs[a.Job]
			if !ok {
				return nil, fmt.Errorf("trigger %s: job %q was not declared", t.ID, a.Job)
			}
			action.Job = job
		}
		if a.SecurityConfiguration != "" {
			action.SecurityConfiguration = *b.securityConfigurationRef(a.SecurityConfiguration).SecurityConfigurationName().Token()
		}
		props.Actions = append(props.Actions, action)
	}
	if t.Predicate != nil {
		pred := &glue.Predicate{Logical: glue.PredicateLogical(strings.ToUpper(t.Predicate.Logical))}
		for _, c := range t.Predicate.Conditions {
			cond := glue.Condition{
				JobName:     c.JobName,
				State:       glue.JobState(strings.ToUpper(c.State)),
				CrawlerName: c.CrawlerName,
				CrawlState:  glue.CrawlState(strings.ToUpper(c.CrawlState)),
			}
			if c.Job != "" {
				job, ok := b.res.Jobs[c.Job]
				if !ok {
					return nil, fmt.Errorf("trigger %s: job %q was not declared", t.ID, c.Job)
				}
				cond.Job = job
			}
			pred.Conditions = append(pred.Conditions, cond)
		}
		props.Predicate = pred
	}
	if t.EventBatching != nil {
		props.EventBatchingCondition = &glue.EventBatchingCondition{
			BatchSize:   t.EventBatching.BatchSize,
			BatchWindow: t.EventBatching.BatchWindow,
		}
	}
	return props, nil
}

// monitor declares the rules listed in the trigger's monitor entries and
// points them at the stack's alert targets.
func (b *builder) monitor(t manifest.TriggerSpec, trig *glue.Trigger) {
	for _, entry := range t.Monitor {
		kind, state, err := manifest.ParseMonitor(entry)
		if err != nil {
			b.fail(fmt.Errorf("trigger %s: %w", t.ID, err))
			continue
		}
		desc := jsii.String(fmt.Sprintf("%s monitor for Glue trigger %s", entry, t.ID))
		opts := &awsevents.OnEventOptions{Description: desc}

		var rule awsevents.Rule
		switch kind {
		case manifest.MonitorSuccess:
			rule, err = trig.OnSuccess("SuccessMonitor", opts)
		case manifest.MonitorFailure:
			rule, err = trig.OnFailure("FailureMonitor", opts)
		case manifest.MonitorTimeout:
			rule, err = trig.OnTimeout("TimeoutMonitor", opts)
		default:
			rule, err = trig.OnStateChange(stateRuleID(state), state, opts)
		}
		if err != nil {
			b.fail(fmt.Errorf("trigger %s: %w", t.ID, err))
			continue
		}
		for _, target := range b.targets {
			rule.AddTarget(target)
		}
		b.res.Rules[t.ID] = append(b.res.Rules[t.ID], rule)
	}
}

// stateRuleID turns ACTIVATED into ActivatedStateMonitor.
func stateRuleID(state glue.TriggerState) string {
	s := strings.ToLower(string(state))
	return strings.ToUpper(s[:1]) + s[1:] + "StateMonitor"
}

func (b *builder) outputs() {
	for _, id := range b.res.TriggerIDs() {
		trig := b.res.Triggers[id]
		b.output(id+"TriggerName", trig.TriggerName().Token())
		b.output(id+"TriggerArn", trig.TriggerArn().Token())
	}
}

func (b *builder) output(id string, value *string) {
	if b.stack.Node().TryFindChild(jsii.String(id)) != nil {
		b.fail(&glue.DuplicateDeclarationError{Scope: *b.stack.Node().Path(), ID: id})
		return
	}
	awscdk.NewCfnOutput(b.stack, jsii.String(id), &awscdk.CfnOutputProps{Value: value})
}

func logRetentionDays(days float64) awslogs.RetentionDays {
	switch days {
	case 1:
		return awslogs.RetentionDays_ONE_DAY
	case 3:
		return awslogs.RetentionDays_THREE_DAYS
	case 5:
		return awslogs.RetentionDays_FIVE_DAYS
	case 14:
		return awslogs.RetentionDays_TWO_WEEKS
	case 30:
		return awslogs.RetentionDays_ONE_MONTH
	case 90:
		return awslogs.RetentionDays_THREE_MONTHS
	case 365:
		return awslogs.RetentionDays_ONE_YEAR
	default:
		return awslogs.RetentionDays_ONE_WEEK
	}
}
