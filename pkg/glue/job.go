package glue

import (
	"fmt"

	"github.com/aws/aws-cdk-go/awscdk/v2/awscloudwatch"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsevents"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsglue"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/dwsmith1983/gluetrigger/pkg/deferred"
)

// JobCommand is the Glue job command name.
type JobCommand string

const (
	CommandETL         JobCommand = "glueetl"
	CommandPythonShell JobCommand = "pythonshell"
	CommandStreaming   JobCommand = "gluestreaming"
	CommandRay         JobCommand = "glueray"
)

func (c JobCommand) valid() bool {
	switch c {
	case CommandETL, CommandPythonShell, CommandStreaming, CommandRay:
		return true
	}
	return false
}

// JobProps are the construction parameters of a Job.
type JobProps struct {
	JobName     string
	Description string
	// Command and ScriptLocation are mandatory.
	Command        JobCommand
	ScriptLocation string
	PythonVersion  string
	GlueVersion    string
	// WorkerType and NumberOfWorkers are set together or not at all.
	WorkerType            string
	NumberOfWorkers       *float64
	MaxRetries            *float64
	Timeout               *float64
	DefaultArguments      map[string]string
	SecurityConfiguration SecurityConfigurationRef
	Connections           []ConnectionRef
	Tags                  map[string]string
	// Role is assumed by the job. A Glue service role is declared when nil.
	Role awsiam.IRole
}

// Job is a declared AWS::Glue::Job.
type Job struct {
	constructs.Construct

	resource awsglue.CfnJob
	name     deferred.String
	arn      deferred.String
	role     awsiam.IRole
	rules    *ruleSet
}

// NewJob declares a job called id under scope. Errors follow NewTrigger.
func NewJob(scope constructs.Construct, id string, props *JobProps) (*Job, error) {
	if props == nil {
		props = &JobProps{}
	}
	if err := checkUnique(scope, id); err != nil {
		return nil, err
	}
	path := childPath(scope, id)
	if err := requireStack(scope, path); err != nil {
		return nil, err
	}

	v := &validator{path: path}
	v.job(props)
	if err := v.err(); err != nil {
		return nil, err
	}

	this := constructs.NewConstruct(scope, jsii.String(id))
	j := &Job{Construct: this, role: props.Role, rules: newRuleSet(this)}
	if j.role == nil {
		j.role = newServiceRole(this, "Glue job "+path)
	}

	cfnProps := &awsglue.CfnJobProps{
		Role: j.role.RoleArn(),
		Command: &awsglue.CfnJob_JobCommandProperty{
			Name:           jsii.String(string(props.Command)),
			ScriptLocation: jsii.String(props.ScriptLocation),
			PythonVersion:  optional(props.PythonVersion),
		},
		Name:            optional(props.JobName),
		Description:     optional(props.Description),
		GlueVersion:     optional(props.GlueVersion),
		WorkerType:      optional(props.WorkerType),
		NumberOfWorkers: props.NumberOfWorkers,
		MaxRetries:      props.MaxRetries,
		Timeout:         props.Timeout,
		Tags:            renderTags(props.Tags),
	}
	if len(props.DefaultArguments) > 0 {
		cfnProps.DefaultArguments = renderTags(props.DefaultArguments)
	}
	if props.SecurityConfiguration != nil {
		cfnProps.SecurityConfiguration = props.SecurityConfiguration.SecurityConfigurationName().Token()
	}
	if len(props.Connections) > 0 {
		names := make([]*string, 0, len(props.Connections))
		for _, c := range props.Connections {
			names = append(names, c.ConnectionName().Token())
		}
		cfnProps.Connections = &awsglue.CfnJob_ConnectionsListProperty{Connections: &names}
	}
	j.resource = awsglue.NewCfnJob(this, jsii.String("Resource"), cfnProps)

	if props.JobName != "" {
		j.name = deferred.Literal(props.JobName)
	} else {
		j.name = deferred.Of(j.resource.Ref())
	}
	j.arn = deferred.Of(formatArn(this, "job", j.name))
	return j, nil
}

// JobName resolves to the physical job name.
func (j *Job) JobName() deferred.String { return j.name }

// JobArn resolves to arn:{partition}:glue:{region}:{account}:job/{name}.
func (j *Job) JobArn() deferred.String { return j.arn }

// Role returns the role the job runs as.
func (j *Job) Role() awsiam.IRole { return j.role }

// GrantPrincipal is the job's role principal.
func (j *Job) GrantPrincipal() awsiam.IPrincipal { return j.role.GrantPrincipal() }

// Resource exposes the underlying CloudFormation resource.
func (j *Job) Resource() awsglue.CfnJob { return j.resource }

// OnSuccess declares (or returns the existing) rule id matching successful runs.
func (j *Job) OnSuccess(id string, opts *awsevents.OnEventOptions) (awsevents.Rule, error) {
	return j.rules.getOrCreate(id, jobStatePattern([]*string{j.name.Token()}, JobSucceeded), opts)
}

// OnFailure declares (or returns the existing) rule id matching failed runs.
func (j *Job) OnFailure(id string, opts *awsevents.OnEventOptions) (awsevents.Rule, error) {
	return j.rules.getOrCreate(id, jobStatePattern([]*string{j.name.Token()}, JobFailed), opts)
}

// OnTimeout declares (or returns the existing) rule id matching timed out runs.
func (j *Job) OnTimeout(id string, opts *awsevents.OnEventOptions) (awsevents.Rule, error) {
	return j.rules.getOrCreate(id, jobStatePattern([]*string{j.name.Token()}, JobTimeout), opts)
}

// Metric returns a Glue job metric across all runs.
func (j *Job) Metric(name string, kind MetricType, opts *awscloudwatch.MetricOptions) awscloudwatch.Metric {
	return withOptions(awscloudwatch.NewMetric(&awscloudwatch.MetricProps{
		Namespace:  jsii.String(glueMetricNamespace),
		MetricName: jsii.String(name),
		Statistic:  jsii.String("Sum"),
		DimensionsMap: &map[string]*string{
			"JobName":  j.name.Token(),
			"JobRunId": jsii.String("ALL"),
			"Type":     jsii.String(string(kind)),
		},
	}), opts)
}

func (v *validator) job(p *JobProps) {
	v.name("JobName", p.JobName)
	if p.Command == "" {
		v.fail("Command", "is required")
	} else if !p.Command.valid() {
		v.fail("Command", "unknown job command %q", p.Command)
	}
	if p.ScriptLocation == "" {
		v.fail("ScriptLocation", "is required")
	}
	if (p.WorkerType == "") != (p.NumberOfWorkers == nil) {
		v.fail("WorkerType", "WorkerType and NumberOfWorkers must be set together")
	}
	if p.NumberOfWorkers != nil && *p.NumberOfWorkers < 1 {
		v.fail("NumberOfWorkers", "must be at least 1, got %v", *p.NumberOfWorkers)
	}
	if p.MaxRetries != nil && *p.MaxRetries < 0 {
		v.fail("MaxRetries", "must not be negative, got %v", *p.MaxRetries)
	}
	if p.Timeout != nil && *p.Timeout < 1 {
		v.fail("Timeout", "must be at least 1 minute, got %v", *p.Timeout)
	}
	for i, c := range p.Connections {
		if c == nil {
			v.fail(fmt.Sprintf("Connections[%d]", i), "is nil")
		}
	}
}
