// Package stack assembles a CloudFormation stack from a gluetrigger manifest.
package stack

import (
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsevents"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambda"
	"github.com/aws/aws-cdk-go/awscdk/v2/awssns"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/dwsmith1983/gluetrigger/internal/manifest"
	"github.com/dwsmith1983/gluetrigger/pkg/glue"
)

// Result holds everything New declared, keyed by manifest id.
type Result struct {
	Stack                  awscdk.Stack
	SecurityConfigurations map[string]*glue.SecurityConfiguration
	Connections            map[string]*glue.Connection
	Jobs                   map[string]*glue.Job
	Triggers               map[string]*glue.Trigger
	// Rules lists the monitoring rules of each trigger in manifest order.
	Rules      map[string][]awsevents.Rule
	AlertTopic awssns.Topic
	Observer   awslambda.Function
}

// TriggerIDs returns the declared trigger ids in sorted order.
func (r *Result) TriggerIDs() []string {
	ids := make([]string, 0, len(r.Triggers))
	for id := range r.Triggers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Option configures optional parts of the stack.
type Option func(*options)

type options struct {
	alertTopic       string
	observerCode     string
	memorySize       float64
	timeout          float64
	logRetentionDays float64
}

// WithAlertTopic declares an SNS topic named name that receives every
// monitoring rule's events.
func WithAlertTopic(name string) Option {
	return func(o *options) { o.alertTopic = name }
}

// WithObserver deploys the state-observer function from codeDir, which must
// contain a bootstrap binary, as a target of every monitoring rule.
func WithObserver(codeDir string) Option {
	return func(o *options) { o.observerCode = codeDir }
}

// WithFunctionSizing overrides the observer's memory (MB) and timeout (seconds).
func WithFunctionSizing(memorySize, timeout float64) Option {
	return func(o *options) {
		o.memorySize = memorySize
		o.timeout = timeout
	}
}

// WithLogRetention sets the observer log retention in days.
func WithLogRetention(days float64) Option {
	return func(o *options) { o.logRetentionDays = days }
}

// New declares a stack called id under scope holding every resource the
// manifest lists. Declaration errors from all resources are returned
// together; the stack is still attached to scope in that case.
func New(scope constructs.Construct, id string, m *manifest.Manifest, opts ...Option) (*Result, error) {
	o := options{memorySize: 128, timeout: 30, logRetentionDays: 7}
	for _, opt := range opts {
		opt(&o)
	}
	if m.Stack.AlertTopic != "" && o.alertTopic == "" {
		o.alertTopic = m.Stack.AlertTopic
	}

	props := &awscdk.StackProps{StackName: jsii.String(m.Stack.Name)}
	if m.Stack.Description != "" {
		props.Description = jsii.String(m.Stack.Description)
	}
	if m.Stack.Account != "" || m.Stack.Region != "" {
		props.Env = &awscdk.Environment{}
		if m.Stack.Account != "" {
			props.Env.Account = jsii.String(m.Stack.Account)
		}
		if m.Stack.Region != "" {
			props.Env.Region = jsii.String(m.Stack.Region)
		}
	}
	stack := awscdk.NewStack(scope, &id, props)
	if m.StrictValidation != nil {
		stack.Node().SetContext(jsii.String(glue.StrictValidationContextKey), *m.StrictValidation)
	}
	for k, v := range m.Stack.Tags {
		awscdk.Tags_Of(stack).Add(jsii.String(k), jsii.String(v), nil)
	}

	b := &builder{
		stack: stack,
		m:     m,
		res: &Result{
			Stack:                  stack,
			SecurityConfigurations: make(map[string]*glue.SecurityConfiguration),
			Connections:            make(map[string]*glue.Connection),
			Jobs:                   make(map[string]*glue.Job),
			Triggers:               make(map[string]*glue.Trigger),
			Rules:                  make(map[string][]awsevents.Rule),
		},
	}
	b.declareTargets(o)
	b.securityConfigurations()
	b.connections()
	b.jobs()
	b.triggers()
	b.outputs()
	return b.res, b.err()
}

type builder struct {
	stack   awscdk.Stack
	m       *manifest.Manifest
	res     *Result
	targets []awsevents.IRuleTarget
	errs    []error
}

func (b *builder) fail(err error) {
	if err != nil {
		b.errs = append(b.errs, err)
	}
}

func (b *builder) err() error {
	if len(b.errs) == 0 {
		return nil
	}
	return fmt.Errorf("declaring stack %s: %w", b.m.Stack.Name, errors.Join(b.errs...))
}
