// Package glue declares AWS Glue triggers, jobs, connections and security
// configurations as CDK constructs.
//
// Constructors validate their props, apply defaults (names derived from the
// construct path, a Glue service role when none is supplied) and register a
// single CloudFormation resource in the scope tree. Names and ARNs are
// returned as deferred values because they are only known once the template
// is deployed.
package glue

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsglue"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/dwsmith1983/gluetrigger/pkg/deferred"
)

// Trigger is a declared AWS::Glue::Trigger. It is immutable once constructed.
type Trigger struct {
	constructs.Construct

	resource    awsglue.CfnTrigger
	triggerType TriggerType
	actions     []Action
	name        deferred.String
	arn         deferred.String
	role        awsiam.IRole
	rules       *ruleSet
}

// NewTrigger declares a trigger called id under scope, which must be inside a Stack.
//
// It fails with *DuplicateDeclarationError when scope already has a child
// called id and with one or more *ValidationError (joined) when props are
// malformed. Nothing is added to the scope tree on failure.
func NewTrigger(scope constructs.Construct, id string, props *TriggerProps) (*Trigger, error) {
	if props == nil {
		props = &TriggerProps{}
	}
	if err := checkUnique(scope, id); err != nil {
		return nil, err
	}
	path := childPath(scope, id)
	if err := requireStack(scope, path); err != nil {
		return nil, err
	}

	v := &validator{path: path, strict: strictFor(scope, props.StrictValidation)}
	v.trigger(props)
	if err := v.err(); err != nil {
		return nil, err
	}

	this := constructs.NewConstruct(scope, jsii.String(id))
	t := &Trigger{
		Construct:   this,
		triggerType: props.Type,
		actions:     append([]Action(nil), props.Actions...),
		role:        props.Role,
		rules:       newRuleSet(this),
	}
	if t.role == nil {
		t.role = newServiceRole(this, "Glue trigger "+path)
	}

	cfnProps := &awsglue.CfnTriggerProps{
		Type:         jsii.String(string(props.Type)),
		Actions:      renderActions(props.Actions),
		Name:         optional(props.TriggerName),
		Description:  optional(props.Description),
		Schedule:     optional(props.Schedule),
		WorkflowName: props.WorkflowName,
		Tags:         renderTags(props.Tags),
	}
	if props.Predicate != nil {
		cfnProps.Predicate = renderPredicate(props.Predicate)
	}
	if props.EventBatchingCondition != nil {
		cfnProps.EventBatchingCondition = renderBatching(props.EventBatchingCondition)
	}
	if props.StartOnCreation != nil {
		cfnProps.StartOnCreation = jsii.Bool(*props.StartOnCreation)
	}
	t.resource = awsglue.NewCfnTrigger(this, jsii.String("Resource"), cfnProps)

	if props.TriggerName != "" {
		t.name = deferred.Literal(props.TriggerName)
	} else {
		t.name = deferred.Of(t.resource.Ref())
	}
	t.arn = deferred.Of(formatArn(this, "trigger", t.name))

	v.annotate(this)
	return t, nil
}

// TriggerName resolves to the physical trigger name at deploy time.
func (t *Trigger) TriggerName() deferred.String { return t.name }

// TriggerArn resolves to arn:{partition}:glue:{region}:{account}:trigger/{name}.
func (t *Trigger) TriggerArn() deferred.String { return t.arn }

// Type returns the trigger type fixed at construction.
func (t *Trigger) Type() TriggerType { return t.triggerType }

// Actions returns a copy of the declared actions.
func (t *Trigger) Actions() []Action { return append([]Action(nil), t.actions...) }

// Role returns the supplied role or the declared default service role.
func (t *Trigger) Role() awsiam.IRole { return t.role }

// GrantPrincipal is the principal capabilities should be delegated to.
func (t *Trigger) GrantPrincipal() awsiam.IPrincipal { return t.role.GrantPrincipal() }

// Resource exposes the underlying CloudFormation resource.
func (t *Trigger) Resource() awsglue.CfnTrigger { return t.resource }

// Grant gives grantee the listed glue actions on this trigger.
func (t *Trigger) Grant(grantee awsiam.IGrantable, actions ...string) awsiam.Grant {
	return awsiam.Grant_AddToPrincipal(&awsiam.GrantOnPrincipalOptions{
		Grantee:      grantee,
		Actions:      jsii.Strings(actions...),
		ResourceArns: &[]*string{t.arn.Token()},
	})
}

// GrantRead allows describing the trigger.
func (t *Trigger) GrantRead(grantee awsiam.IGrantable) awsiam.Grant {
	return t.Grant(grantee, "glue:GetTrigger")
}

// GrantStart allows starting the trigger.
func (t *Trigger) GrantStart(grantee awsiam.IGrantable) awsiam.Grant {
	return t.Grant(grantee, "glue:StartTrigger")
}

// GrantStop allows stopping the trigger.
func (t *Trigger) GrantStop(grantee awsiam.IGrantable) awsiam.Grant {
	return t.Grant(grantee, "glue:StopTrigger")
}

// jobNames lists the jobs this trigger starts, skipping crawler actions.
func (t *Trigger) jobNames() []*string {
	var names []*string
	for _, a := range t.actions {
		if n := a.jobName(); n != nil {
			names = append(names, n)
		}
	}
	return names
}

func renderActions(actions []Action) *[]interface{} {
	out := make([]interface{}, 0, len(actions))
	for _, a := range actions {
		p := &awsglue.CfnTrigger_ActionProperty{
			JobName:               a.jobName(),
			CrawlerName:           optional(a.CrawlerName),
			SecurityConfiguration: optional(a.SecurityConfiguration),
			Timeout:               a.Timeout,
		}
		if len(a.Arguments) > 0 {
			p.Arguments = renderTags(a.Arguments)
		}
		if a.NotifyDelayAfter != nil {
			p.NotificationProperty = &awsglue.CfnTrigger_NotificationPropertyProperty{
				NotifyDelayAfter: a.NotifyDelayAfter,
			}
		}
		out = append(out, p)
	}
	return &out
}

func renderPredicate(p *Predicate) *awsglue.CfnTrigger_PredicateProperty {
	conditions := make([]interface{}, 0, len(p.Conditions))
	for _, c := range p.Conditions {
		op := c.LogicalOperator
		if op == "" {
			op = OperatorEquals
		}
		cond := &awsglue.CfnTrigger_ConditionProperty{
			LogicalOperator: jsii.String(string(op)),
			JobName:         c.jobName(),
			State:           optional(string(c.State)),
			CrawlerName:     optional(c.CrawlerName),
			CrawlState:      optional(string(c.CrawlState)),
		}
		conditions = append(conditions, cond)
	}
	out := &awsglue.CfnTrigger_PredicateProperty{Conditions: &conditions}
	logical := p.Logical
	if logical == "" && len(p.Conditions) > 1 {
		logical = LogicalAnd
	}
	out.Logical = optional(string(logical))
	return out
}

func renderBatching(b *EventBatchingCondition) *awsglue.CfnTrigger_EventBatchingConditionProperty {
	return &awsglue.CfnTrigger_EventBatchingConditionProperty{
		BatchSize:   jsii.Number(b.BatchSize),
		BatchWindow: b.BatchWindow,
	}
}

func renderTags(tags map[string]string) interface{} {
	if len(tags) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(tags))
	for k, v := range tags {
		out[k] = v
	}
	return &out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return jsii.String(s)
}

// requireStack fails unless scope sits inside a Stack; ARN formatting
// needs the stack's partition, region and account.
func requireStack(scope constructs.Construct, path string) error {
	for _, c := range *scope.Node().Scopes() {
		if *awscdk.Stack_IsStack(c) {
			return nil
		}
	}
	return &ValidationError{Path: path, Field: "scope", Reason: "must be declared inside a Stack"}
}

func formatArn(scope constructs.IConstruct, resource string, name deferred.String) *string {
	return awscdk.Stack_Of(scope).FormatArn(&awscdk.ArnComponents{
		Service:      jsii.String("glue"),
		Resource:     jsii.String(resource),
		ResourceName: name.Token(),
	})
}

// newServiceRole declares the default role assumed by Glue.
func newServiceRole(scope constructs.Construct, description string) awsiam.IRole {
	return awsiam.NewRole(scope, jsii.String("ServiceRole"), &awsiam.RoleProps{
		AssumedBy:   awsiam.NewServicePrincipal(jsii.String("glue.amazonaws.com"), nil),
		Description: jsii.String(description),
		ManagedPolicies: &[]awsiam.IManagedPolicy{
			awsiam.ManagedPolicy_FromAwsManagedPolicyName(jsii.String("service-role/AWSGlueServiceRole")),
		},
	})
}
