package glue

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

// StrictValidationContextKey is the CDK context key that makes missing
// conventional properties (a SCHEDULED trigger without a schedule, a
// CONDITIONAL trigger without conditions) fail declaration instead of
// producing a synthesis warning. Accepts a bool or "true"/"false".
const StrictValidationContextKey = "@gluetrigger/strictValidation"

const maxNameLength = 255

func strictFor(scope constructs.Construct, override *bool) bool {
	if override != nil {
		return *override
	}
	switch v := scope.Node().TryGetContext(jsii.String(StrictValidationContextKey)).(type) {
	case bool:
		return v
	case *bool:
		return v != nil && *v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	case *string:
		if v == nil {
			return false
		}
		b, _ := strconv.ParseBool(*v)
		return b
	}
	return false
}

// validator accumulates failures and, outside strict mode, warnings for
// conventions that Glue itself would reject or ignore.
type validator struct {
	path     string
	strict   bool
	errs     []error
	warnings []string
}

func (v *validator) fail(field, format string, args ...interface{}) {
	v.errs = append(v.errs, &ValidationError{Path: v.path, Field: field, Reason: fmt.Sprintf(format, args...)})
}

func (v *validator) convention(field, format string, args ...interface{}) {
	if v.strict {
		v.fail(field, format, args...)
		return
	}
	v.warnings = append(v.warnings, fmt.Sprintf("%s: %s", field, fmt.Sprintf(format, args...)))
}

func (v *validator) err() error {
	return errors.Join(v.errs...)
}

// annotate attaches collected warnings to the declared construct.
func (v *validator) annotate(c constructs.IConstruct) {
	for i, w := range v.warnings {
		awscdk.Annotations_Of(c).AddWarningV2(jsii.String(fmt.Sprintf("@gluetrigger/validation:%d", i)), jsii.String(w))
	}
}

func unresolved(s string) bool {
	return *awscdk.Token_IsUnresolved(jsii.String(s))
}

func (v *validator) name(field, name string) {
	if name == "" || unresolved(name) {
		return
	}
	if len(name) > maxNameLength {
		v.fail(field, "must be at most %d characters, got %d", maxNameLength, len(name))
	}
}

func (v *validator) trigger(p *TriggerProps) {
	if p.Type == "" {
		v.fail("Type", "is required")
	} else if !p.Type.Valid() {
		v.fail("Type", "unknown trigger type %q", p.Type)
	}
	v.name("TriggerName", p.TriggerName)

	if len(p.Actions) == 0 {
		v.convention("Actions", "no actions declared; the trigger starts nothing")
	}
	for i, a := range p.Actions {
		v.action(fmt.Sprintf("Actions[%d]", i), a)
	}

	if p.Type == TriggerScheduled {
		if p.Schedule == "" {
			v.convention("Schedule", "is required for SCHEDULED triggers")
		}
	} else if p.Schedule != "" {
		v.convention("Schedule", "is only used by SCHEDULED triggers, not %s", p.Type)
	}

	if p.Type == TriggerConditional {
		if p.Predicate == nil || len(p.Predicate.Conditions) == 0 {
			v.convention("Predicate", "CONDITIONAL triggers need at least one condition")
		}
	} else if p.Predicate != nil {
		v.convention("Predicate", "is only used by CONDITIONAL triggers, not %s", p.Type)
	}
	if p.Predicate != nil {
		v.predicate(p.Predicate)
	}

	if b := p.EventBatchingCondition; b != nil {
		if p.Type != TriggerEvent {
			v.fail("EventBatchingCondition", "is only valid on EVENT triggers, not %s", p.Type)
		}
		if b.BatchSize < 1 || b.BatchSize > 100 {
			v.fail("EventBatchingCondition.BatchSize", "must be between 1 and 100, got %v", b.BatchSize)
		}
		if b.BatchWindow != nil && (*b.BatchWindow < 1 || *b.BatchWindow > 900) {
			v.fail("EventBatchingCondition.BatchWindow", "must be between 1 and 900 seconds, got %v", *b.BatchWindow)
		}
	}

	if p.StartOnCreation != nil && *p.StartOnCreation && p.Type == TriggerOnDemand {
		v.fail("StartOnCreation", "is not supported for ON_DEMAND triggers")
	}
}

func (v *validator) action(field string, a Action) {
	if a.Job != nil && a.JobName != "" {
		v.fail(field, "set Job or JobName, not both")
	}
	hasJob := a.Job != nil || a.JobName != ""
	hasCrawler := a.CrawlerName != ""
	if hasJob == hasCrawler {
		v.fail(field, "must name exactly one job or crawler")
	}
	if a.Timeout != nil && *a.Timeout < 1 {
		v.fail(field+".Timeout", "must be at least 1 minute, got %v", *a.Timeout)
	}
	if a.NotifyDelayAfter != nil && *a.NotifyDelayAfter < 1 {
		v.fail(field+".NotifyDelayAfter", "must be at least 1 minute, got %v", *a.NotifyDelayAfter)
	}
}

func (v *validator) predicate(p *Predicate) {
	if p.Logical != "" && p.Logical != LogicalAnd && p.Logical != LogicalAny {
		v.fail("Predicate.Logical", "must be AND or ANY, got %q", p.Logical)
	}
	for i, c := range p.Conditions {
		field := fmt.Sprintf("Predicate.Conditions[%d]", i)
		if c.Job != nil && c.JobName != "" {
			v.fail(field, "set Job or JobName, not both")
		}
		hasJob := c.Job != nil || c.JobName != ""
		hasCrawler := c.CrawlerName != ""
		switch {
		case hasJob == hasCrawler:
			v.fail(field, "must watch exactly one job or crawler")
		case hasJob:
			if !containsJobState(c.State) {
				v.fail(field+".State", "must be one of %v, got %q", conditionJobStates, c.State)
			}
			if c.CrawlState != "" {
				v.fail(field+".CrawlState", "is only valid for crawler conditions")
			}
		case hasCrawler:
			if !containsCrawlState(c.CrawlState) {
				v.fail(field+".CrawlState", "must be one of %v, got %q", conditionCrawlStates, c.CrawlState)
			}
			if c.State != "" {
				v.fail(field+".State", "is only valid for job conditions")
			}
		}
		if c.LogicalOperator != "" && c.LogicalOperator != OperatorEquals {
			v.fail(field+".LogicalOperator", "must be EQUALS, got %q", c.LogicalOperator)
		}
	}
}

func containsJobState(s JobState) bool {
	for _, v := range conditionJobStates {
		if s == v {
			return true
		}
	}
	return false
}

func containsCrawlState(s CrawlState) bool {
	for _, v := range conditionCrawlStates {
		if s == v {
			return true
		}
	}
	return false
}
