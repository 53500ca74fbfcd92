// Package deferred models values that are only known after synthesis or
// deployment: resource names, ARNs and other CDK tokens.
//
// A String is created at declaration time and resolved in a later pass,
// either symbolically through the owning stack (Resolve) or concretely
// against known pseudo parameters and physical ids (Evaluate).
package deferred

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

// String is a string that may still be an unresolved CDK token.
type String struct {
	token *string
}

// Of wraps a token (or plain string pointer) returned by the CDK.
func Of(token *string) String {
	return String{token: token}
}

// Literal wraps a value that is already known.
func Literal(s string) String {
	return String{token: jsii.String(s)}
}

// Token returns the wrapped value in the form CDK APIs expect.
func (d String) Token() *string {
	return d.token
}

// IsZero reports whether nothing has been wrapped.
func (d String) IsZero() bool {
	return d.token == nil
}

// IsResolved reports whether the value is a plain string with no tokens.
func (d String) IsResolved() bool {
	if d.token == nil {
		return false
	}
	return !*awscdk.Token_IsUnresolved(d.token)
}

// Resolve renders the value through the stack that owns scope, producing
// plain strings for literals and CloudFormation intrinsics (Ref, Fn::Join,
// ...) for tokens.
func (d String) Resolve(scope constructs.IConstruct) interface{} {
	if d.token == nil {
		return nil
	}
	return awscdk.Stack_Of(scope).Resolve(d.token)
}

// Evaluate resolves the value through scope's stack and then evaluates the
// resulting intrinsics against env.
func (d String) Evaluate(scope constructs.IConstruct, env Environment) (string, error) {
	if d.token == nil {
		return "", &ResolutionError{Expr: "<nil>", Reason: "no value"}
	}
	return Evaluate(d.Resolve(scope), env)
}

// String returns the raw token text. Unresolved tokens render as
// "${Token[...]}" placeholders.
func (d String) String() string {
	if d.token == nil {
		return ""
	}
	return *d.token
}
