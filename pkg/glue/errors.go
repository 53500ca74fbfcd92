package glue

import (
	"fmt"

	"github.com/aws/constructs-go/constructs/v10"
)

// ValidationError reports a malformed or missing property on a declaration.
type ValidationError struct {
	Path   string // construct path of the offending declaration
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s: %s", e.Path, e.Field, e.Reason)
}

// DuplicateDeclarationError reports a sibling id collision within a scope.
type DuplicateDeclarationError struct {
	Scope string // path of the parent scope; empty for the app root
	ID    string
}

func (e *DuplicateDeclarationError) Error() string {
	if e.Scope == "" {
		return fmt.Sprintf("duplicate declaration: %q already exists at the root scope", e.ID)
	}
	return fmt.Sprintf("duplicate declaration: %q already exists in %s", e.ID, e.Scope)
}

// checkUnique fails when id is empty or scope already has a child called id.
func checkUnique(scope constructs.Construct, id string) error {
	if id == "" {
		return &ValidationError{Path: *scope.Node().Path(), Field: "id", Reason: "is required"}
	}
	if scope.Node().TryFindChild(&id) != nil {
		return &DuplicateDeclarationError{Scope: *scope.Node().Path(), ID: id}
	}
	return nil
}

// childPath is the path a child called id will have once declared under scope.
func childPath(scope constructs.Construct, id string) string {
	parent := *scope.Node().Path()
	if parent == "" {
		return id
	}
	return parent + "/" + id
}
