package deferred

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnresolved is wrapped by every ResolutionError.
var ErrUnresolved = errors.New("deferred value cannot be resolved")

// ResolutionError reports an expression Evaluate could not reduce to a string.
type ResolutionError struct {
	Expr   string
	Reason string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolving %s: %s", e.Expr, e.Reason)
}

func (e *ResolutionError) Unwrap() error { return ErrUnresolved }

// Environment holds the concrete values a deployment would substitute.
type Environment struct {
	Partition string
	Region    string
	Account   string
	URLSuffix string
	StackName string

	// Refs maps logical ids to physical ids.
	Refs map[string]string
	// Attributes maps "LogicalId.Attribute" to values for Fn::GetAtt.
	Attributes map[string]string
}

// pseudo returns the value of an AWS:: pseudo parameter.
func (env Environment) pseudo(name string) (string, bool) {
	var v string
	switch name {
	case "AWS::Partition":
		v = env.Partition
	case "AWS::Region":
		v = env.Region
	case "AWS::AccountId":
		v = env.Account
	case "AWS::URLSuffix":
		v = env.URLSuffix
		if v == "" {
			v = "amazonaws.com"
		}
	case "AWS::StackName":
		v = env.StackName
	default:
		return "", false
	}
	return v, v != ""
}

// Evaluate reduces a resolved CloudFormation value to a string. Supported
// forms are literals, Ref, Fn::Join, Fn::Select, Fn::Split and Fn::GetAtt.
func Evaluate(v interface{}, env Environment) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", &ResolutionError{Expr: "null", Reason: "no value"}
	case string:
		return x, nil
	case *string:
		if x == nil {
			return "", &ResolutionError{Expr: "null", Reason: "no value"}
		}
		return *x, nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(x), nil
	case bool:
		return strconv.FormatBool(x), nil
	case map[string]interface{}:
		return evaluateIntrinsic(x, env)
	default:
		return "", &ResolutionError{Expr: render(v), Reason: fmt.Sprintf("unsupported value of type %T", v)}
	}
}

func evaluateIntrinsic(m map[string]interface{}, env Environment) (string, error) {
	if len(m) != 1 {
		return "", &ResolutionError{Expr: render(m), Reason: "not an intrinsic function"}
	}
	for fn, arg := range m {
		switch fn {
		case "Ref":
			return evaluateRef(arg, env)
		case "Fn::Join":
			return evaluateJoin(arg, env)
		case "Fn::Select":
			return evaluateSelect(arg, env)
		case "Fn::GetAtt":
			return evaluateGetAtt(arg, env)
		default:
			return "", &ResolutionError{Expr: render(m), Reason: "unsupported intrinsic " + fn}
		}
	}
	return "", nil
}

func evaluateRef(arg interface{}, env Environment) (string, error) {
	name, ok := arg.(string)
	if !ok {
		return "", &ResolutionError{Expr: render(map[string]interface{}{"Ref": arg}), Reason: "Ref target must be a string"}
	}
	if strings.HasPrefix(name, "AWS::") {
		if v, ok := env.pseudo(name); ok {
			return v, nil
		}
		return "", &ResolutionError{Expr: "Ref " + name, Reason: "pseudo parameter not set"}
	}
	if v, ok := env.Refs[name]; ok {
		return v, nil
	}
	return "", &ResolutionError{Expr: "Ref " + name, Reason: "no physical id known"}
}

func evaluateJoin(arg interface{}, env Environment) (string, error) {
	args, ok := arg.([]interface{})
	if !ok || len(args) != 2 {
		return "", &ResolutionError{Expr: render(arg), Reason: "Fn::Join expects [delimiter, list]"}
	}
	delim, ok := args[0].(string)
	if !ok {
		return "", &ResolutionError{Expr: render(arg), Reason: "Fn::Join delimiter must be a string"}
	}
	parts, err := evaluateList(args[1], env)
	if err != nil {
		return "", err
	}
	return strings.Join(parts, delim), nil
}

func evaluateSelect(arg interface{}, env Environment) (string, error) {
	args, ok := arg.([]interface{})
	if !ok || len(args) != 2 {
		return "", &ResolutionError{Expr: render(arg), Reason: "Fn::Select expects [index, list]"}
	}
	idxStr, err := Evaluate(args[0], env)
	if err != nil {
		return "", err
	}
	idx, err := strconv.Atoi(idxStr)
	if err != nil {
		return "", &ResolutionError{Expr: render(arg), Reason: "Fn::Select index is not an integer"}
	}
	items, err := evaluateList(args[1], env)
	if err != nil {
		return "", err
	}
	if idx < 0 || idx >= len(items) {
		return "", &ResolutionError{Expr: render(arg), Reason: fmt.Sprintf("index %d out of range (%d items)", idx, len(items))}
	}
	return items[idx], nil
}

func evaluateGetAtt(arg interface{}, env Environment) (string, error) {
	var key string
	switch a := arg.(type) {
	case []interface{}:
		if len(a) != 2 {
			return "", &ResolutionError{Expr: render(arg), Reason: "Fn::GetAtt expects [logicalId, attribute]"}
		}
		id, _ := a[0].(string)
		attr, _ := a[1].(string)
		key = id + "." + attr
	case string:
		key = a
	default:
		return "", &ResolutionError{Expr: render(arg), Reason: "Fn::GetAtt expects [logicalId, attribute]"}
	}
	if v, ok := env.Attributes[key]; ok {
		return v, nil
	}
	return "", &ResolutionError{Expr: "Fn::GetAtt " + key, Reason: "attribute not known"}
}

// evaluateList handles literal arrays and Fn::Split.
func evaluateList(v interface{}, env Environment) ([]string, error) {
	switch x := v.(type) {
	case []interface{}:
		out := make([]string, 0, len(x))
		for _, item := range x {
			s, err := Evaluate(item, env)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	case map[string]interface{}:
		arg, ok := x["Fn::Split"]
		if !ok || len(x) != 1 {
			return nil, &ResolutionError{Expr: render(v), Reason: "expected a list or Fn::Split"}
		}
		args, ok := arg.([]interface{})
		if !ok || len(args) != 2 {
			return nil, &ResolutionError{Expr: render(v), Reason: "Fn::Split expects [delimiter, source]"}
		}
		delim, ok := args[0].(string)
		if !ok {
			return nil, &ResolutionError{Expr: render(v), Reason: "Fn::Split delimiter must be a string"}
		}
		src, err := Evaluate(args[1], env)
		if err != nil {
			return nil, err
		}
		return strings.Split(src, delim), nil
	default:
		return nil, &ResolutionError{Expr: render(v), Reason: "expected a list"}
	}
}

func render(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
