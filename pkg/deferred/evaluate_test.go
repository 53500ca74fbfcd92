package deferred

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var env = Environment{
	Partition: "aws",
	Region:    "us-east-1",
	Account:   "123456789012",
	Refs:      map[string]string{"TriggerD50EE54C": "TriggerD50EE54C"},
	Attributes: map[string]string{
		"RoleABC.Arn": "arn:aws:iam::123456789012:role/glue",
	},
}

func TestEvaluate_TriggerArn(t *testing.T) {
	arn := map[string]interface{}{
		"Fn::Join": []interface{}{"", []interface{}{
			"arn:",
			map[string]interface{}{"Ref": "AWS::Partition"},
			":glue:",
			map[string]interface{}{"Ref": "AWS::Region"},
			":",
			map[string]interface{}{"Ref": "AWS::AccountId"},
			":trigger/",
			map[string]interface{}{"Ref": "TriggerD50EE54C"},
		}},
	}

	got, err := Evaluate(arn, env)
	require.NoError(t, err)
	assert.Equal(t, "arn:aws:glue:us-east-1:123456789012:trigger/TriggerD50EE54C", got)
}

func TestEvaluate_Forms(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want string
	}{
		{"literal", "plain", "plain"},
		{"number", float64(42), "42"},
		{"bool", true, "true"},
		{"url suffix default", map[string]interface{}{"Ref": "AWS::URLSuffix"}, "amazonaws.com"},
		{"getatt", map[string]interface{}{"Fn::GetAtt": []interface{}{"RoleABC", "Arn"}}, "arn:aws:iam::123456789012:role/glue"},
		{"getatt dotted", map[string]interface{}{"Fn::GetAtt": "RoleABC.Arn"}, "arn:aws:iam::123456789012:role/glue"},
		{"select split", map[string]interface{}{"Fn::Select": []interface{}{float64(1), map[string]interface{}{
			"Fn::Split": []interface{}{"/", "trigger/nightly"},
		}}}, "nightly"},
		{"select list", map[string]interface{}{"Fn::Select": []interface{}{"0", []interface{}{"a", "b"}}}, "a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(tt.in, env)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluate_Unresolvable(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
	}{
		{"nil", nil},
		{"unknown ref", map[string]interface{}{"Ref": "Missing"}},
		{"unset pseudo", map[string]interface{}{"Ref": "AWS::StackName"}},
		{"unsupported fn", map[string]interface{}{"Fn::ImportValue": "x"}},
		{"bad join", map[string]interface{}{"Fn::Join": "x"}},
		{"select out of range", map[string]interface{}{"Fn::Select": []interface{}{"3", []interface{}{"a"}}}},
		{"not intrinsic", map[string]interface{}{"a": 1, "b": 2}},
		{"list", []interface{}{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Evaluate(tt.in, env)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnresolved))

			var rerr *ResolutionError
			assert.True(t, errors.As(err, &rerr))
		})
	}
}
