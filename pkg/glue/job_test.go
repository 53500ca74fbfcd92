package glue

import (
	"errors"
	"testing"

	"github.com/aws/aws-cdk-go/awscdk/v2/assertions"
	"github.com/aws/jsii-runtime-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJob(t *testing.T) {
	stack := newTestStack(t, nil)
	workers := 2.0

	sec, err := NewSecurityConfiguration(stack, "Sec", &SecurityConfigurationProps{
		SecurityConfigurationName: "etl-sec",
		S3:                        &Encryption{Mode: EncryptionSSES3},
	})
	require.NoError(t, err)

	job, err := NewJob(stack, "Job", &JobProps{
		JobName:               "nightly-etl",
		Command:               CommandETL,
		ScriptLocation:        "s3://bucket/etl.py",
		GlueVersion:           "4.0",
		WorkerType:            "G.1X",
		NumberOfWorkers:       &workers,
		DefaultArguments:      map[string]string{"--job-bookmark-option": "job-bookmark-enable"},
		SecurityConfiguration: sec,
		Connections:           []ConnectionRef{ConnectionNamed("warehouse")},
	})
	require.NoError(t, err)
	assert.Equal(t, "nightly-etl", job.JobName().String())

	arn, err := job.JobArn().Evaluate(stack, testEnv)
	require.NoError(t, err)
	assert.Equal(t, "arn:aws:glue:us-east-1:123456789012:job/nightly-etl", arn)

	assertions.Template_FromStack(stack, nil).HasResourceProperties(jsii.String("AWS::Glue::Job"), map[string]interface{}{
		"Name": jsii.String("nightly-etl"),
		"Command": map[string]interface{}{
			"Name":           jsii.String("glueetl"),
			"ScriptLocation": jsii.String("s3://bucket/etl.py"),
		},
		"GlueVersion":           jsii.String("4.0"),
		"WorkerType":            jsii.String("G.1X"),
		"NumberOfWorkers":       jsii.Number(2),
		"SecurityConfiguration": jsii.String("etl-sec"),
		"Connections": map[string]interface{}{
			"Connections": &[]interface{}{jsii.String("warehouse")},
		},
		"Role": assertions.Match_AnyValue(),
	})
}

func TestNewJob_Validation(t *testing.T) {
	workers := 2.0
	tests := []struct {
		name  string
		props *JobProps
		field string
	}{
		{"no command", &JobProps{ScriptLocation: "s3://x"}, "Command"},
		{"bad command", &JobProps{Command: "spark", ScriptLocation: "s3://x"}, "Command"},
		{"no script", &JobProps{Command: CommandPythonShell}, "ScriptLocation"},
		{"workers without type", &JobProps{Command: CommandETL, ScriptLocation: "s3://x", NumberOfWorkers: &workers}, "WorkerType"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stack := newTestStack(t, nil)
			_, err := NewJob(stack, "Job", tt.props)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestJob_OnFailureMemoized(t *testing.T) {
	stack := newTestStack(t, nil)
	job, err := NewJob(stack, "Job", &JobProps{JobName: "etl", Command: CommandETL, ScriptLocation: "s3://x"})
	require.NoError(t, err)

	a, err := job.OnFailure("Failed", nil)
	require.NoError(t, err)
	b, err := job.OnFailure("Failed", nil)
	require.NoError(t, err)
	assert.Equal(t, *a.Node().Path(), *b.Node().Path())

	tmpl := assertions.Template_FromStack(stack, nil)
	tmpl.ResourceCountIs(jsii.String("AWS::Events::Rule"), jsii.Number(1))
	tmpl.HasResourceProperties(jsii.String("AWS::Events::Rule"), map[string]interface{}{
		"EventPattern": map[string]interface{}{
			"source":      &[]interface{}{jsii.String("aws.glue")},
			"detail-type": &[]interface{}{jsii.String("Glue Job State Change")},
			"detail": map[string]interface{}{
				"jobName": &[]interface{}{jsii.String("etl")},
				"state":   &[]interface{}{jsii.String("FAILED")},
			},
		},
	})
}

func TestJob_Metric(t *testing.T) {
	stack := newTestStack(t, nil)
	job, err := NewJob(stack, "Job", &JobProps{JobName: "etl", Command: CommandETL, ScriptLocation: "s3://x"})
	require.NoError(t, err)

	m := job.Metric("glue.driver.aggregate.elapsedTime", MetricGauge, nil)
	dims := *m.Dimensions()
	assert.Equal(t, "etl", stack.Resolve(dims["JobName"]))
	assert.Equal(t, "ALL", stack.Resolve(dims["JobRunId"]))
	assert.Equal(t, "gauge", stack.Resolve(dims["Type"]))
}

func TestNewConnection(t *testing.T) {
	stack := newTestStack(t, nil)

	conn, err := NewConnection(stack, "Warehouse", &ConnectionProps{
		ConnectionName: "warehouse",
		Type:           ConnectionJDBC,
		Properties: map[string]string{
			"JDBC_CONNECTION_URL": "jdbc:postgresql://db:5432/dw",
		},
	})
	require.NoError(t, err)

	arn, err := conn.ConnectionArn().Evaluate(stack, testEnv)
	require.NoError(t, err)
	assert.Equal(t, "arn:aws:glue:us-east-1:123456789012:connection/warehouse", arn)

	assertions.Template_FromStack(stack, nil).HasResourceProperties(jsii.String("AWS::Glue::Connection"), map[string]interface{}{
		"CatalogId": map[string]interface{}{"Ref": jsii.String("AWS::AccountId")},
		"ConnectionInput": map[string]interface{}{
			"ConnectionType": jsii.String("JDBC"),
			"Name":           jsii.String("warehouse"),
			"ConnectionProperties": map[string]interface{}{
				"JDBC_CONNECTION_URL": jsii.String("jdbc:postgresql://db:5432/dw"),
			},
		},
	})
}

func TestNewConnection_JDBCNeedsURL(t *testing.T) {
	stack := newTestStack(t, nil)
	_, err := NewConnection(stack, "Warehouse", &ConnectionProps{Type: ConnectionJDBC})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Properties", verr.Field)
}

func TestNewSecurityConfiguration(t *testing.T) {
	stack := newTestStack(t, nil)
	key := "arn:aws:kms:us-east-1:123456789012:key/abc"

	_, err := NewSecurityConfiguration(stack, "Sec", &SecurityConfigurationProps{
		SecurityConfigurationName: "etl-sec",
		S3:                        &Encryption{Mode: EncryptionSSEKMS, KMSKeyArn: key},
		CloudWatch:                &Encryption{Mode: EncryptionDisabled},
		JobBookmarks:              &Encryption{Mode: EncryptionCSEKMS, KMSKeyArn: key},
	})
	require.NoError(t, err)

	assertions.Template_FromStack(stack, nil).HasResourceProperties(jsii.String("AWS::Glue::SecurityConfiguration"), map[string]interface{}{
		"Name": jsii.String("etl-sec"),
		"EncryptionConfiguration": map[string]interface{}{
			"S3Encryptions": &[]interface{}{
				map[string]interface{}{"S3EncryptionMode": jsii.String("SSE-KMS"), "KmsKeyArn": jsii.String(key)},
			},
			"CloudWatchEncryption":   map[string]interface{}{"CloudWatchEncryptionMode": jsii.String("DISABLED")},
			"JobBookmarksEncryption": map[string]interface{}{"JobBookmarksEncryptionMode": jsii.String("CSE-KMS"), "KmsKeyArn": jsii.String(key)},
		},
	})
}

func TestNewSecurityConfiguration_Validation(t *testing.T) {
	tests := []struct {
		name  string
		props *SecurityConfigurationProps
		field string
	}{
		{"no name", &SecurityConfigurationProps{}, "SecurityConfigurationName"},
		{"kms without key", &SecurityConfigurationProps{SecurityConfigurationName: "s", S3: &Encryption{Mode: EncryptionSSEKMS}}, "S3.KMSKeyArn"},
		{"mode not allowed", &SecurityConfigurationProps{SecurityConfigurationName: "s", CloudWatch: &Encryption{Mode: EncryptionSSES3}}, "CloudWatch.Mode"},
		{"key without kms", &SecurityConfigurationProps{SecurityConfigurationName: "s", JobBookmarks: &Encryption{Mode: EncryptionDisabled, KMSKeyArn: "k"}}, "JobBookmarks.KMSKeyArn"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stack := newTestStack(t, nil)
			_, err := NewSecurityConfiguration(stack, "Sec", tt.props)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}
