package glue

import (
	"github.com/aws/aws-cdk-go/awscdk/v2/awsglue"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/dwsmith1983/gluetrigger/pkg/deferred"
)

// SecurityConfigurationRef names a Glue security configuration.
type SecurityConfigurationRef interface {
	SecurityConfigurationName() deferred.String
}

type namedSecurityConfiguration string

func (n namedSecurityConfiguration) SecurityConfigurationName() deferred.String {
	return deferred.Literal(string(n))
}

// SecurityConfigurationNamed refers to an existing security configuration.
func SecurityConfigurationNamed(name string) SecurityConfigurationRef {
	return namedSecurityConfiguration(name)
}

// EncryptionMode values. Not every mode is valid for every target.
type EncryptionMode string

const (
	EncryptionDisabled EncryptionMode = "DISABLED"
	EncryptionSSES3    EncryptionMode = "SSE-S3"
	EncryptionSSEKMS   EncryptionMode = "SSE-KMS"
	EncryptionCSEKMS   EncryptionMode = "CSE-KMS"
)

// Encryption selects a mode and, for KMS modes, the key.
type Encryption struct {
	Mode      EncryptionMode
	KMSKeyArn string
}

// SecurityConfigurationProps are the construction parameters of a SecurityConfiguration.
type SecurityConfigurationProps struct {
	// SecurityConfigurationName is mandatory; Glue does not generate one.
	SecurityConfigurationName string
	S3                        *Encryption
	CloudWatch                *Encryption
	JobBookmarks              *Encryption
}

// SecurityConfiguration is a declared AWS::Glue::SecurityConfiguration.
type SecurityConfiguration struct {
	constructs.Construct

	resource awsglue.CfnSecurityConfiguration
	name     deferred.String
}

// NewSecurityConfiguration declares a security configuration called id under scope.
func NewSecurityConfiguration(scope constructs.Construct, id string, props *SecurityConfigurationProps) (*SecurityConfiguration, error) {
	if props == nil {
		props = &SecurityConfigurationProps{}
	}
	if err := checkUnique(scope, id); err != nil {
		return nil, err
	}

	v := &validator{path: childPath(scope, id)}
	if props.SecurityConfigurationName == "" {
		v.fail("SecurityConfigurationName", "is required")
	}
	v.name("SecurityConfigurationName", props.SecurityConfigurationName)
	v.encryption("S3", props.S3, EncryptionDisabled, EncryptionSSES3, EncryptionSSEKMS)
	v.encryption("CloudWatch", props.CloudWatch, EncryptionDisabled, EncryptionSSEKMS)
	v.encryption("JobBookmarks", props.JobBookmarks, EncryptionDisabled, EncryptionCSEKMS)
	if err := v.err(); err != nil {
		return nil, err
	}

	this := constructs.NewConstruct(scope, jsii.String(id))
	enc := &awsglue.CfnSecurityConfiguration_EncryptionConfigurationProperty{}
	if e := props.S3; e != nil {
		enc.S3Encryptions = &[]interface{}{
			&awsglue.CfnSecurityConfiguration_S3EncryptionProperty{
				S3EncryptionMode: jsii.String(string(e.Mode)),
				KmsKeyArn:        optional(e.KMSKeyArn),
			},
		}
	}
	if e := props.CloudWatch; e != nil {
		enc.CloudWatchEncryption = &awsglue.CfnSecurityConfiguration_CloudWatchEncryptionProperty{
			CloudWatchEncryptionMode: jsii.String(string(e.Mode)),
			KmsKeyArn:                optional(e.KMSKeyArn),
		}
	}
	if e := props.JobBookmarks; e != nil {
		enc.JobBookmarksEncryption = &awsglue.CfnSecurityConfiguration_JobBookmarksEncryptionProperty{
			JobBookmarksEncryptionMode: jsii.String(string(e.Mode)),
			KmsKeyArn:                  optional(e.KMSKeyArn),
		}
	}

	s := &SecurityConfiguration{Construct: this, name: deferred.Literal(props.SecurityConfigurationName)}
	s.resource = awsglue.NewCfnSecurityConfiguration(this, jsii.String("Resource"), &awsglue.CfnSecurityConfigurationProps{
		Name:                    jsii.String(props.SecurityConfigurationName),
		EncryptionConfiguration: enc,
	})
	return s, nil
}

// SecurityConfigurationName is the configured name.
func (s *SecurityConfiguration) SecurityConfigurationName() deferred.String { return s.name }

// Resource exposes the underlying CloudFormation resource.
func (s *SecurityConfiguration) Resource() awsglue.CfnSecurityConfiguration { return s.resource }

func (v *validator) encryption(field string, e *Encryption, allowed ...EncryptionMode) {
	if e == nil {
		return
	}
	ok := false
	for _, m := range allowed {
		if e.Mode == m {
			ok = true
		}
	}
	if !ok {
		v.fail(field+".Mode", "must be one of %v, got %q", allowed, e.Mode)
		return
	}
	kms := e.Mode == EncryptionSSEKMS || e.Mode == EncryptionCSEKMS
	if kms && e.KMSKeyArn == "" {
		v.fail(field+".KMSKeyArn", "is required for %s", e.Mode)
	}
	if !kms && e.KMSKeyArn != "" {
		v.fail(field+".KMSKeyArn", "is only used with KMS modes")
	}
}
