package glue

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsglue"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/dwsmith1983/gluetrigger/pkg/deferred"
)

// ConnectionRef names a Glue connection.
type ConnectionRef interface {
	ConnectionName() deferred.String
}

type namedConnection string

func (n namedConnection) ConnectionName() deferred.String { return deferred.Literal(string(n)) }

// ConnectionNamed refers to an existing connection by name.
func ConnectionNamed(name string) ConnectionRef { return namedConnection(name) }

// ConnectionType is the kind of data store a connection reaches.
type ConnectionType string

const (
	ConnectionJDBC        ConnectionType = "JDBC"
	ConnectionKafka       ConnectionType = "KAFKA"
	ConnectionMongoDB     ConnectionType = "MONGODB"
	ConnectionNetwork     ConnectionType = "NETWORK"
	ConnectionMarketplace ConnectionType = "MARKETPLACE"
	ConnectionCustom      ConnectionType = "CUSTOM"
)

func (c ConnectionType) valid() bool {
	switch c {
	case ConnectionJDBC, ConnectionKafka, ConnectionMongoDB, ConnectionNetwork, ConnectionMarketplace, ConnectionCustom:
		return true
	}
	return false
}

// ConnectionProps are the construction parameters of a Connection.
type ConnectionProps struct {
	ConnectionName string
	Description    string
	// Type is mandatory.
	Type          ConnectionType
	Properties    map[string]string
	MatchCriteria []string
	// CatalogID defaults to the stack account.
	CatalogID string
}

// Connection is a declared AWS::Glue::Connection.
type Connection struct {
	constructs.Construct

	resource awsglue.CfnConnection
	name     deferred.String
	arn      deferred.String
}

// NewConnection declares a connection called id under scope.
func NewConnection(scope constructs.Construct, id string, props *ConnectionProps) (*Connection, error) {
	if props == nil {
		props = &ConnectionProps{}
	}
	if err := checkUnique(scope, id); err != nil {
		return nil, err
	}
	path := childPath(scope, id)
	if err := requireStack(scope, path); err != nil {
		return nil, err
	}

	v := &validator{path: path}
	v.name("ConnectionName", props.ConnectionName)
	if props.Type == "" {
		v.fail("Type", "is required")
	} else if !props.Type.valid() {
		v.fail("Type", "unknown connection type %q", props.Type)
	}
	if props.Type == ConnectionJDBC && props.Properties["JDBC_CONNECTION_URL"] == "" {
		v.fail("Properties", "JDBC connections need JDBC_CONNECTION_URL")
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	this := constructs.NewConstruct(scope, jsii.String(id))
	catalog := jsii.String(props.CatalogID)
	if props.CatalogID == "" {
		catalog = awscdk.Stack_Of(this).Account()
	}

	input := &awsglue.CfnConnection_ConnectionInputProperty{
		ConnectionType: jsii.String(string(props.Type)),
		Name:           optional(props.ConnectionName),
		Description:    optional(props.Description),
	}
	if len(props.Properties) > 0 {
		input.ConnectionProperties = renderTags(props.Properties)
	}
	if len(props.MatchCriteria) > 0 {
		input.MatchCriteria = jsii.Strings(props.MatchCriteria...)
	}

	c := &Connection{Construct: this}
	c.resource = awsglue.NewCfnConnection(this, jsii.String("Resource"), &awsglue.CfnConnectionProps{
		CatalogId:       catalog,
		ConnectionInput: input,
	})
	if props.ConnectionName != "" {
		c.name = deferred.Literal(props.ConnectionName)
	} else {
		c.name = deferred.Of(c.resource.Ref())
	}
	c.arn = deferred.Of(formatArn(this, "connection", c.name))
	return c, nil
}

// ConnectionName resolves to the physical connection name.
func (c *Connection) ConnectionName() deferred.String { return c.name }

// ConnectionArn resolves to arn:{partition}:glue:{region}:{account}:connection/{name}.
func (c *Connection) ConnectionArn() deferred.String { return c.arn }

// Resource exposes the underlying CloudFormation resource.
func (c *Connection) Resource() awsglue.CfnConnection { return c.resource }
