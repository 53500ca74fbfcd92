package manifest

// Manifest is the parsed form of a gluetrigger.yaml declaration file.
type Manifest struct {
	Stack StackConfig `yaml:"stack" json:"stack"`
	// StrictValidation promotes convention warnings to errors for every
	// declaration that does not override it. When nil the app's
	// @gluetrigger/strictValidation context decides.
	StrictValidation *bool `yaml:"strictValidation,omitempty" json:"strictValidation,omitempty"`

	SecurityConfigurations []SecurityConfigurationSpec `yaml:"securityConfigurations,omitempty" json:"securityConfigurations,omitempty"`
	Connections            []ConnectionSpec            `yaml:"connections,omitempty" json:"connections,omitempty"`
	Jobs                   []JobSpec                   `yaml:"jobs,omitempty" json:"jobs,omitempty"`
	Triggers               []TriggerSpec               `yaml:"triggers" json:"triggers"`
}

// StackConfig names the target stack and its environment.
type StackConfig struct {
	Name        string            `yaml:"name" json:"name"`
	Description string            `yaml:"description,omitempty" json:"description,omitempty"`
	Account     string            `yaml:"account,omitempty" json:"account,omitempty"`
	Region      string            `yaml:"region,omitempty" json:"region,omitempty"`
	Tags        map[string]string `yaml:"tags,omitempty" json:"tags,omitempty"`
	// AlertTopic names an SNS topic that receives every monitoring rule's events.
	AlertTopic string `yaml:"alertTopic,omitempty" json:"alertTopic,omitempty"`
}

// TriggerSpec declares one Glue trigger.
type TriggerSpec struct {
	ID              string             `yaml:"id" json:"id"`
	Name            string             `yaml:"name,omitempty" json:"name,omitempty"`
	Description     string             `yaml:"description,omitempty" json:"description,omitempty"`
	Type            string             `yaml:"type" json:"type"`
	Schedule        string             `yaml:"schedule,omitempty" json:"schedule,omitempty"`
	WorkflowName    *string            `yaml:"workflowName,omitempty" json:"workflowName,omitempty"`
	StartOnCreation *bool              `yaml:"startOnCreation,omitempty" json:"startOnCreation,omitempty"`
	Actions         []ActionSpec       `yaml:"actions,omitempty" json:"actions,omitempty"`
	Predicate       *PredicateSpec     `yaml:"predicate,omitempty" json:"predicate,omitempty"`
	EventBatching   *EventBatchingSpec `yaml:"eventBatching,omitempty" json:"eventBatching,omitempty"`
	Tags            map[string]string  `yaml:"tags,omitempty" json:"tags,omitempty"`
	Strict          *bool              `yaml:"strictValidation,omitempty" json:"strictValidation,omitempty"`
	// Monitor lists the rules declared alongside the trigger:
	// success, failure, timeout or state:<STATE>.
	Monitor []string `yaml:"monitor,omitempty" json:"monitor,omitempty"`
}

// ActionSpec starts a job or a crawler. Job refers to a JobSpec id declared
// in the same manifest; JobName refers to a job deployed elsewhere.
type ActionSpec struct {
	Job                   string            `yaml:"job,omitempty" json:"job,omitempty"`
	JobName               string            `yaml:"jobName,omitempty" json:"jobName,omitempty"`
	CrawlerName           string            `yaml:"crawlerName,omitempty" json:"crawlerName,omitempty"`
	Arguments             map[string]string `yaml:"arguments,omitempty" json:"arguments,omitempty"`
	Timeout               *float64          `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	NotifyDelayAfter      *float64          `yaml:"notifyDelayAfter,omitempty" json:"notifyDelayAfter,omitempty"`
	SecurityConfiguration string            `yaml:"securityConfiguration,omitempty" json:"securityConfiguration,omitempty"`
}

// PredicateSpec gates a CONDITIONAL trigger.
type PredicateSpec struct {
	Logical    string          `yaml:"logical,omitempty" json:"logical,omitempty"`
	Conditions []ConditionSpec `yaml:"conditions" json:"conditions"`
}

// ConditionSpec watches one job (by id or name) or one crawler.
type ConditionSpec struct {
	Job         string `yaml:"job,omitempty" json:"job,omitempty"`
	JobName     string `yaml:"jobName,omitempty" json:"jobName,omitempty"`
	State       string `yaml:"state,omitempty" json:"state,omitempty"`
	CrawlerName string `yaml:"crawlerName,omitempty" json:"crawlerName,omitempty"`
	CrawlState  string `yaml:"crawlState,omitempty" json:"crawlState,omitempty"`
}

// EventBatchingSpec configures batching on an EVENT trigger.
type EventBatchingSpec struct {
	BatchSize   float64  `yaml:"batchSize" json:"batchSize"`
	BatchWindow *float64 `yaml:"batchWindow,omitempty" json:"batchWindow,omitempty"`
}

// JobSpec declares a Glue job that triggers may refer to by id.
type JobSpec struct {
	ID               string            `yaml:"id" json:"id"`
	Name             string            `yaml:"name,omitempty" json:"name,omitempty"`
	Description      string            `yaml:"description,omitempty" json:"description,omitempty"`
	Command          string            `yaml:"command" json:"command"`
	ScriptLocation   string            `yaml:"scriptLocation" json:"scriptLocation"`
	PythonVersion    string            `yaml:"pythonVersion,omitempty" json:"pythonVersion,omitempty"`
	GlueVersion      string            `yaml:"glueVersion,omitempty" json:"glueVersion,omitempty"`
	WorkerType       string            `yaml:"workerType,omitempty" json:"workerType,omitempty"`
	NumberOfWorkers  *float64          `yaml:"numberOfWorkers,omitempty" json:"numberOfWorkers,omitempty"`
	MaxRetries       *float64          `yaml:"maxRetries,omitempty" json:"maxRetries,omitempty"`
	Timeout          *float64          `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	DefaultArguments map[string]string `yaml:"defaultArguments,omitempty" json:"defaultArguments,omitempty"`
	// SecurityConfiguration and Connections name manifest ids first and
	// fall back to physical names.
	SecurityConfiguration string            `yaml:"securityConfiguration,omitempty" json:"securityConfiguration,omitempty"`
	Connections           []string          `yaml:"connections,omitempty" json:"connections,omitempty"`
	Tags                  map[string]string `yaml:"tags,omitempty" json:"tags,omitempty"`
}

// SecurityConfigurationSpec declares a Glue security configuration.
type SecurityConfigurationSpec struct {
	ID           string          `yaml:"id" json:"id"`
	Name         string          `yaml:"name" json:"name"`
	S3           *EncryptionSpec `yaml:"s3,omitempty" json:"s3,omitempty"`
	CloudWatch   *EncryptionSpec `yaml:"cloudWatch,omitempty" json:"cloudWatch,omitempty"`
	JobBookmarks *EncryptionSpec `yaml:"jobBookmarks,omitempty" json:"jobBookmarks,omitempty"`
}

// EncryptionSpec is one encryption setting of a security configuration.
type EncryptionSpec struct {
	Mode      string `yaml:"mode" json:"mode"`
	KMSKeyArn string `yaml:"kmsKeyArn,omitempty" json:"kmsKeyArn,omitempty"`
}

// ConnectionSpec declares a Glue connection.
type ConnectionSpec struct {
	ID            string            `yaml:"id" json:"id"`
	Name          string            `yaml:"name,omitempty" json:"name,omitempty"`
	Description   string            `yaml:"description,omitempty" json:"description,omitempty"`
	Type          string            `yaml:"type" json:"type"`
	Properties    map[string]string `yaml:"properties,omitempty" json:"properties,omitempty"`
	MatchCriteria []string          `yaml:"matchCriteria,omitempty" json:"matchCriteria,omitempty"`
	CatalogID     string            `yaml:"catalogId,omitempty" json:"catalogId,omitempty"`
}
