package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwsmith1983/gluetrigger/pkg/glue"
)

const sample = `stack:
  name: etl-triggers
  account: "123456789012"
  region: us-east-1
strictValidation: true
securityConfigurations:
  - id: Encrypted
    name: etl-encrypted
    s3:
      mode: SSE-S3
connections:
  - id: Warehouse
    type: JDBC
    properties:
      JDBC_CONNECTION_URL: jdbc:postgresql://db:5432/wh
jobs:
  - id: Extract
    name: extract
    command: glueetl
    scriptLocation: s3://scripts/extract.py
    securityConfiguration: Encrypted
    connections: [Warehouse]
  - id: Load
    command: glueetl
    scriptLocation: s3://scripts/load.py
triggers:
  - id: Nightly
    name: nightly
    type: scheduled
    schedule: cron(0 2 * * ? *)
    actions:
      - job: Extract
        arguments:
          --date: today
    monitor: [success, failure, "state:ACTIVATED"]
  - id: AfterExtract
    type: CONDITIONAL
    predicate:
      conditions:
        - job: Extract
          state: SUCCEEDED
    actions:
      - job: Load
      - crawlerName: raw
`

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFile), []byte(content), 0o644))
	return dir
}

func TestLoad(t *testing.T) {
	m, err := Load(writeManifest(t, sample))
	require.NoError(t, err)

	assert.Equal(t, "etl-triggers", m.Stack.Name)
	assert.Equal(t, "123456789012", m.Stack.Account)
	require.NotNil(t, m.StrictValidation)
	assert.True(t, *m.StrictValidation)
	assert.Len(t, m.SecurityConfigurations, 1)
	assert.Len(t, m.Connections, 1)
	assert.Len(t, m.Jobs, 2)
	require.Len(t, m.Triggers, 2)

	nightly, ok := m.TriggerByID("Nightly")
	require.True(t, ok)
	assert.Equal(t, "scheduled", nightly.Type)
	assert.Equal(t, "today", nightly.Actions[0].Arguments["--date"])
	assert.Equal(t, []string{"success", "failure", "state:ACTIVATED"}, nightly.Monitor)

	extract, ok := m.JobByID("Extract")
	require.True(t, ok)
	assert.Equal(t, []string{"Warehouse"}, extract.Connections)
}

func TestLoad_FilePath(t *testing.T) {
	dir := writeManifest(t, sample)
	m, err := Load(filepath.Join(dir, DefaultFile))
	require.NoError(t, err)
	assert.Equal(t, "etl-triggers", m.Stack.Name)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent")
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	_, err := Load(writeManifest(t, "triggers: [yaml"))
	assert.Error(t, err)
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse([]byte("triggers:\n  - id: A\n    type: ON_DEMAND\n    cron: nope\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cron")
}

func TestParse_DefaultStackName(t *testing.T) {
	m, err := Parse([]byte("triggers:\n  - id: A\n    type: ON_DEMAND\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultStackName, m.Stack.Name)
	assert.Nil(t, m.StrictValidation)
}

func TestParse_EnvOverrides(t *testing.T) {
	t.Setenv(EnvAccount, "210987654321")
	t.Setenv(EnvRegion, "eu-west-1")
	t.Setenv(EnvStackName, "override")
	t.Setenv(EnvStrict, "false")

	m, err := Parse([]byte(sample))
	require.NoError(t, err)
	assert.Equal(t, "210987654321", m.Stack.Account)
	assert.Equal(t, "eu-west-1", m.Stack.Region)
	assert.Equal(t, "override", m.Stack.Name)
	require.NotNil(t, m.StrictValidation)
	assert.False(t, *m.StrictValidation)
}

func TestParse_BadStrictEnv(t *testing.T) {
	t.Setenv(EnvStrict, "sometimes")
	_, err := Parse([]byte(sample))
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvStrict)
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "missing id",
			content: "triggers:\n  - type: ON_DEMAND\n",
			want:    "triggers[0]: id is required",
		},
		{
			name:    "duplicate id across kinds",
			content: "jobs:\n  - id: A\n    command: glueetl\n    scriptLocation: s3://x\ntriggers:\n  - id: A\n    type: ON_DEMAND\n",
			want:    `id "A" already used by jobs`,
		},
		{
			name:    "unknown type",
			content: "triggers:\n  - id: A\n    type: HOURLY\n",
			want:    "triggers[0].type",
		},
		{
			name:    "dangling action job",
			content: "triggers:\n  - id: A\n    type: ON_DEMAND\n    actions:\n      - job: Missing\n",
			want:    `no job with id "Missing"`,
		},
		{
			name:    "dangling condition job",
			content: "triggers:\n  - id: A\n    type: CONDITIONAL\n    predicate:\n      conditions:\n        - job: Missing\n          state: FAILED\n",
			want:    "predicate.conditions[0].job",
		},
		{
			name:    "unknown monitor",
			content: "triggers:\n  - id: A\n    type: ON_DEMAND\n    monitor: [retries]\n",
			want:    `unknown monitor "retries"`,
		},
		{
			name:    "unknown monitored state",
			content: "triggers:\n  - id: A\n    type: ON_DEMAND\n    monitor: [\"state:PAUSED\"]\n",
			want:    "triggers[0].monitor[0]",
		},
		{
			name:    "duplicate monitor",
			content: "triggers:\n  - id: A\n    type: ON_DEMAND\n    monitor: [success, SUCCESS]\n",
			want:    "listed twice",
		},
		{
			name:    "empty connection",
			content: "jobs:\n  - id: J\n    command: glueetl\n    scriptLocation: s3://x\n    connections: [\"\"]\ntriggers: []\n",
			want:    "jobs[0].connections[0]: is empty",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidation_ReportsAllProblems(t *testing.T) {
	_, err := Parse([]byte("triggers:\n  - id: A\n    type: HOURLY\n  - type: ON_DEMAND\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "triggers[0].type")
	assert.Contains(t, err.Error(), "triggers[1]: id is required")
}

func TestParseMonitor(t *testing.T) {
	kind, state, err := ParseMonitor("Failure")
	require.NoError(t, err)
	assert.Equal(t, MonitorFailure, kind)
	assert.Empty(t, state)

	kind, state, err = ParseMonitor("state:deactivated")
	require.NoError(t, err)
	assert.Equal(t, MonitorStatePrefix, kind)
	assert.Equal(t, glue.TriggerDeactivated, state)
}
