// Package manifest handles loading and validation of gluetrigger.yaml
// declaration files.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dwsmith1983/gluetrigger/pkg/glue"
)

// DefaultFile is the manifest name looked up when a directory is given.
const DefaultFile = "gluetrigger.yaml"

// DefaultStackName is used when neither the manifest nor the environment names the stack.
const DefaultStackName = "GlueTriggers"

// Environment variables that override manifest values.
const (
	EnvAccount   = "GLUETRIGGER_ACCOUNT"
	EnvRegion    = "GLUETRIGGER_REGION"
	EnvStackName = "GLUETRIGGER_STACK_NAME"
	EnvStrict    = "GLUETRIGGER_STRICT"
)

// Monitor kinds accepted in TriggerSpec.Monitor.
const (
	MonitorSuccess     = "success"
	MonitorFailure     = "failure"
	MonitorTimeout     = "timeout"
	MonitorStatePrefix = "state:"
)

// Load reads and parses the manifest at path. A directory resolves to
// DefaultFile inside it.
func Load(path string) (*Manifest, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, DefaultFile)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return Parse(data)
}

// Parse decodes a manifest, applies environment overrides and validates it.
// Unknown keys are rejected.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}

	if err := applyEnv(&m, os.Getenv); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}
	if m.Stack.Name == "" {
		m.Stack.Name = DefaultStackName
	}

	if err := validate(&m); err != nil {
		return nil, fmt.Errorf("validating manifest: %w", err)
	}
	return &m, nil
}

func applyEnv(m *Manifest, getenv func(string) string) error {
	if v := getenv(EnvAccount); v != "" {
		m.Stack.Account = v
	}
	if v := getenv(EnvRegion); v != "" {
		m.Stack.Region = v
	}
	if v := getenv(EnvStackName); v != "" {
		m.Stack.Name = v
	}
	if v := getenv(EnvStrict); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvStrict, err)
		}
		m.StrictValidation = &b
	}
	return nil
}

// JobByID returns the job declared with id.
func (m *Manifest) JobByID(id string) (JobSpec, bool) {
	for _, j := range m.Jobs {
		if j.ID == id {
			return j, true
		}
	}
	return JobSpec{}, false
}

// TriggerByID returns the trigger declared with id.
func (m *Manifest) TriggerByID(id string) (TriggerSpec, bool) {
	for _, t := range m.Triggers {
		if t.ID == id {
			return t, true
		}
	}
	return TriggerSpec{}, false
}

// ParseMonitor splits a monitor entry into its kind and, for state
// monitors, the trigger state it watches.
func ParseMonitor(entry string) (string, glue.TriggerState, error) {
	switch e := strings.ToLower(strings.TrimSpace(entry)); {
	case e == MonitorSuccess, e == MonitorFailure, e == MonitorTimeout:
		return e, "", nil
	case strings.HasPrefix(e, MonitorStatePrefix):
		state, err := glue.ParseTriggerState(strings.TrimSpace(entry)[len(MonitorStatePrefix):])
		if err != nil {
			return "", "", err
		}
		return MonitorStatePrefix, state, nil
	default:
		return "", "", fmt.Errorf("unknown monitor %q", entry)
	}
}

// validate checks the manifest's structure. Field-level rules of each
// declaration are left to the glue constructs.
func validate(m *Manifest) error {
	var errs []error
	seen := make(map[string]string)
	declare := func(kind string, i int, id string) {
		switch prev, dup := seen[id]; {
		case id == "":
			errs = append(errs, fmt.Errorf("%s[%d]: id is required", kind, i))
		case dup:
			errs = append(errs, fmt.Errorf("%s[%d]: id %q already used by %s", kind, i, id, prev))
		default:
			seen[id] = kind
		}
	}

	for i, s := range m.SecurityConfigurations {
		declare("securityConfigurations", i, s.ID)
	}
	for i, c := range m.Connections {
		declare("connections", i, c.ID)
	}
	for i, j := range m.Jobs {
		declare("jobs", i, j.ID)
	}

	for i, t := range m.Triggers {
		declare("triggers", i, t.ID)
		field := fmt.Sprintf("triggers[%d]", i)
		if _, err := glue.ParseTriggerType(t.Type); err != nil {
			errs = append(errs, fmt.Errorf("%s.type: %w", field, err))
		}
		for k, a := range t.Actions {
			if a.Job == "" {
				continue
			}
			if _, ok := m.JobByID(a.Job); !ok {
				errs = append(errs, fmt.Errorf("%s.actions[%d].job: no job with id %q", field, k, a.Job))
			}
		}
		if t.Predicate != nil {
			for k, c := range t.Predicate.Conditions {
				if c.Job == "" {
					continue
				}
				if _, ok := m.JobByID(c.Job); !ok {
					errs = append(errs, fmt.Errorf("%s.predicate.conditions[%d].job: no job with id %q", field, k, c.Job))
				}
			}
		}
		monitors := make(map[string]bool)
		for k, entry := range t.Monitor {
			kind, state, err := ParseMonitor(entry)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s.monitor[%d]: %w", field, k, err))
				continue
			}
			key := kind + string(state)
			if monitors[key] {
				errs = append(errs, fmt.Errorf("%s.monitor[%d]: %q listed twice", field, k, entry))
			}
			monitors[key] = true
		}
	}

	// Connection entries that match no id are taken as physical names.
	for i, j := range m.Jobs {
		for k, c := range j.Connections {
			if strings.TrimSpace(c) == "" {
				errs = append(errs, fmt.Errorf("jobs[%d].connections[%d]: is empty", i, k))
			}
		}
	}
	return errors.Join(errs...)
}
