package main

import "strconv"

// StackConfig holds configuration for the gluetrigger CDK app.
type StackConfig struct {
	ManifestPath     string
	ObserverDistDir  string
	AlertTopic       string
	MemorySize       float64
	Timeout          float64
	LogRetentionDays float64
}

// DefaultConfig returns a StackConfig with sensible defaults.
func DefaultConfig() StackConfig {
	return StackConfig{
		ManifestPath:     "../gluetrigger.yaml",
		ObserverDistDir:  "../dist/lambda/state-observer",
		MemorySize:       128,
		Timeout:          30,
		LogRetentionDays: 7,
	}
}

// FromEnv overlays GLUETRIGGER_* environment variables on cfg.
func FromEnv(cfg StackConfig, getenv func(string) string) StackConfig {
	if v := getenv("GLUETRIGGER_MANIFEST"); v != "" {
		cfg.ManifestPath = v
	}
	if v, ok := lookup(getenv, "GLUETRIGGER_OBSERVER_DIR"); ok {
		cfg.ObserverDistDir = v
	}
	if v := getenv("GLUETRIGGER_ALERT_TOPIC"); v != "" {
		cfg.AlertTopic = v
	}
	if n, err := strconv.ParseFloat(getenv("GLUETRIGGER_LOG_RETENTION_DAYS"), 64); err == nil {
		cfg.LogRetentionDays = n
	}
	return cfg
}

// lookup treats "-" as an explicit empty value, disabling the observer.
func lookup(getenv func(string) string, key string) (string, bool) {
	v := getenv(key)
	switch v {
	case "":
		return "", false
	case "-":
		return "", true
	default:
		return v, true
	}
}
