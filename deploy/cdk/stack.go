package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/constructs-go/constructs/v10"

	"github.com/dwsmith1983/gluetrigger/internal/manifest"
	"github.com/dwsmith1983/gluetrigger/internal/stack"
)

// NewGlueTriggerStack loads the manifest named by cfg and declares its stack
// under scope. The observer is deployed only when its bootstrap directory exists.
func NewGlueTriggerStack(scope constructs.Construct, cfg StackConfig) (awscdk.Stack, error) {
	m, err := manifest.Load(cfg.ManifestPath)
	if err != nil {
		return nil, err
	}

	opts := []stack.Option{
		stack.WithFunctionSizing(cfg.MemorySize, cfg.Timeout),
		stack.WithLogRetention(cfg.LogRetentionDays),
	}
	if cfg.AlertTopic != "" {
		opts = append(opts, stack.WithAlertTopic(cfg.AlertTopic))
	}
	if cfg.ObserverDistDir != "" {
		if info, err := os.Stat(cfg.ObserverDistDir); err == nil && info.IsDir() {
			opts = append(opts, stack.WithObserver(cfg.ObserverDistDir))
		} else {
			slog.Warn("state observer not built, skipping", "dir", cfg.ObserverDistDir)
		}
	}

	res, err := stack.New(scope, m.Stack.Name, m, opts...)
	if err != nil {
		return nil, fmt.Errorf("building %s: %w", m.Stack.Name, err)
	}
	return res.Stack, nil
}
