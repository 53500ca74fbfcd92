package main

import (
	"log/slog"
	"os"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"
)

func main() {
	defer jsii.Close()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	app := awscdk.NewApp(nil)
	cfg := FromEnv(DefaultConfig(), os.Getenv)

	if _, err := NewGlueTriggerStack(app, cfg); err != nil {
		slog.Error("declaring stack", "error", err)
		jsii.Close()
		os.Exit(1)
	}
	app.Synth(nil)
}
