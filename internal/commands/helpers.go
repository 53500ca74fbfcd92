// Package commands implements the CLI subcommands for the gluetrigger binary.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/constructs-go/constructs/v10"

	"github.com/dwsmith1983/gluetrigger/internal/manifest"
	"github.com/dwsmith1983/gluetrigger/internal/observe"
	"github.com/dwsmith1983/gluetrigger/internal/status"
)

// STSAPI is the subset of the STS client used to discover the caller's account.
type STSAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// Client factories, replaced in tests.
var (
	newSTSClient = func(ctx context.Context, region string) (STSAPI, error) {
		cfg, err := loadAWSConfig(ctx, region)
		if err != nil {
			return nil, err
		}
		return sts.NewFromConfig(cfg), nil
	}
	newLogsClient = func(ctx context.Context, region string) (observe.LogsAPI, error) {
		cfg, err := loadAWSConfig(ctx, region)
		if err != nil {
			return nil, err
		}
		return cloudwatchlogs.NewFromConfig(cfg), nil
	}
	newPoller = func(region string, concurrency int, logger *slog.Logger) (*status.Poller, error) {
		return status.NewPoller(status.WithRegion(region), status.WithConcurrency(concurrency), status.WithLogger(logger))
	}
)

func loadAWSConfig(ctx context.Context, region string) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return cfg, fmt.Errorf("loading AWS config: %w", err)
	}
	return cfg, nil
}

// loadManifest reads the manifest and applies the --strict flag when it was set.
func loadManifest(path string, strict *bool) (*manifest.Manifest, error) {
	m, err := manifest.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading manifest: %w", err)
	}
	if strict != nil {
		m.StrictValidation = strict
	}
	return m, nil
}

// warnings returns the warning annotations attached anywhere under root,
// keyed by construct path.
func warnings(root constructs.IConstruct) []string {
	var out []string
	for _, c := range *root.Node().FindAll(constructs.ConstructOrder_PREORDER) {
		for _, entry := range *c.Node().Metadata() {
			if entry.Type == nil || *entry.Type != "aws:cdk:warning" {
				continue
			}
			out = append(out, fmt.Sprintf("%s: %v", *c.Node().Path(), entry.Data))
		}
	}
	return out
}

// ParseLogLevel maps a --log-level value to a slog level.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// NewLogger returns the CLI logger. Logs go to stderr so command output
// stays parseable.
func NewLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
