package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/dwsmith1983/gluetrigger/internal/manifest"
	"github.com/dwsmith1983/gluetrigger/internal/metrics"
)

// globals are the flags shared by every subcommand.
type globals struct {
	manifestPath string
	logLevel     string
	strict       bool
	logger       *slog.Logger
	telemetry    *metrics.Providers
}

// strictOverride returns the --strict value when the flag was given.
func (g *globals) strictOverride(cmd *cobra.Command) *bool {
	if !cmd.Flags().Changed("strict") {
		return nil
	}
	v := g.strict
	return &v
}

// NewRootCmd creates the gluetrigger command tree.
func NewRootCmd(version string) *cobra.Command {
	g := &globals{logger: slog.Default()}

	root := &cobra.Command{
		Use:   "gluetrigger",
		Short: "Declare, synthesize and inspect AWS Glue triggers",
		Long: `gluetrigger turns a YAML manifest of Glue triggers, jobs, connections and
security configurations into a CloudFormation stack, and reports the live
state of the deployed triggers.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := ParseLogLevel(g.logLevel)
			if err != nil {
				return err
			}
			g.logger = NewLogger(level)
			slog.SetDefault(g.logger)

			g.telemetry, err = metrics.Setup(cmd.Context(), "gluetrigger")
			if err != nil {
				return err
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if g.telemetry == nil {
				return nil
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := g.telemetry.Shutdown(ctx); err != nil {
				g.logger.Warn("flushing telemetry", "error", err)
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&g.manifestPath, "manifest", "m", manifest.DefaultFile, "manifest file or directory containing "+manifest.DefaultFile)
	flags.StringVar(&g.logLevel, "log-level", envOr("LOG_LEVEL", "warn"), "log level: debug, info, warn or error")
	flags.BoolVar(&g.strict, "strict", false, "treat convention warnings as errors (overrides the manifest default; a trigger's own strictValidation still wins)")

	root.AddCommand(
		newInitCmd(g),
		newValidateCmd(g),
		newSynthCmd(g),
		newDescribeCmd(g),
		newStatusCmd(g),
		newEventsCmd(g),
	)
	return root
}
