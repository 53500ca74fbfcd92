package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dwsmith1983/gluetrigger/internal/observe"
)

type eventsOptions struct {
	region   string
	logGroup string
	since    time.Duration
	limit    int
	asJSON   bool
}

func newEventsCmd(g *globals) *cobra.Command {
	var o eventsOptions

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show Glue state changes recorded by the state observer",
		Long: `Reads the state observer's CloudWatch log group and prints the job,
crawler and trigger state changes it recorded. The log group is derived from
the manifest's stack name unless --log-group is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			return runEvents(ctx, cmd, g, o)
		},
	}

	cmd.Flags().StringVar(&o.region, "region", "", "region to query (defaults to the manifest, then the AWS config)")
	cmd.Flags().StringVar(&o.logGroup, "log-group", "", "log group to read instead of the observer's")
	cmd.Flags().DurationVar(&o.since, "since", time.Hour, "how far back to read")
	cmd.Flags().IntVar(&o.limit, "limit", 50, "maximum number of changes to print; 0 prints all")
	cmd.Flags().BoolVar(&o.asJSON, "json", false, "print the changes as JSON")
	return cmd
}

func runEvents(ctx context.Context, cmd *cobra.Command, g *globals, o eventsOptions) error {
	group, region := o.logGroup, o.region
	if group == "" {
		m, err := loadManifest(g.manifestPath, nil)
		if err != nil {
			return err
		}
		group = observe.ObserverLogGroup(m.Stack.Name)
		region = firstNonEmpty(region, m.Stack.Region)
	}
	if o.since <= 0 {
		return fmt.Errorf("--since must be positive, got %s", o.since)
	}

	client, err := newLogsClient(ctx, region)
	if err != nil {
		return err
	}
	changes, err := observe.NewLogReader(client, g.logger).Recent(ctx, group, time.Now().Add(-o.since), o.limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if o.asJSON {
		if changes == nil {
			changes = []observe.LoggedChange{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(changes)
	}

	if len(changes) == 0 {
		fmt.Fprintf(out, "No state changes in %s during the last %s.\n", group, o.since)
		return nil
	}
	bold := color.New(color.Bold)
	_, _ = bold.Fprintf(out, "State changes in %s:\n", group)
	for _, c := range changes {
		state := c.State
		if c.Failed() {
			state = color.RedString(state)
		}
		fmt.Fprintf(out, "  %s  %-8s %-30s %s", c.Time.Format(time.RFC3339), c.Kind, c.Name, state)
		if c.RunID != "" {
			fmt.Fprintf(out, "  (%s)", c.RunID)
		}
		fmt.Fprintln(out)
		if c.Message != "" {
			fmt.Fprintf(out, "    %s\n", c.Message)
		}
	}
	return nil
}
