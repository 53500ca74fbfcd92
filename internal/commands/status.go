package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dwsmith1983/gluetrigger/internal/manifest"
	"github.com/dwsmith1983/gluetrigger/internal/status"
	"github.com/dwsmith1983/gluetrigger/pkg/glue"
)

type statusOptions struct {
	region      string
	concurrency int
	asJSON      bool
	failFast    bool
}

func newStatusCmd(g *globals) *cobra.Command {
	var o statusOptions

	cmd := &cobra.Command{
		Use:   "status [trigger-name...]",
		Short: "Show the live state of deployed triggers",
		Long: `Reads each trigger from Glue. Without arguments every trigger in the
manifest that has an explicit name is checked.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			return runStatus(ctx, cmd, g, o, args)
		},
	}

	cmd.Flags().StringVar(&o.region, "region", "", "region to query (defaults to the manifest, then the AWS config)")
	cmd.Flags().IntVar(&o.concurrency, "concurrency", 4, "maximum GetTrigger calls in flight")
	cmd.Flags().BoolVar(&o.asJSON, "json", false, "print the report as JSON")
	cmd.Flags().BoolVar(&o.failFast, "check", false, "exit non-zero unless every trigger exists and is active")
	return cmd
}

func runStatus(ctx context.Context, cmd *cobra.Command, g *globals, o statusOptions, names []string) error {
	region := o.region
	if len(names) == 0 {
		m, err := loadManifest(g.manifestPath, nil)
		if err != nil {
			return err
		}
		names = manifestTriggerNames(m)
		region = firstNonEmpty(region, m.Stack.Region)
	}
	if len(names) == 0 {
		return fmt.Errorf("no trigger names: pass them as arguments or set name on manifest triggers")
	}

	poller, err := newPoller(region, o.concurrency, g.logger)
	if err != nil {
		return fmt.Errorf("creating poller: %w", err)
	}
	report, checkErr := poller.Check(ctx, names)
	if report == nil {
		return checkErr
	}

	out := cmd.OutOrStdout()
	if o.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		printReport(cmd, report)
	}

	if checkErr != nil {
		return checkErr
	}
	if o.failFast && !report.Healthy() {
		return fmt.Errorf("%d trigger(s) missing, %d inactive", len(report.NotFound), len(report.Inactive()))
	}
	return nil
}

// manifestTriggerNames returns the explicit names of the manifest's
// triggers. Generated names are only known after deployment.
func manifestTriggerNames(m *manifest.Manifest) []string {
	var names []string
	for _, t := range m.Triggers {
		if t.Name != "" {
			names = append(names, t.Name)
		}
	}
	return names
}

func printReport(cmd *cobra.Command, r *status.Report) {
	out := cmd.OutOrStdout()
	bold := color.New(color.Bold)
	_, _ = bold.Fprintf(out, "Trigger status (report %s, %s):\n", r.ID, r.CheckedAt.Format(time.RFC3339))
	fmt.Fprintln(out)

	for _, s := range r.Triggers {
		fmt.Fprintf(out, "  %-30s %-12s %s\n", s.Name, s.Type, stateString(s))
		if s.Schedule != "" {
			fmt.Fprintf(out, "    schedule: %s\n", s.Schedule)
		}
		for _, j := range s.Jobs {
			fmt.Fprintf(out, "    job:      %s\n", j)
		}
		for _, c := range s.Crawlers {
			fmt.Fprintf(out, "    crawler:  %s\n", c)
		}
	}
	for _, name := range r.NotFound {
		fmt.Fprintf(out, "  %-30s %-12s %s\n", name, "-", color.RedString("NOT FOUND"))
	}
	fmt.Fprintln(out)
}

func stateString(s status.TriggerStatus) string {
	state := string(s.State)
	switch {
	case s.Active():
		return color.GreenString(state)
	case s.Transitioning():
		return color.CyanString(state)
	case s.Type == glue.TriggerOnDemand && s.State == glue.TriggerCreated:
		return state
	default:
		return color.YellowString(state)
	}
}
