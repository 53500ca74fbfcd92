package commands

import (
	"fmt"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dwsmith1983/gluetrigger/internal/stack"
)

func newValidateCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the manifest's declarations without writing a cloud assembly",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, g)
		},
	}
}

func runValidate(cmd *cobra.Command, g *globals) error {
	out := cmd.OutOrStdout()
	m, err := loadManifest(g.manifestPath, g.strictOverride(cmd))
	if err != nil {
		return err
	}

	app := awscdk.NewApp(nil)
	res, err := stack.New(app, m.Stack.Name, m)
	if err != nil {
		_, _ = color.New(color.FgRed).Fprintln(out, "✗ declarations are invalid")
		return err
	}

	warns := warnings(res.Stack)
	for _, w := range warns {
		_, _ = color.New(color.FgYellow).Fprintf(out, "  ! %s\n", w)
	}
	g.logger.Info("manifest validated", "stack", m.Stack.Name, "triggers", len(res.Triggers), "warnings", len(warns))
	_, _ = color.New(color.FgGreen).Fprintf(out, "✓ %d trigger(s), %d job(s) valid", len(res.Triggers), len(res.Jobs))
	if len(warns) > 0 {
		fmt.Fprintf(out, " with %d warning(s)", len(warns))
	}
	fmt.Fprintln(out)
	return nil
}
