package commands

import (
	"fmt"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dwsmith1983/gluetrigger/internal/stack"
)

type synthOptions struct {
	outDir       string
	observerCode string
	alertTopic   string
	logRetention float64
}

func newSynthCmd(g *globals) *cobra.Command {
	var o synthOptions

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Synthesize the manifest into a cloud assembly",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSynth(cmd, g, o)
		},
	}

	cmd.Flags().StringVarP(&o.outDir, "out", "o", "cdk.out", "cloud assembly output directory")
	cmd.Flags().StringVar(&o.observerCode, "observer", "", "directory holding the state-observer bootstrap; omitted when empty")
	cmd.Flags().StringVar(&o.alertTopic, "alert-topic", "", "SNS topic name for monitoring rules (overrides the manifest)")
	cmd.Flags().Float64Var(&o.logRetention, "log-retention", 7, "observer log retention in days")
	return cmd
}

func runSynth(cmd *cobra.Command, g *globals, o synthOptions) error {
	out := cmd.OutOrStdout()
	m, err := loadManifest(g.manifestPath, g.strictOverride(cmd))
	if err != nil {
		return err
	}

	opts := []stack.Option{stack.WithLogRetention(o.logRetention)}
	if o.observerCode != "" {
		opts = append(opts, stack.WithObserver(o.observerCode))
	}
	if o.alertTopic != "" {
		opts = append(opts, stack.WithAlertTopic(o.alertTopic))
	}

	app := awscdk.NewApp(&awscdk.AppProps{Outdir: jsii.String(o.outDir)})
	res, err := stack.New(app, m.Stack.Name, m, opts...)
	if err != nil {
		return err
	}

	assembly := app.Synth(nil)
	artifact := assembly.GetStackArtifact(res.Stack.ArtifactId())
	g.logger.Info("synthesized", "stack", m.Stack.Name, "assembly", *assembly.Directory())

	_, _ = color.New(color.Bold).Fprintf(out, "Synthesized %s\n", m.Stack.Name)
	fmt.Fprintf(out, "  Assembly: %s\n", *assembly.Directory())
	fmt.Fprintf(out, "  Template: %s\n", *artifact.TemplateFullPath())
	for _, w := range warnings(res.Stack) {
		_, _ = color.New(color.FgYellow).Fprintf(out, "  ! %s\n", w)
	}
	return nil
}
