package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dwsmith1983/gluetrigger/internal/manifest"
)

const starterManifest = `stack:
  name: %s
jobs:
  - id: Extract
    name: %s-extract
    command: glueetl
    scriptLocation: s3://CHANGE-ME/scripts/extract.py
    glueVersion: "4.0"
    workerType: G.1X
    numberOfWorkers: 2
triggers:
  - id: Nightly
    name: %s-nightly
    type: SCHEDULED
    schedule: cron(0 2 * * ? *)
    startOnCreation: true
    actions:
      - job: Extract
    monitor: [success, failure, timeout]
`

func newInitCmd(g *globals) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [project-name]",
		Short: "Write a starter manifest",
		Long:  "Creates project-name/" + manifest.DefaultFile + " with one scheduled trigger starting one job.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, args[0], force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing manifest")
	return cmd
}

func runInit(cmd *cobra.Command, projectName string, force bool) error {
	out := cmd.OutOrStdout()
	if err := os.MkdirAll(projectName, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", projectName, err)
	}

	path := filepath.Join(projectName, manifest.DefaultFile)
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", path, err)
	}

	name := filepath.Base(projectName)
	content := fmt.Sprintf(starterManifest, name, name, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}

	_, _ = color.New(color.Bold).Fprintf(out, "Initialized %s\n", path)
	fmt.Fprintln(out, "  Edit scriptLocation, then run: gluetrigger validate -m", path)
	return nil
}
