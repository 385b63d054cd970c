package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/forecast-cli/internal/pipeline"
	"github.com/sells-group/forecast-cli/internal/store"
)

var runManifestPath string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a full forecast run from a manifest",
	Long: `Runs every stage end to end: aggregation under each attribution
scheme, extension under each growth source, the methodology comparison,
and occupation allocation with validation. Outputs are written only
after every stage has succeeded.

Example:
  forecast-cli run --manifest run.yaml`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		manifest, err := pipeline.LoadManifest(runManifestPath)
		if err != nil {
			return err
		}

		runner := &pipeline.Runner{Cfg: cfg, Manifest: manifest}
		res, err := runner.Run(ctx)
		if err != nil {
			return err
		}
		if err := runner.Write(res); err != nil {
			return err
		}

		if cfg.Output.SQLitePath != "" {
			if err := store.Export(ctx, cfg.Output.SQLitePath, res); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runManifestPath, "manifest", "run.yaml", "run manifest path")
	rootCmd.AddCommand(runCmd)
}
