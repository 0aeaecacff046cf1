package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/clawfarm/internal/adapters/render/report"
	"github.com/bnema/clawfarm/internal/adapters/state"
)

func newStatusCmd(app *app) *cobra.Command {
	var (
		file   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the last persisted fleet snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := file
			if path == "" {
				path = app.cfg.StatsFile
			}

			snap, err := state.ReadStats(path)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(snap)
			}

			rendered, err := report.Render(snap)
			if err != nil {
				return fmt.Errorf("render fleet report: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "stats file to read (defaults to the configured stats_file)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the raw JSON snapshot")

	return cmd
}
