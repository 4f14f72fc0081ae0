package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"txbulk/internal/config"
	"txbulk/internal/report"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "report [dir]",
		Short: "Scan a download directory and print a summary",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := ""
			if len(args) == 1 {
				expanded, err := config.ExpandPath(args[0])
				if err != nil {
					return err
				}
				root = expanded
			} else {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				root = cfg.Paths.OutputDir
			}

			summary, err := report.Scan(root, 0)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, summary)
			}
			fmt.Fprint(cmd.OutOrStdout(), summary.Render())
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the summary as JSON")
	return cmd
}
