package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"txbulk/internal/runs"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect past download runs",
	}
	runsCmd.AddCommand(newRunsListCommand(ctx))
	runsCmd.AddCommand(newRunsShowCommand(ctx))
	return runsCmd
}

func newRunsListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunStore(ctx, func(store *runs.Store) error {
				all, err := store.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, all)
				}

				rows := make([][]string, 0, len(all))
				for _, run := range all {
					rows = append(rows, []string{
						run.ID,
						run.StartedAt.Local().Format("2006-01-02 15:04"),
						run.Organization,
						run.Mode,
						fmt.Sprintf("%d/%d/%d", run.Succeeded, run.Failed, run.Skipped),
						humanize.Bytes(uint64(run.Bytes)),
						run.Status,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Run", "Started", "Org", "Mode", "OK/Fail/Skip", "Size", "Status"},
					rows, 4, 5))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit runs as JSON")
	return cmd
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunStore(ctx, func(store *runs.Store) error {
				run, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, run)
				}

				out := cmd.OutOrStdout()
				rows := [][]string{
					{"Run", run.ID},
					{"Started", run.StartedAt.Local().Format(time.RFC1123)},
					{"Duration", run.Duration().Round(time.Second).String()},
					{"Organization", run.Organization},
					{"Mode", run.Mode},
					{"Succeeded", fmt.Sprintf("%d", run.Succeeded)},
					{"Failed", fmt.Sprintf("%d", run.Failed)},
					{"Skipped", fmt.Sprintf("%d", run.Skipped)},
					{"Files", humanize.Comma(int64(run.Files))},
					{"Size", humanize.Bytes(uint64(run.Bytes))},
					{"Status", run.Status},
					{"Report", run.ReportPath},
				}
				fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows))
				for _, key := range run.FailedKeys {
					fmt.Fprintf(out, "Failed: %s\n", key)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the run as JSON")
	return cmd
}

func withRunStore(ctx *commandContext, fn func(*runs.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	store, err := runs.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}
