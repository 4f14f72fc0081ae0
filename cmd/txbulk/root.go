package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var logLevelFlag string

	ctx := newCommandContext(&configFlag, &logLevelFlag)

	rootCmd := &cobra.Command{
		Use:           "txbulk",
		Short:         "Bulk downloader for Transifex organizations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newSyncCommand(ctx))
	rootCmd.AddCommand(newDiscoverCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newReportCommand(ctx))
	rootCmd.AddCommand(newRunsCommand(ctx))
	rootCmd.AddCommand(newTMXCommand(ctx))
	rootCmd.AddCommand(newStatusCommand(ctx))

	return rootCmd
}
