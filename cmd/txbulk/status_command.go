package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"txbulk/internal/preflight"
	"txbulk/internal/services"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Run preflight checks and report readiness",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			var checker preflight.TokenChecker
			api, clientErr := ctx.apiClient()
			if clientErr == nil {
				checker = api
			}
			checks := preflight.RunAll(cmd.Context(), cfg, checker)
			if clientErr != nil {
				detail := clientErr.Error()
				if errors.Is(clientErr, services.ErrAuth) {
					detail = "no API token configured (set api.token or export TX_TOKEN)"
				}
				checks = append(checks, preflight.Result{Name: "API token", Detail: detail})
			}

			if jsonOut {
				return writeJSON(cmd, checks)
			}
			printChecks(cmd, checks)
			if !preflight.Passed(checks) {
				return fmt.Errorf("not ready")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Ready")
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit check results as JSON")
	return cmd
}
