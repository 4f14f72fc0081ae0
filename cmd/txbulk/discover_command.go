package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"txbulk/internal/catalog"
)

func newDiscoverCommand(ctx *commandContext) *cobra.Command {
	var org string
	var projects []string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "List every project and resource in the organization",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if org == "" {
				org = cfg.Selection.Organization
			}
			if len(projects) == 0 {
				projects = cfg.Selection.Projects
			}

			api, err := ctx.apiClient()
			if err != nil {
				return err
			}

			discovery, err := catalog.Discover(cmd.Context(), api, org, projects, ctx.ensureLogger())
			if err != nil {
				return err
			}
			reportMissingProjects(cmd, discovery)

			if jsonOut {
				return writeJSON(cmd, discovery)
			}

			rows := make([][]string, 0, len(discovery.Records))
			for _, record := range discovery.Records {
				rows = append(rows, []string{
					record.ProjectSlug,
					record.ResourceSlug,
					record.SourceLanguage,
					summarizeLanguages(record.TargetLanguages),
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"Project", "Resource", "Source", "Targets"}, rows))
			fmt.Fprintf(out, "%d resources across %d projects\n", len(discovery.Records), discovery.Projects)
			return nil
		},
	}

	cmd.Flags().StringVar(&org, "org", "", "Organization slug (overrides config)")
	cmd.Flags().StringSliceVar(&projects, "projects", nil, "Restrict to these project slugs")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the catalog as JSON")
	return cmd
}

// summarizeLanguages keeps the table readable for projects with dozens of
// target languages.
func summarizeLanguages(codes []string) string {
	const maxShown = 6
	if len(codes) <= maxShown {
		return strings.Join(codes, ", ")
	}
	return fmt.Sprintf("%s, +%d more", strings.Join(codes[:maxShown], ", "), len(codes)-maxShown)
}
