package main

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"txbulk/internal/catalog"
	"txbulk/internal/tmx"
)

func newTMXCommand(ctx *commandContext) *cobra.Command {
	var projects []string
	var languages []string
	var outDir string
	var workers int

	cmd := &cobra.Command{
		Use:   "tmx",
		Short: "Export translation memory files per project and language",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if len(projects) == 0 {
				projects = cfg.Selection.Projects
			}
			if len(languages) == 0 {
				languages = cfg.Selection.Languages
			}
			if err := catalog.ValidateLanguageCodes(languages); err != nil {
				return err
			}
			if outDir == "" {
				outDir = filepath.Join(cfg.Paths.OutputDir, "tmx")
			}
			if workers <= 0 {
				workers = cfg.Download.Workers
			}

			api, err := ctx.apiClient()
			if err != nil {
				return err
			}
			logger := ctx.ensureLogger()

			// Fall back to discovery when the selection leaves projects or
			// languages open.
			if len(projects) == 0 || len(languages) == 0 {
				discovery, err := catalog.Discover(cmd.Context(), api, cfg.Selection.Organization, projects, logger)
				if err != nil {
					return err
				}
				reportMissingProjects(cmd, discovery)
				if len(projects) == 0 {
					projects = projectSlugs(discovery)
				}
				if len(languages) == 0 {
					languages = targetLanguages(discovery)
				}
			}

			exporter := &tmx.Exporter{
				API:         api,
				OrgSlug:     cfg.Selection.Organization,
				DestDir:     outDir,
				Logger:      logger,
				SkipOnError: cfg.Download.SkipOnError,
			}
			result, err := exporter.Export(cmd.Context(), tmx.Jobs(projects, languages), workers)
			if result != nil {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Exported %d translation memories to %s (%d failed, %d skipped)\n",
					result.Succeeded(), outDir, result.Failed(), result.Skipped())
				for _, outcome := range result.Outcomes {
					if !outcome.Passed && !outcome.Skipped {
						fmt.Fprintf(cmd.ErrOrStderr(), "Failed: %s %s: %s\n",
							outcome.Job.ProjectSlug, outcome.Job.Language, outcome.Err)
					}
				}
			}
			if err != nil {
				return err
			}
			if result.Aborted {
				return fmt.Errorf("export aborted after a failure (%d skipped)", result.Skipped())
			}
			if result.Succeeded() == 0 {
				return fmt.Errorf("all %d exports failed", result.Failed())
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&projects, "projects", nil, "Projects to export (defaults to selection, then discovery)")
	cmd.Flags().StringSliceVar(&languages, "languages", nil, "Languages to export (defaults to selection, then discovery)")
	cmd.Flags().StringVar(&outDir, "out", "", "Destination directory (default <output_dir>/tmx)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Parallel exports (capped at 30)")
	return cmd
}

func projectSlugs(discovery *catalog.Result) []string {
	seen := map[string]bool{}
	var slugs []string
	for _, record := range discovery.Records {
		if !seen[record.ProjectSlug] {
			seen[record.ProjectSlug] = true
			slugs = append(slugs, record.ProjectSlug)
		}
	}
	sort.Strings(slugs)
	return slugs
}

func targetLanguages(discovery *catalog.Result) []string {
	seen := map[string]bool{}
	var codes []string
	for _, record := range discovery.Records {
		for _, code := range record.TargetLanguages {
			if !seen[code] {
				seen[code] = true
				codes = append(codes, code)
			}
		}
	}
	sort.Strings(codes)
	return codes
}
