package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"txbulk/internal/config"
	"txbulk/internal/pull"
	"txbulk/internal/txconfig"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand(ctx))
	configCmd.AddCommand(newConfigPathCommand(ctx))
	configCmd.AddCommand(newConfigGenerateCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			if overwrite {
				if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("remove existing config: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Edit the file to set selection.organization, then export TX_TOKEN (the token is not stored unless you write it into the file yourself).")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			rows := [][]string{
				{"api.base_url", cfg.API.BaseURL},
				{"api.token", maskToken(cfg.API.Token)},
				{"api.requests_per_second", fmt.Sprintf("%.1f", cfg.API.RequestsPerSecond)},
				{"selection.organization", cfg.Selection.Organization},
				{"selection.projects", strings.Join(cfg.Selection.Projects, ", ")},
				{"selection.languages", strings.Join(cfg.Selection.Languages, ", ")},
				{"download.mode", cfg.Download.Mode},
				{"download.translation_mode", cfg.Download.TranslationMode},
				{"download.workers", fmt.Sprintf("%d", cfg.Download.Workers)},
				{"download.skip_on_error", yesNo(cfg.Download.SkipOnError)},
				{"download.skip_existing_files", yesNo(cfg.Download.SkipExistingFiles)},
				{"download.file_filter", cfg.Download.FileFilter},
				{"paths.output_dir", cfg.Paths.OutputDir},
				{"paths.history_dir", cfg.Paths.HistoryDir},
				{"logging.format", cfg.Logging.Format},
				{"logging.level", cfg.Logging.Level},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Setting", "Value"}, rows))
			return nil
		},
	}
}

func newConfigPathCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the resolved configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ctx.configPath)
			return nil
		},
	}
}

// newConfigGenerateCommand drives tx add remote itself instead of the
// reconciler, letting tx lay out the config for projects whose resource
// shapes the API view does not capture.
func newConfigGenerateCommand(ctx *commandContext) *cobra.Command {
	var projects []string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate .tx/config via tx add remote for each project",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if len(projects) == 0 {
				projects = cfg.Selection.Projects
			}
			if len(projects) == 0 {
				return fmt.Errorf("no projects given; pass --projects or set selection.projects")
			}

			opts, err := pull.NewOptions(cfg.Download, cfg.Selection.Languages)
			if err != nil {
				return err
			}

			orchestrator := pull.New(cfg.TxBinary(), cfg.Paths.OutputDir, cfg.API.Token, ctx.ensureLogger())
			result, err := orchestrator.AddRemote(cmd.Context(), cfg.Selection.Organization, projects, cfg.Download.FileFilter, opts)
			if result != nil {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Registered %d projects (%d resources)\n", result.Added, result.Resources)
				for project, detail := range result.Failures {
					fmt.Fprintf(cmd.ErrOrStderr(), "Failed: %s: %s\n", project, detail)
				}
			}
			if err != nil {
				return err
			}

			configPath := filepath.Join(cfg.Paths.OutputDir, ".tx", "config")
			if fixed, err := txconfig.FixQuotes(configPath); err != nil {
				return err
			} else if fixed {
				fmt.Fprintln(cmd.OutOrStdout(), "Repaired quote characters in the generated config")
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&projects, "projects", nil, "Projects to register (defaults to selection.projects)")
	return cmd
}

func maskToken(token string) string {
	if token == "" {
		return "(unset)"
	}
	if len(token) <= 8 {
		return "********"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
