package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"txbulk/internal/catalog"
	"txbulk/internal/config"
	"txbulk/internal/preflight"
	"txbulk/internal/prompt"
	"txbulk/internal/pull"
	"txbulk/internal/report"
	"txbulk/internal/runs"
	"txbulk/internal/services"
	"txbulk/internal/txconfig"
)

type syncFlags struct {
	org             string
	projects        []string
	languages       []string
	mode            string
	translationMode string
	minimumPerc     int
	workers         int
	skipOnError     bool
	force           bool
	fresh           bool
	reuse           bool
	yes             bool
	outDir          string
	jsonOut         bool
}

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var flags syncFlags

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Discover, reconcile, and download everything in one pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, ctx, flags)
		},
	}

	cmd.Flags().StringVar(&flags.org, "org", "", "Organization slug (overrides config)")
	cmd.Flags().StringSliceVar(&flags.projects, "projects", nil, "Restrict to these project slugs")
	cmd.Flags().StringSliceVar(&flags.languages, "languages", nil, "Restrict translations to these language codes")
	cmd.Flags().StringVar(&flags.mode, "mode", "", "What to download: source, translations, or both")
	cmd.Flags().StringVar(&flags.translationMode, "translation-mode", "", "Translation selection mode passed to tx")
	cmd.Flags().IntVar(&flags.minimumPerc, "minimum-perc", -1, "Minimum translated percentage")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "Parallel download workers (capped at 30)")
	cmd.Flags().BoolVar(&flags.skipOnError, "skip", true, "Record failures and keep downloading")
	cmd.Flags().BoolVar(&flags.force, "force", false, "Re-download files that already exist")
	cmd.Flags().BoolVar(&flags.fresh, "fresh", false, "Regenerate the tx config from scratch")
	cmd.Flags().BoolVar(&flags.reuse, "reuse", false, "Reuse the existing tx config unchanged")
	cmd.Flags().BoolVarP(&flags.yes, "yes", "y", false, "Accept defaults instead of prompting")
	cmd.Flags().StringVar(&flags.outDir, "out", "", "Output directory (overrides config)")
	cmd.Flags().BoolVar(&flags.jsonOut, "json", false, "Emit the run summary as JSON")

	return cmd
}

func runSync(cmd *cobra.Command, ctx *commandContext, flags syncFlags) error {
	if flags.fresh && flags.reuse {
		return errors.New("--fresh and --reuse are mutually exclusive")
	}

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	applySyncOverrides(cfg, cmd, flags)

	if err := catalog.ValidateLanguageCodes(cfg.Selection.Languages); err != nil {
		return err
	}
	opts, err := pull.NewOptions(cfg.Download, cfg.Selection.Languages)
	if err != nil {
		return err
	}

	logger := ctx.ensureLogger()
	api, err := ctx.apiClient()
	if err != nil {
		return err
	}

	// Preflight before anything touches the network in volume.
	checks := preflight.RunAll(cmd.Context(), cfg, api)
	if !preflight.Passed(checks) {
		printChecks(cmd, checks)
		return errors.New("preflight failed; fix the issues above and retry")
	}

	discovery, err := catalog.Discover(cmd.Context(), api, cfg.Selection.Organization, cfg.Selection.Projects, logger)
	if err != nil {
		return err
	}
	reportMissingProjects(cmd, discovery)

	configPath := filepath.Join(cfg.Paths.OutputDir, ".tx", "config")
	existing, mode, err := resolveConfigMode(cmd, flags, configPath)
	if err != nil {
		return err
	}

	reconciled, err := txconfig.Reconcile(existing, discovery.Records, mode, txconfig.BuildOptions{
		OrgSlug:    cfg.Selection.Organization,
		FileFilter: cfg.Download.FileFilter,
	})
	if err != nil {
		return err
	}
	if mode != txconfig.ModeReuse {
		if err := txconfig.Write(configPath, reconciled.File); err != nil {
			return err
		}
		if _, err := txconfig.FixQuotes(configPath); err != nil {
			return err
		}
	}
	if len(reconciled.AbsentKeys) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Note: %d discovered resources are not in the reused config\n", len(reconciled.AbsentKeys))
	}

	orchestrator := pull.New(cfg.TxBinary(), cfg.Paths.OutputDir, cfg.API.Token, logger)
	if !flags.jsonOut && prompt.IsInteractive(os.Stderr) {
		orchestrator.Progress = cmd.ErrOrStderr()
	}

	runReport, runErr := orchestrator.Run(cmd.Context(), reconciled.File.Entries, opts)
	if runReport == nil {
		return runErr
	}

	summary, scanErr := report.Scan(cfg.Paths.OutputDir, 0)
	if scanErr != nil {
		logger.Warn("output scan failed", "error", scanErr)
		summary = nil
	}

	reportPath := persistRun(cmd, ctx, cfg.Selection.Organization, string(opts.Mode), runReport, summary)

	if flags.jsonOut {
		if err := writeJSON(cmd, syncSummary(runReport, summary, reportPath)); err != nil {
			return err
		}
	} else {
		printSyncSummary(cmd, runReport, summary, reportPath)
	}

	if runErr != nil {
		return runErr
	}
	if !runReport.Success() {
		return fmt.Errorf("download run failed: %d succeeded, %d failed, %d skipped",
			runReport.Succeeded(), runReport.Failed(), runReport.Skipped())
	}
	return nil
}

// applySyncOverrides folds explicitly-set flags over the loaded config. Only
// changed flags override; defaults never clobber file values.
func applySyncOverrides(cfg *config.Config, cmd *cobra.Command, flags syncFlags) {
	set := cmd.Flags().Changed
	if flags.org != "" {
		cfg.Selection.Organization = flags.org
	}
	if set("projects") {
		cfg.Selection.Projects = flags.projects
	}
	if set("languages") {
		cfg.Selection.Languages = flags.languages
	}
	if set("mode") {
		cfg.Download.Mode = flags.mode
	}
	if set("translation-mode") {
		cfg.Download.TranslationMode = flags.translationMode
	}
	if set("minimum-perc") {
		cfg.Download.MinimumPerc = flags.minimumPerc
	}
	if set("workers") {
		cfg.Download.Workers = flags.workers
	}
	if set("skip") {
		cfg.Download.SkipOnError = flags.skipOnError
	}
	if set("force") {
		cfg.Download.ForceDownload = flags.force
	}
	if flags.outDir != "" {
		cfg.Paths.OutputDir = flags.outDir
	}
}

// resolveConfigMode loads any existing tx config and decides how to treat it.
// Corrupt configs abort unless the user already chose --fresh; rebuilding is
// never a silent decision, and the writer backs the old file up first.
func resolveConfigMode(cmd *cobra.Command, flags syncFlags, configPath string) (*txconfig.File, txconfig.Mode, error) {
	existing, err := txconfig.Parse(configPath)
	hasExisting := err == nil
	if err != nil && !errors.Is(err, txconfig.ErrNotExist) {
		if !flags.fresh || !errors.Is(err, services.ErrConfigCorrupt) {
			return nil, "", err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: existing config is unreadable and will be rebuilt: %v\n", err)
		existing = nil
	}

	explicit := ""
	switch {
	case flags.fresh:
		explicit = "fresh"
	case flags.reuse:
		explicit = "reuse"
	}

	mode, ask, err := prompt.Decide(hasExisting, explicit, flags.yes, prompt.IsInteractive(os.Stdin))
	if err != nil {
		return nil, "", err
	}
	if ask {
		mode, err = prompt.Ask(cmd.InOrStdin(), cmd.ErrOrStderr())
		if err != nil {
			return nil, "", err
		}
	}
	return existing, mode, nil
}

// persistRun saves the plain-text report and the history row. Neither failure
// aborts the command; the download already happened.
func persistRun(cmd *cobra.Command, ctx *commandContext, org, mode string, runReport *pull.Report, summary *report.Summary) string {
	cfg, _ := ctx.ensureConfig()
	logger := ctx.ensureLogger()

	reportPath := ""
	content := report.Compose(runReport, summary)
	if path, err := report.Save(cfg.Paths.HistoryDir, runReport.RunID, content); err != nil {
		logger.Warn("saving report failed", "error", err)
	} else {
		reportPath = path
	}

	store, err := runs.Open(cfg)
	if err != nil {
		logger.Warn("opening run history failed", "error", err)
		return reportPath
	}
	defer store.Close()

	run := runs.Run{
		ID:           runReport.RunID,
		StartedAt:    runReport.StartedAt,
		FinishedAt:   runReport.FinishedAt,
		Organization: org,
		Mode:         mode,
		Succeeded:    runReport.Succeeded(),
		Failed:       runReport.Failed(),
		Skipped:      runReport.Skipped(),
		Status:       runs.StatusFailure,
		FailedKeys:   runReport.FailedKeys(),
		ReportPath:   reportPath,
	}
	if runReport.Success() {
		run.Status = runs.StatusSuccess
	}
	if summary != nil {
		run.Files = summary.Files
		run.Bytes = summary.Bytes
	}
	if err := store.Record(cmd.Context(), run); err != nil {
		logger.Warn("recording run failed", "error", err)
	}
	return reportPath
}

type syncSummaryJSON struct {
	RunID      string   `json:"run_id"`
	Succeeded  int      `json:"succeeded"`
	Failed     int      `json:"failed"`
	Skipped    int      `json:"skipped"`
	Aborted    bool     `json:"aborted"`
	Success    bool     `json:"success"`
	Duration   string   `json:"duration"`
	FailedKeys []string `json:"failed_keys,omitempty"`
	Files      int      `json:"files,omitempty"`
	Bytes      int64    `json:"bytes,omitempty"`
	ReportPath string   `json:"report_path,omitempty"`
}

func syncSummary(runReport *pull.Report, summary *report.Summary, reportPath string) syncSummaryJSON {
	out := syncSummaryJSON{
		RunID:      runReport.RunID,
		Succeeded:  runReport.Succeeded(),
		Failed:     runReport.Failed(),
		Skipped:    runReport.Skipped(),
		Aborted:    runReport.Aborted,
		Success:    runReport.Success(),
		Duration:   runReport.Duration().Round(time.Millisecond).String(),
		FailedKeys: runReport.FailedKeys(),
		ReportPath: reportPath,
	}
	if summary != nil {
		out.Files = summary.Files
		out.Bytes = summary.Bytes
	}
	return out
}

func printSyncSummary(cmd *cobra.Command, runReport *pull.Report, summary *report.Summary, reportPath string) {
	out := cmd.OutOrStdout()
	rows := [][]string{
		{"Run", runReport.RunID},
		{"Succeeded", fmt.Sprintf("%d", runReport.Succeeded())},
		{"Failed", fmt.Sprintf("%d", runReport.Failed())},
		{"Skipped", fmt.Sprintf("%d", runReport.Skipped())},
		{"Duration", runReport.Duration().Round(time.Second).String()},
	}
	fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows))
	if summary != nil {
		fmt.Fprint(out, summary.Render())
	}
	if reportPath != "" {
		fmt.Fprintf(out, "Report: %s\n", reportPath)
	}
	for _, key := range runReport.FailedKeys() {
		fmt.Fprintf(out, "Failed: %s\n", key)
	}
}

func reportMissingProjects(cmd *cobra.Command, discovery *catalog.Result) {
	for _, slug := range discovery.MissingProjects {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: project %q not found in the organization\n", slug)
	}
}

func printChecks(cmd *cobra.Command, checks []preflight.Result) {
	rows := make([][]string, 0, len(checks))
	for _, check := range checks {
		rows = append(rows, []string{check.Name, yesNo(check.Passed), check.Detail})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Check", "OK", "Detail"}, rows))
}
