package pull

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"txbulk/internal/logging"
	"txbulk/internal/services"
	"txbulk/internal/textutil"
)

// AddRemoteResult summarizes a config generation pass over tx add remote.
type AddRemoteResult struct {
	Added     int
	Resources int
	// Failures maps project slug to the failure detail.
	Failures map[string]string
}

// AddRemote runs tx add remote for each project sequentially, holding a file
// lock on the config directory for the whole pass. tx rewrites .tx/config on
// every invocation, so concurrent runs would corrupt it. Quote characters in
// the file filter are folded to underscores before they can reach the config.
func (o *Orchestrator) AddRemote(ctx context.Context, orgSlug string, projects []string, fileFilter string, opts Options) (*AddRemoteResult, error) {
	if len(projects) == 0 {
		return nil, services.Wrap(services.ErrValidation, "pull", "add_remote", "no projects to add", nil)
	}

	txDir := filepath.Join(o.WorkDir, ".tx")
	if err := os.MkdirAll(txDir, 0o755); err != nil {
		return nil, fmt.Errorf("create tx directory: %w", err)
	}

	lock := flock.New(filepath.Join(txDir, "config.lock"))
	locked, err := lock.TryLockContext(ctx, 500*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("acquire config lock: %w", err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrValidation, "pull", "add_remote", "config directory is locked by another run", nil)
	}
	defer func() { _ = lock.Unlock() }()

	sorted := append([]string(nil), projects...)
	sort.Strings(sorted)

	filter := textutil.SanitizeFileFilter(fileFilter)
	bar := o.newBar(len(sorted), "registering projects")

	result := &AddRemoteResult{Failures: map[string]string{}}
	for _, project := range sorted {
		if err := ctx.Err(); err != nil {
			return result, services.Wrap(services.ErrTimeout, "pull", "add_remote", "config generation interrupted", err)
		}

		output, err := o.addRemoteOne(ctx, orgSlug, project, filter, opts)
		if err != nil {
			result.Failures[project] = failureDetail(output, err)
			o.Logger.Warn("tx add remote failed",
				logging.String("project", project),
				logging.String("detail", result.Failures[project]))
		} else {
			count := countResources(string(output), orgSlug)
			result.Added++
			result.Resources += count
			o.Logger.Info("project registered",
				logging.String("project", project),
				logging.Int("resources", count))
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	if result.Added == 0 {
		return result, services.Wrap(services.ErrExternalTool, "pull", "add_remote",
			fmt.Sprintf("all %d projects failed to register", len(sorted)), nil)
	}
	return result, nil
}

func (o *Orchestrator) addRemoteOne(ctx context.Context, orgSlug, project, filter string, opts Options) ([]byte, error) {
	runCtx := ctx
	if opts.AddRemoteTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, opts.AddRemoteTimeout)
		defer cancel()
	}

	url := fmt.Sprintf("https://www.transifex.com/%s/%s/dashboard/",
		textutil.NormalizeSlug(orgSlug), textutil.NormalizeSlug(project))
	args := []string{"add", "remote", "--file-filter", filter}
	if opts.MinimumPerc > 0 {
		args = append(args, "--minimum-perc", fmt.Sprintf("%d", opts.MinimumPerc))
	}
	args = append(args, url)

	return o.runner(runCtx, o.WorkDir, o.environ(), o.Binary, args...)
}

// countResources counts resource sections tx reports having added for the
// organization. Best effort; a zero count only affects the summary line.
func countResources(output, orgSlug string) int {
	marker := "o:" + textutil.NormalizeSlug(orgSlug) + ":p:"
	return strings.Count(output, marker)
}
