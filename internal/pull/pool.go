package pull

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"

	"txbulk/internal/logging"
	"txbulk/internal/services"
	"txbulk/internal/txconfig"
)

const maxDetailBytes = 2000

// Orchestrator drives tx pull invocations across a bounded worker pool, one
// invocation per resource. The child process always runs single-threaded
// (--workers 1); parallelism lives here where it can be bounded and aborted.
type Orchestrator struct {
	Binary  string
	WorkDir string
	Token   string
	Logger  *slog.Logger
	// Progress receives a progress bar when non-nil.
	Progress io.Writer

	runner CommandRunner
}

// New creates an orchestrator that executes the real tx binary from workDir.
func New(binary, workDir, token string, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Orchestrator{
		Binary:  binary,
		WorkDir: workDir,
		Token:   token,
		Logger:  logger,
		runner:  ExecRunner,
	}
}

// Run downloads every entry through the worker pool and returns the
// aggregated report. With SkipOnError set, failures are recorded and the run
// continues; otherwise the first failure marks all unstarted entries skipped
// and the report as aborted. The report is returned even on context
// cancellation so partial results are never lost.
func (o *Orchestrator) Run(ctx context.Context, entries []txconfig.Entry, opts Options) (*Report, error) {
	if len(entries) == 0 {
		return nil, services.Wrap(services.ErrValidation, "pull", "run", "no resources to download", nil)
	}

	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Outcomes:  make([]Outcome, 0, len(entries)),
	}

	workers := ClampWorkers(opts.Workers)
	if workers > len(entries) {
		workers = len(entries)
	}

	o.Logger.Info("starting download run",
		logging.String("run_id", report.RunID),
		logging.Int("resources", len(entries)),
		logging.Int("workers", workers))

	bar := o.newBar(len(entries), "downloading")

	jobs := make(chan txconfig.Entry)
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		aborted atomic.Bool
	)

	record := func(outcome Outcome) {
		mu.Lock()
		report.Outcomes = append(report.Outcomes, outcome)
		mu.Unlock()
		if bar != nil {
			_ = bar.Add(1)
		}
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range jobs {
				if aborted.Load() || ctx.Err() != nil {
					record(Outcome{
						Key:      entry.Key(),
						Resource: entry.Section(),
						Status:   StatusSkipped,
						Detail:   "aborted before start",
					})
					continue
				}

				outcome := o.pullOne(ctx, entry, opts)
				if outcome.Status == StatusFailed {
					o.Logger.Warn("resource download failed",
						logging.String("resource", outcome.Resource),
						logging.String("detail", outcome.Detail))
					if !opts.SkipOnError {
						aborted.Store(true)
					}
				} else {
					o.Logger.Debug("resource downloaded",
						logging.String("resource", outcome.Resource),
						logging.Duration("elapsed", outcome.Elapsed))
				}
				record(outcome)
			}
		}()
	}

	for _, entry := range entries {
		jobs <- entry
	}
	close(jobs)
	wg.Wait()

	if bar != nil {
		_ = bar.Finish()
	}

	report.FinishedAt = time.Now()
	report.Aborted = aborted.Load() || ctx.Err() != nil

	o.Logger.Info("download run finished",
		logging.String("run_id", report.RunID),
		logging.Int("succeeded", report.Succeeded()),
		logging.Int("failed", report.Failed()),
		logging.Int("skipped", report.Skipped()),
		logging.Duration("elapsed", report.Duration()))

	if err := ctx.Err(); err != nil {
		return report, services.Wrap(services.ErrTimeout, "pull", "run", "download run interrupted", err)
	}
	return report, nil
}

func (o *Orchestrator) pullOne(ctx context.Context, entry txconfig.Entry, opts Options) Outcome {
	runCtx := ctx
	if opts.PullTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, opts.PullTimeout)
		defer cancel()
	}

	args := pullArgs(entry, opts)
	start := time.Now()
	output, err := o.runner(runCtx, o.WorkDir, o.environ(), o.Binary, args...)
	elapsed := time.Since(start)

	outcome := Outcome{
		Key:      entry.Key(),
		Resource: entry.Section(),
		Elapsed:  elapsed,
	}
	if err != nil {
		outcome.Status = StatusFailed
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			outcome.Detail = fmt.Sprintf("timed out after %s", opts.PullTimeout)
		} else {
			outcome.Detail = failureDetail(output, err)
		}
		return outcome
	}
	outcome.Status = StatusSucceeded
	return outcome
}

// pullArgs builds the argument list for a single-resource tx pull.
func pullArgs(entry txconfig.Entry, opts Options) []string {
	args := []string{"pull", "--resources", entry.Section(), "--workers", "1"}

	switch opts.Mode {
	case ModeSource:
		args = append(args, "--source")
	case ModeTranslations:
		args = append(args, "--translations")
	case ModeBoth:
		args = append(args, "--source", "--translations")
	}

	if opts.Mode != ModeSource {
		if len(opts.Languages) > 0 {
			args = append(args, "--languages", strings.Join(opts.Languages, ","))
		} else {
			args = append(args, "--all")
		}
		args = append(args, "--mode", string(opts.TranslationMode))
		if opts.MinimumPerc > 0 {
			args = append(args, "--minimum-perc", strconv.Itoa(opts.MinimumPerc))
		}
	}

	if opts.Force {
		args = append(args, "--force")
	} else if opts.SkipExisting {
		args = append(args, "--disable-overwrite")
	}
	if opts.SkipOnError {
		args = append(args, "--skip")
	}
	args = append(args, "--silent")
	return args
}

func (o *Orchestrator) environ() []string {
	env := os.Environ()
	if o.Token != "" {
		env = append(env, "TX_TOKEN="+o.Token)
	}
	return env
}

func (o *Orchestrator) newBar(total int, description string) *progressbar.ProgressBar {
	if o.Progress == nil {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(o.Progress),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
	)
}

// failureDetail prefers the tool's own output over the Go error string and
// trims it to a storable size.
func failureDetail(output []byte, err error) string {
	detail := strings.TrimSpace(string(output))
	if detail == "" {
		detail = err.Error()
	}
	if len(detail) > maxDetailBytes {
		detail = detail[:maxDetailBytes] + "..."
	}
	return detail
}
