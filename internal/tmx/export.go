// Package tmx exports per-project translation memory files through the
// platform's asynchronous TMX download API.
package tmx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"txbulk/internal/logging"
	"txbulk/internal/pull"
	"txbulk/internal/services"
	"txbulk/internal/services/transifex"
	"txbulk/internal/textutil"
)

// API is the slice of the platform client the exporter needs.
type API interface {
	CreateTMXDownload(ctx context.Context, orgSlug, projectSlug, langCode string) (string, error)
	TMXDownloadStatus(ctx context.Context, id string) (transifex.TMXStatus, error)
	Download(ctx context.Context, rawURL string, w io.Writer) (int64, error)
}

// Job identifies one project/language export.
type Job struct {
	ProjectSlug string
	Language    string
}

// Outcome records the result of one export.
type Outcome struct {
	Job     Job
	Path    string
	Bytes   int64
	Err     string
	Passed  bool
	Skipped bool
}

// Result aggregates an export batch.
type Result struct {
	Outcomes []Outcome
	// Aborted is set when a failure stopped the batch before every job ran.
	Aborted bool
}

// Succeeded returns the number of completed exports.
func (r *Result) Succeeded() int {
	n := 0
	for _, outcome := range r.Outcomes {
		if outcome.Passed {
			n++
		}
	}
	return n
}

// Failed returns the number of exports that ran and failed.
func (r *Result) Failed() int {
	n := 0
	for _, outcome := range r.Outcomes {
		if !outcome.Passed && !outcome.Skipped {
			n++
		}
	}
	return n
}

// Skipped returns the number of exports that never started.
func (r *Result) Skipped() int {
	n := 0
	for _, outcome := range r.Outcomes {
		if outcome.Skipped {
			n++
		}
	}
	return n
}

// Exporter drives asynchronous TMX downloads with bounded parallelism.
type Exporter struct {
	API     API
	OrgSlug string
	DestDir string
	Logger  *slog.Logger
	// SkipOnError records individual failures and keeps going. When false,
	// the first failure aborts the jobs that have not started yet.
	SkipOnError bool
	// PollInterval and PollBudget bound the status polling loop. Zero values
	// take the defaults.
	PollInterval time.Duration
	PollBudget   int
}

const (
	defaultPollInterval = 2 * time.Second
	defaultPollBudget   = 150
)

// Export runs every job through a worker pool and writes each TMX file to
// <dest>/<project>/<project>_<lang>.tmx. With SkipOnError set failures are
// per-job; otherwise the first failure skips every job that has not started.
func (e *Exporter) Export(ctx context.Context, jobs []Job, workers int) (*Result, error) {
	if len(jobs) == 0 {
		return nil, services.Wrap(services.ErrValidation, "tmx", "export", "no exports requested", nil)
	}
	logger := e.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	workers = pull.ClampWorkers(workers)
	if workers > len(jobs) {
		workers = len(jobs)
	}

	queue := make(chan Job)
	result := &Result{Outcomes: make([]Outcome, 0, len(jobs))}
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		aborted atomic.Bool
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range queue {
				if aborted.Load() || ctx.Err() != nil {
					mu.Lock()
					result.Outcomes = append(result.Outcomes, Outcome{
						Job: job, Skipped: true, Err: "aborted before start",
					})
					mu.Unlock()
					continue
				}
				outcome := e.exportOne(ctx, job)
				if outcome.Passed {
					logger.Info("tmx exported",
						logging.String("project", job.ProjectSlug),
						logging.String("language", job.Language),
						logging.Int64("bytes", outcome.Bytes))
				} else {
					if !e.SkipOnError {
						aborted.Store(true)
					}
					logger.Warn("tmx export failed",
						logging.String("project", job.ProjectSlug),
						logging.String("language", job.Language),
						logging.String("detail", outcome.Err))
				}
				mu.Lock()
				result.Outcomes = append(result.Outcomes, outcome)
				mu.Unlock()
			}
		}()
	}

	for _, job := range jobs {
		if ctx.Err() != nil {
			break
		}
		queue <- job
	}
	close(queue)
	wg.Wait()

	sort.Slice(result.Outcomes, func(i, j int) bool {
		a, b := result.Outcomes[i].Job, result.Outcomes[j].Job
		if a.ProjectSlug != b.ProjectSlug {
			return a.ProjectSlug < b.ProjectSlug
		}
		return a.Language < b.Language
	})

	result.Aborted = aborted.Load() || ctx.Err() != nil

	if err := ctx.Err(); err != nil {
		return result, services.Wrap(services.ErrTimeout, "tmx", "export", "export interrupted", err)
	}
	return result, nil
}

func (e *Exporter) exportOne(ctx context.Context, job Job) Outcome {
	outcome := Outcome{Job: job}

	id, err := e.API.CreateTMXDownload(ctx, e.OrgSlug, job.ProjectSlug, job.Language)
	if err != nil {
		outcome.Err = err.Error()
		return outcome
	}

	url, err := e.await(ctx, id)
	if err != nil {
		outcome.Err = err.Error()
		return outcome
	}

	path, bytes, err := e.write(ctx, job, url)
	if err != nil {
		outcome.Err = err.Error()
		return outcome
	}
	outcome.Path = path
	outcome.Bytes = bytes
	outcome.Passed = true
	return outcome
}

// await polls the async download until it yields a URL or the poll budget
// runs out.
func (e *Exporter) await(ctx context.Context, id string) (string, error) {
	interval := e.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	budget := e.PollBudget
	if budget <= 0 {
		budget = defaultPollBudget
	}

	for attempt := 0; attempt < budget; attempt++ {
		status, err := e.API.TMXDownloadStatus(ctx, id)
		if err != nil {
			return "", err
		}
		switch {
		case status.State == "failed":
			detail := status.Error
			if detail == "" {
				detail = "export failed on the platform side"
			}
			return "", services.Wrap(services.ErrExternalTool, "tmx", "await", detail, nil)
		case status.Done() && status.URL != "":
			return status.URL, nil
		}

		select {
		case <-time.After(interval):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "", services.Wrap(services.ErrTimeout, "tmx", "await",
		fmt.Sprintf("export %s still pending after %d polls", id, budget), nil)
}

func (e *Exporter) write(ctx context.Context, job Job, url string) (string, int64, error) {
	project := textutil.NormalizeSlug(job.ProjectSlug)
	lang := textutil.NormalizeSlug(job.Language)

	dir := filepath.Join(e.DestDir, project)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create tmx directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.tmx", project, lang))
	tmp := path + ".partial"
	f, err := os.Create(tmp)
	if err != nil {
		return "", 0, fmt.Errorf("create tmx file: %w", err)
	}

	n, err := e.API.Download(ctx, url, f)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return "", 0, fmt.Errorf("download tmx: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", 0, fmt.Errorf("finalize tmx file: %w", err)
	}
	return path, n, nil
}

// Jobs expands projects and languages into the full export matrix.
func Jobs(projects, languages []string) []Job {
	var jobs []Job
	for _, project := range projects {
		for _, lang := range languages {
			jobs = append(jobs, Job{ProjectSlug: project, Language: lang})
		}
	}
	return jobs
}
