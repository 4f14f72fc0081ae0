package tmx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"txbulk/internal/services"
	"txbulk/internal/services/transifex"
)

type fakeAPI struct {
	mu       sync.Mutex
	created  []string
	statuses map[string][]transifex.TMXStatus
	polls    map[string]int
	body     string
	failLang string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		statuses: map[string][]transifex.TMXStatus{},
		polls:    map[string]int{},
		body:     "<tmx/>",
	}
}

func (f *fakeAPI) CreateTMXDownload(ctx context.Context, orgSlug, projectSlug, langCode string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if langCode == f.failLang {
		return "", services.Wrap(services.ErrValidation, "transifex", "tmx", "language not configured", nil)
	}
	id := fmt.Sprintf("dl-%s-%s", projectSlug, langCode)
	f.created = append(f.created, id)
	if _, ok := f.statuses[id]; !ok {
		f.statuses[id] = []transifex.TMXStatus{
			{State: "pending"},
			{State: "succeeded", URL: "https://downloads.example/" + id},
		}
	}
	return id, nil
}

func (f *fakeAPI) TMXDownloadStatus(ctx context.Context, id string) (transifex.TMXStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seq := f.statuses[id]
	i := f.polls[id]
	if i >= len(seq) {
		i = len(seq) - 1
	}
	f.polls[id]++
	return seq[i], nil
}

func (f *fakeAPI) Download(ctx context.Context, rawURL string, w io.Writer) (int64, error) {
	n, err := io.WriteString(w, f.body)
	return int64(n), err
}

func newExporter(api API, dest string) *Exporter {
	return &Exporter{
		API:          api,
		OrgSlug:      "acme",
		DestDir:      dest,
		SkipOnError:  true,
		PollInterval: time.Millisecond,
		PollBudget:   10,
	}
}

func TestExportWritesFiles(t *testing.T) {
	dest := t.TempDir()
	e := newExporter(newFakeAPI(), dest)

	result, err := e.Export(context.Background(), Jobs([]string{"app", "site"}, []string{"de", "fr"}), 4)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if result.Succeeded() != 4 || result.Failed() != 0 {
		t.Fatalf("counts = %d/%d", result.Succeeded(), result.Failed())
	}

	path := filepath.Join(dest, "app", "app_de.tmx")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if string(data) != "<tmx/>" {
		t.Fatalf("content = %q", data)
	}
	if leftovers, _ := filepath.Glob(filepath.Join(dest, "*", "*.partial")); len(leftovers) != 0 {
		t.Fatalf("partial files left behind: %v", leftovers)
	}
}

func TestExportPollsUntilReady(t *testing.T) {
	api := newFakeAPI()
	api.statuses["dl-app-de"] = []transifex.TMXStatus{
		{State: "pending"},
		{State: "processing"},
		{State: "processing"},
		{State: "succeeded", URL: "https://downloads.example/dl-app-de"},
	}
	e := newExporter(api, t.TempDir())

	result, err := e.Export(context.Background(), []Job{{ProjectSlug: "app", Language: "de"}}, 1)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if result.Succeeded() != 1 {
		t.Fatalf("outcomes = %+v", result.Outcomes)
	}
	if api.polls["dl-app-de"] != 4 {
		t.Fatalf("polls = %d, want 4", api.polls["dl-app-de"])
	}
}

func TestExportPlatformFailure(t *testing.T) {
	api := newFakeAPI()
	api.statuses["dl-app-de"] = []transifex.TMXStatus{
		{State: "failed", Error: "project has no translation memory"},
	}
	e := newExporter(api, t.TempDir())

	result, err := e.Export(context.Background(), []Job{{ProjectSlug: "app", Language: "de"}}, 1)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if result.Failed() != 1 {
		t.Fatalf("outcomes = %+v", result.Outcomes)
	}
	if !strings.Contains(result.Outcomes[0].Err, "no translation memory") {
		t.Fatalf("detail = %q", result.Outcomes[0].Err)
	}
}

func TestExportPollBudgetExhausted(t *testing.T) {
	api := newFakeAPI()
	api.statuses["dl-app-de"] = []transifex.TMXStatus{{State: "pending"}}
	e := newExporter(api, t.TempDir())
	e.PollBudget = 3

	result, err := e.Export(context.Background(), []Job{{ProjectSlug: "app", Language: "de"}}, 1)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if result.Failed() != 1 || !strings.Contains(result.Outcomes[0].Err, "still pending") {
		t.Fatalf("outcomes = %+v", result.Outcomes)
	}
}

func TestExportPerJobFailuresDoNotStopBatch(t *testing.T) {
	api := newFakeAPI()
	api.failLang = "xx"
	e := newExporter(api, t.TempDir())

	result, err := e.Export(context.Background(), Jobs([]string{"app"}, []string{"de", "xx"}), 2)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if result.Succeeded() != 1 || result.Failed() != 1 {
		t.Fatalf("counts = %d/%d", result.Succeeded(), result.Failed())
	}
	if result.Aborted || result.Skipped() != 0 {
		t.Fatalf("result = %+v", result)
	}
}

func TestExportAbortsWhenSkipOnErrorDisabled(t *testing.T) {
	api := newFakeAPI()
	api.failLang = "xx"
	e := newExporter(api, t.TempDir())
	e.SkipOnError = false

	jobs := []Job{
		{ProjectSlug: "app", Language: "xx"},
		{ProjectSlug: "app", Language: "de"},
		{ProjectSlug: "app", Language: "fr"},
	}
	// A single worker keeps the abort point deterministic.
	result, err := e.Export(context.Background(), jobs, 1)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if result.Succeeded() != 0 || result.Failed() != 1 || result.Skipped() != 2 {
		t.Fatalf("counts = %d/%d/%d", result.Succeeded(), result.Failed(), result.Skipped())
	}
	if !result.Aborted {
		t.Fatal("expected aborted result")
	}
	for _, outcome := range result.Outcomes {
		if outcome.Skipped && outcome.Err != "aborted before start" {
			t.Fatalf("unexpected skip detail %q", outcome.Err)
		}
	}
}

func TestExportEmptyJobs(t *testing.T) {
	e := newExporter(newFakeAPI(), t.TempDir())
	if _, err := e.Export(context.Background(), nil, 2); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestJobsMatrix(t *testing.T) {
	jobs := Jobs([]string{"a", "b"}, []string{"de"})
	if len(jobs) != 2 || jobs[1].ProjectSlug != "b" {
		t.Fatalf("jobs = %v", jobs)
	}
}
