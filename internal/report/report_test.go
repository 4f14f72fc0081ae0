package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"txbulk/internal/pull"
	"txbulk/internal/testsupport"
)

func writeFiles(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("translated content"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestScanCountsFilesAndExtensions(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "app/strings/strings_de.po", "app/strings/strings_fr.po", "site/home_de.xml", "README")
	// Hidden entries such as the tx config directory stay out of the counts.
	testsupport.WriteTxConfig(t, root, "[main]\nhost = https://app.transifex.com\n")
	writeFiles(t, root, "app/.hidden.po")

	summary, err := Scan(root, 0)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if summary.Files != 4 {
		t.Fatalf("files = %d, want 4", summary.Files)
	}
	if summary.Bytes != 4*int64(len("translated content")) {
		t.Fatalf("bytes = %d", summary.Bytes)
	}
	if summary.ByExtension[".po"] != 2 || summary.ByExtension[".xml"] != 1 || summary.ByExtension["(none)"] != 1 {
		t.Fatalf("extensions = %v", summary.ByExtension)
	}
	if summary.Approximate {
		t.Fatal("small scan reported approximate")
	}
}

func TestScanBoundsEntries(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 20; i++ {
		testsupport.WriteFile(t, filepath.Join(root, fmt.Sprintf("file_%02d.po", i)), 64)
	}

	summary, err := Scan(root, 10)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !summary.Approximate {
		t.Fatal("bounded scan not marked approximate")
	}
	if summary.Files >= 20 {
		t.Fatalf("files = %d, want fewer than 20", summary.Files)
	}
	if !strings.Contains(summary.Render(), "approximate") {
		t.Fatal("render omits the approximate qualifier")
	}
}

func TestScanMissingRoot(t *testing.T) {
	summary, err := Scan(filepath.Join(t.TempDir(), "missing"), 0)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if summary.Files != 0 || summary.Approximate {
		t.Fatalf("summary = %+v", summary)
	}
}

func testRun() *pull.Report {
	start := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	return &pull.Report{
		RunID:      "run-1234",
		StartedAt:  start,
		FinishedAt: start.Add(90 * time.Second),
		Outcomes: []pull.Outcome{
			{Key: "app/strings", Resource: "o:acme:p:app:r:strings", Status: pull.StatusSucceeded},
			{Key: "app/plurals", Resource: "o:acme:p:app:r:plurals", Status: pull.StatusFailed, Detail: "exit status 1\nmore detail"},
			{Key: "site/home", Resource: "o:acme:p:site:r:home", Status: pull.StatusSkipped, Detail: "aborted before start"},
		},
	}
}

func TestCompose(t *testing.T) {
	content := Compose(testRun(), &Summary{Root: "/out", Files: 12, Bytes: 2048, ByExtension: map[string]int{".po": 12}})

	for _, want := range []string{
		"Run ID: run-1234",
		"Succeeded: 1",
		"Failed: 1",
		"Skipped: 1",
		"o:acme:p:app:r:plurals: exit status 1",
		"Output directory: /out",
		"2.0 kB",
	} {
		if !strings.Contains(content, want) {
			t.Fatalf("report missing %q:\n%s", want, content)
		}
	}
	// Failure details are trimmed to their first line.
	if strings.Contains(content, "more detail") {
		t.Fatalf("multi-line detail leaked into report:\n%s", content)
	}
}

func TestSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "history")
	path, err := Save(dir, "run-1234", "content\n")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.Contains(filepath.Base(path), "run-1234") {
		t.Fatalf("path = %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "content\n" {
		t.Fatalf("read back = %q, %v", data, err)
	}
}
