// Package report summarizes the result of a download run: a bounded scan of
// the output directory plus a plain-text report saved alongside the history.
package report

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"txbulk/internal/pull"
)

// DefaultMaxEntries bounds the output directory scan. Large organizations can
// produce far more files than are worth walking for a summary; past the bound
// the counts are reported as approximate.
const DefaultMaxEntries = 100000

// Summary describes the contents of the output directory after a run.
type Summary struct {
	Root  string
	Files int
	Bytes int64
	// ByExtension counts files per lowercase extension; extensionless files
	// count under "(none)".
	ByExtension map[string]int
	// Approximate is set when the scan stopped at the entry bound.
	Approximate bool
	GeneratedAt time.Time
}

// Scan walks root and tallies file counts and sizes. maxEntries bounds the
// number of directory entries visited; values <= 0 use DefaultMaxEntries.
// A missing root yields an empty summary rather than an error.
func Scan(root string, maxEntries int) (*Summary, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}

	summary := &Summary{
		Root:        root,
		ByExtension: map[string]int{},
		GeneratedAt: time.Now(),
	}

	visited := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root && os.IsNotExist(err) {
				return fs.SkipAll
			}
			// Unreadable subtrees are skipped, not fatal.
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		// Hidden files and directories (.tx, lock files, backups) are not
		// downloaded content.
		if path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		visited++
		if visited > maxEntries {
			summary.Approximate = true
			return fs.SkipAll
		}

		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}

		summary.Files++
		summary.Bytes += info.Size()
		ext := strings.ToLower(filepath.Ext(d.Name()))
		if ext == "" {
			ext = "(none)"
		}
		summary.ByExtension[ext]++
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan output directory: %w", err)
	}
	return summary, nil
}

// Render produces the human-readable summary block.
func (s *Summary) Render() string {
	var b strings.Builder
	qualifier := ""
	if s.Approximate {
		qualifier = " (approximate, scan truncated)"
	}
	fmt.Fprintf(&b, "Output directory: %s\n", s.Root)
	fmt.Fprintf(&b, "Files: %s%s\n", humanize.Comma(int64(s.Files)), qualifier)
	fmt.Fprintf(&b, "Total size: %s%s\n", humanize.Bytes(uint64(s.Bytes)), qualifier)

	exts := make([]string, 0, len(s.ByExtension))
	for ext := range s.ByExtension {
		exts = append(exts, ext)
	}
	sort.Slice(exts, func(i, j int) bool {
		if s.ByExtension[exts[i]] != s.ByExtension[exts[j]] {
			return s.ByExtension[exts[i]] > s.ByExtension[exts[j]]
		}
		return exts[i] < exts[j]
	})
	for _, ext := range exts {
		fmt.Fprintf(&b, "  %-8s %s\n", ext, humanize.Comma(int64(s.ByExtension[ext])))
	}
	return b.String()
}

// Compose builds the full plain-text report for a finished run.
func Compose(run *pull.Report, summary *Summary) string {
	var b strings.Builder
	b.WriteString("Transifex bulk download report\n")
	b.WriteString(strings.Repeat("=", 30) + "\n\n")

	fmt.Fprintf(&b, "Run ID: %s\n", run.RunID)
	fmt.Fprintf(&b, "Started: %s\n", run.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Finished: %s\n", run.FinishedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Duration: %s\n\n", run.Duration().Round(time.Second))

	fmt.Fprintf(&b, "Succeeded: %d\n", run.Succeeded())
	fmt.Fprintf(&b, "Failed: %d\n", run.Failed())
	fmt.Fprintf(&b, "Skipped: %d\n", run.Skipped())
	if run.Aborted {
		b.WriteString("Run aborted on first failure; remaining items were skipped.\n")
	}
	b.WriteString("\n")

	if failed := failedOutcomes(run); len(failed) > 0 {
		b.WriteString("Failures:\n")
		for _, outcome := range failed {
			fmt.Fprintf(&b, "  %s: %s\n", outcome.Resource, firstLine(outcome.Detail))
		}
		b.WriteString("\n")
	}

	if summary != nil {
		b.WriteString(summary.Render())
	}
	return b.String()
}

// Save writes the report into dir with a run-scoped file name and returns the
// path.
func Save(dir, runID, content string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("report-%s-%s.txt",
		time.Now().Format("20060102-150405"), runID))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

func failedOutcomes(run *pull.Report) []pull.Outcome {
	var failed []pull.Outcome
	for _, outcome := range run.Outcomes {
		if outcome.Status == pull.StatusFailed {
			failed = append(failed, outcome)
		}
	}
	sort.Slice(failed, func(i, j int) bool { return failed[i].Key < failed[j].Key })
	return failed
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
