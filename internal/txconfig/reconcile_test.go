package txconfig

import (
	"testing"

	"txbulk/internal/catalog"
)

var buildOpts = BuildOptions{
	OrgSlug:    "acme",
	FileFilter: "<project_slug>/<resource_slug>/<resource_slug>_<lang>.<ext>",
}

func record(project, resource string) catalog.ResourceRecord {
	return catalog.ResourceRecord{
		ProjectSlug:    project,
		ResourceSlug:   resource,
		SourceLanguage: "en",
	}
}

func TestReconcileFresh(t *testing.T) {
	discovered := []catalog.ResourceRecord{
		record("app", "strings"),
		record("app", "plurals"),
		record("site", "homepage"),
	}

	result, err := Reconcile(nil, discovered, ModeFresh, buildOpts)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(result.File.Entries) != len(discovered) {
		t.Fatalf("entries = %d, want %d", len(result.File.Entries), len(discovered))
	}
	if result.NewCount != len(discovered) {
		t.Fatalf("new count = %d, want %d", result.NewCount, len(discovered))
	}
	seen := map[string]bool{}
	for _, entry := range result.File.Entries {
		if !entry.IsNew {
			t.Fatalf("entry %s not marked new", entry.Key())
		}
		if seen[entry.Key()] {
			t.Fatalf("duplicate key %s", entry.Key())
		}
		seen[entry.Key()] = true
	}
}

func TestReconcileFreshIgnoresExistingAndDedupes(t *testing.T) {
	existing := &File{Entries: []Entry{{OrgSlug: "acme", ProjectSlug: "old", ResourceSlug: "gone"}}}
	discovered := []catalog.ResourceRecord{
		record("app", "strings"),
		record("app", "strings"),
	}

	result, err := Reconcile(existing, discovered, ModeFresh, buildOpts)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(result.File.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(result.File.Entries))
	}
	if result.File.Entries[0].ProjectSlug != "app" {
		t.Fatalf("existing entry leaked into fresh result: %+v", result.File.Entries)
	}
}

func TestReconcileMergeIsIdempotent(t *testing.T) {
	discovered := []catalog.ResourceRecord{
		record("app", "strings"),
		record("site", "homepage"),
	}

	first, err := Reconcile(nil, discovered, ModeMerge, buildOpts)
	if err != nil {
		t.Fatalf("first reconcile: %v", err)
	}
	if first.NewCount != 2 {
		t.Fatalf("first new count = %d, want 2", first.NewCount)
	}

	second, err := Reconcile(first.File, discovered, ModeMerge, buildOpts)
	if err != nil {
		t.Fatalf("second reconcile: %v", err)
	}
	if second.NewCount != 0 {
		t.Fatalf("second new count = %d, want 0", second.NewCount)
	}
	if len(second.File.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(second.File.Entries))
	}
}

func TestReconcileMergeKeepsExistingEntries(t *testing.T) {
	existing := &File{Entries: []Entry{
		{OrgSlug: "acme", ProjectSlug: "app", ResourceSlug: "strings", FileFilter: "custom/filter_<lang>.po"},
	}}
	discovered := []catalog.ResourceRecord{
		record("app", "strings"),
		record("app", "plurals"),
	}

	result, err := Reconcile(existing, discovered, ModeMerge, buildOpts)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if result.NewCount != 1 {
		t.Fatalf("new count = %d, want 1", result.NewCount)
	}
	for _, entry := range result.File.Entries {
		if entry.ResourceSlug == "strings" && entry.FileFilter != "custom/filter_<lang>.po" {
			t.Fatalf("existing entry was rewritten: %+v", entry)
		}
	}
}

func TestReconcileMergeNormalizesQuotesBeforeComparison(t *testing.T) {
	// The same logical resource, quote-encoded in the file and raw from the
	// API, must not produce two entries.
	existing := &File{Entries: []Entry{
		{OrgSlug: "acme", ProjectSlug: "app", ResourceSlug: "tom_s-strings"},
	}}
	discovered := []catalog.ResourceRecord{record("app", "tom's-strings")}

	result, err := Reconcile(existing, discovered, ModeMerge, buildOpts)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if result.NewCount != 0 {
		t.Fatalf("new count = %d, want 0 (quote-normalized duplicate)", result.NewCount)
	}
	if len(result.File.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(result.File.Entries))
	}
}

func TestReconcileReuseReportsAbsentKeys(t *testing.T) {
	existing := &File{Entries: []Entry{
		{OrgSlug: "acme", ProjectSlug: "app", ResourceSlug: "strings"},
	}}
	discovered := []catalog.ResourceRecord{
		record("app", "strings"),
		record("site", "homepage"),
	}

	result, err := Reconcile(existing, discovered, ModeReuse, buildOpts)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if result.File != existing {
		t.Fatal("reuse must return the existing file unchanged")
	}
	if len(result.AbsentKeys) != 1 || result.AbsentKeys[0] != "site/homepage" {
		t.Fatalf("absent keys = %v", result.AbsentKeys)
	}
}

func TestReconcileUnknownMode(t *testing.T) {
	if _, err := Reconcile(nil, nil, Mode("upside-down"), buildOpts); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestBuildEntryExpandsFilter(t *testing.T) {
	rec := record("app", "strings")
	rec.I18nFormat = "PO"
	result, err := Reconcile(nil, []catalog.ResourceRecord{rec}, ModeFresh, buildOpts)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	entry := result.File.Entries[0]
	if entry.FileFilter != "app/strings/strings_<lang>.po" {
		t.Fatalf("file filter = %q", entry.FileFilter)
	}
	if entry.SourceFile != "app/strings/strings_en.po" {
		t.Fatalf("source file = %q", entry.SourceFile)
	}
}

func TestFormatExtension(t *testing.T) {
	cases := []struct{ format, want string }{
		{"PO", "po"},
		{"KEYVALUEJSON", "json"},
		{"GODOT", "godot"},
		{"", "file"},
	}
	for _, tc := range cases {
		if got := formatExtension(tc.format); got != tc.want {
			t.Errorf("formatExtension(%q) = %q, want %q", tc.format, got, tc.want)
		}
	}
}
