package txconfig

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"txbulk/internal/services"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseRoundTrip(t *testing.T) {
	content := `[main]
host = https://app.transifex.com

[o:acme:p:app:r:strings]
file_filter = app/strings/strings_<lang>.xml
source_file = app/strings/strings_en.xml
source_lang = en
resource_name = Android strings

[o:acme:p:site:r:homepage]
file_filter = site/homepage/homepage_<lang>.po
source_lang = en
`
	parsed, err := Parse(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if parsed.Host != "https://app.transifex.com" {
		t.Fatalf("host = %q", parsed.Host)
	}
	if len(parsed.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(parsed.Entries))
	}
	first := parsed.Entries[0]
	if first.OrgSlug != "acme" || first.ProjectSlug != "app" || first.ResourceSlug != "strings" {
		t.Fatalf("first entry = %+v", first)
	}
	if first.ResourceName != "Android strings" {
		t.Fatalf("resource name = %q", first.ResourceName)
	}
}

func TestParseMissingFile(t *testing.T) {
	_, err := Parse(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}

func TestParseCorruptContent(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"unterminated section", "[o:acme:p:app:r:strings\nfile_filter = x\n"},
		{"bad section shape", "[o:acme:only-org]\n"},
		{"value outside section", "file_filter = x\n"},
		{"line without equals", "[o:a:p:b:r:c]\njust some words\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(writeConfig(t, tc.content))
			if !errors.Is(err, services.ErrConfigCorrupt) {
				t.Fatalf("expected corrupt-config error, got %v", err)
			}
		})
	}
}

func TestParseIgnoresCommentsAndBlankLines(t *testing.T) {
	content := `# generated by tx
; legacy comment

[main]
host = https://app.transifex.com
`
	parsed, err := Parse(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(parsed.Entries) != 0 {
		t.Fatalf("entries = %d, want 0", len(parsed.Entries))
	}
}

func TestParseRejectsOversizeFile(t *testing.T) {
	path := writeConfig(t, "[main]\nhost = x\n")
	// Grow past the limit without holding the content in memory.
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Truncate(maxConfigBytes + 1); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	if _, err := Parse(path); !errors.Is(err, services.ErrConfigCorrupt) {
		t.Fatalf("expected corrupt-config error for oversize file, got %v", err)
	}
}

func TestParseReaderRejectsOversizeLineCount(t *testing.T) {
	content := "[main]\nhost = https://app.transifex.com\n" + strings.Repeat("\n", maxConfigLines)
	if _, err := parseReader(strings.NewReader(content)); !errors.Is(err, services.ErrConfigCorrupt) {
		t.Fatalf("expected corrupt-config error past the line limit, got %v", err)
	}
}

func TestParseReaderHandlesCRLFValues(t *testing.T) {
	content := "[main]\r\nhost = https://app.transifex.com\r\n"
	parsed, err := parseReader(strings.NewReader(content))
	if err != nil {
		t.Fatalf("parseReader: %v", err)
	}
	if parsed.Host != "https://app.transifex.com" {
		t.Fatalf("host = %q", parsed.Host)
	}
}
