package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"txbulk/internal/services"
	"txbulk/internal/txconfig"
)

func TestResolveConfigModeNoExistingConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".tx", "config")

	existing, mode, err := resolveConfigMode(&cobra.Command{}, syncFlags{}, path)
	if err != nil {
		t.Fatalf("resolveConfigMode: %v", err)
	}
	if existing != nil || mode != txconfig.ModeFresh {
		t.Fatalf("existing=%v mode=%q", existing, mode)
	}
}

func TestResolveConfigModeExistingDefaultsToMerge(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")
	content := "[main]\nhost = https://app.transifex.com\n\n[o:acme:p:app:r:strings]\nfile_filter = app/strings_<lang>.po\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	// Test processes have no TTY on stdin, so the unattended default applies.
	existing, mode, err := resolveConfigMode(&cobra.Command{}, syncFlags{}, path)
	if err != nil {
		t.Fatalf("resolveConfigMode: %v", err)
	}
	if existing == nil || len(existing.Entries) != 1 {
		t.Fatalf("existing = %+v", existing)
	}
	if mode != txconfig.ModeMerge {
		t.Fatalf("mode = %q, want merge", mode)
	}
}

func TestResolveConfigModeExplicitFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")

	_, mode, err := resolveConfigMode(&cobra.Command{}, syncFlags{fresh: true}, path)
	if err != nil || mode != txconfig.ModeFresh {
		t.Fatalf("fresh: mode=%q err=%v", mode, err)
	}

	_, mode, err = resolveConfigMode(&cobra.Command{}, syncFlags{reuse: true}, path)
	if err != nil || mode != txconfig.ModeReuse {
		t.Fatalf("reuse: mode=%q err=%v", mode, err)
	}
}

func TestResolveConfigModeCorruptConfigAborts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	if err := os.WriteFile(path, []byte("[o:broken\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := resolveConfigMode(&cobra.Command{}, syncFlags{}, path); !errors.Is(err, services.ErrConfigCorrupt) {
		t.Fatalf("expected corrupt-config error, got %v", err)
	}
}

func TestResolveConfigModeFreshRebuildsCorruptConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	if err := os.WriteFile(path, []byte("[o:broken\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	existing, mode, err := resolveConfigMode(&cobra.Command{}, syncFlags{fresh: true}, path)
	if err != nil {
		t.Fatalf("resolveConfigMode: %v", err)
	}
	if existing != nil || mode != txconfig.ModeFresh {
		t.Fatalf("existing=%v mode=%q", existing, mode)
	}
}

func TestSyncRejectsConflictingModeFlags(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, env.configPath, "sync", "--fresh", "--reuse")
	if err == nil || err.Error() != "--fresh and --reuse are mutually exclusive" {
		t.Fatalf("err = %v", err)
	}
}

func TestMaskToken(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", "(unset)"},
		{"short", "********"},
		{"1234567890abcdef", "1234...cdef"},
	}
	for _, tc := range cases {
		if got := maskToken(tc.in); got != tc.want {
			t.Errorf("maskToken(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSummarizeLanguages(t *testing.T) {
	short := summarizeLanguages([]string{"de", "fr"})
	if short != "de, fr" {
		t.Fatalf("short = %q", short)
	}
	long := summarizeLanguages([]string{"a", "b", "c", "d", "e", "f", "g", "h"})
	if long != "a, b, c, d, e, f, +2 more" {
		t.Fatalf("long = %q", long)
	}
}
