package deps

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCheckBinariesFindsShell(t *testing.T) {
	results := CheckBinaries([]Requirement{{Name: "Shell", Command: "sh", Description: "posix shell"}})
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	if !results[0].Available {
		t.Fatalf("sh not found: %+v", results[0])
	}
	if results[0].Detail == "" {
		t.Fatal("expected resolved path in detail")
	}
}

func TestCheckBinariesMissing(t *testing.T) {
	results := CheckBinaries([]Requirement{
		{Name: "Missing", Command: "definitely-not-a-real-binary-xyz"},
		{Name: "Unconfigured", Command: "   "},
	})
	if results[0].Available {
		t.Fatal("nonexistent binary reported available")
	}
	if results[1].Available || results[1].Detail != "command not configured" {
		t.Fatalf("blank command = %+v", results[1])
	}
}

func TestVersion(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "tool")
	if err := os.WriteFile(script, []byte("#!/bin/sh\necho tool 1.2.3\necho extra\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	if got := Version(script); got != "tool 1.2.3" {
		t.Fatalf("Version = %q, want %q", got, "tool 1.2.3")
	}
	if got := Version(filepath.Join(dir, "missing")); got != "" {
		t.Fatalf("Version for missing binary = %q, want empty", got)
	}
}

func TestRequirements(t *testing.T) {
	reqs := Requirements("tx")
	if len(reqs) != 1 || reqs[0].Command != "tx" || reqs[0].Optional {
		t.Fatalf("requirements = %+v", reqs)
	}
}
