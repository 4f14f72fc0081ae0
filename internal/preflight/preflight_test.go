package preflight

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"txbulk/internal/services"
	"txbulk/internal/services/transifex"
	"txbulk/internal/testsupport"
)

type fakeTokenChecker struct {
	org *transifex.Organization
	err error
}

func (f *fakeTokenChecker) Organization(ctx context.Context, slug string) (*transifex.Organization, error) {
	return f.org, f.err
}

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()
	if result := CheckDirectoryAccess("Output directory", dir); !result.Passed {
		t.Fatalf("writable dir failed: %+v", result)
	}
	if result := CheckDirectoryAccess("Output directory", filepath.Join(dir, "missing")); result.Passed {
		t.Fatal("missing dir passed")
	}

	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckDirectoryAccess("Output directory", file); result.Passed {
		t.Fatal("regular file passed as directory")
	}
}

func TestCheckToken(t *testing.T) {
	ctx := context.Background()

	ok := CheckToken(ctx, &fakeTokenChecker{org: &transifex.Organization{Slug: "acme"}}, "acme")
	if !ok.Passed || !strings.Contains(ok.Detail, "acme") {
		t.Fatalf("valid token check = %+v", ok)
	}

	auth := CheckToken(ctx, &fakeTokenChecker{err: services.Wrap(services.ErrAuth, "transifex", "organization", "unauthorized", nil)}, "acme")
	if auth.Passed || !strings.Contains(auth.Detail, "invalid token") {
		t.Fatalf("auth failure check = %+v", auth)
	}

	missing := CheckToken(ctx, &fakeTokenChecker{err: services.Wrap(services.ErrNotFound, "transifex", "organization", "no org", nil)}, "acme")
	if missing.Passed || !strings.Contains(missing.Detail, "not found") {
		t.Fatalf("missing org check = %+v", missing)
	}

	unconfigured := CheckToken(ctx, &fakeTokenChecker{}, "")
	if unconfigured.Passed {
		t.Fatalf("blank org check = %+v", unconfigured)
	}
}

func TestRunAll(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}

	results := RunAll(context.Background(), cfg, &fakeTokenChecker{org: &transifex.Organization{Slug: "acme"}})
	if len(results) != 4 {
		t.Fatalf("results = %d, want 4", len(results))
	}
	if !Passed(results) {
		t.Fatalf("expected all checks green: %+v", results)
	}

	// Without an API client the token check is skipped entirely.
	offline := RunAll(context.Background(), cfg, nil)
	if len(offline) != 3 {
		t.Fatalf("offline results = %d, want 3", len(offline))
	}
}

func TestPassed(t *testing.T) {
	if Passed(nil) {
		t.Fatal("empty result set must not pass")
	}
	if Passed([]Result{{Passed: true}, {Passed: false}}) {
		t.Fatal("mixed results passed")
	}
	if !Passed([]Result{{Passed: true}, {Passed: true}}) {
		t.Fatal("all-green results failed")
	}
}
