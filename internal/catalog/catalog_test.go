package catalog

import (
	"context"
	"errors"
	"testing"

	"txbulk/internal/services"
	"txbulk/internal/services/transifex"
)

type fakeAPI struct {
	projects  []transifex.Project
	resources map[string][]transifex.Resource
	languages map[string][]transifex.Language
	errors    map[string]error
}

func (f *fakeAPI) Projects(ctx context.Context, org string) ([]transifex.Project, error) {
	return f.projects, nil
}

func (f *fakeAPI) Resources(ctx context.Context, org, project string) ([]transifex.Resource, error) {
	if err := f.errors[project]; err != nil {
		return nil, err
	}
	return f.resources[project], nil
}

func (f *fakeAPI) ProjectLanguages(ctx context.Context, org, project string) ([]transifex.Language, error) {
	return f.languages[project], nil
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		projects: []transifex.Project{
			{ID: "o:acme:p:app", Slug: "app", SourceLanguage: "en"},
			{ID: "o:acme:p:site", Slug: "site", SourceLanguage: "en"},
			{ID: "o:acme:p:empty", Slug: "empty", SourceLanguage: "en"},
		},
		resources: map[string][]transifex.Resource{
			"app":  {{Slug: "strings"}, {Slug: "plurals"}},
			"site": {{Slug: "homepage"}},
		},
		languages: map[string][]transifex.Language{
			"app":  {{Code: "fr"}, {Code: "de"}, {Code: "de"}},
			"site": {{Code: "ja"}},
		},
		errors: map[string]error{},
	}
}

func TestDiscoverAllProjects(t *testing.T) {
	result, err := Discover(context.Background(), newFakeAPI(), "acme", nil, nil)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(result.Records) != 3 {
		t.Fatalf("got %d records, want 3", len(result.Records))
	}
	if result.Projects != 2 {
		t.Fatalf("projects with resources = %d, want 2", result.Projects)
	}
	// Target languages are sorted and deduped.
	first := result.Records[0]
	if len(first.TargetLanguages) != 2 || first.TargetLanguages[0] != "de" {
		t.Fatalf("target languages = %v", first.TargetLanguages)
	}
}

func TestDiscoverWithProjectFilter(t *testing.T) {
	result, err := Discover(context.Background(), newFakeAPI(), "acme", []string{"site", "ghost"}, nil)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(result.Records) != 1 || result.Records[0].ProjectSlug != "site" {
		t.Fatalf("records = %+v", result.Records)
	}
	if len(result.MissingProjects) != 1 || result.MissingProjects[0] != "ghost" {
		t.Fatalf("missing = %v", result.MissingProjects)
	}
}

func TestDiscoverAllFilteredProjectsMissing(t *testing.T) {
	_, err := Discover(context.Background(), newFakeAPI(), "acme", []string{"ghost"}, nil)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestDiscoverSkipsRestrictedProject(t *testing.T) {
	api := newFakeAPI()
	api.errors["app"] = services.Wrap(services.ErrNotFound, "transifex", "resources", "restricted", nil)

	result, err := Discover(context.Background(), api, "acme", nil, nil)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(result.Records) != 1 {
		t.Fatalf("got %d records, want 1 (app skipped)", len(result.Records))
	}
	if len(result.MissingProjects) != 1 || result.MissingProjects[0] != "app" {
		t.Fatalf("missing = %v", result.MissingProjects)
	}
}

func TestDiscoverPropagatesStructuralErrors(t *testing.T) {
	api := newFakeAPI()
	api.errors["app"] = services.Wrap(services.ErrAuth, "transifex", "resources", "", nil)

	if _, err := Discover(context.Background(), api, "acme", nil, nil); !errors.Is(err, services.ErrAuth) {
		t.Fatalf("expected auth error to propagate, got %v", err)
	}
}

func TestResourceRecordKeyNormalizesQuotes(t *testing.T) {
	a := ResourceRecord{ProjectSlug: "app", ResourceSlug: "tom's-strings"}
	b := ResourceRecord{ProjectSlug: "app", ResourceSlug: "tom_s-strings"}
	if a.Key() != b.Key() {
		t.Fatalf("keys differ: %q vs %q", a.Key(), b.Key())
	}
}

func TestValidateLanguageCodes(t *testing.T) {
	if err := ValidateLanguageCodes([]string{"de", "pt_BR", "zh-Hans"}); err != nil {
		t.Fatalf("valid codes rejected: %v", err)
	}
	if err := ValidateLanguageCodes([]string{"not a language"}); err == nil {
		t.Fatal("expected error for invalid code")
	}
}
