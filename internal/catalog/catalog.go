package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/text/language"

	"txbulk/internal/logging"
	"txbulk/internal/services"
	"txbulk/internal/services/transifex"
	"txbulk/internal/textutil"
)

// ResourceRecord identifies one translatable resource discovered remotely.
// Immutable once discovered.
type ResourceRecord struct {
	ProjectSlug     string
	ResourceSlug    string
	SourceLanguage  string
	TargetLanguages []string
	// I18nFormat is the platform format identifier ("PO", "YML", ...), used
	// to resolve file extensions in generated configurations.
	I18nFormat string
}

// Key returns the normalized (project, resource) identity used for
// reconciliation.
func (r ResourceRecord) Key() string {
	return textutil.NormalizeSlug(r.ProjectSlug) + "/" + textutil.NormalizeSlug(r.ResourceSlug)
}

// API is the subset of the Transifex client the catalog needs.
type API interface {
	Projects(ctx context.Context, orgSlug string) ([]transifex.Project, error)
	Resources(ctx context.Context, orgSlug, projectSlug string) ([]transifex.Resource, error)
	ProjectLanguages(ctx context.Context, orgSlug, projectSlug string) ([]transifex.Language, error)
}

// Result carries the discovered catalog plus per-entity diagnostics.
type Result struct {
	Records []ResourceRecord
	// Projects is the number of projects that contributed records.
	Projects int
	// MissingProjects lists requested project slugs absent from the
	// organization. Missing projects do not abort discovery of the rest.
	MissingProjects []string
}

// Discover queries the organization for all projects and resources,
// optionally filtered to a project subset.
func Discover(ctx context.Context, api API, orgSlug string, projectFilter []string, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if strings.TrimSpace(orgSlug) == "" {
		return nil, services.Wrap(services.ErrValidation, "catalog", "discover", "organization slug is required", nil)
	}

	projects, err := api.Projects(ctx, orgSlug)
	if err != nil {
		return nil, err
	}

	result := &Result{}

	wanted := make(map[string]bool, len(projectFilter))
	for _, slug := range projectFilter {
		wanted[slug] = true
	}

	selected := projects
	if len(wanted) > 0 {
		selected = selected[:0:0]
		found := make(map[string]bool, len(wanted))
		for _, project := range projects {
			if wanted[project.Slug] {
				selected = append(selected, project)
				found[project.Slug] = true
			}
		}
		for slug := range wanted {
			if !found[slug] {
				result.MissingProjects = append(result.MissingProjects, slug)
			}
		}
		sort.Strings(result.MissingProjects)
		if len(selected) == 0 {
			return nil, services.Wrap(services.ErrNotFound, "catalog", "discover",
				fmt.Sprintf("none of the requested projects exist in organization %q", orgSlug), nil)
		}
	}

	for _, project := range selected {
		records, err := discoverProject(ctx, api, orgSlug, project)
		if err != nil {
			// A single missing or restricted project must not sink the rest
			// of the discovery.
			if errors.Is(err, services.ErrNotFound) {
				logger.Warn("project skipped during discovery",
					logging.String("project", project.Slug),
					logging.Error(err))
				result.MissingProjects = append(result.MissingProjects, project.Slug)
				continue
			}
			return nil, err
		}
		if len(records) > 0 {
			result.Projects++
		}
		result.Records = append(result.Records, records...)
	}

	logger.Info("discovery complete",
		logging.String("organization", orgSlug),
		logging.Int("projects", result.Projects),
		logging.Int("resources", len(result.Records)))

	return result, nil
}

func discoverProject(ctx context.Context, api API, orgSlug string, project transifex.Project) ([]ResourceRecord, error) {
	resources, err := api.Resources(ctx, orgSlug, project.Slug)
	if err != nil {
		return nil, err
	}
	if len(resources) == 0 {
		return nil, nil
	}

	languages, err := api.ProjectLanguages(ctx, orgSlug, project.Slug)
	if err != nil {
		return nil, err
	}
	codes := make([]string, 0, len(languages))
	seen := make(map[string]bool, len(languages))
	for _, lang := range languages {
		if lang.Code == "" || seen[lang.Code] {
			continue
		}
		seen[lang.Code] = true
		codes = append(codes, lang.Code)
	}
	sort.Strings(codes)

	records := make([]ResourceRecord, 0, len(resources))
	for _, res := range resources {
		records = append(records, ResourceRecord{
			ProjectSlug:     project.Slug,
			ResourceSlug:    res.Slug,
			SourceLanguage:  project.SourceLanguage,
			TargetLanguages: codes,
			I18nFormat:      res.I18nFormat,
		})
	}
	return records, nil
}

// ValidateLanguageCodes rejects language filters the platform cannot know.
// Transifex uses underscore region separators (pt_BR), which x/text parses
// once normalized to BCP 47 form.
func ValidateLanguageCodes(codes []string) error {
	for _, code := range codes {
		tag := strings.ReplaceAll(code, "_", "-")
		if _, err := language.Parse(tag); err != nil {
			return services.Wrap(services.ErrValidation, "catalog", "languages",
				fmt.Sprintf("invalid language code %q", code), err)
		}
	}
	return nil
}
