package txconfig

import (
	"fmt"
	"sort"
	"strings"

	"txbulk/internal/catalog"
	"txbulk/internal/services"
	"txbulk/internal/textutil"
)

// Mode selects how a pre-existing configuration participates in
// reconciliation.
type Mode string

const (
	// ModeFresh discards the existing configuration and rebuilds from
	// discovery alone.
	ModeFresh Mode = "fresh"
	// ModeReuse keeps the existing configuration untouched; discovery only
	// informs which keys it lacks.
	ModeReuse Mode = "reuse"
	// ModeMerge keeps existing entries and appends discovered entries whose
	// keys are absent.
	ModeMerge Mode = "merge"
)

// BuildOptions parameterizes how discovered records become config entries.
type BuildOptions struct {
	OrgSlug    string
	FileFilter string
}

// Result is the outcome of a reconciliation.
type Result struct {
	File *File
	// NewCount is the number of entries marked new by this reconciliation.
	NewCount int
	// AbsentKeys lists discovered keys not present in the kept
	// configuration (populated in reuse mode, informational only).
	AbsentKeys []string
}

// Reconcile merges an optional existing configuration with freshly discovered
// records. Existing entries are never dropped except in fresh mode; key
// equality is case-sensitive on quote-normalized (project, resource) pairs.
// Merge is idempotent: reconciling a second time with the same discovery
// yields zero new entries.
func Reconcile(existing *File, discovered []catalog.ResourceRecord, mode Mode, opts BuildOptions) (*Result, error) {
	if strings.TrimSpace(opts.OrgSlug) == "" {
		return nil, services.Wrap(services.ErrValidation, "txconfig", "reconcile", "organization slug is required", nil)
	}

	if existing == nil && mode != ModeFresh {
		// Nothing to reuse or merge into.
		mode = ModeFresh
	}

	switch mode {
	case ModeFresh:
		file := &File{Host: DefaultHost}
		seen := make(map[string]bool, len(discovered))
		count := 0
		for _, record := range discovered {
			entry := buildEntry(record, opts)
			key := entry.Key()
			if seen[key] {
				continue
			}
			seen[key] = true
			entry.IsNew = true
			file.Entries = append(file.Entries, entry)
			count++
		}
		sortEntries(file.Entries)
		return &Result{File: file, NewCount: count}, nil

	case ModeReuse:
		keys := existing.Keys()
		var absent []string
		for _, record := range discovered {
			if key := record.Key(); !keys[key] {
				absent = append(absent, key)
			}
		}
		sort.Strings(absent)
		return &Result{File: existing, AbsentKeys: dedupeSorted(absent)}, nil

	case ModeMerge:
		file := &File{Host: normalizeHost(existing.Host)}
		file.Entries = append(file.Entries, existing.Entries...)
		keys := existing.Keys()
		count := 0
		for _, record := range discovered {
			entry := buildEntry(record, opts)
			key := entry.Key()
			if keys[key] {
				continue
			}
			keys[key] = true
			entry.IsNew = true
			file.Entries = append(file.Entries, entry)
			count++
		}
		sortEntries(file.Entries)
		return &Result{File: file, NewCount: count}, nil

	default:
		return nil, services.Wrap(services.ErrValidation, "txconfig", "reconcile",
			fmt.Sprintf("unknown reconcile mode %q", mode), nil)
	}
}

func buildEntry(record catalog.ResourceRecord, opts BuildOptions) Entry {
	project := textutil.NormalizeSlug(record.ProjectSlug)
	resource := textutil.NormalizeSlug(record.ResourceSlug)

	filter := textutil.SanitizeFileFilter(opts.FileFilter)
	filter = strings.ReplaceAll(filter, "<project_slug>", project)
	filter = strings.ReplaceAll(filter, "<resource_slug>", resource)
	filter = strings.ReplaceAll(filter, "<ext>", formatExtension(record.I18nFormat))

	sourceLang := record.SourceLanguage
	if sourceLang == "" {
		sourceLang = "en"
	}
	sourceFile := strings.ReplaceAll(filter, "<lang>", sourceLang)

	return Entry{
		OrgSlug:        opts.OrgSlug,
		ProjectSlug:    record.ProjectSlug,
		ResourceSlug:   record.ResourceSlug,
		SourceLanguage: sourceLang,
		FileFilter:     filter,
		SourceFile:     sourceFile,
	}
}

// formatExtensions maps platform i18n format identifiers to the file
// extensions tx writes for them. The tx CLI expands <ext> itself during
// 'add remote', but entries written here must carry a concrete extension
// because per-resource sections only expand <lang>.
var formatExtensions = map[string]string{
	"PO":              "po",
	"YML":             "yml",
	"YAML_GENERIC":    "yaml",
	"XLIFF":           "xlf",
	"ANDROID":         "xml",
	"STRINGS":         "strings",
	"STRINGSDICT":     "stringsdict",
	"KEYVALUEJSON":    "json",
	"STRUCTURED_JSON": "json",
	"PROPERTIES":      "properties",
	"INI":             "ini",
	"SRT":             "srt",
	"FLATXML":         "xml",
	"HTML":            "html",
	"TXT":             "txt",
}

func formatExtension(format string) string {
	if ext, ok := formatExtensions[format]; ok {
		return ext
	}
	if format != "" {
		return strings.ToLower(format)
	}
	return "file"
}

func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Key() < entries[j].Key()
	})
}

func dedupeSorted(values []string) []string {
	out := values[:0]
	var prev string
	for i, v := range values {
		if i > 0 && v == prev {
			continue
		}
		out = append(out, v)
		prev = v
	}
	return out
}
