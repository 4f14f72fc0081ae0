package txconfig

import (
	"fmt"
	"strings"

	"txbulk/internal/textutil"
)

// Entry is one resource stanza in a generated tx configuration file.
type Entry struct {
	OrgSlug        string
	ProjectSlug    string
	ResourceSlug   string
	SourceLanguage string
	FileFilter     string
	SourceFile     string
	ResourceName   string
	// IsNew marks entries added by the current reconciliation, as opposed to
	// entries carried over from a pre-existing file.
	IsNew bool
}

// Key returns the normalized (project, resource) identity. Quote characters
// are folded to underscores on both sides of any comparison; see
// textutil.NormalizeSlug.
func (e Entry) Key() string {
	return textutil.NormalizeSlug(e.ProjectSlug) + "/" + textutil.NormalizeSlug(e.ResourceSlug)
}

// Section returns the tx config section header for the entry, with slugs
// normalized for emission.
func (e Entry) Section() string {
	return fmt.Sprintf("o:%s:p:%s:r:%s",
		textutil.NormalizeSlug(e.OrgSlug),
		textutil.NormalizeSlug(e.ProjectSlug),
		textutil.NormalizeSlug(e.ResourceSlug))
}

// File is a parsed or generated tx configuration.
type File struct {
	Host    string
	Entries []Entry
}

// Keys returns the set of normalized entry keys.
func (f *File) Keys() map[string]bool {
	if f == nil {
		return map[string]bool{}
	}
	keys := make(map[string]bool, len(f.Entries))
	for _, entry := range f.Entries {
		keys[entry.Key()] = true
	}
	return keys
}

// ProjectCounts returns resource counts per project slug.
func (f *File) ProjectCounts() map[string]int {
	counts := make(map[string]int)
	if f == nil {
		return counts
	}
	for _, entry := range f.Entries {
		counts[textutil.NormalizeSlug(entry.ProjectSlug)]++
	}
	return counts
}

// DefaultHost is written to the [main] section of generated files.
const DefaultHost = "https://app.transifex.com"

func normalizeHost(host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		return DefaultHost
	}
	return host
}
