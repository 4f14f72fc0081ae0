package textutil

import "strings"

// quoteReplacer maps quote characters to underscores. Quotes inside slugs or
// file filters corrupt the generated tx configuration syntax, so they are
// normalized before key comparison and before emission.
var quoteReplacer = strings.NewReplacer(
	"'", "_",
	"\"", "_",
	"`", "_",
)

// NormalizeSlug replaces quote characters in a slug with underscores and trims
// surrounding whitespace. The same normalization must be applied to slugs from
// every source; comparing a normalized key against a raw one silently creates
// duplicate logical entries.
func NormalizeSlug(slug string) string {
	return strings.TrimSpace(quoteReplacer.Replace(slug))
}

// SanitizeFileFilter normalizes quote characters in a file-filter pattern so
// the pattern survives a round trip through the tx configuration file.
func SanitizeFileFilter(pattern string) string {
	return strings.TrimSpace(quoteReplacer.Replace(pattern))
}
