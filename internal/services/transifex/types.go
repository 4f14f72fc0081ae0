package transifex

import "encoding/json"

// Organization is a top-level tenant on the platform.
type Organization struct {
	ID   string
	Slug string
	Name string
}

// Project groups translatable resources under an organization.
type Project struct {
	ID             string
	Slug           string
	Name           string
	SourceLanguage string
}

// Resource is a single translatable unit within a project.
type Resource struct {
	ID   string
	Slug string
	Name string
	// I18nFormat is the platform format identifier, e.g. "PO" or "YML".
	I18nFormat string
}

// Language is a translation target configured on a project.
type Language struct {
	ID   string
	Code string
}

// TMXStatus reports the state of an asynchronous translation-memory export.
type TMXStatus struct {
	State string // pending, processing, succeeded, failed
	URL   string
	Error string
}

// Done reports whether the export reached a terminal state.
func (s TMXStatus) Done() bool {
	return s.State == "succeeded" || s.State == "failed"
}

// JSON:API envelope types. Attributes stay raw until the caller knows the
// concrete shape.

type document struct {
	Data   json.RawMessage `json:"data"`
	Links  documentLinks   `json:"links"`
	Errors []apiError      `json:"errors"`
}

type documentLinks struct {
	Next string `json:"next"`
}

type apiError struct {
	Status string `json:"status"`
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

type resourceObject struct {
	ID            string                  `json:"id"`
	Type          string                  `json:"type"`
	Attributes    json.RawMessage         `json:"attributes"`
	Relationships map[string]relationship `json:"relationships"`
}

type relationship struct {
	Data relationshipData `json:"data"`
}

type relationshipData struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}
