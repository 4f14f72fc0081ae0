package transifex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"txbulk/internal/services"
)

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Options configures the API client.
type Options struct {
	BaseURL string
	Token   string
	Doer    HTTPDoer
	// RequestsPerSecond bounds the request rate before the platform throttle
	// kicks in. Zero disables client-side limiting.
	RequestsPerSecond float64
	// MaxRetries bounds attempts for rate-limited and transient failures.
	MaxRetries int
	// RetryBaseDelay is the first backoff step. Tests shrink it.
	RetryBaseDelay time.Duration
}

// Client talks to the Transifex REST API v3.
type Client struct {
	baseURL    string
	token      string
	doer       HTTPDoer
	limiter    *rate.Limiter
	maxRetries int
	retryBase  time.Duration
}

const maxRetryDelay = 30 * time.Second

// NewClient constructs an API client from options, applying defaults for any
// zero values.
func NewClient(opts Options) *Client {
	doer := opts.Doer
	if doer == nil {
		doer = &http.Client{Timeout: 60 * time.Second}
	}
	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	retries := opts.MaxRetries
	if retries <= 0 {
		retries = 4
	}
	base := opts.RetryBaseDelay
	if base <= 0 {
		base = time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		token:      opts.Token,
		doer:       doer,
		limiter:    limiter,
		maxRetries: retries,
		retryBase:  base,
	}
}

// Organization fetches a single organization by slug.
func (c *Client) Organization(ctx context.Context, slug string) (*Organization, error) {
	query := url.Values{}
	query.Set("filter[slug]", slug)

	var doc document
	if err := c.doJSON(ctx, http.MethodGet, "/organizations", query, nil, &doc); err != nil {
		return nil, err
	}

	var objects []resourceObject
	if err := json.Unmarshal(doc.Data, &objects); err != nil {
		return nil, fmt.Errorf("decode organizations: %w", err)
	}
	for _, obj := range objects {
		org := Organization{ID: obj.ID}
		var attrs struct {
			Slug string `json:"slug"`
			Name string `json:"name"`
		}
		if err := json.Unmarshal(obj.Attributes, &attrs); err != nil {
			return nil, fmt.Errorf("decode organization attributes: %w", err)
		}
		org.Slug = attrs.Slug
		org.Name = attrs.Name
		if org.Slug == slug {
			return &org, nil
		}
	}
	return nil, services.Wrap(services.ErrNotFound, "transifex", "organization", fmt.Sprintf("organization %q not found or not accessible", slug), nil)
}

// Projects lists every project in the organization, following pagination.
func (c *Client) Projects(ctx context.Context, orgSlug string) ([]Project, error) {
	query := url.Values{}
	query.Set("filter[organization]", "o:"+orgSlug)

	var projects []Project
	err := c.paginate(ctx, "/projects", query, func(obj resourceObject) error {
		var attrs struct {
			Slug string `json:"slug"`
			Name string `json:"name"`
		}
		if err := json.Unmarshal(obj.Attributes, &attrs); err != nil {
			return fmt.Errorf("decode project attributes: %w", err)
		}
		project := Project{ID: obj.ID, Slug: attrs.Slug, Name: attrs.Name}
		if rel, ok := obj.Relationships["source_language"]; ok {
			project.SourceLanguage = strings.TrimPrefix(rel.Data.ID, "l:")
		}
		projects = append(projects, project)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return projects, nil
}

// Resources lists every resource in a project, following pagination.
func (c *Client) Resources(ctx context.Context, orgSlug, projectSlug string) ([]Resource, error) {
	query := url.Values{}
	query.Set("filter[project]", fmt.Sprintf("o:%s:p:%s", orgSlug, projectSlug))

	var resources []Resource
	err := c.paginate(ctx, "/resources", query, func(obj resourceObject) error {
		var attrs struct {
			Slug string `json:"slug"`
			Name string `json:"name"`
		}
		if err := json.Unmarshal(obj.Attributes, &attrs); err != nil {
			return fmt.Errorf("decode resource attributes: %w", err)
		}
		resource := Resource{ID: obj.ID, Slug: attrs.Slug, Name: attrs.Name}
		if rel, ok := obj.Relationships["i18n_format"]; ok {
			resource.I18nFormat = rel.Data.ID
		}
		resources = append(resources, resource)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resources, nil
}

// ProjectLanguages lists the target languages configured on a project.
func (c *Client) ProjectLanguages(ctx context.Context, orgSlug, projectSlug string) ([]Language, error) {
	path := fmt.Sprintf("/projects/o:%s:p:%s/languages", orgSlug, projectSlug)

	var languages []Language
	err := c.paginate(ctx, path, nil, func(obj resourceObject) error {
		var attrs struct {
			Code string `json:"code"`
		}
		if err := json.Unmarshal(obj.Attributes, &attrs); err != nil {
			return fmt.Errorf("decode language attributes: %w", err)
		}
		languages = append(languages, Language{ID: obj.ID, Code: attrs.Code})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return languages, nil
}

// CreateTMXDownload requests an asynchronous translation-memory export and
// returns its identifier.
func (c *Client) CreateTMXDownload(ctx context.Context, orgSlug, projectSlug, langCode string) (string, error) {
	body := map[string]any{
		"data": map[string]any{
			"type": "tmx_async_downloads",
			"relationships": map[string]any{
				"project": map[string]any{
					"data": map[string]string{
						"type": "projects",
						"id":   fmt.Sprintf("o:%s:p:%s", orgSlug, projectSlug),
					},
				},
				"language": map[string]any{
					"data": map[string]string{
						"type": "languages",
						"id":   "l:" + langCode,
					},
				},
			},
		},
	}

	var doc document
	if err := c.doJSON(ctx, http.MethodPost, "/tmx_async_downloads", nil, body, &doc); err != nil {
		return "", err
	}
	var obj resourceObject
	if err := json.Unmarshal(doc.Data, &obj); err != nil {
		return "", fmt.Errorf("decode tmx download: %w", err)
	}
	if obj.ID == "" {
		return "", services.Wrap(services.ErrTransient, "transifex", "create tmx download", "response missing id", nil)
	}
	return obj.ID, nil
}

// TMXDownloadStatus polls an asynchronous translation-memory export.
func (c *Client) TMXDownloadStatus(ctx context.Context, id string) (TMXStatus, error) {
	var doc document
	if err := c.doJSON(ctx, http.MethodGet, "/tmx_async_downloads/"+url.PathEscape(id), nil, nil, &doc); err != nil {
		return TMXStatus{}, err
	}
	var obj struct {
		Attributes struct {
			Status string `json:"status"`
			URL    string `json:"url"`
			Errors []struct {
				Detail string `json:"detail"`
			} `json:"errors"`
		} `json:"attributes"`
	}
	if err := json.Unmarshal(doc.Data, &obj); err != nil {
		return TMXStatus{}, fmt.Errorf("decode tmx status: %w", err)
	}
	status := TMXStatus{State: obj.Attributes.Status, URL: obj.Attributes.URL}
	if len(obj.Attributes.Errors) > 0 {
		status.Error = obj.Attributes.Errors[0].Detail
	}
	return status, nil
}

// Download streams the content behind a previously returned download URL.
func (c *Client) Download(ctx context.Context, rawURL string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("build download request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.doer.Do(req)
	if err != nil {
		return 0, services.Wrap(services.ErrTransient, "transifex", "download", "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, c.statusError("download", resp)
	}
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("stream download: %w", err)
	}
	return n, nil
}

// paginate walks a collection endpoint, invoking fn for every object.
func (c *Client) paginate(ctx context.Context, path string, query url.Values, fn func(resourceObject) error) error {
	next := c.baseURL + path
	if len(query) > 0 {
		next += "?" + query.Encode()
	}
	for next != "" {
		var doc document
		if err := c.doJSONURL(ctx, http.MethodGet, next, nil, &doc); err != nil {
			return err
		}
		var objects []resourceObject
		if err := json.Unmarshal(doc.Data, &objects); err != nil {
			return fmt.Errorf("decode collection page: %w", err)
		}
		for _, obj := range objects {
			if err := fn(obj); err != nil {
				return err
			}
		}
		next = doc.Links.Next
		if next != "" && strings.HasPrefix(next, "/") {
			next = c.baseURL + next
		}
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	full := c.baseURL + path
	if len(query) > 0 {
		full += "?" + query.Encode()
	}
	return c.doJSONURL(ctx, method, full, body, out)
}

// doJSONURL issues one logical request with bounded retries for throttled and
// transient failures.
func (c *Client) doJSONURL(ctx context.Context, method, fullURL string, body, out any) error {
	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		payload = encoded
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		retryAfter, err := c.attempt(ctx, method, fullURL, payload, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !services.IsRetryable(err) || attempt == c.maxRetries-1 {
			return err
		}
		if err := sleepContext(ctx, c.backoff(attempt, retryAfter)); err != nil {
			return err
		}
	}
	return lastErr
}

func (c *Client) attempt(ctx context.Context, method, fullURL string, payload []byte, out any) (time.Duration, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.api+json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/vnd.api+json")
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		return 0, services.Wrap(services.ErrTransient, "transifex", method+" "+fullURL, "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return parseRetryAfter(resp), c.statusError(method+" "+fullURL, resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return 0, fmt.Errorf("decode response: %w", err)
		}
	} else {
		_, _ = io.Copy(io.Discard, resp.Body)
	}
	return 0, nil
}

func (c *Client) statusError(op string, resp *http.Response) error {
	detail := readErrorDetail(resp.Body)
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return services.Wrap(services.ErrAuth, "transifex", op, "token invalid or lacking permission", nil)
	case resp.StatusCode == http.StatusNotFound:
		return services.Wrap(services.ErrNotFound, "transifex", op, detail, nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return services.Wrap(services.ErrRateLimited, "transifex", op, detail, nil)
	case resp.StatusCode >= 500:
		return services.Wrap(services.ErrTransient, "transifex", op, fmt.Sprintf("server error %d: %s", resp.StatusCode, detail), nil)
	default:
		return services.Wrap(services.ErrValidation, "transifex", op, fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, detail), nil)
	}
}

func (c *Client) backoff(attempt int, retryAfter time.Duration) time.Duration {
	if retryAfter > 0 {
		if retryAfter > maxRetryDelay {
			return maxRetryDelay
		}
		return retryAfter
	}
	delay := c.retryBase << uint(attempt)
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	// Full jitter keeps concurrent clients from retrying in lockstep. The
	// jittered value can land above the base delay, so it is capped again.
	jittered := time.Duration(rand.Int63n(int64(delay)) + int64(delay)/2)
	if jittered > maxRetryDelay {
		return maxRetryDelay
	}
	return jittered
}

func parseRetryAfter(resp *http.Response) time.Duration {
	header := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return 0
}

func readErrorDetail(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return ""
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err == nil && len(doc.Errors) > 0 {
		return doc.Errors[0].Detail
	}
	return strings.TrimSpace(string(data))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
