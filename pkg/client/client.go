// Package client implements the portal's consumed capabilities over HTTP:
// fetching form definitions, resolving dependent option lists, and submitting
// completed applications. It satisfies the interfaces the interpreter engine
// expects, keeping transport concerns out of the core packages.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/goliatone/go-formportal/pkg/schema"
)

// ErrDefinitionLoad marks a failed form-definition fetch. This is the one
// blocking failure in the portal: without definitions no form is selectable.
var ErrDefinitionLoad = errors.New("client: form definitions unavailable")

const (
	defaultTimeout    = 10 * time.Second
	definitionsPath   = "/api/forms"
	applicationsPath  = "/api/applications"
	defaultOptionsKey = "states"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

// Option customises client construction.
type Option func(*Client)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithOptionsKey overrides the response key holding dependent option arrays.
func WithOptionsKey(key string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(key); trimmed != "" {
			c.optionsKey = trimmed
		}
	}
}

// Client is a thin HTTP client for a formportal backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	optionsKey string
}

// New constructs a client for the given base URL.
func New(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errors.New("client: base url is required")
	}
	c := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{},
		timeout:    defaultTimeout,
		optionsKey: defaultOptionsKey,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c, nil
}

// FetchFormDefinitions retrieves and parses the form-definition list.
func (c *Client) FetchFormDefinitions(ctx context.Context) ([]schema.FormDefinition, error) {
	raw, err := c.get(ctx, c.baseURL+definitionsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDefinitionLoad, err)
	}
	defs, err := schema.ParseDefinitions(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDefinitionLoad, err)
	}
	return defs, nil
}

// FetchOptions performs a dependent-option lookup. It satisfies
// options.Fetcher. A response whose option payload is missing or not an array
// coerces to an empty list rather than an error.
func (c *Client) FetchOptions(ctx context.Context, endpoint, method string, query url.Values) ([]string, error) {
	target := endpoint
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	}
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	if strings.TrimSpace(method) == "" {
		method = http.MethodGet
	}

	raw, err := c.do(ctx, method, target, nil)
	if err != nil {
		return nil, err
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("client: decode options: %w", err)
	}
	return coerceOptionList(payload[c.optionsKey]), nil
}

// SubmitApplication posts the full answer set. It satisfies
// session.Submitter.
func (c *Client) SubmitApplication(ctx context.Context, formID string, payload map[string]any) error {
	body, err := json.Marshal(map[string]any{
		"formId":  formID,
		"answers": payload,
	})
	if err != nil {
		return fmt.Errorf("client: marshal submission: %w", err)
	}
	if _, err := c.do(ctx, http.MethodPost, c.baseURL+applicationsPath, body); err != nil {
		return fmt.Errorf("client: submit application: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, target string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, target, nil)
}

func (c *Client) do(ctx context.Context, method, target string, body []byte) ([]byte, error) {
	reqCtx := ctx
	var cancel context.CancelFunc
	if c.timeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(reqCtx, method, target, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set(headerContentType, contentTypeJSON)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("client: unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func coerceOptionList(value any) []string {
	list, ok := value.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(list))
	for _, entry := range list {
		if s, ok := entry.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
