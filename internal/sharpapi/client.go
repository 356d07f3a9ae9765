// Package sharpapi is the transport layer for the SharpAPI job service: it
// sends one request per call and hands back the raw response. It never retries.
package sharpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/kiranshivaraju/sharpjobs/internal/config"
)

// Client is the interface for talking to the SharpAPI service.
type Client interface {
	// Post submits params (and an optional file) to a task path relative to the base URL.
	Post(ctx context.Context, path string, params map[string]any, file *File) (*Response, error)
	// Get calls a synchronous endpoint relative to the base URL.
	Get(ctx context.Context, path string, query url.Values) (*Response, error)
	// Fetch issues a bare GET against an absolute status URL.
	Fetch(ctx context.Context, statusURL string) (*Response, error)
}

// Response is a decoded 2xx reply. Header is kept for the poller's Retry-After.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the body into v. Failures wrap ErrDecode.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}

// StatusURL reads the status_url field of a submission response. It returns
// "" when the field is absent.
func (r *Response) StatusURL() (string, error) {
	var body struct {
		StatusURL string `json:"status_url"`
	}
	if err := r.Decode(&body); err != nil {
		return "", err
	}
	return body.StatusURL, nil
}

// HTTPClient implements Client over net/http.
type HTTPClient struct {
	cfg    config.SharpAPIConfig
	client *http.Client
}

// NewHTTPClient creates a new SharpAPI HTTP client. It fails with
// ErrMissingAPIKey when no key is configured.
func NewHTTPClient(cfg config.SharpAPIConfig) (*HTTPClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = config.DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.UserAgent == "" {
		cfg.UserAgent = config.DefaultUserAgent
	}
	return &HTTPClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// BaseURL returns the configured API root.
func (c *HTTPClient) BaseURL() string { return c.cfg.BaseURL }

func (c *HTTPClient) Post(ctx context.Context, path string, params map[string]any, file *File) (*Response, error) {
	body, contentType, err := encodeBody(params, file)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	c.setHeaders(httpReq)
	httpReq.Header.Set("Content-Type", contentType)

	return c.do(httpReq)
}

func (c *HTTPClient) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	u := c.cfg.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	c.setHeaders(httpReq)

	return c.do(httpReq)
}

func (c *HTTPClient) Fetch(ctx context.Context, statusURL string) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	c.setHeaders(httpReq)

	return c.do(httpReq)
}

func (c *HTTPClient) do(httpReq *http.Request) (*Response, error) {
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, &TransportError{
			Method: httpReq.Method,
			URL:    httpReq.URL.String(),
			Err:    classifyError(err),
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{
			Method: httpReq.Method,
			URL:    httpReq.URL.String(),
			Err:    classifyError(err),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{
			Method:     httpReq.Method,
			URL:        httpReq.URL.String(),
			StatusCode: resp.StatusCode,
			Body:       body,
		}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// setHeaders is called for every request; nothing is cached between calls.
func (c *HTTPClient) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
