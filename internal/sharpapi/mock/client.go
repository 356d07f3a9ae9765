package mock

import (
	"context"
	"net/http"
	"net/url"
	"sync"

	"github.com/kiranshivaraju/sharpjobs/internal/sharpapi"
)

// Call records one request made against a Client.
type Call struct {
	Method string
	Path   string
	Params map[string]any
	Query  url.Values
	File   *sharpapi.File
}

// Client satisfies sharpapi.Client for testing. Unset funcs return an empty 200.
type Client struct {
	PostFunc  func(ctx context.Context, path string, params map[string]any, file *sharpapi.File) (*sharpapi.Response, error)
	GetFunc   func(ctx context.Context, path string, query url.Values) (*sharpapi.Response, error)
	FetchFunc func(ctx context.Context, statusURL string) (*sharpapi.Response, error)

	mu    sync.Mutex
	calls []Call
}

func (m *Client) Post(ctx context.Context, path string, params map[string]any, file *sharpapi.File) (*sharpapi.Response, error) {
	m.record(Call{Method: http.MethodPost, Path: path, Params: params, File: file})
	if m.PostFunc != nil {
		return m.PostFunc(ctx, path, params, file)
	}
	return JSON(`{}`), nil
}

func (m *Client) Get(ctx context.Context, path string, query url.Values) (*sharpapi.Response, error) {
	m.record(Call{Method: http.MethodGet, Path: path, Query: query})
	if m.GetFunc != nil {
		return m.GetFunc(ctx, path, query)
	}
	return JSON(`{}`), nil
}

func (m *Client) Fetch(ctx context.Context, statusURL string) (*sharpapi.Response, error) {
	m.record(Call{Method: http.MethodGet, Path: statusURL})
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, statusURL)
	}
	return JSON(`{}`), nil
}

// Calls returns a copy of the recorded calls.
func (m *Client) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *Client) record(c Call) {
	m.mu.Lock()
	m.calls = append(m.calls, c)
	m.mu.Unlock()
}

// JSON builds a 200 response with the given body.
func JSON(body string) *sharpapi.Response {
	return &sharpapi.Response{StatusCode: http.StatusOK, Header: http.Header{}, Body: []byte(body)}
}

// WithRetryAfter builds a 200 response carrying a Retry-After header.
func WithRetryAfter(body, retryAfter string) *sharpapi.Response {
	resp := JSON(body)
	resp.Header.Set("Retry-After", retryAfter)
	return resp
}

// NewSubmitClient returns a Client whose submissions all answer with statusURL.
func NewSubmitClient(statusURL string) *Client {
	return &Client{
		PostFunc: func(_ context.Context, _ string, _ map[string]any, _ *sharpapi.File) (*sharpapi.Response, error) {
			return JSON(`{"status_url":"` + statusURL + `"}`), nil
		},
	}
}

// NewSequenceClient returns a Client whose Fetch calls replay responses in
// order, repeating the last one once the sequence is exhausted.
func NewSequenceClient(responses ...*sharpapi.Response) *Client {
	var mu sync.Mutex
	i := 0
	return &Client{
		FetchFunc: func(_ context.Context, _ string) (*sharpapi.Response, error) {
			mu.Lock()
			defer mu.Unlock()
			r := responses[i]
			if i < len(responses)-1 {
				i++
			}
			return r, nil
		},
	}
}

// NewFailingClient returns a Client that always returns err.
func NewFailingClient(err error) *Client {
	return &Client{
		PostFunc: func(_ context.Context, _ string, _ map[string]any, _ *sharpapi.File) (*sharpapi.Response, error) {
			return nil, err
		},
		GetFunc: func(_ context.Context, _ string, _ url.Values) (*sharpapi.Response, error) {
			return nil, err
		},
		FetchFunc: func(_ context.Context, _ string) (*sharpapi.Response, error) {
			return nil, err
		},
	}
}

// Compile-time check that Client implements sharpapi.Client.
var _ sharpapi.Client = (*Client)(nil)
