// Package ragdex is a Go client for the ragdex HTTP API.
package ragdex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 300 * time.Second

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ragdex: %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithAPIKey sets the bearer token sent with every request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// Client talks to a ragdex server.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New creates a client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Ask sends a question and returns the generated answer. sessionID may
// be empty; the server then starts a new session and returns its id.
func (c *Client) Ask(ctx context.Context, question, sessionID string) (Answer, error) {
	var out Answer
	err := c.do(ctx, http.MethodPost, "/ask", askRequest{Question: question, SessionID: sessionID}, &out)
	return out, err
}

// Rebuild triggers a full index rebuild from the corpus directory.
func (c *Client) Rebuild(ctx context.Context) (RebuildStats, error) {
	var out RebuildStats
	err := c.do(ctx, http.MethodPost, "/admin/rebuild", nil, &out)
	return out, err
}

// Unload asks the provider to release model memory.
func (c *Client) Unload(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/admin/unload", nil, nil)
}

// Sessions lists stored session ids in lexicographic order.
func (c *Client) Sessions(ctx context.Context) ([]string, error) {
	var out sessionListResponse
	if err := c.do(ctx, http.MethodGet, "/sessions", nil, &out); err != nil {
		return nil, err
	}
	return out.Sessions, nil
}

// Session fetches one conversation. Unknown ids yield an empty session.
func (c *Client) Session(ctx context.Context, id string) (Session, error) {
	var out Session
	err := c.do(ctx, http.MethodGet, "/sessions/"+url.PathEscape(id), nil, &out)
	return out, err
}

// DeleteSession removes a conversation.
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/sessions/"+url.PathEscape(id), nil, nil)
}

// Health returns the service health report.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	err := c.do(ctx, http.MethodGet, "/health", nil, &out)
	return out, err
}

// DownloadIndex streams the current index snapshot (tar.gz) to w.
func (c *Client) DownloadIndex(ctx context.Context, w io.Writer) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/admin/index/archive", nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ragdex: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return parseAPIError(resp)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("ragdex: download archive: %w", err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("ragdex: marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("ragdex: create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ragdex: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ragdex: decode response: %w", err)
	}
	return nil
}

func parseAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var parsed errorResponse
	if json.Unmarshal(body, &parsed) == nil && parsed.Code != "" {
		apiErr.Code = parsed.Code
		apiErr.Message = parsed.Message
	} else {
		apiErr.Code = "unknown"
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}
