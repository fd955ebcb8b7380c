// Package apiclient talks to the remote quota API over REST/JSON.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Skotchmaster/quota_portal/internal/models"
)

// TokenSource supplies the bearer token for outbound calls. An empty token
// means the call goes out unauthenticated.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource that always returns the same token.
type StaticToken string

func (s StaticToken) Token(context.Context) (string, error) { return string(s), nil }

type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	timeout    time.Duration
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout. It is applied to a copy of the
// http.Client, so a client passed to WithHTTPClient is never modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = defaultHTTPClient()
	}
	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c
}

func defaultHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 15 * time.Second,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   5 * time.Second,
				KeepAlive: 60 * time.Second,
			}).DialContext,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
}

// WithTokens returns a client sharing the transport of c but reading its
// token from ts.
func (c *Client) WithTokens(ts TokenSource) *Client {
	cp := *c
	cp.tokens = ts
	return &cp
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) Register(ctx context.Context, in models.RegisterInput) (*models.AuthResponse, error) {
	var out models.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, in models.LoginInput) (*models.AuthResponse, error) {
	var out models.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SubmitRequest(ctx context.Context, in models.RequestInput) (*models.MessageResponse, error) {
	return c.message(ctx, http.MethodPost, "/requests", in)
}

func (c *Client) GetMyRequests(ctx context.Context) ([]models.Request, error) {
	var out []models.Request
	if err := c.do(ctx, http.MethodGet, "/requests/me", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetMyQuota(ctx context.Context) (*models.Quota, error) {
	var out models.Quota
	if err := c.do(ctx, http.MethodGet, "/quota/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateMyRequest(ctx context.Context, id string, in models.RequestInput) (*models.MessageResponse, error) {
	return c.message(ctx, http.MethodPut, "/requests/"+url.PathEscape(id), in)
}

func (c *Client) DeleteMyRequest(ctx context.Context, id string) (*models.MessageResponse, error) {
	return c.message(ctx, http.MethodDelete, "/requests/"+url.PathEscape(id), nil)
}

func (c *Client) GetAllUsers(ctx context.Context) ([]models.User, error) {
	var out []models.User
	if err := c.do(ctx, http.MethodGet, "/admin/users", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateUserQuota(ctx context.Context, userID string, quotaLimit int) (*models.MessageResponse, error) {
	body := struct {
		QuotaLimit int `json:"quotaLimit"`
	}{quotaLimit}
	return c.message(ctx, http.MethodPut, "/admin/quota/"+url.PathEscape(userID), body)
}

func (c *Client) GetAllRequests(ctx context.Context) ([]models.Request, error) {
	var out []models.Request
	if err := c.do(ctx, http.MethodGet, "/admin/requests", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateRequestStatus(ctx context.Context, id string, status models.Status) (*models.MessageResponse, error) {
	body := struct {
		Status models.Status `json:"status"`
	}{status}
	return c.message(ctx, http.MethodPut, "/admin/requests/"+url.PathEscape(id), body)
}

func (c *Client) GetReports(ctx context.Context) ([]models.Report, error) {
	var out []models.Report
	if err := c.do(ctx, http.MethodGet, "/admin/reports", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) message(ctx context.Context, method, path string, body any) (*models.MessageResponse, error) {
	var out models.MessageResponse
	if err := c.do(ctx, method, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// prepare builds the outbound request and attaches the bearer token.
func (c *Client) prepare(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("read token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	req, err := c.prepare(ctx, method, path, body)
	if err != nil {
		return &Error{Op: method + " " + path, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Op: method + " " + path, Err: fmt.Errorf("do request: %w", err)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Op: method + " " + path, Status: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var msg models.MessageResponse
		_ = json.Unmarshal(data, &msg)
		return &Error{Op: method + " " + path, Status: resp.StatusCode, Message: msg.Message}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Op: method + " " + path, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
