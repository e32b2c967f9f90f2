package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TokenSource yields the current bearer token, or "" when no session exists.
type TokenSource func() string

// Client calls the remote attendance backend. Every method issues exactly
// one request: no retries, no queueing, no deduplication of concurrent
// identical calls.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Tokens  TokenSource

	// Demo short-circuits every method with canned fixtures instead of
	// touching the network. Set only via the explicit DEMO_MODE flag.
	Demo bool
}

// New creates a client with a configurable timeout.
func New(baseURL string, timeout time.Duration, demo bool) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Demo:    demo,
		HTTP: &http.Client{
			Timeout: timeout,
		},
	}
}

// Login exchanges credentials for a bearer token plus the identity it
// authorizes.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	if c.Demo {
		return demoLogin(email), nil
	}
	body := map[string]string{"email": email, "password": password}
	var out LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", "/auth/login", body, &out, "login failed"); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account through the public signup flow.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*Identity, error) {
	if c.Demo {
		id := demoIdentity(req.Name, req.Email, req.Role)
		return &id, nil
	}
	var out Identity
	if err := c.do(ctx, http.MethodPost, "/auth/register", "/auth/register", req, &out, "registration failed"); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health probes the backend base URL. Any HTTP response counts as reachable;
// only transport failures are reported.
func (c *Client) Health(ctx context.Context) error {
	if c.Demo {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("attendance backend unreachable: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// do issues one JSON request. route is the templated path used for metrics
// labels; path is the concrete request path.
func (c *Client) do(ctx context.Context, method, route, path string, body, out any, fallback string) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.Tokens != nil {
		if token := c.Tokens(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		observeRequest(method, route, "error", time.Since(start))
		return fmt.Errorf("attendance api request failed: %w", err)
	}
	defer resp.Body.Close()
	observeRequest(method, route, strconv.Itoa(resp.StatusCode), time.Since(start))

	if resp.StatusCode >= 300 {
		return decodeError(resp, fallback)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// decodeError extracts the backend's message field when present.
func decodeError(resp *http.Response, fallback string) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body struct {
		Message string `json:"message"`
		Err     string `json:"error"`
	}
	msg := fallback
	if err := json.Unmarshal(data, &body); err == nil {
		switch {
		case body.Message != "":
			msg = body.Message
		case body.Err != "":
			msg = body.Err
		}
	}
	return &Error{Status: resp.StatusCode, Message: msg}
}
