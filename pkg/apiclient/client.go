// Package apiclient is the single HTTP client shared by every front end. It
// wraps the REST API with typed calls, keeps the access/refresh token pair and
// transparently retries a request once after refreshing an expired session.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// ErrSessionExpired means the refresh token was rejected too; the caller must
// send the user back to the login screen.
var ErrSessionExpired = errors.New("session expired, please log in again")

// APIError carries the decoded error payload from a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
	Fields     map[string][]string
}

func (e *APIError) Error() string {
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for field, msgs := range e.Fields {
			parts = append(parts, field+": "+strings.Join(msgs, "; "))
		}
		return fmt.Sprintf("%s (%s)", e.Message, strings.Join(parts, ", "))
	}
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

// Client talks to the law office API. Safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

func New(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 20 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// SetTokens installs a previously saved token pair (e.g. from the CLI config).
func (c *Client) SetTokens(access, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = access
	c.refreshToken = refresh
}

// Tokens returns the current pair so callers can persist it.
func (c *Client) Tokens() (access, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken, c.refreshToken
}

func (c *Client) currentAccess() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken
}

func (c *Client) request(ctx context.Context, method, path string, in, out any) error {
	used := c.currentAccess()
	err := c.do(ctx, method, path, in, out, used)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		return err
	}

	if err := c.refresh(ctx, used); err != nil {
		return err
	}
	return c.do(ctx, method, path, in, out, c.currentAccess())
}

func (c *Client) do(ctx context.Context, method, path string, in, out any, token string) error {
	var body io.Reader
	if in != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(in); err != nil {
			return err
		}
		body = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// refresh exchanges the refresh token for a new pair. Concurrent callers are
// serialized; a caller whose stale token was already replaced by an earlier
// refresh skips the exchange and reuses the installed pair.
func (c *Client) refresh(ctx context.Context, stale string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != stale {
		return nil
	}
	if c.refreshToken == "" {
		return ErrSessionExpired
	}

	var out AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/refresh",
		map[string]string{"refresh": c.refreshToken}, &out, "")
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
			c.accessToken = ""
			c.refreshToken = ""
			return ErrSessionExpired
		}
		return err
	}

	c.accessToken = out.Access
	c.refreshToken = out.Refresh
	return nil
}

func decodeError(resp *http.Response) error {
	payload, _ := io.ReadAll(resp.Body)

	// Validation errors carry a per-field map, plain errors a message string.
	var v struct {
		Message string              `json:"message"`
		Error   string              `json:"error"`
		Errors  map[string][]string `json:"errors"`
	}
	apiErr := &APIError{StatusCode: resp.StatusCode}
	if json.Unmarshal(payload, &v) == nil {
		apiErr.Fields = v.Errors
		switch {
		case v.Message != "":
			apiErr.Message = v.Message
		case v.Error != "":
			apiErr.Message = v.Error
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(payload))
	}
	return apiErr
}
