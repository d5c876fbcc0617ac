// Package auth implements sign-in and registration for the portal. The
// remote auth API is treated as a black box reached over HTTP with a bounded
// timeout; the locally persisted account store is the fully functional
// fallback, so the portal keeps working when the remote side is down or not
// configured at all.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrRemoteUnavailable wraps any transport-level failure talking to the
// remote auth API. Callers treat it as "fall back to local accounts".
var ErrRemoteUnavailable = errors.New("remote auth unavailable")

// ErrRemoteRejected indicates the remote auth API answered and refused the
// credentials or registration.
var ErrRemoteRejected = errors.New("remote auth rejected the request")

// Credentials is the login payload sent to the remote auth API.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// Registration is the sign-up payload sent to the remote auth API.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Address  string `json:"address,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// Session is the remote auth API's successful response: a bearer token plus
// whatever identity fields the server chose to echo.
type Session struct {
	Token string `json:"token"`
	Role  string `json:"role,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Client talks to the remote auth API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client for the given base URL. An empty base URL yields
// a nil client, meaning "no remote auth configured".
func NewClient(baseURL string, timeout time.Duration) *Client {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Client{
		baseURL: trimmed,
		http:    &http.Client{Timeout: timeout},
	}
}

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, creds Credentials) (*Session, error) {
	return c.post(ctx, "/login", creds)
}

// Register creates a remote account and returns the resulting session.
func (c *Client) Register(ctx context.Context, reg Registration) (*Session, error) {
	return c.post(ctx, "/register", reg)
}

func (c *Client) post(ctx context.Context, path string, payload any) (*Session, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrRemoteUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrRemoteUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrRemoteUnavailable, err)
	}

	switch {
	case res.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrRemoteUnavailable, res.StatusCode)
	case res.StatusCode >= 400:
		return nil, fmt.Errorf("%w: status %d", ErrRemoteRejected, res.StatusCode)
	}

	var session Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrRemoteUnavailable, err)
	}
	if session.Token == "" {
		return nil, fmt.Errorf("%w: response carried no token", ErrRemoteUnavailable)
	}
	return &session, nil
}
