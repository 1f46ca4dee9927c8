package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// HTTPClient talks to the hosted backend over its REST interface:
// /auth/v1 for phone-OTP auth, /rest/v1/{table} for row access with
// column=eq.value filters.
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *slog.Logger

	mu      sync.RWMutex
	session *RemoteSession

	// onUnauthorized runs when a table operation comes back 401, after the
	// local session copy is cleared. The session machine hooks this to drop
	// the persisted session as well.
	onUnauthorized func()
}

// NewHTTPClient builds a backend client for the given project URL and API key.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// OnUnauthorized registers a hook invoked when the backend rejects the
// current bearer token on a table operation.
func (c *HTTPClient) OnUnauthorized(fn func()) {
	c.onUnauthorized = fn
}

// Session returns a copy of the current remote session, or nil.
func (c *HTTPClient) Session() *RemoteSession {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return nil
	}
	sess := *c.session
	return &sess
}

// SetSession adopts sess as the bearer credential for subsequent calls.
func (c *HTTPClient) SetSession(sess RemoteSession) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = &sess
}

// ClearSession drops the bearer credential.
func (c *HTTPClient) ClearSession() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = nil
}

// SendOTP asks the backend to deliver a one-time passcode to phone.
func (c *HTTPClient) SendOTP(ctx context.Context, phone string) error {
	return c.do(ctx, http.MethodPost, "/auth/v1/otp", nil, map[string]string{"phone": phone}, nil)
}

type verifyResponse struct {
	AccessToken string `json:"access_token"`
	User        struct {
		ID    string `json:"id"`
		Phone string `json:"phone"`
	} `json:"user"`
}

// VerifyOTP exchanges phone+code for a session. The caller decides whether
// to adopt the returned session via SetSession.
func (c *HTTPClient) VerifyOTP(ctx context.Context, phone, code string) (RemoteSession, error) {
	body := map[string]string{"phone": phone, "token": code, "type": "sms"}
	var resp verifyResponse
	if err := c.do(ctx, http.MethodPost, "/auth/v1/verify", nil, body, &resp); err != nil {
		return RemoteSession{}, err
	}
	if resp.AccessToken == "" {
		return RemoteSession{}, ErrNoSessionIssued
	}
	return RemoteSession{AccessToken: resp.AccessToken, UserID: resp.User.ID, Phone: resp.User.Phone}, nil
}

// SignOut invalidates the remote session. The local copy is left for the
// caller to clear; sign-out policy lives in the session machine.
func (c *HTTPClient) SignOut(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/v1/logout", nil, nil, nil)
}

// Select fetches the rows of table matching filter.
func (c *HTTPClient) Select(ctx context.Context, table string, filter Filter) ([]Row, error) {
	var rows []Row
	if err := c.do(ctx, http.MethodGet, "/rest/v1/"+table, filterQuery(filter), nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// SelectOne fetches a single row, failing with ErrNotFound when nothing matches.
func (c *HTTPClient) SelectOne(ctx context.Context, table string, filter Filter) (Row, error) {
	rows, err := c.Select(ctx, table, filter)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}

// Insert creates a row and returns the stored representation.
func (c *HTTPClient) Insert(ctx context.Context, table string, row Row) (Row, error) {
	var rows []Row
	if err := c.do(ctx, http.MethodPost, "/rest/v1/"+table, nil, row, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return row, nil
	}
	return rows[0], nil
}

// Update patches the rows matching filter and returns the first updated row.
func (c *HTTPClient) Update(ctx context.Context, table string, filter Filter, patch Row) (Row, error) {
	var rows []Row
	if err := c.do(ctx, http.MethodPatch, "/rest/v1/"+table, filterQuery(filter), patch, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}

// Delete removes the rows matching filter.
func (c *HTTPClient) Delete(ctx context.Context, table string, filter Filter) error {
	return c.do(ctx, http.MethodDelete, "/rest/v1/"+table, filterQuery(filter), nil, nil)
}

func filterQuery(filter Filter) url.Values {
	if len(filter) == 0 {
		return nil
	}
	q := url.Values{}
	for col, val := range filter {
		q.Set(col, fmt.Sprintf("eq.%v", val))
	}
	return q
}

type errorResponse struct {
	Msg         string `json:"msg"`
	Message     string `json:"message"`
	Description string `json:"error_description"`
}

func (e errorResponse) text() string {
	switch {
	case e.Msg != "":
		return e.Msg
	case e.Message != "":
		return e.Message
	case e.Description != "":
		return e.Description
	}
	return ""
}

func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set(requestIDHeader, uuid.NewString())
	req.Header.Set("Prefer", "return=representation")
	if sess := c.Session(); sess != nil {
		req.Header.Set("Authorization", "Bearer "+sess.AccessToken)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	if resp.StatusCode >= 400 {
		var remote errorResponse
		_ = json.Unmarshal(raw, &remote)
		return c.remoteError(path, resp.StatusCode, remote.text())
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *HTTPClient) remoteError(path string, status int, msg string) error {
	if status == http.StatusUnauthorized {
		c.ClearSession()
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return fmt.Errorf("%s: %w", path, ErrUnauthorized)
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	c.logger.Debug("backend error", "path", path, "status", status, "msg", msg)
	if strings.HasPrefix(path, "/auth/v1/") {
		return &AuthError{Message: msg}
	}
	return fmt.Errorf("%s: %s", path, msg)
}
