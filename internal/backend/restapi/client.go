// Package restapi implements service.Backend against the task REST API.
package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"taskmgr/internal/config"
	"taskmgr/internal/service"
	"taskmgr/internal/session"
)

const (
	// maxErrorBody caps how much of a failed response is read for its message.
	maxErrorBody = 64 << 10

	// RequestIDHeader carries a per-request id for server-side correlation.
	RequestIDHeader = "X-Request-Id"
)

// Fallback messages shown when the server sends no message of its own.
const (
	msgLogin    = "Login failed"
	msgRegister = "Registration failed"
	msgList     = "Failed to fetch tasks."
	msgCreate   = "Failed to create task."
	msgUpdate   = "Failed to update task."
	msgDelete   = "Failed to delete task."
)

// Client implements service.Backend over HTTP.
type Client struct {
	basePath string // always ends with "/"
	timeout  time.Duration
	session  *session.Store
	public   *http.Client // auth endpoints, no credentials
	authed   *http.Client // task endpoints, bearer token from session
	logger   *slog.Logger
}

// New creates a client for the API at cfg.APIURL using the session store for
// bearer tokens.
func New(cfg *config.Config, store *session.Store, logger *slog.Logger) (*Client, error) {
	return NewWithTransport(cfg.APIURL, cfg.Timeout, store, logger, nil)
}

// NewWithTransport creates a client with a custom base transport (for testing).
// A nil transport means http.DefaultTransport.
func NewWithTransport(apiURL string, timeout time.Duration, store *session.Store, logger *slog.Logger, base http.RoundTripper) (*Client, error) {
	if store == nil {
		return nil, errors.New("session store required")
	}
	if !strings.HasPrefix(apiURL, "http://") && !strings.HasPrefix(apiURL, "https://") {
		return nil, fmt.Errorf("invalid api url: %q", apiURL)
	}
	if base == nil {
		base = http.DefaultTransport
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		basePath: strings.TrimSuffix(apiURL, "/") + "/",
		timeout:  timeout,
		session:  store,
		public:   &http.Client{Transport: base},
		authed: &http.Client{Transport: &oauth2.Transport{
			Source: store,
			Base:   base,
		}},
		logger: logger.With("component", "restapi"),
	}, nil
}

// Login implements service.Auth.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	body := map[string]string{"email": email, "password": password}
	var resp loginResponse
	if err := c.call(ctx, request{
		method:   http.MethodPost,
		path:     "auth/login",
		body:     body,
		out:      &resp,
		fallback: msgLogin,
	}); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", errors.New("invalid response: no token in login response")
	}
	return resp.Token, nil
}

// Register implements service.Auth.
func (c *Client) Register(ctx context.Context, name, email, password string) (service.Account, error) {
	body := map[string]string{"name": name, "email": email, "password": password}
	var resp registerResponse
	if err := c.call(ctx, request{
		method:   http.MethodPost,
		path:     "auth/register",
		body:     body,
		out:      &resp,
		fallback: msgRegister,
	}); err != nil {
		return service.Account{}, err
	}
	return resp.account(), nil
}

// ListTasks implements service.Service.
func (c *Client) ListTasks(ctx context.Context) ([]service.Task, error) {
	var resp taskListResponse
	if err := c.call(ctx, request{
		method:   http.MethodGet,
		path:     "tasks",
		authed:   true,
		out:      &resp,
		fallback: msgList,
	}); err != nil {
		return nil, err
	}
	return resp.tasks()
}

// CreateTask implements service.Service.
func (c *Client) CreateTask(ctx context.Context, draft service.Draft) (service.Task, error) {
	var resp taskResponse
	if err := c.call(ctx, request{
		method:   http.MethodPost,
		path:     "tasks",
		authed:   true,
		body:     draft,
		out:      &resp,
		fallback: msgCreate,
	}); err != nil {
		return service.Task{}, err
	}
	return resp.task("")
}

// UpdateTask implements service.Service.
func (c *Client) UpdateTask(ctx context.Context, id string, draft service.Draft) (service.Task, error) {
	if id == "" {
		return service.Task{}, errors.New("task id required")
	}
	var resp taskResponse
	if err := c.call(ctx, request{
		method:   http.MethodPut,
		path:     "tasks/{id}",
		params:   map[string]string{"id": id},
		authed:   true,
		body:     draft,
		out:      &resp,
		fallback: msgUpdate,
	}); err != nil {
		return service.Task{}, err
	}
	return resp.task(id)
}

// DeleteTask implements service.Service.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("task id required")
	}
	return c.call(ctx, request{
		method:   http.MethodDelete,
		path:     "tasks/{id}",
		params:   map[string]string{"id": id},
		authed:   true,
		fallback: msgDelete,
	})
}

// request describes one API exchange.
type request struct {
	method   string
	path     string            // relative to the base URL, may hold {param} templates
	params   map[string]string // template expansions, escaped by googleapi.Expand
	authed   bool              // send the session's bearer token
	body     any               // JSON request body, nil for none
	out      any               // JSON response target, nil to ignore the body
	fallback string            // message for non-2xx responses without one
}

// call performs r. Authenticated calls fail fast with the session error when
// no usable token exists, so no request leaves the process.
func (c *Client) call(ctx context.Context, r request) error {
	if r.authed {
		if _, err := c.session.Get(); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	urls := googleapi.ResolveRelative(c.basePath, r.path)
	req, err := http.NewRequestWithContext(ctx, r.method, urls, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if r.params != nil {
		googleapi.Expand(req.URL, r.params)
	}
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)

	client := c.public
	if r.authed {
		client = c.authed
	}

	start := time.Now()
	res, err := client.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "id", reqID, "method", r.method, "path", req.URL.Path, "err", err)
		return wrapTransportError(ctx, err)
	}
	defer googleapi.CloseBody(res)

	c.logger.Debug("request", "id", reqID, "method", r.method, "path", req.URL.Path,
		"status", res.StatusCode, "duration", time.Since(start))

	if err := c.checkResponse(res, r); err != nil {
		return err
	}
	if r.out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(r.out); err != nil {
		return fmt.Errorf("invalid response: %w", err)
	}
	return nil
}

// checkResponse turns a non-2xx response into a *service.APIError. A 401 on
// an authenticated call also destroys the session; a 403 leaves it alone.
func (c *Client) checkResponse(res *http.Response, r request) error {
	if res.StatusCode >= 200 && res.StatusCode <= 299 {
		return nil
	}

	data, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
	msg := errorMessage(data)
	if msg == "" {
		msg = r.fallback
	}

	var kind error
	switch {
	case r.authed && res.StatusCode == http.StatusUnauthorized:
		kind = service.ErrUnauthorized
		if err := c.session.Clear(); err != nil {
			c.logger.Warn("failed to clear session", "err", err)
		}
	case res.StatusCode == http.StatusNotFound:
		kind = service.ErrNotFound
	}
	return service.NewAPIError(res.StatusCode, msg, kind)
}

// wrapTransportError maps client.Do failures to user-facing errors.
func wrapTransportError(ctx context.Context, err error) error {
	if service.IsAuthError(err) {
		// The oauth2 transport found no usable token.
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return service.ErrTimeout
	}
	if errors.Is(err, context.Canceled) {
		return context.Canceled
	}
	return service.NetworkError(err)
}
