package hubapi

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

	"hbstatus/internal/config"
	"hbstatus/internal/logging"
)

const (
	userAgent      = "hbstatus/0.1.0"
	defaultTimeout = 10 * time.Second

	noAuthPath         = "/api/auth/noauth"
	loginPath          = "/api/auth/login"
	statusPath         = "/api/status/homebridge"
	serviceVersionPath = "/api/status/homebridge-version"
	pluginsPath        = "/api/plugins"
	runtimePath        = "/api/status/nodejs"
	cpuPath            = "/api/status/cpu"
	ramPath            = "/api/status/ram"
	uptimePath         = "/api/status/uptime"

	// IgnoreServiceUpdates in the ignore list reports the service as up to date without asking.
	IgnoreServiceUpdates = "HOMEBRIDGE_UTD"
	// IgnoreRuntimeUpdates in the ignore list reports Node.js as up to date without asking.
	IgnoreRuntimeUpdates = "NODEJS_UTD"
)

var (
	// ErrUnavailable indicates the hub could not be reached or answered garbage.
	ErrUnavailable = errors.New("homebridge ui not reachable")
	// ErrCredentials indicates the login was answered without a token.
	ErrCredentials = errors.New("credentials not valid")
	// ErrNotAuthenticated is returned by reads attempted before Authenticate.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client reads status from one Homebridge UI instance.
type Client struct {
	baseURL  string
	username string
	password string
	timeout  time.Duration
	ignored  map[string]struct{}
	client   HTTPDoer
	logger   *slog.Logger
	token    string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP backend.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.client = doer
		}
	}
}

// WithCredentials sets the login used when the no-auth endpoint refuses.
func WithCredentials(username, password string) Option {
	return func(c *Client) {
		c.username = username
		c.password = password
	}
}

// WithTimeout bounds every individual request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithIgnoredUpdates skips update checks for the listed plugins and the
// IgnoreServiceUpdates/IgnoreRuntimeUpdates markers.
func WithIgnoredUpdates(names []string) Option {
	return func(c *Client) {
		for _, name := range names {
			c.ignored[name] = struct{}{}
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "hubapi")
	}
}

// NewClient constructs a client for the UI at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		timeout: defaultTimeout,
		ignored: make(map[string]struct{}),
		logger:  logging.NewComponentLogger(nil, "hubapi"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: c.timeout}
	}
	return c
}

// NewFromConfig builds a client from the [hub] section.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) *Client {
	return NewClient(cfg.Hub.BaseURL,
		WithCredentials(cfg.Hub.Username, cfg.Hub.Password),
		WithTimeout(cfg.HubTimeout()),
		WithIgnoredUpdates(cfg.Hub.IgnoreUpdates),
		WithLogger(logger),
	)
}

// BaseURL returns the normalized hub URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Authenticated reports whether a token is held.
func (c *Client) Authenticated() bool {
	return c.token != ""
}

type authResponse struct {
	AccessToken string `json:"access_token"`
}

// Authenticate obtains a bearer token. The no-auth endpoint is tried first;
// when it yields no token the configured credentials are used.
func (c *Client) Authenticate(ctx context.Context) error {
	var noAuth authResponse
	if err := c.postJSON(ctx, noAuthPath, struct{}{}, &noAuth); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if noAuth.AccessToken != "" {
		c.token = noAuth.AccessToken
		c.logger.Debug("authenticated without credentials")
		return nil
	}

	login := map[string]string{
		"username": c.username,
		"password": c.password,
		"otp":      "string",
	}
	var resp authResponse
	if err := c.postJSON(ctx, loginPath, login, &resp); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.AccessToken == "" {
		return ErrCredentials
	}
	c.token = resp.AccessToken
	c.logger.Debug("authenticated with credentials", logging.String("username", c.username))
	return nil
}

// Ping checks that the hub answers the no-auth endpoint with JSON.
func (c *Client) Ping(ctx context.Context) error {
	var resp authResponse
	if err := c.postJSON(ctx, noAuthPath, struct{}{}, &resp); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (c *Client) ignores(name string) bool {
	_, ok := c.ignored[name]
	return ok
}

// postJSON decodes the body regardless of status code: the auth endpoints
// answer refusals with JSON bodies that simply lack a token.
func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request body: %w", err)
	}
	resp, err := c.do(ctx, http.MethodPost, path, bytes.NewReader(data), false)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeBody(resp.Body, out)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	if c.token == "" {
		return ErrNotAuthenticated
	}
	resp, err := c.do(ctx, http.MethodGet, path, nil, true)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("GET %s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
	}
	return decodeBody(resp.Body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, withToken bool) (*http.Response, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	req, err := http.NewRequestWithContext(reqCtx, method, c.baseURL+path, body)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if withToken {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

func decodeBody(r io.Reader, out any) error {
	if err := json.NewDecoder(r).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
