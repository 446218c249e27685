// Package api is the HTTP client for the finance backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Endpoint paths, relative to the base URL.
const (
	PathTransactions = "transactions/"
	PathSummary      = "transactions/summary/"
	PathCategories   = "categories/"
	PathBudgets      = "budgets/progress"
	PathForecast     = "forecasts/summary13week/"
	PathLogin        = "auth/login/"
	PathSignup       = "auth/signup/"
	PathLogout       = "auth/logout/"
	PathCurrentUser  = "auth/user/"
)

const (
	defaultTimeout = 15 * time.Second
	maxBodySize    = 4 << 20 // 4 MB
	userAgent      = "finboard/1.0"
)

var (
	// ErrRequestFailed covers transport failures and any non-2xx status.
	ErrRequestFailed = errors.New("api: request failed")
	// ErrUnauthorized indicates the token is missing, expired, or rejected.
	ErrUnauthorized = errors.New("api: unauthorized")
	// ErrMalformedResponse indicates a 2xx body that could not be decoded.
	ErrMalformedResponse = errors.New("api: malformed response")
)

// RequestError describes a failed request. Status is zero for
// transport failures, in which case Err holds the cause.
type RequestError struct {
	Method string
	Path   string
	Status int
	Err    error
}

func (e *RequestError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("api: %s %s: %v", e.Method, e.Path, e.Err)
	}
	return fmt.Sprintf("api: %s %s: unexpected status %d", e.Method, e.Path, e.Status)
}

// Is matches ErrRequestFailed always and ErrUnauthorized for 401/403.
func (e *RequestError) Is(target error) bool {
	switch target {
	case ErrRequestFailed:
		return true
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	}
	return false
}

func (e *RequestError) Unwrap() error { return e.Err }

// Recorder receives the body of every successful GET.
type Recorder interface {
	Record(path string, body []byte) error
}

// Client talks to the finance API. It is safe for concurrent use.
type Client struct {
	base     *url.URL
	http     *http.Client
	timeout  time.Duration
	log      zerolog.Logger
	recorder Recorder

	mu    sync.RWMutex
	token string

	group singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithToken seeds the auth token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithTransport replaces the HTTP transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.http.Transport = rt }
}

// WithRecorder snapshots successful GET bodies.
func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// New creates a client for baseURL. A trailing slash is added when missing.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("api: parsing base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("api: base url %q must be http or https", baseURL)
	}

	jar, _ := cookiejar.New(nil)
	c := &Client{
		base:    base,
		http:    &http.Client{Jar: jar},
		timeout: defaultTimeout,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string { return c.base.String() }

// SetToken replaces the auth token. An empty token drops the header.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current auth token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// ListTransactions returns every transaction visible to the user.
func (c *Client) ListTransactions(ctx context.Context) ([]Transaction, error) {
	body, err := c.do(ctx, http.MethodGet, PathTransactions, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[Transaction](PathTransactions, body)
}

// CreateTransaction posts a new transaction and returns the stored record.
func (c *Client) CreateTransaction(ctx context.Context, in NewTransaction) (Transaction, error) {
	var out Transaction
	body, err := c.do(ctx, http.MethodPost, PathTransactions, in)
	if err != nil {
		return out, err
	}
	return out, decode(PathTransactions, body, &out)
}

// TransactionSummary returns the completed/pending summary.
func (c *Client) TransactionSummary(ctx context.Context) (SummaryResponse, error) {
	var out SummaryResponse
	body, err := c.do(ctx, http.MethodGet, PathSummary, nil)
	if err != nil {
		return out, err
	}
	return out, decode(PathSummary, body, &out)
}

// ListCategories returns all categories. Concurrent calls share one
// request; it runs detached from any single caller's cancellation, so each
// caller only gives up on its own context.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(PathCategories, func() (any, error) {
		body, err := c.do(shared, http.MethodGet, PathCategories, nil)
		if err != nil {
			return nil, err
		}
		return decodeList[Category](PathCategories, body)
	})

	select {
	case <-ctx.Done():
		return nil, &RequestError{Method: http.MethodGet, Path: PathCategories, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return slices.Clone(res.Val.([]Category)), nil
	}
}

// CreateCategory posts a new category.
func (c *Client) CreateCategory(ctx context.Context, in NewCategory) (Category, error) {
	var out Category
	body, err := c.do(ctx, http.MethodPost, PathCategories, in)
	if err != nil {
		return out, err
	}
	return out, decode(PathCategories, body, &out)
}

// BudgetProgress returns per-category budget usage.
func (c *Client) BudgetProgress(ctx context.Context) ([]BudgetProgress, error) {
	body, err := c.do(ctx, http.MethodGet, PathBudgets, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[BudgetProgress](PathBudgets, body)
}

// Forecast13Week returns the rolling weekly forecast.
func (c *Client) Forecast13Week(ctx context.Context) ([]ForecastWeek, error) {
	body, err := c.do(ctx, http.MethodGet, PathForecast, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[ForecastWeek](PathForecast, body)
}

// Login exchanges credentials for a token and keeps it on the client.
func (c *Client) Login(ctx context.Context, username, password string) (AuthResponse, error) {
	return c.authenticate(ctx, PathLogin, LoginRequest{Username: username, Password: password})
}

// Signup registers an account and keeps the issued token on the client.
func (c *Client) Signup(ctx context.Context, in SignupRequest) (AuthResponse, error) {
	return c.authenticate(ctx, PathSignup, in)
}

func (c *Client) authenticate(ctx context.Context, path string, in any) (AuthResponse, error) {
	var out AuthResponse
	body, err := c.do(ctx, http.MethodPost, path, in)
	if err != nil {
		return out, err
	}
	if err := decode(path, body, &out); err != nil {
		return out, err
	}
	if out.Token == "" {
		return out, fmt.Errorf("%w: %s: missing token", ErrMalformedResponse, path)
	}
	c.SetToken(out.Token)
	return out, nil
}

// Logout ends the server session. The local token is dropped either way.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, PathLogout, nil)
	c.SetToken("")
	return err
}

// CurrentUser returns the user the token belongs to.
func (c *Client) CurrentUser(ctx context.Context) (User, error) {
	var out User
	body, err := c.do(ctx, http.MethodGet, PathCurrentUser, nil)
	if err != nil {
		return out, err
	}
	return out, decode(PathCurrentUser, body, &out)
}

// do performs a credentialed request and returns the response body.
func (c *Client) do(ctx context.Context, method, path string, in any) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("api: parsing path %q: %w", path, err)
	}
	target := c.base.ResolveReference(ref)

	var reqBody io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("api: encoding %s body: %w", path, err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reqBody)
	if err != nil {
		return nil, fmt.Errorf("api: creating request: %w", err)
	}

	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", reqID)
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Token "+tok)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Str("request_id", reqID).Str("method", method).Str("path", path).Err(err).Msg("request failed")
		return nil, &RequestError{Method: method, Path: path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	c.log.Debug().
		Str("request_id", reqID).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RequestError{Method: method, Path: path, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &RequestError{Method: method, Path: path, Err: fmt.Errorf("reading response: %w", err)}
	}

	if method == http.MethodGet && c.recorder != nil {
		if err := c.recorder.Record(path, body); err != nil {
			c.log.Warn().Err(err).Str("path", path).Msg("recording response")
		}
	}
	return body, nil
}

func decode(path string, body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedResponse, path, err)
	}
	return nil
}

// decodeList accepts a bare array or a paginated {"results": [...]} envelope.
func decodeList[T any](path string, body []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var page struct {
			Results *[]T `json:"results"`
		}
		if err := json.Unmarshal(trimmed, &page); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedResponse, path, err)
		}
		if page.Results == nil {
			return nil, fmt.Errorf("%w: %s: expected a list", ErrMalformedResponse, path)
		}
		return *page.Results, nil
	}

	var out []T
	if err := decode(path, trimmed, &out); err != nil {
		return nil, err
	}
	return out, nil
}
