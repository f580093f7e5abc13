// Package apiclient is the REST client for the chess backend.
package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/park285/chessonline-client/internal/localstore"
	"github.com/park285/chessonline-client/pkg/chessdto"
)

// ErrUnauthorized is returned for any 401; the stored token has already been cleared.
var ErrUnauthorized = errors.New("unauthorized")

// HeaderProvider allows injecting per-request headers
type HeaderProvider func() map[string]string

type Client struct {
	baseURL string
	http    *fasthttp.Client
	headers HeaderProvider
	store   localstore.Store
	logger  *zap.Logger

	defaultTimeout time.Duration
	retryMax       int

	mu       sync.RWMutex
	token    string
	onLogout []func()
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.defaultTimeout = d
		}
	}
}

func WithMaxConnsPerHost(n int) Option {
	return func(c *Client) { c.http.MaxConnsPerHost = n }
}

func WithHeaderProvider(h HeaderProvider) Option {
	return func(c *Client) { c.headers = h }
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

// WithTokenStore persists the auth token across runs.
func WithTokenStore(s localstore.Store) Option {
	return func(c *Client) { c.store = s }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient builds a client rooted at baseURL, which should include the /api prefix.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 64},
		logger:         zap.NewNop(),
		defaultTimeout: 10 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RestoreToken loads a previously stored token when none is set.
func (c *Client) RestoreToken(ctx context.Context) (bool, error) {
	if c.store == nil || c.Token() != "" {
		return c.Token() != "", nil
	}
	tok, err := c.store.Get(ctx, localstore.KeyAuthToken)
	if errors.Is(err, localstore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("restore token: %w", err)
	}
	c.mu.Lock()
	c.token = strings.TrimSpace(tok)
	c.mu.Unlock()
	return tok != "", nil
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) IsAuthenticated() bool { return c.Token() != "" }

// SetToken replaces the token and persists it when a store is attached.
func (c *Client) SetToken(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	if c.store == nil {
		return nil
	}
	if token == "" {
		return c.store.Delete(ctx, localstore.KeyAuthToken)
	}
	return c.store.Set(ctx, localstore.KeyAuthToken, token, 0)
}

// OnLogout registers fn to run whenever the token is dropped.
func (c *Client) OnLogout(fn func()) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	c.onLogout = append(c.onLogout, fn)
	c.mu.Unlock()
}

// Logout clears the token locally; the backend keeps no session.
func (c *Client) Logout(ctx context.Context) error {
	err := c.SetToken(ctx, "")
	c.mu.RLock()
	hooks := append([]func(){}, c.onLogout...)
	c.mu.RUnlock()
	for _, fn := range hooks {
		fn()
	}
	return err
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	return c.doJSON(ctx, fasthttp.MethodGet, withQuery(path, q), nil, out, true)
}

func (c *Client) post(ctx context.Context, path string, q url.Values, in, out any) error {
	return c.doJSON(ctx, fasthttp.MethodPost, withQuery(path, q), in, out, false)
}

func (c *Client) patch(ctx context.Context, path string, in, out any) error {
	return c.doJSON(ctx, fasthttp.MethodPatch, path, in, out, false)
}

func (c *Client) delete(ctx context.Context, path string, out any) error {
	return c.doJSON(ctx, fasthttp.MethodDelete, path, nil, out, true)
}

func (c *Client) doJSON(ctx context.Context, method, path string, in any, out any, retry bool) error {
	target := c.baseURL + path
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(target)
	req.Header.SetContentType("application/json")

	if c.headers != nil {
		for k, v := range c.headers() {
			if strings.TrimSpace(k) != "" && strings.TrimSpace(v) != "" {
				req.Header.Set(k, v)
			}
		}
	}
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		req.SetBody(payload)
	}

	attempts := 1
	if retry {
		attempts = c.retryMax
		if attempts <= 0 {
			attempts = 1
		}
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		deadline := c.computeDeadline(ctx)
		err := c.http.DoDeadline(req, resp, deadline)
		if err != nil {
			if attempt == attempts || !retry {
				return fmt.Errorf("%s %s: request failed: %w", method, path, err)
			}
			lastErr = err
			if sleepErr := c.sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		status := resp.StatusCode()
		if status == fasthttp.StatusUnauthorized {
			apiErr := decodeAPIError(status, resp.Body())
			c.logger.Info("api_unauthorized", zap.String("method", method), zap.String("path", path))
			if c.Token() != "" {
				if err := c.Logout(ctx); err != nil {
					c.logger.Warn("api_token_clear_error", zap.Error(err))
				}
			}
			return fmt.Errorf("%w: %w", ErrUnauthorized, apiErr)
		}
		if status < 200 || status >= 300 {
			apiErr := decodeAPIError(status, resp.Body())
			if attempt == attempts || !retry || !apiErr.Retryable {
				return apiErr
			}
			lastErr = apiErr
			c.logger.Debug("api_retry", zap.String("path", path), zap.Int("status", status), zap.Int("attempt", attempt))
			if sleepErr := c.sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		if out != nil && len(resp.Body()) > 0 {
			if err := json.Unmarshal(resp.Body(), out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
		}
		return nil
	}

	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return lastErr
}

func decodeAPIError(status int, body []byte) *chessdto.APIError {
	apiErr := &chessdto.APIError{Status: status, Retryable: shouldRetryStatus(status)}
	var eb chessdto.ErrorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		apiErr.Code = eb.Error
		apiErr.Message = eb.UserMessage()
	}
	if apiErr.Message == "" {
		apiErr.Message = truncate(strings.TrimSpace(string(body)), 512)
	}
	return apiErr
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	if dl, ok := ctx.Deadline(); ok {
		clientDL := time.Now().Add(c.defaultTimeout)
		if dl.Before(clientDL) {
			return dl
		}
		return clientDL
	}
	return time.Now().Add(c.defaultTimeout)
}

func (c *Client) sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

func seg(s string) string { return url.PathEscape(strings.TrimSpace(s)) }

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	base := 100 * time.Millisecond
	return time.Duration(1<<uint(attempt-1)) * base // 100ms, 200ms ...
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
