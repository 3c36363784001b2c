package medicover

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/Freeeeeet/medicony/internal/metrics"
	"github.com/Freeeeeet/medicony/internal/pace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Response ответ GET-запроса
type Response struct {
	StatusCode int
	Body       []byte
}

// Decode разбирает JSON-тело ответа
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// HTTPClient аутентифицированная сессия одного аккаунта.
// Повторный вход при гонке допустим, сессия подменяется под мьютексом.
type HTTPClient struct {
	alias        string
	auth         *Authenticator
	authRetry    RetryPolicy
	requestRetry RetryPolicy
	limiter      *rate.Limiter
	pauser       pace.Pauser
	metrics      *metrics.Metrics
	logger       *zap.Logger

	mu      sync.RWMutex
	session *AuthSession
}

func NewHTTPClient(alias string, auth *Authenticator, opts Options, logger *zap.Logger) *HTTPClient {
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	pauser := opts.Pauser
	if pauser == nil {
		pauser = pace.Random{}
	}
	return &HTTPClient{
		alias:        alias,
		auth:         auth,
		authRetry:    opts.AuthRetry,
		requestRetry: opts.RequestRetry,
		limiter:      rate.NewLimiter(limit, 1),
		pauser:       pauser,
		metrics:      opts.Metrics,
		logger:       logger.With(zap.String("account", alias)),
	}
}

// Authenticated есть ли действующая сессия
func (c *HTTPClient) Authenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session != nil
}

// Auth входит заново с политикой повторов для входа
func (c *HTTPClient) Auth(ctx context.Context) error {
	attempt := 0
	err := c.authRetry.Do(ctx, func(ctx context.Context) error {
		attempt++
		session, err := c.auth.Login(ctx)
		c.metrics.ObserveAuth(c.alias, err == nil)
		if err != nil {
			c.logger.Warn("Login attempt failed", zap.Int("attempt", attempt), zap.Error(err))
			return err
		}
		c.mu.Lock()
		c.session = session
		c.mu.Unlock()
		return nil
	})
	if err != nil {
		return fmt.Errorf("authenticate %s: %w", c.alias, err)
	}
	return nil
}

// Reauth обновляет сессию после 401
func (c *HTTPClient) Reauth(ctx context.Context) error {
	c.logger.Warn("Response 401. Re-authenticating")
	return c.Auth(ctx)
}

// Get выполняет GET с повторами при сетевых ошибках и после 401.
// Коды >= 400 возвращаются как *StatusError.
func (c *HTTPClient) Get(ctx context.Context, target string, params url.Values) (*Response, error) {
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	var out *Response
	err := c.requestRetry.Do(ctx, func(ctx context.Context) error {
		status, body, err := c.do(ctx, http.MethodGet, target, nil)
		if err != nil {
			return err
		}
		if status == http.StatusUnauthorized {
			if err := c.Reauth(ctx); err != nil {
				return err
			}
			return ErrReauthenticated
		}
		if status >= http.StatusBadRequest {
			return &StatusError{Method: http.MethodGet, URL: target, StatusCode: status}
		}
		out = &Response{StatusCode: status, Body: body}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Post отправляет JSON. На 401 входит заново и повторяет запрос один раз.
// Прочие коды кроме 200 логируются, результат пустой.
func (c *HTTPClient) Post(ctx context.Context, target string, payload any) (json.RawMessage, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return c.sendWithReauth(ctx, http.MethodPost, target, data)
}

// Delete то же, что Post, для DELETE без тела
func (c *HTTPClient) Delete(ctx context.Context, target string) (json.RawMessage, error) {
	return c.sendWithReauth(ctx, http.MethodDelete, target, nil)
}

func (c *HTTPClient) sendWithReauth(ctx context.Context, method, target string, payload []byte) (json.RawMessage, error) {
	for attempt := 0; ; attempt++ {
		status, body, err := c.do(ctx, method, target, payload)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", method, target, err)
		}

		switch {
		case status == http.StatusOK:
			return body, nil
		case status == http.StatusUnauthorized && attempt == 0:
			if err := c.Reauth(ctx); err != nil {
				return nil, err
			}
		default:
			c.logger.Error("Provider request failed",
				zap.String("method", method),
				zap.String("url", target),
				zap.Int("status", status),
				zap.String("body", truncate(body)),
			)
			return nil, nil
		}
	}
}

func (c *HTTPClient) do(ctx context.Context, method, target string, payload []byte) (int, []byte, error) {
	c.mu.RLock()
	session := c.session
	c.mu.RUnlock()
	if session == nil {
		return 0, nil, fmt.Errorf("account %s is not authenticated", c.alias)
	}

	if err := c.pauser.Pause(ctx, 0, 2*time.Second); err != nil {
		return 0, nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, nil, err
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header = session.Header()
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := session.Client.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(method, "error")
		return 0, nil, err
	}
	defer resp.Body.Close()
	c.metrics.ObserveRequest(method, strconv.Itoa(resp.StatusCode))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response body: %w", err)
	}
	return resp.StatusCode, data, nil
}
