package medicover

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Freeeeeet/medicony/internal/metrics"
	"github.com/Freeeeeet/medicony/internal/model"
	"github.com/Freeeeeet/medicony/internal/pace"
	"go.uber.org/zap"
)

// Options общие настройки клиентов всех аккаунтов
type Options struct {
	Endpoints         Endpoints
	AuthRetry         RetryPolicy
	RequestRetry      RetryPolicy
	RequestsPerSecond float64
	Timeout           time.Duration
	Pauser            pace.Pauser
	Metrics           *metrics.Metrics
}

func DefaultOptions() Options {
	return Options{
		Endpoints:         DefaultEndpoints(),
		AuthRetry:         AuthRetryPolicy(),
		RequestRetry:      RequestRetryPolicy(),
		RequestsPerSecond: 1,
		Timeout:           30 * time.Second,
		Pauser:            pace.Random{},
	}
}

// Client реестр аккаунтов. Каждый аккаунт получает свой Session,
// общего "текущего аккаунта" нет.
type Client struct {
	opts   Options
	logger *zap.Logger

	mu           sync.Mutex
	sessions     map[string]*Session
	aliases      []string
	defaultAlias string
}

func NewClient(accounts []model.Account, opts Options, logger *zap.Logger) (*Client, error) {
	if len(accounts) == 0 {
		return nil, fmt.Errorf("no provider accounts configured")
	}
	c := &Client{
		opts:     opts,
		logger:   logger,
		sessions: make(map[string]*Session, len(accounts)),
	}
	for _, acc := range accounts {
		c.AddAccount(acc)
	}
	c.defaultAlias = accounts[0].Alias
	return c, nil
}

// AddAccount регистрирует аккаунт, повторная регистрация псевдонима игнорируется
func (c *Client) AddAccount(acc model.Account) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.sessions[acc.Alias]; ok {
		return
	}
	auth := NewAuthenticator(acc, c.opts.Endpoints, c.opts.Pauser, c.opts.Timeout, c.logger)
	c.sessions[acc.Alias] = &Session{
		alias:     acc.Alias,
		http:      NewHTTPClient(acc.Alias, auth, c.opts, c.logger),
		endpoints: c.opts.Endpoints,
		logger:    c.logger.With(zap.String("account", acc.Alias)),
	}
	c.aliases = append(c.aliases, acc.Alias)
}

func (c *Client) DefaultAlias() string {
	return c.defaultAlias
}

// Aliases псевдонимы в порядке регистрации
func (c *Client) Aliases() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.aliases...)
}

// UseAccount возвращает сессию аккаунта, при первом обращении выполняет вход.
// Пустой alias означает аккаунт по умолчанию.
func (c *Client) UseAccount(ctx context.Context, alias string) (*Session, error) {
	if alias == "" {
		alias = c.defaultAlias
	}
	c.mu.Lock()
	s, ok := c.sessions[alias]
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, alias)
	}

	if !s.http.Authenticated() {
		if err := s.http.Auth(ctx); err != nil {
			return nil, err
		}
	}
	return s, nil
}
