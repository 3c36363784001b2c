package medicover

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Freeeeeet/medicony/internal/model"
	"github.com/Freeeeeet/medicony/internal/pace"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/publicsuffix"
)

const (
	acceptHeader       = "application/json,text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	csrfFieldName      = "__RequestVerificationToken"
	invalidCredentials = "INVALID_CREDENTIALS"
	clientID           = "web"
	maxLoggedBody      = 512
)

var versionPattern = regexp.MustCompile(`VITE_VERSION:\s*"([^"]+)"`)

// AuthSession результат входа: http-клиент с куками и bearer-токен
type AuthSession struct {
	Client    *http.Client
	Token     string
	UserAgent string
}

// Header заголовки для запросов к API от имени сессии
func (s *AuthSession) Header() http.Header {
	h := http.Header{}
	h.Set("User-Agent", s.UserAgent)
	h.Set("Accept", acceptHeader)
	if s.Token != "" {
		h.Set("Authorization", "Bearer "+s.Token)
	}
	return h
}

// Authenticator повторяет браузерный вход на портал (PKCE + форма логина)
type Authenticator struct {
	account   model.Account
	endpoints Endpoints
	pauser    pace.Pauser
	timeout   time.Duration
	userAgent string
	logger    *zap.Logger
}

func NewAuthenticator(account model.Account, endpoints Endpoints, pauser pace.Pauser, timeout time.Duration, logger *zap.Logger) *Authenticator {
	if pauser == nil {
		pauser = pace.Random{}
	}
	return &Authenticator{
		account:   account,
		endpoints: endpoints,
		pauser:    pauser,
		timeout:   timeout,
		userAgent: gofakeit.ChromeUserAgent(),
		logger:    logger,
	}
}

// Login выполняет полный вход заново и возвращает новую сессию
func (a *Authenticator) Login(ctx context.Context) (*AuthSession, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	session := &AuthSession{
		Client:    &http.Client{Jar: jar, Timeout: a.timeout},
		UserAgent: a.userAgent,
	}
	noRedirect := &http.Client{
		Jar:     jar,
		Timeout: a.timeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	state := randomState(32)
	deviceID := uuid.NewString()
	verifier := codeVerifier()

	version, err := a.appVersion(ctx, noRedirect, session)
	if err != nil {
		return nil, err
	}
	authParams := a.authParams(state, codeChallenge(verifier), version, deviceID)

	// 1. authorize -> редирект на форму входа
	resp, body, err := a.send(ctx, noRedirect, session, http.MethodGet, a.endpoints.login("/connect/authorize"+authParams), nil, "")
	if err != nil {
		return nil, fmt.Errorf("init authorization: %w", err)
	}
	location := resp.Header.Get("Location")
	if resp.StatusCode != http.StatusFound || location == "" {
		a.logger.Error("Authorization redirect missing",
			zap.Int("status", resp.StatusCode),
			zap.String("body", truncate(body)),
		)
		return nil, fmt.Errorf("init authorization: redirect missing (status %d): %w", resp.StatusCode, ErrMalformedResponse)
	}
	formURL := a.absolute(location) + "%26ts%3D" + strconv.FormatInt(time.Now().UnixMilli(), 10)

	// 2. форма входа и CSRF-токен
	_, body, err = a.send(ctx, noRedirect, session, http.MethodGet, formURL, nil, "")
	if err != nil {
		return nil, fmt.Errorf("fetch login form: %w", err)
	}
	csrf, ok := findCSRFToken(body)
	if !ok {
		a.logger.Error("CSRF token not found in login form", zap.String("body", truncate(body)))
		return nil, fmt.Errorf("find csrf token: %w", ErrMalformedResponse)
	}

	// 3. отправка формы
	form := url.Values{}
	form.Set("Input.ReturnUrl", "/connect/authorize/callback"+authParams)
	form.Set("Input.LoginType", "FullLogin")
	form.Set("Input.Username", a.account.Username)
	form.Set("Input.Password", a.account.Password)
	form.Set("Input.Button", "login")
	form.Set(csrfFieldName, csrf)

	resp, body, err = a.send(ctx, noRedirect, session, http.MethodPost, formURL,
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return nil, fmt.Errorf("submit login form: %w", err)
	}
	if bytes.Contains(body, []byte(invalidCredentials)) || resp.StatusCode != http.StatusFound {
		a.logger.Error("Invalid login credentials provided",
			zap.String("account", a.account.Alias),
			zap.Int("status", resp.StatusCode),
		)
		return nil, &LoginError{Username: a.account.Username, StatusCode: resp.StatusCode}
	}
	location = resp.Header.Get("Location")
	if location == "" {
		return nil, fmt.Errorf("submit login form: empty Location header: %w", ErrMalformedResponse)
	}

	// 4. callback -> редирект с authorization code
	resp, _, err = a.send(ctx, noRedirect, session, http.MethodGet, a.absolute(location), nil, "")
	if err != nil {
		return nil, fmt.Errorf("follow login redirect: %w", err)
	}
	code, err := authorizationCode(resp.Header.Get("Location"))
	if err != nil {
		return nil, err
	}

	// 5. обмен кода на токен
	token, err := a.exchange(ctx, noRedirect, session, code, verifier)
	if err != nil {
		return nil, err
	}
	session.Token = token

	a.logger.Info("Logged in to provider", zap.String("account", a.account.Alias))
	return session, nil
}

func (a *Authenticator) appVersion(ctx context.Context, client *http.Client, session *AuthSession) (string, error) {
	resp, body, err := a.send(ctx, client, session, http.MethodGet, a.endpoints.VersionURL, nil, "")
	if err != nil {
		return "", fmt.Errorf("retrieve app version: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{Method: http.MethodGet, URL: a.endpoints.VersionURL, StatusCode: resp.StatusCode}
	}
	m := versionPattern.FindSubmatch(body)
	if m == nil {
		return "", fmt.Errorf("retrieve app version: VITE_VERSION not found: %w", ErrMalformedResponse)
	}
	return string(m[1]), nil
}

func (a *Authenticator) authParams(state, challenge, version, deviceID string) string {
	return "?client_id=" + clientID +
		"&redirect_uri=" + a.endpoints.OIDCRedirect +
		"&response_type=code" +
		"&scope=openid+offline_access+profile" +
		"&state=" + state +
		"&code_challenge=" + challenge +
		"&code_challenge_method=S256" +
		"&response_mode=query" +
		"&ui_locales=pl" +
		"&app_version=" + version +
		"&previous_app_version=" + version +
		"&device_id=" + deviceID +
		"&device_name=Chrome"
}

func (a *Authenticator) exchange(ctx context.Context, client *http.Client, session *AuthSession, code, verifier string) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("redirect_uri", a.endpoints.OIDCRedirect)
	form.Set("code", code)
	form.Set("code_verifier", verifier)
	form.Set("client_id", clientID)

	resp, body, err := a.send(ctx, client, session, http.MethodPost, a.endpoints.login("/connect/token"),
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return "", fmt.Errorf("exchange authorization code: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		a.logger.Error("Failed to exchange authorization code for tokens",
			zap.Int("status", resp.StatusCode),
			zap.String("body", truncate(body)),
		)
		return "", &TokenExchangeError{StatusCode: resp.StatusCode}
	}

	var tokens struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &tokens); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tokens.AccessToken == "" {
		return "", fmt.Errorf("token response without access_token: %w", ErrMalformedResponse)
	}
	return tokens.AccessToken, nil
}

// send выполняет запрос после случайной паузы и читает тело целиком
func (a *Authenticator) send(
	ctx context.Context,
	client *http.Client,
	session *AuthSession,
	method, target string,
	body io.Reader,
	contentType string,
) (*http.Response, []byte, error) {
	if err := a.pauser.Pause(ctx, 0, 2*time.Second); err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header = session.Header()
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read response body: %w", err)
	}
	return resp, data, nil
}

// absolute дополняет относительный Location адресом сервиса входа
func (a *Authenticator) absolute(location string) string {
	if u, err := url.Parse(location); err == nil && u.IsAbs() {
		return location
	}
	return a.endpoints.login(location)
}

func authorizationCode(location string) (string, error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("parse authorization redirect: %w", err)
	}
	code := u.Query().Get("code")
	if code == "" {
		return "", fmt.Errorf("no code in authorization redirect: %w", ErrMalformedResponse)
	}
	return code, nil
}

// findCSRFToken ищет скрытое поле __RequestVerificationToken
func findCSRFToken(page []byte) (string, bool) {
	z := html.NewTokenizer(bytes.NewReader(page))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return "", false
		case html.StartTagToken, html.SelfClosingTagToken:
			t := z.Token()
			if t.Data != "input" {
				continue
			}
			var name, value string
			for _, attr := range t.Attr {
				switch attr.Key {
				case "name":
					name = attr.Val
				case "value":
					value = attr.Val
				}
			}
			if name == csrfFieldName {
				return value, true
			}
		}
	}
}

const stateAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func randomState(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = stateAlphabet[rand.IntN(len(stateAlphabet))]
	}
	return string(b)
}

// codeVerifier три uuid4 без дефисов подряд
func codeVerifier() string {
	var sb strings.Builder
	for range 3 {
		sb.WriteString(strings.ReplaceAll(uuid.NewString(), "-", ""))
	}
	return sb.String()
}

func codeChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func truncate(body []byte) string {
	if len(body) > maxLoggedBody {
		return string(body[:maxLoggedBody]) + "..."
	}
	return string(body)
}
