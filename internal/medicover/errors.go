package medicover

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedResponse ответ провайдера без ожидаемых данных (CSRF, версия, code)
	ErrMalformedResponse = errors.New("malformed provider response")
	// ErrReauthenticated сессия обновлена после 401, запрос нужно повторить
	ErrReauthenticated = errors.New("re-authenticated after 401, retrying request")
	ErrPriceNotFree    = errors.New("appointment price is not free")
	ErrBookingFailed   = errors.New("booking request failed")
	ErrUnknownAccount  = errors.New("unknown account alias")
)

// LoginError неверные учётные данные или неожиданный ответ формы входа
type LoginError struct {
	Username   string
	StatusCode int
}

func (e *LoginError) Error() string {
	return fmt.Sprintf("login failed for %s (status %d): invalid credentials or unexpected response", e.Username, e.StatusCode)
}

// TokenExchangeError обмен authorization code на токен не удался
type TokenExchangeError struct {
	StatusCode int
}

func (e *TokenExchangeError) Error() string {
	return fmt.Sprintf("exchange authorization code for token: status %d", e.StatusCode)
}

// StatusError HTTP-ответ с кодом ошибки
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.StatusCode)
}
