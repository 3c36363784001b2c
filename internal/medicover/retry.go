package medicover

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryPolicy фиксированная пауза между попытками
type RetryPolicy struct {
	MaxAttempts int
	Wait        time.Duration
	// Retryable решает, повторять ли ошибку. nil - повторять любую.
	Retryable func(error) bool
}

// AuthRetryPolicy вход: 7 попыток через 30 секунд
func AuthRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 7, Wait: 30 * time.Second}
}

// RequestRetryPolicy GET: 3 попытки через 2 секунды, только сетевые ошибки и повтор после 401
func RequestRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Wait: 2 * time.Second, Retryable: IsTransient}
}

// IsTransient сетевая ошибка или повтор после повторного входа
func IsTransient(err error) bool {
	if errors.Is(err, ErrReauthenticated) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// Do выполняет fn до MaxAttempts раз. Отмена контекста не повторяется.
// Возвращается последняя ошибка fn.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	wait := p.Wait
	if wait <= 0 {
		wait = time.Millisecond
	}

	backoff := retry.WithMaxRetries(uint64(attempts-1), retry.NewConstant(wait))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}
		return retry.RetryableError(err)
	})
}
