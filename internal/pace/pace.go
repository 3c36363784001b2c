// Package pace случайные паузы между обращениями к провайдеру.
package pace

import (
	"context"
	"math/rand/v2"
	"time"
)

// Pauser делает паузу случайной длины в [min, max]
type Pauser interface {
	Pause(ctx context.Context, min, max time.Duration) error
}

// Random пауза с точностью до секунды, как у живого пользователя
type Random struct{}

func (Random) Pause(ctx context.Context, min, max time.Duration) error {
	return Sleep(ctx, Between(min, max))
}

// Off не ждёт, только проверяет отмену контекста. Для тестов и ручных команд.
type Off struct{}

func (Off) Pause(ctx context.Context, _, _ time.Duration) error {
	return ctx.Err()
}

// Between случайная длительность в целых секундах, границы включены
func Between(min, max time.Duration) time.Duration {
	lo, hi := int64(min/time.Second), int64(max/time.Second)
	if hi <= lo {
		return min
	}
	return time.Duration(lo+rand.Int64N(hi-lo+1)) * time.Second
}

// Sleep ждёт d или отмены контекста
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
