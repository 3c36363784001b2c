package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// CycleRunner один проход по всем watch
type CycleRunner interface {
	RunCycle(ctx context.Context) error
}

// Scheduler демон: цикл проверки watch, затем сон кусками по секунде.
// Сон прерывается отменой контекста и Wake.
type Scheduler struct {
	runner CycleRunner
	period time.Duration
	slice  time.Duration
	logger *zap.Logger
	wake   chan struct{}
}

// NewScheduler создаёт новый планировщик
func NewScheduler(runner CycleRunner, period time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		runner: runner,
		period: period,
		slice:  time.Second,
		logger: logger,
		wake:   make(chan struct{}, 1),
	}
}

// Wake прерывает текущий сон. Не блокирует, повторные вызовы склеиваются.
func (s *Scheduler) Wake() bool {
	select {
	case s.wake <- struct{}{}:
		return true
	default:
		return false
	}
}

// Run блокирует до отмены контекста
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			s.logger.Info("Watch evaluation loop stopped")
			return nil
		}

		if err := s.runner.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				s.logger.Info("Watch evaluation loop cancelled")
				return nil
			}
			s.logger.Error("Watch evaluation cycle failed", zap.Error(err))
		}

		if !s.sleep(ctx) {
			s.logger.Info("Watch evaluation loop stopped")
			return nil
		}
	}
}

// sleep возвращает false, если пора остановиться
func (s *Scheduler) sleep(ctx context.Context) bool {
	s.logger.Info("Sleeping until next cycle", zap.Duration("period", s.period))

	ticker := time.NewTicker(s.slice)
	defer ticker.Stop()

	for elapsed := time.Duration(0); elapsed < s.period; elapsed += s.slice {
		select {
		case <-ctx.Done():
			return false
		case <-s.wake:
			s.logger.Info("Woken up, starting next cycle early")
			return true
		case <-ticker.C:
		}
	}
	return true
}
