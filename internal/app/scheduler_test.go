package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingRunner struct {
	cycles atomic.Int32
	err    error
	done   chan struct{}
}

func newCountingRunner() *countingRunner {
	return &countingRunner{done: make(chan struct{}, 16)}
}

func (r *countingRunner) RunCycle(context.Context) error {
	r.cycles.Add(1)
	select {
	case r.done <- struct{}{}:
	default:
	}
	return r.err
}

func (r *countingRunner) waitCycle(t *testing.T) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatal("cycle did not run")
	}
}

func newTestScheduler(r CycleRunner, period time.Duration) *Scheduler {
	s := NewScheduler(r, period, zap.NewNop())
	s.slice = time.Millisecond
	return s
}

func runAsync(ctx context.Context, s *Scheduler) <-chan error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()
	return errCh
}

func TestScheduler_WakePreemptsSleep(t *testing.T) {
	r := newCountingRunner()
	s := newTestScheduler(r, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := runAsync(ctx, s)
	r.waitCycle(t)

	assert.True(t, s.Wake())
	r.waitCycle(t)
	assert.Equal(t, int32(2), r.cycles.Load())

	cancel()
	require.NoError(t, <-errCh)
}

func TestScheduler_WakeCoalesces(t *testing.T) {
	s := newTestScheduler(newCountingRunner(), time.Hour)
	assert.True(t, s.Wake())
	assert.False(t, s.Wake())
}

func TestScheduler_RunsAgainAfterPeriod(t *testing.T) {
	r := newCountingRunner()
	s := newTestScheduler(r, 5*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := runAsync(ctx, s)
	r.waitCycle(t)
	r.waitCycle(t)
	r.waitCycle(t)

	cancel()
	require.NoError(t, <-errCh)
}

func TestScheduler_CycleErrorDoesNotStopLoop(t *testing.T) {
	r := newCountingRunner()
	r.err = errors.New("provider down")
	s := newTestScheduler(r, 5*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := runAsync(ctx, s)
	r.waitCycle(t)
	r.waitCycle(t)

	cancel()
	require.NoError(t, <-errCh)
}

func TestScheduler_CancelDuringSleepStops(t *testing.T) {
	r := newCountingRunner()
	s := newTestScheduler(r, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := runAsync(ctx, s)
	r.waitCycle(t)
	cancel()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Equal(t, int32(1), r.cycles.Load())
}

func TestScheduler_CancelledBeforeRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	idle := newCountingRunner()
	require.NoError(t, newTestScheduler(idle, time.Hour).Run(ctx))
	assert.Zero(t, idle.cycles.Load())
}
