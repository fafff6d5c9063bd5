package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGoRecordsFirstError(t *testing.T) {
	t.Parallel()
	s := New(context.Background())
	boom := errors.New("boom")
	s.Go("a", func(context.Context) error { return boom })
	s.Go("b", func(ctx context.Context) error { <-ctx.Done(); return ctx.Err() })

	time.Sleep(20 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := s.Stop(ctx)
	require.ErrorIs(t, err, boom)
	require.Zero(t, s.Active())
}

func TestGoRecoversPanicAndCancels(t *testing.T) {
	t.Parallel()
	s := New(context.Background(), WithCancelOnError(true))
	s.Go("p", func(context.Context) error { panic("x") })

	select {
	case <-s.Context().Done():
	case <-time.After(time.Second):
		t.Fatal("supervisor not cancelled after panic")
	}
	require.ErrorContains(t, s.Err(), "panic")
	snap := s.Snapshot()
	require.Len(t, snap, 1)
	require.Equal(t, uint64(1), snap[0].Panics)
}

func TestGoRestartRetriesUntilSuccess(t *testing.T) {
	t.Parallel()
	s := New(context.Background())
	var runs atomic.Int32
	s.GoRestart("loop", func(context.Context) error {
		if runs.Add(1) < 3 {
			return errors.New("flaky")
		}
		return nil
	}, WithRestartBackoff(time.Millisecond, 2*time.Millisecond), WithPublishFirstError(true))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.Eventually(t, func() bool { return runs.Load() == 3 }, time.Second, 5*time.Millisecond)
	require.ErrorContains(t, s.Stop(ctx), "flaky")
	require.Equal(t, uint64(2), s.Snapshot()[0].Restarts)
}

func TestGoRestartGivesUp(t *testing.T) {
	t.Parallel()
	s := New(context.Background())
	var runs atomic.Int32
	s.GoRestart("dead", func(context.Context) error {
		runs.Add(1)
		return errors.New("nope")
	}, WithRestartBackoff(time.Millisecond, time.Millisecond), WithMaxRestarts(2))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, waitIdle(ctx, s))
	require.Equal(t, int32(3), runs.Load())
	require.Error(t, s.Err())
}

func waitIdle(ctx context.Context, s *Supervisor) error {
	for s.Active() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Millisecond):
		}
	}
	return nil
}
