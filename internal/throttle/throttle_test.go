package throttle

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// slack absorbs timer/float rounding in the limiter, nothing more.
const slack = 3 * time.Millisecond

func TestFirstWaitIsImmediate(t *testing.T) {
	t.Parallel()
	c := New()
	start := time.Now()
	require.NoError(t, c.Wait(context.Background(), "a", time.Hour))
	require.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestConsecutiveWaitsAreSpaced(t *testing.T) {
	t.Parallel()
	c := New()
	const interval = 40 * time.Millisecond
	ctx := context.Background()

	var stamps []time.Time
	for i := 0; i < 3; i++ {
		require.NoError(t, c.Wait(ctx, "k", interval))
		stamps = append(stamps, time.Now())
	}
	for i := 1; i < len(stamps); i++ {
		require.GreaterOrEqual(t, stamps[i].Sub(stamps[i-1]), interval-slack)
	}
}

func TestKeysAreIndependent(t *testing.T) {
	t.Parallel()
	c := New()
	ctx := context.Background()
	require.NoError(t, c.Wait(ctx, "a", time.Hour))

	start := time.Now()
	require.NoError(t, c.Wait(ctx, "b", time.Hour))
	require.Less(t, time.Since(start), 50*time.Millisecond)
	require.Equal(t, 2, c.Len())
}

func TestZeroIntervalNeverBlocks(t *testing.T) {
	t.Parallel()
	c := New()
	start := time.Now()
	for i := 0; i < 100; i++ {
		require.NoError(t, c.Wait(context.Background(), "z", 0))
	}
	require.Less(t, time.Since(start), 50*time.Millisecond)
	require.Equal(t, 0, c.Len())
}

func TestWaitHonoursContext(t *testing.T) {
	t.Parallel()
	c := New()
	require.NoError(t, c.Wait(context.Background(), "a", time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.Error(t, c.Wait(ctx, "a", time.Hour))
}

func TestForgetResetsKey(t *testing.T) {
	t.Parallel()
	c := New()
	ctx := context.Background()
	require.NoError(t, c.Wait(ctx, "a", time.Hour))
	c.Forget("a")

	start := time.Now()
	require.NoError(t, c.Wait(ctx, "a", time.Hour))
	require.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestConcurrentWaitersAreSerialized(t *testing.T) {
	t.Parallel()
	c := New()
	const interval = 30 * time.Millisecond
	ctx := context.Background()

	var (
		mu     sync.Mutex
		stamps []time.Time
		wg     sync.WaitGroup
	)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := c.Wait(ctx, "shared", interval); err != nil {
				t.Error(err)
				return
			}
			mu.Lock()
			stamps = append(stamps, time.Now())
			mu.Unlock()
		}()
	}
	wg.Wait()
	require.Len(t, stamps, 3)

	first, last := stamps[0], stamps[0]
	for _, s := range stamps {
		if s.Before(first) {
			first = s
		}
		if s.After(last) {
			last = s
		}
	}
	require.GreaterOrEqual(t, last.Sub(first), 2*interval-10*time.Millisecond)
}

func TestNilControllerIsNoop(t *testing.T) {
	t.Parallel()
	var c *Controller
	require.NoError(t, c.Wait(context.Background(), "a", time.Hour))
	c.Forget("a")
}
