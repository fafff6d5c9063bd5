// Package throttle enforces a minimum spacing between consecutive calls to the
// same notification target.
//
// Each key gets its own token bucket (burst 1, one token per interval), so the
// first call for a key passes immediately and every later call waits until the
// interval has elapsed since the previous one. Keys never share state.
package throttle

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Controller holds per-key limiter state. It is safe for concurrent use.
// The zero value is not usable; use New.
type Controller struct {
	mu   sync.Mutex
	keys map[string]*entry
}

type entry struct {
	interval time.Duration
	lim      *rate.Limiter
}

func New() *Controller {
	return &Controller{keys: map[string]*entry{}}
}

// Wait blocks until at least interval has passed since the previous Wait for
// key. interval <= 0 never blocks. It returns ctx.Err() if ctx ends first; the
// slot is not consumed in that case.
func (c *Controller) Wait(ctx context.Context, key string, interval time.Duration) error {
	if c == nil || interval <= 0 {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return c.limiter(key, interval).Wait(ctx)
}

// Forget drops the state for key. The next Wait for key passes immediately.
func (c *Controller) Forget(key string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	delete(c.keys, key)
	c.mu.Unlock()
}

// Len reports how many keys currently hold state.
func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.keys)
}

func (c *Controller) limiter(key string, interval time.Duration) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.keys[key]
	if e == nil {
		e = &entry{interval: interval, lim: rate.NewLimiter(rate.Every(interval), 1)}
		c.keys[key] = e
		return e.lim
	}
	if e.interval != interval {
		// Reconfigured target: keep the bucket (and its history), change the pace.
		e.interval = interval
		e.lim.SetLimit(rate.Every(interval))
	}
	return e.lim
}
