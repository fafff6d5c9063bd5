package dispatch

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/caronc/apprise-sub007/internal/eventbus"
	"github.com/caronc/apprise-sub007/internal/format"
	"github.com/caronc/apprise-sub007/internal/invoke"
	"github.com/caronc/apprise-sub007/internal/target"
	"github.com/caronc/apprise-sub007/pkg/logx"
)

// call is the state of one dispatch.
type call struct {
	engine *Engine
	req    Request
	id     string
	log    logx.Logger
	memo   *memo
}

func (c *call) sequential(ctx context.Context, ts []target.Target) []invoke.Result {
	out := make([]invoke.Result, len(ts))
	for i, t := range ts {
		out[i] = c.deliver(ctx, t)
	}
	return out
}

// concurrent runs sync targets on at most syncN workers and async targets on
// at most asyncN, and returns once every target has finished. Results keep
// the selection order.
func (c *call) concurrent(ctx context.Context, ts []target.Target, syncN, asyncN int) []invoke.Result {
	out := make([]invoke.Result, len(ts))
	syncPool := semaphore.NewWeighted(int64(max(1, syncN)))
	asyncPool := semaphore.NewWeighted(int64(max(1, asyncN)))

	// Failures are isolated per target, so the group never cancels.
	var g errgroup.Group
	for i, t := range ts {
		i, t := i, t
		pool := syncPool
		if target.KindOf(t) == target.KindAsync {
			pool = asyncPool
		}
		g.Go(func() error {
			if err := pool.Acquire(ctx, 1); err != nil {
				out[i] = invoke.Result{URL: t.URL(), Status: invoke.Failure, Kind: invoke.FailError, Err: fmt.Errorf("waiting for a worker: %w", err), Failed: 1}
				c.report(out[i])
				return nil
			}
			defer pool.Release(1)
			out[i] = c.deliver(ctx, t)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// deliver prepares and sends the message to one target.
func (c *call) deliver(ctx context.Context, t target.Target) invoke.Result {
	e := c.engine
	chunks, err := c.memo.prepare(t.Options())
	var res invoke.Result
	if err != nil {
		res = invoke.ConversionFailure(t.URL(), err)
	} else {
		iv := invoke.Invoker{
			Throttle:    e.throttle,
			Log:         c.log,
			ObserveWait: e.metrics.ObserveThrottleWait,
		}
		res = iv.Invoke(ctx, t, chunks, c.req.Type)
	}
	c.report(res)
	return res
}

func (c *call) report(res invoke.Result) {
	e := c.engine
	e.metrics.ObserveTarget(res.URL, res.Status.String(), res.Kind.String(), res.Sent, res.Elapsed)

	data := eventbus.TargetResult{
		ID:      c.id,
		URL:     res.URL,
		Kind:    res.Kind.String(),
		Sent:    res.Sent,
		Failed:  res.Failed,
		Elapsed: res.Elapsed,
	}
	if res.OK() {
		e.bus.Publish(eventbus.Event{Type: eventbus.DispatchTargetSent, Data: data})
		return
	}
	if res.Err != nil {
		data.Err = res.Err.Error()
	}
	e.bus.Publish(eventbus.Event{Type: eventbus.DispatchTargetFailed, Data: data})
	c.log.Warn("target failed",
		logx.String("target", res.URL),
		logx.String("kind", res.Kind.String()),
		logx.Int("sent", res.Sent),
		logx.Int("failed", res.Failed),
		logx.Err(res.Err),
	)
}

// memo caches prepared chunks per distinct conversion key within one call,
// so targets sharing a format and limits share the work.
type memo struct {
	req Request

	mu      sync.Mutex
	entries map[memoKey]*memoEntry
}

type memoKey struct {
	out    format.Format
	limits format.Limits
	brs    bool
}

type memoEntry struct {
	once   sync.Once
	chunks []format.Chunk
	err    error
}

func newMemo(req Request) *memo {
	return &memo{req: req, entries: map[memoKey]*memoEntry{}}
}

func (m *memo) prepare(opts target.Options) ([]format.Chunk, error) {
	key := memoKey{out: opts.Format, limits: opts.Limits(), brs: opts.NewlineToBR}
	m.mu.Lock()
	ent := m.entries[key]
	if ent == nil {
		ent = &memoEntry{}
		m.entries[key] = ent
	}
	m.mu.Unlock()

	ent.once.Do(func() {
		ent.chunks, ent.err = format.Prepare(m.req.Title, m.req.Body, m.req.Format, key.out, key.limits,
			format.ConvertOptions{NewlineToBR: key.brs})
	})
	return ent.chunks, ent.err
}
