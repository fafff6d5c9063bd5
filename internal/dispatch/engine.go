// Package dispatch fans one notification out to every matching target.
//
// A call validates the message, selects targets by tag over a snapshot of the
// collection, prepares a per-target payload (format + limits), invokes each
// target through the invocation wrapper and folds the per-target results into
// an Outcome: Delivered only if every selected target succeeded, NoMatch when
// nothing was selected, Failed otherwise.
//
// Targets are driven either sequentially in registration order or
// concurrently, with sync and async targets on separate bounded worker sets
// joined by a single barrier. The engine imposes no overall deadline; only the
// caller's context and each target's own timeout apply.
package dispatch

import (
	"context"
	"runtime"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/caronc/apprise-sub007/internal/eventbus"
	"github.com/caronc/apprise-sub007/internal/observability"
	"github.com/caronc/apprise-sub007/internal/registry"
	"github.com/caronc/apprise-sub007/internal/tags"
	"github.com/caronc/apprise-sub007/internal/target"
	"github.com/caronc/apprise-sub007/internal/throttle"
	"github.com/caronc/apprise-sub007/pkg/logx"
)

const DefaultAsyncWorkers = 32

// DefaultSyncWorkers bounds concurrent sync deliveries.
func DefaultSyncWorkers() int { return max(4, runtime.NumCPU()) }

type Engine struct {
	coll     *registry.Collection
	throttle *throttle.Controller
	log      logx.Logger
	bus      eventbus.Bus
	metrics  *observability.Metrics

	mu           sync.RWMutex
	mode         Mode
	syncWorkers  int
	asyncWorkers int
}

type Option func(*Engine)

func WithLogger(log logx.Logger) Option { return func(e *Engine) { e.log = log } }
func WithBus(b eventbus.Bus) Option      { return func(e *Engine) { e.bus = b } }

func WithMetrics(m *observability.Metrics) Option { return func(e *Engine) { e.metrics = m } }

// WithMode sets the mode used when a request does not pick one.
func WithMode(m Mode) Option { return func(e *Engine) { e.mode = m } }

// WithWorkers bounds the sync and async worker sets of concurrent dispatch.
// Values <= 0 keep the defaults.
func WithWorkers(syncN, asyncN int) Option {
	return func(e *Engine) {
		if syncN > 0 {
			e.syncWorkers = syncN
		}
		if asyncN > 0 {
			e.asyncWorkers = asyncN
		}
	}
}

// WithThrottle shares a throttle controller, e.g. between engines that front
// the same targets.
func WithThrottle(c *throttle.Controller) Option { return func(e *Engine) { e.throttle = c } }

func New(coll *registry.Collection, opts ...Option) *Engine {
	if coll == nil {
		coll = registry.NewCollection()
	}
	e := &Engine{
		coll:         coll,
		mode:         Sequential,
		syncWorkers:  DefaultSyncWorkers(),
		asyncWorkers: DefaultAsyncWorkers,
	}
	for _, o := range opts {
		o(e)
	}
	if e.throttle == nil {
		e.throttle = throttle.New()
	}
	if e.log.IsZero() {
		e.log = logx.Nop()
	}
	if e.bus == nil {
		e.bus = eventbus.Nop{}
	}
	if e.mode == ModeDefault {
		e.mode = Sequential
	}
	return e
}

func (e *Engine) Collection() *registry.Collection { return e.coll }

// Reconfigure changes the default mode and worker bounds for later calls.
func (e *Engine) Reconfigure(mode Mode, syncN, asyncN int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if mode != ModeDefault {
		e.mode = mode
	}
	if syncN > 0 {
		e.syncWorkers = syncN
	}
	if asyncN > 0 {
		e.asyncWorkers = asyncN
	}
}

// Remove drops the target with the given Key and forgets its throttle
// state. It returns how many entries were removed.
func (e *Engine) Remove(key string) int {
	removed := e.coll.Remove(key)
	if len(removed) > 0 {
		e.throttle.Forget(key)
		e.metrics.SetConfigured(e.coll.Len())
	}
	return len(removed)
}

// Forget drops throttle state for targets that left the collection by other
// means (a reload, for instance).
func (e *Engine) Forget(ts ...target.Target) {
	for _, t := range ts {
		e.throttle.Forget(t.Key())
	}
}

// Notify dispatches req and returns the aggregate outcome.
func (e *Engine) Notify(ctx context.Context, req Request) Outcome {
	return e.NotifyDetailed(ctx, req).Outcome
}

// NotifyDetailed dispatches req and returns per-target results.
func (e *Engine) NotifyDetailed(ctx context.Context, req Request) Report {
	start := time.Now()
	rep := Report{ID: uuid.NewString(), Mode: e.resolveMode(req.Mode)}
	log := e.log.With(logx.String("dispatch", rep.ID))

	finish := func() Report {
		rep.Elapsed = time.Since(start)
		e.metrics.ObserveDispatch(rep.Outcome.String(), rep.Mode.String())
		e.bus.Publish(eventbus.Event{Type: eventbus.DispatchFinished, Data: eventbus.Finished{
			ID:        rep.ID,
			Outcome:   rep.Outcome.String(),
			Delivered: len(rep.Results) - len(rep.Failures()),
			Failed:    len(rep.Failures()),
			Elapsed:   rep.Elapsed,
		}})
		return rep
	}

	if err := validate(req); err != nil {
		rep.Outcome, rep.Err = Failed, err
		log.Warn("dispatch rejected", logx.Err(err))
		return finish()
	}

	all := e.coll.List()
	if len(all) == 0 {
		rep.Outcome, rep.Err = Failed, ErrNoTargets
		log.Warn("dispatch without targets")
		return finish()
	}

	selected := make([]target.Target, 0, len(all))
	for _, t := range all {
		if tags.Match(t.Tags(), req.Tags) {
			selected = append(selected, t)
		}
	}
	rep.Selected = len(selected)
	log.Debug("targets selected", logx.Int("selected", len(selected)), logx.Int("total", len(all)), logx.Any("tags", req.Tags))
	e.bus.Publish(eventbus.Event{Type: eventbus.DispatchStarted, Data: eventbus.Started{
		ID: rep.ID, Mode: rep.Mode.String(), Selected: len(selected), Total: len(all),
	}})

	if len(selected) == 0 {
		rep.Outcome = NoMatch
		log.Info("dispatch matched no targets", logx.Any("tags", req.Tags))
		return finish()
	}

	run := &call{engine: e, req: req, id: rep.ID, log: log, memo: newMemo(req)}
	if rep.Mode == Concurrent {
		syncN, asyncN := e.workers()
		rep.Results = run.concurrent(ctx, selected, syncN, asyncN)
	} else {
		rep.Results = run.sequential(ctx, selected)
	}

	rep.Outcome = Delivered
	for _, r := range rep.Results {
		if !r.OK() {
			rep.Outcome = Failed
			break
		}
	}
	rep = finish()
	log.Info("dispatch finished",
		logx.String("outcome", rep.Outcome.String()),
		logx.String("mode", rep.Mode.String()),
		logx.Int("targets", len(rep.Results)),
		logx.Int("failed", len(rep.Failures())),
		logx.Duration("elapsed", rep.Elapsed),
	)
	return rep
}

func (e *Engine) resolveMode(m Mode) Mode {
	if m != ModeDefault {
		return m
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.mode
}

func (e *Engine) workers() (int, int) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.syncWorkers, e.asyncWorkers
}

func validate(req Request) error {
	if req.Title == "" && req.Body == "" {
		return ErrEmptyMessage
	}
	if !utf8.ValidString(req.Title) || !utf8.ValidString(req.Body) {
		return ErrInvalidEncoding
	}
	return nil
}
