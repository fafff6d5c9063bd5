// Package invoke calls one target for every chunk of a prepared message and
// turns whatever happens (rejections, errors, panics, timeouts) into a Result.
// Nothing a target does escapes as a panic or an error return.
package invoke

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/caronc/apprise-sub007/internal/format"
	"github.com/caronc/apprise-sub007/internal/target"
	"github.com/caronc/apprise-sub007/pkg/logx"
)

var (
	ErrRejected = errors.New("invoke: target rejected the message")
	ErrNoReply  = errors.New("invoke: async target closed without a reply")
	ErrNoMethod = errors.New("invoke: target has no delivery method")
)

type Status int

const (
	Failure Status = iota
	Success
)

func (s Status) String() string {
	if s == Success {
		return "success"
	}
	return "failure"
}

// FailureKind classifies the first failure seen for a target.
type FailureKind int

const (
	FailNone FailureKind = iota
	FailRejected
	FailError
	FailPanic
	FailConversion
	FailSkipped
	FailThrottle
)

func (k FailureKind) String() string {
	switch k {
	case FailNone:
		return "none"
	case FailRejected:
		return "rejected"
	case FailError:
		return "error"
	case FailPanic:
		return "panic"
	case FailConversion:
		return "conversion"
	case FailSkipped:
		return "skipped"
	case FailThrottle:
		return "throttle"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Result is the per-target outcome of one dispatch.
type Result struct {
	URL    string
	Status Status
	// Kind is the first failure kind; FailNone on success.
	Kind FailureKind
	// Err joins the errors of every failed chunk.
	Err     error
	Sent    int
	Failed  int
	Elapsed time.Duration
}

func (r Result) OK() bool { return r.Status == Success }

// ConversionFailure is the result for a target whose message could not be
// prepared; the target itself was never called.
func ConversionFailure(url string, err error) Result {
	return Result{URL: url, Status: Failure, Kind: FailConversion, Err: err}
}

// Throttler spaces calls per key. *throttle.Controller implements it.
type Throttler interface {
	Wait(ctx context.Context, key string, interval time.Duration) error
}

// Invoker carries the optional collaborators of Invoke.
type Invoker struct {
	Throttle Throttler
	Log      logx.Logger
	// ObserveWait, if set, receives how long each chunk waited on the throttle.
	ObserveWait func(url string, d time.Duration)
}

// Invoke delivers chunks to t with a default Invoker.
func Invoke(ctx context.Context, t target.Target, chunks []format.Chunk, typ target.NotifyType, th Throttler) Result {
	return Invoker{Throttle: th}.Invoke(ctx, t, chunks, typ)
}

// Invoke sends chunks to t in order, one call each. A failed chunk does not
// stop the later ones; the result is Success only if every chunk succeeded.
func (iv Invoker) Invoke(ctx context.Context, t target.Target, chunks []format.Chunk, typ target.NotifyType) Result {
	log := iv.Log
	if log.IsZero() {
		log = logx.Nop()
	}
	start := time.Now()
	opts := t.Options()
	res := Result{URL: t.URL(), Status: Success}
	var errs []error

	fail := func(kind FailureKind, err error) {
		res.Failed++
		if res.Kind == FailNone {
			res.Kind = kind
		}
		if err != nil {
			errs = append(errs, err)
		}
	}

	for i, ch := range chunks {
		if iv.Throttle != nil && opts.RateLimit > 0 {
			ws := time.Now()
			err := iv.Throttle.Wait(ctx, t.Key(), opts.RateLimit)
			if iv.ObserveWait != nil {
				iv.ObserveWait(res.URL, time.Since(ws))
			}
			if err != nil {
				fail(FailThrottle, fmt.Errorf("chunk %d: throttle: %w", i+1, err))
				continue
			}
		}

		msg := target.Message{
			Title:  ch.Title,
			Body:   ch.Body,
			Type:   typ,
			Format: opts.Format,
			Part:   i + 1,
			Parts:  len(chunks),
		}
		kind, err := iv.call(ctx, t, msg, opts.CallTimeout(), log)
		if kind == FailNone {
			res.Sent++
			continue
		}
		if err != nil {
			err = fmt.Errorf("chunk %d: %w", i+1, err)
		}
		fail(kind, err)
	}

	if res.Failed > 0 {
		res.Status = Failure
		res.Err = errors.Join(errs...)
	}
	res.Elapsed = time.Since(start)
	return res
}

// call performs one bounded delivery and classifies it. Both AsyncNotify and
// Notify run on their own goroutine, so a target that ignores ctx still
// cannot outlive the timeout.
func (iv Invoker) call(ctx context.Context, t target.Target, msg target.Message, timeout time.Duration, log logx.Logger) (FailureKind, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		ok  bool
		err error
	)
	switch tg := t.(type) {
	case target.AsyncTarget:
		ok, err = await(callCtx, runAsync(callCtx, tg, msg, log))
	case target.SyncTarget:
		ok, err = await(callCtx, runSync(callCtx, tg, msg, log))
	default:
		return FailError, ErrNoMethod
	}
	return classify(t, ok, err)
}

type panicError struct{ value any }

func (e *panicError) Error() string { return fmt.Sprintf("panic: %v", e.value) }

// logPanic runs inside the recovering defer; skip 3 starts the trace there,
// just above the runtime panic frames.
func logPanic(log logx.Logger, t target.Target, r any) {
	log.Error("target panic", logx.String("target", t.URL()), logx.Any("panic", r), logx.Stack(logx.StackTrace(3, 32)))
}

func runSync(ctx context.Context, t target.SyncTarget, msg target.Message, log logx.Logger) <-chan target.Reply {
	out := make(chan target.Reply, 1)
	go func() {
		defer close(out)
		defer func() {
			if r := recover(); r != nil {
				logPanic(log, t, r)
				out <- target.Reply{Err: &panicError{value: r}}
			}
		}()
		ok, err := t.Notify(ctx, msg)
		out <- target.Reply{OK: ok, Err: err}
	}()
	return out
}

// runAsync starts AsyncNotify and forwards its single reply. A nil or closed
// reply channel closes out (ErrNoReply); once ctx ends nothing is forwarded.
func runAsync(ctx context.Context, t target.AsyncTarget, msg target.Message, log logx.Logger) <-chan target.Reply {
	out := make(chan target.Reply, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logPanic(log, t, r)
				out <- target.Reply{Err: &panicError{value: r}}
			}
		}()
		ch := t.AsyncNotify(ctx, msg)
		if ch == nil {
			close(out)
			return
		}
		select {
		case r, open := <-ch:
			if !open {
				close(out)
				return
			}
			out <- r
		case <-ctx.Done():
		}
	}()
	return out
}

func await(ctx context.Context, ch <-chan target.Reply) (bool, error) {
	if ch == nil {
		return false, ErrNoReply
	}
	select {
	case r, open := <-ch:
		if !open {
			return false, ErrNoReply
		}
		return r.OK, r.Err
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func classify(t target.Target, ok bool, err error) (FailureKind, error) {
	var pe *panicError
	switch {
	case errors.As(err, &pe):
		return FailPanic, err
	case errors.Is(err, target.ErrSkipped):
		if sa, yes := t.(target.SkipAware); yes && sa.SkipIsSuccess() {
			return FailNone, nil
		}
		return FailSkipped, err
	case err != nil:
		return FailError, err
	case !ok:
		return FailRejected, ErrRejected
	default:
		return FailNone, nil
	}
}
