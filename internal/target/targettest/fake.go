// Package targettest provides recording fake targets for tests.
package targettest

import (
	"context"
	"sync"
	"time"

	"github.com/caronc/apprise-sub007/internal/target"
)

// Call is one recorded delivery.
type Call struct {
	Msg target.Message
	At  time.Time
}

// Behavior decides the answer for the n-th call (0-based).
type Behavior func(n int, msg target.Message) (bool, error)

func Succeed(int, target.Message) (bool, error) { return true, nil }
func Reject(int, target.Message) (bool, error)  { return false, nil }

// Panic panics on every call. Only meaningful for Sync: an Async fake would
// panic on its own goroutine.
func Panic(int, target.Message) (bool, error) { panic("fake target exploded") }

// FailOn fails only the listed calls with err (or a rejection when err is nil).
func FailOn(err error, calls ...int) Behavior {
	set := map[int]bool{}
	for _, c := range calls {
		set[c] = true
	}
	return func(n int, _ target.Message) (bool, error) {
		if set[n] {
			return false, err
		}
		return true, nil
	}
}

// Recorder is the shared call log of a fake.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
	// Delay is applied before answering.
	Delay time.Duration
	// Block, when set, is waited on (or ctx) before answering.
	Block <-chan struct{}
	Do    Behavior
}

func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

func (r *Recorder) Bodies() []string {
	var out []string
	for _, c := range r.Calls() {
		out = append(out, c.Msg.Body)
	}
	return out
}

func (r *Recorder) handle(ctx context.Context, msg target.Message) (bool, error) {
	r.mu.Lock()
	n := len(r.calls)
	r.calls = append(r.calls, Call{Msg: msg, At: time.Now()})
	do := r.Do
	r.mu.Unlock()

	if r.Block != nil {
		select {
		case <-r.Block:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	if r.Delay > 0 {
		select {
		case <-time.After(r.Delay):
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	if do == nil {
		do = Succeed
	}
	return do(n, msg)
}

// Sync is a recording SyncTarget.
type Sync struct {
	target.Base
	*Recorder
}

func NewSync(url string, tagList []string, opts target.Options, do Behavior) *Sync {
	return &Sync{Base: target.NewBase(url, tagList, opts), Recorder: &Recorder{Do: do}}
}

func (s *Sync) Notify(ctx context.Context, msg target.Message) (bool, error) {
	return s.handle(ctx, msg)
}

// Async is a recording AsyncTarget.
type Async struct {
	target.Base
	*Recorder
}

func NewAsync(url string, tagList []string, opts target.Options, do Behavior) *Async {
	return &Async{Base: target.NewBase(url, tagList, opts), Recorder: &Recorder{Do: do}}
}

func (a *Async) AsyncNotify(ctx context.Context, msg target.Message) <-chan target.Reply {
	out := make(chan target.Reply, 1)
	go func() {
		defer close(out)
		ok, err := a.handle(ctx, msg)
		out <- target.Reply{OK: ok, Err: err}
	}()
	return out
}
