// Package target defines the contract between the dispatch core and the
// notification services it delivers to.
//
// A Target is one configured endpoint: an identity (URL), a set of tags used
// for selection, and the limits/format it accepts. Delivery comes in two
// variants:
//
//   - SyncTarget: Notify blocks until the service answered.
//   - AsyncTarget: AsyncNotify starts the delivery and returns a channel that
//     yields exactly one Reply.
//
// A target implements at least one of them. When both are implemented the
// async entry point wins.
package target

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caronc/apprise-sub007/internal/format"
	"github.com/caronc/apprise-sub007/internal/tags"
)

// ErrSkipped is returned by a target that decided not to deliver (for example
// a filtered notify type). It counts as a failure unless the target
// implements SkipAware.
var ErrSkipped = errors.New("target: delivery skipped")

// NotifyType is the severity of a notification.
type NotifyType string

const (
	TypeInfo    NotifyType = "info"
	TypeSuccess NotifyType = "success"
	TypeWarning NotifyType = "warning"
	TypeFailure NotifyType = "failure"
)

// ParseNotifyType maps a config/CLI value to a NotifyType. Empty means info.
func ParseNotifyType(s string) (NotifyType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return TypeInfo, nil
	case "success", "ok":
		return TypeSuccess, nil
	case "warning", "warn":
		return TypeWarning, nil
	case "failure", "error", "fail":
		return TypeFailure, nil
	default:
		return TypeInfo, fmt.Errorf("target: unknown notify type %q", s)
	}
}

// Message is one chunk as handed to a target, already converted to the
// target's format and fitted to its limits.
type Message struct {
	Title  string
	Body   string
	Type   NotifyType
	Format format.Format
	// Part and Parts number the chunk inside a split message (1-based).
	Part  int
	Parts int
}

// Reply is the outcome of one async delivery.
type Reply struct {
	OK  bool
	Err error
}

const (
	DefaultTitleMaxLen = 250
	DefaultBodyMaxLen  = 32768
	DefaultTimeout     = 30 * time.Second
)

// Options are the per-target limits and delivery knobs.
//
// A negative TitleMaxLen declares that the service has no title field; the
// title is then folded into the body.
type Options struct {
	TitleMaxLen         int
	BodyMaxLen          int
	Format              format.Format
	Overflow            format.Overflow
	TitleFirstChunkOnly bool
	// RateLimit is the minimum spacing between two calls to this target.
	RateLimit time.Duration
	// Timeout bounds each call. It is never infinite: <= 0 means DefaultTimeout.
	Timeout time.Duration
	// NewlineToBR converts newlines for TEXT->HTML targets.
	NewlineToBR bool
}

func DefaultOptions() Options {
	return Options{
		TitleMaxLen: DefaultTitleMaxLen,
		BodyMaxLen:  DefaultBodyMaxLen,
		Format:      format.Text,
		Overflow:    format.Truncate,
		Timeout:     DefaultTimeout,
	}
}

// Limits projects the options onto the converter's view.
func (o Options) Limits() format.Limits {
	titleMax := o.TitleMaxLen
	if titleMax < 0 {
		titleMax = 0
	}
	return format.Limits{
		TitleMaxLen:         titleMax,
		BodyMaxLen:          o.BodyMaxLen,
		Overflow:            o.Overflow,
		TitleFirstChunkOnly: o.TitleFirstChunkOnly,
	}
}

// CallTimeout returns the effective per-call timeout.
func (o Options) CallTimeout() time.Duration {
	if o.Timeout <= 0 {
		return DefaultTimeout
	}
	return o.Timeout
}

// Target is the identity/selection half of a notification endpoint.
type Target interface {
	// URL identifies the target. It keys throttle state and logs, so it
	// should be stable and must not leak credentials.
	URL() string
	// Key is unique per target instance. Throttle state and removal are
	// keyed by it, so two targets with the same display URL stay apart.
	Key() string
	// Tags returns the target's immutable tag set.
	Tags() tags.Set
	Options() Options
}

type SyncTarget interface {
	Target
	// Notify delivers one message. (false, nil) is a rejection.
	Notify(ctx context.Context, msg Message) (bool, error)
}

type AsyncTarget interface {
	Target
	// AsyncNotify starts one delivery; the channel yields exactly one Reply.
	AsyncNotify(ctx context.Context, msg Message) <-chan Reply
}

// SkipAware targets document that ErrSkipped is a normal, successful outcome.
type SkipAware interface {
	SkipIsSuccess() bool
}

// Kind tells which delivery variant a target exposes.
type Kind int

const (
	KindNone Kind = iota
	KindSync
	KindAsync
)

func (k Kind) String() string {
	switch k {
	case KindSync:
		return "sync"
	case KindAsync:
		return "async"
	default:
		return "none"
	}
}

func KindOf(t Target) Kind {
	switch t.(type) {
	case AsyncTarget:
		return KindAsync
	case SyncTarget:
		return KindSync
	default:
		return KindNone
	}
}
