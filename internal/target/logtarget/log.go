// Package logtarget delivers notifications into the structured log. It is the
// asynchronous reference target: each delivery runs on its own goroutine and
// answers through the reply channel.
package logtarget

import (
	"context"
	"strings"

	"github.com/caronc/apprise-sub007/internal/registry"
	"github.com/caronc/apprise-sub007/internal/target"
	"github.com/caronc/apprise-sub007/pkg/logx"
)

const Kind = "log"

type Target struct {
	target.Base
	log   logx.Logger
	name  string
	types map[target.NotifyType]bool
}

// New builds a log target. Params understood:
//
//	name   value of the "target" field (default: the URL)
//	types  comma list of notify types to log; other types are skipped
func New(spec registry.Spec, log logx.Logger) (*Target, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	url := strings.TrimSpace(spec.URL)
	if url == "" {
		url = "log://"
	}
	t := &Target{
		Base: target.NewBase(url, spec.Tags, spec.Options),
		log:  log,
		name: url,
	}
	if n := strings.TrimSpace(spec.Params["name"]); n != "" {
		t.name = n
	}
	if raw := strings.TrimSpace(spec.Params["types"]); raw != "" {
		t.types = map[target.NotifyType]bool{}
		for _, p := range strings.Split(raw, ",") {
			nt, err := target.ParseNotifyType(p)
			if err != nil {
				return nil, err
			}
			t.types[nt] = true
		}
	}
	return t, nil
}

func Register(tbl *registry.Table, log logx.Logger) error {
	return tbl.Register(Kind, func(spec registry.Spec) (target.Target, error) {
		return New(spec, log)
	})
}

// SkipIsSuccess: a filtered type is intentional, not a delivery problem.
func (t *Target) SkipIsSuccess() bool { return true }

// AsyncNotify implements target.AsyncTarget.
func (t *Target) AsyncNotify(ctx context.Context, msg target.Message) <-chan target.Reply {
	out := make(chan target.Reply, 1)
	go func() {
		defer close(out)
		if err := ctx.Err(); err != nil {
			out <- target.Reply{Err: err}
			return
		}
		if t.types != nil && !t.types[msg.Type] {
			out <- target.Reply{Err: target.ErrSkipped}
			return
		}
		fields := []logx.Field{
			logx.String("target", t.name),
			logx.String("type", string(msg.Type)),
			logx.String("body", msg.Body),
		}
		if msg.Title != "" {
			fields = append(fields, logx.String("title", msg.Title))
		}
		if msg.Parts > 1 {
			fields = append(fields, logx.Int("part", msg.Part), logx.Int("parts", msg.Parts))
		}
		switch msg.Type {
		case target.TypeFailure:
			t.log.Error("notification", fields...)
		case target.TypeWarning:
			t.log.Warn("notification", fields...)
		default:
			t.log.Info("notification", fields...)
		}
		out <- target.Reply{OK: true}
	}()
	return out
}
