package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/caronc/apprise-sub007/internal/app"
	"github.com/caronc/apprise-sub007/internal/dispatch"
	"github.com/caronc/apprise-sub007/internal/format"
	"github.com/caronc/apprise-sub007/internal/tags"
	"github.com/caronc/apprise-sub007/internal/target"
	"github.com/caronc/apprise-sub007/pkg/logx"
)

const (
	exitDelivered = 0
	exitFailed    = 1
	exitNoMatch   = 2
)

// tagList collects repeated -tag flags. Each flag is one OR element; commas
// or spaces inside one flag make an AND group.
type tagList []string

func (t *tagList) String() string { return strings.Join(*t, " ") }

func (t *tagList) Set(v string) error {
	*t = append(*t, v)
	return nil
}

type options struct {
	cfgPath string
	title   string
	body    string
	typ     string
	format  string
	mode    string
	watch   bool
	tags    tagList
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin))
}

func run(args []string, stdin io.Reader) int {
	var o options
	fs := flag.NewFlagSet("notify", flag.ContinueOnError)
	fs.StringVar(&o.cfgPath, "config", "./notify.yaml", "path to config (yaml or json)")
	fs.StringVar(&o.title, "title", "", "notification title")
	fs.StringVar(&o.body, "body", "", "notification body (read from stdin when empty)")
	fs.Var(&o.tags, "tag", "tag filter; repeat for OR, use commas for AND")
	fs.StringVar(&o.typ, "type", "info", "info, success, warning or failure")
	fs.StringVar(&o.format, "format", "text", "input format: text, markdown or html")
	fs.StringVar(&o.mode, "mode", "", "sequential or concurrent (default from config)")
	fs.BoolVar(&o.watch, "watch", false, "stay running: hot reload the config and send one notification per stdin line")
	if err := fs.Parse(args); err != nil {
		return exitFailed
	}
	// Until the config is loaded there is no Service to log through.
	boot := logx.NewConsole(logx.Stderr(), "info")

	req, err := o.request()
	if err != nil {
		boot.Error("invalid arguments", logx.Err(err))
		return exitFailed
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(o.cfgPath)
	if err != nil {
		boot.Error("cannot start", logx.String("config", o.cfgPath), logx.Err(err))
		return exitFailed
	}
	defer func() {
		stopCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		_ = a.Stop(stopCtx)
	}()

	if o.watch {
		return serve(ctx, a, req, stdin)
	}

	if req.Body == "" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			a.Logger().Error("read stdin failed", logx.Err(err))
			return exitFailed
		}
		req.Body = strings.TrimRight(string(b), "\r\n")
	}
	return exitCode(a.Engine().Notify(ctx, req))
}

func (o options) request() (dispatch.Request, error) {
	typ, err := target.ParseNotifyType(o.typ)
	if err != nil {
		return dispatch.Request{}, err
	}
	in, err := format.ParseFormat(o.format)
	if err != nil {
		return dispatch.Request{}, err
	}
	mode, err := dispatch.ParseMode(o.mode)
	if err != nil {
		return dispatch.Request{}, err
	}
	req := dispatch.Request{
		Title:  o.title,
		Body:   o.body,
		Type:   typ,
		Format: in,
		Mode:   mode,
	}
	if expr := tags.Parse(o.tags...); len(expr) > 0 {
		req.Tags = expr
	}
	return req, nil
}

// serve keeps the app running with hot reload and the metrics server and
// dispatches every stdin line as a body until EOF or a signal.
func serve(ctx context.Context, a *app.App, tmpl dispatch.Request, stdin io.Reader) int {
	log := a.Logger()
	if err := a.Start(ctx, true); err != nil {
		log.Error("start failed", logx.Err(err))
		return exitFailed
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(stdin)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := sc.Err(); err != nil {
			log.Warn("stdin read failed", logx.Err(err))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return exitDelivered
		case <-a.Done():
			if err := a.Err(); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("fatal", logx.Err(err))
				return exitFailed
			}
			return exitDelivered
		case line, ok := <-lines:
			if !ok {
				return exitDelivered
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			req := tmpl
			req.Body = line
			rep := a.Engine().NotifyDetailed(ctx, req)
			log.Debug("line dispatched", logx.String("dispatch", rep.ID), logx.String("outcome", rep.Outcome.String()))
		}
	}
}

func exitCode(o dispatch.Outcome) int {
	switch o {
	case dispatch.Delivered:
		return exitDelivered
	case dispatch.NoMatch:
		return exitNoMatch
	default:
		return exitFailed
	}
}
