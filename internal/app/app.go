// Package app wires the configuration, logging, metrics and target registry
// around a dispatch engine and keeps them in sync with the config file.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/caronc/apprise-sub007/internal/config"
	"github.com/caronc/apprise-sub007/internal/dispatch"
	"github.com/caronc/apprise-sub007/internal/eventbus"
	"github.com/caronc/apprise-sub007/internal/observability"
	"github.com/caronc/apprise-sub007/internal/registry"
	"github.com/caronc/apprise-sub007/internal/runtime/supervisor"
	"github.com/caronc/apprise-sub007/internal/target"
	"github.com/caronc/apprise-sub007/internal/target/logtarget"
	"github.com/caronc/apprise-sub007/internal/target/webhook"
	"github.com/caronc/apprise-sub007/pkg/logx"
)

type App struct {
	cfgm *config.ConfigManager
	sup  *supervisor.Supervisor

	log  logx.Logger
	logs *logx.Service
	bus  *eventbus.MemBus

	reg     *prometheus.Registry
	metrics *observability.Metrics
	server  *observability.Server

	table  *registry.Table
	engine *dispatch.Engine
}

// New loads cfgPath, builds every configured target and returns an App that
// is ready to dispatch. Start is only needed for hot reload and metrics.
func New(cfgPath string) (*App, error) {
	cfgm := config.NewConfigManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(mapLogging(cfg))
	log = log.With(logx.String("comp", "app"))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)
	bus := eventbus.New()

	tbl, ts, dc, err := bootstrap(cfg, logSvc.Logger())
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}

	coll := registry.NewCollection(ts...)
	eng := dispatch.New(coll,
		dispatch.WithLogger(logSvc.Logger().With(logx.String("comp", "dispatch"))),
		dispatch.WithBus(bus),
		dispatch.WithMetrics(metrics),
		dispatch.WithMode(dc.mode),
		dispatch.WithWorkers(dc.syncWorkers, dc.asyncWorkers),
	)
	metrics.SetConfigured(coll.Len())

	a := &App{
		cfgm:    cfgm,
		log:     log,
		logs:    logSvc,
		bus:     bus,
		reg:     reg,
		metrics: metrics,
		table:   tbl,
		engine:  eng,
	}
	a.server = observability.NewServer(reg, a.health, logSvc.Logger())
	log.Info("app ready", logx.Int("targets", coll.Len()), logx.String("mode", dc.mode.String()))
	return a, nil
}

func (a *App) Engine() *dispatch.Engine { return a.engine }
func (a *App) Bus() eventbus.Bus { return a.bus }
func (a *App) Logger() logx.Logger { return a.log }
func (a *App) Config() *config.Config { return a.cfgm.Get() }

// Done is closed when the app supervisor context is canceled (fatal error or Stop()).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

// Start runs the metrics server (when enabled) and, with watch set, follows
// the config file and applies every committed reload.
func (a *App) Start(ctx context.Context, watch bool) error {
	if a.sup != nil {
		return errors.New("app already started")
	}
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))

	a.server.Reconfigure(a.sup.Context(), mapMetrics(a.cfgm.Get()))

	// Events are mostly per dispatch, so they stay at debug level.
	events, unsub := a.bus.Subscribe(128)
	a.sup.Go("eventbus.log", func(c context.Context) error {
		defer unsub()
		for {
			select {
			case <-c.Done():
				return nil
			case e, ok := <-events:
				if !ok {
					return nil
				}
				a.log.Debug("event", logx.String("type", e.Type), logx.Time("time", e.Time))
			}
		}
	})

	if !watch {
		return nil
	}

	// transactional config reload: targets must build before commit/publish
	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(func(_ context.Context, cfg *config.Config) error {
		if _, err := mapDispatch(cfg); err != nil {
			return err
		}
		_, err := buildTargets(a.table, cfg)
		return err
	})

	sub := a.cfgm.Subscribe(8)
	a.sup.Go("config.reload", func(c context.Context) error {
		defer a.cfgm.Unsubscribe(sub)
		lastApplied := a.cfgm.Get()
		for {
			select {
			case <-c.Done():
				return nil
			case newCfg, ok := <-sub:
				if !ok {
					return nil
				}
				if err := a.apply(c, lastApplied, newCfg); err != nil {
					a.log.Warn("config reload not applied", logx.Err(err))
					continue
				}
				lastApplied = newCfg
			}
		}
	})
	a.sup.GoRestart("config.watch", a.cfgm.Watch,
		supervisor.WithRestartBackoff(500*time.Millisecond, 10*time.Second),
	)
	return nil
}

// apply swaps the running state over to cfg. Calls already in flight keep the
// collection snapshot they started with.
func (a *App) apply(ctx context.Context, prev, cfg *config.Config) error {
	ts, err := buildTargets(a.table, cfg)
	if err != nil {
		return err
	}
	dc, err := mapDispatch(cfg)
	if err != nil {
		return err
	}

	sections, attrs := config.SummarizeChange(prev, cfg)
	if len(sections) > 0 {
		fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
		a.log.Debug("config change summary", fields...)
	} else {
		a.log.Debug("config reload received, but no effective changes detected")
	}

	// update logging first so the rest of the reload logs with the new level
	a.logs.Apply(mapLogging(cfg))

	a.engine.Reconfigure(dc.mode, dc.syncWorkers, dc.asyncWorkers)
	old := a.engine.Collection().Replace(ts)
	a.engine.Forget(removed(old, ts)...)
	a.metrics.SetConfigured(len(ts))
	a.server.Reconfigure(ctx, mapMetrics(cfg))

	a.bus.Publish(eventbus.Event{Type: eventbus.ConfigReloaded, Data: eventbus.Reloaded{
		Targets: len(ts),
		Hash:    fmt.Sprintf("%x", config.Hash(cfg)),
	}})
	a.log.Info("config applied", logx.Int("targets", len(ts)), logx.String("mode", dc.mode.String()))
	return nil
}

// bootstrap registers the built-in target kinds and builds the initial set.
func bootstrap(cfg *config.Config, log logx.Logger) (*registry.Table, []target.Target, dispatchConfig, error) {
	tbl := registry.NewTable()
	if err := webhook.Register(tbl); err != nil {
		return nil, nil, dispatchConfig{}, err
	}
	if err := logtarget.Register(tbl, log.With(logx.String("comp", "target.log"))); err != nil {
		return nil, nil, dispatchConfig{}, err
	}
	dc, err := mapDispatch(cfg)
	if err != nil {
		return nil, nil, dispatchConfig{}, err
	}
	ts, err := buildTargets(tbl, cfg)
	if err != nil {
		return nil, nil, dispatchConfig{}, err
	}
	return tbl, ts, dc, nil
}

// health fails while no target is configured, since every dispatch would fail.
func (a *App) health() error {
	if a.engine.Collection().Len() == 0 {
		return errors.New("no targets configured")
	}
	return nil
}

// MetricsAddr is the bound metrics address, "" when the server is not running.
func (a *App) MetricsAddr() string { return a.server.Addr() }

func (a *App) Stop(ctx context.Context) error {
	if a.sup == nil {
		_ = a.logs.Close()
		return nil
	}
	a.log.Info("stopping")

	// First, cancel the app run context so background loops start unwinding immediately.
	a.sup.Cancel()

	step := func(name string, max time.Duration, fn func(context.Context) error) {
		start := time.Now()
		stepCtx, cancel := context.WithTimeout(ctx, max)
		defer cancel()
		if err := fn(stepCtx); err != nil {
			a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
		}
		a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", time.Since(start)))
	}

	step("metrics", 2*time.Second, func(c context.Context) error { a.server.Stop(c); return nil })
	// Finally, wait for supervised goroutines (config watch/reload).
	step("supervisor", 2*time.Second, func(c context.Context) error { return a.sup.Wait(c) })

	a.log.Info("stopped")
	return a.logs.Close()
}
