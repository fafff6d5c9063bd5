package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/caronc/apprise-sub007/internal/config"
	"github.com/caronc/apprise-sub007/internal/dispatch"
	"github.com/caronc/apprise-sub007/internal/format"
	"github.com/caronc/apprise-sub007/internal/observability"
	"github.com/caronc/apprise-sub007/internal/registry"
	"github.com/caronc/apprise-sub007/internal/target"
	"github.com/caronc/apprise-sub007/pkg/logx"
)

func mapLogging(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

func mapMetrics(cfg *config.Config) observability.ServerConfig {
	return observability.ServerConfig{
		Enabled:      cfg.Metrics.Enabled,
		Addr:         strings.TrimSpace(cfg.Metrics.Addr),
		Token:        cfg.Metrics.Token,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

type dispatchConfig struct {
	mode         dispatch.Mode
	syncWorkers  int
	asyncWorkers int
	timeout      time.Duration
}

func mapDispatch(cfg *config.Config) (dispatchConfig, error) {
	mode, err := dispatch.ParseMode(cfg.Dispatch.Mode)
	if err != nil {
		return dispatchConfig{}, err
	}
	if mode == dispatch.ModeDefault {
		mode = dispatch.Sequential
	}
	timeout, err := config.ParseDurationOrDefault("dispatch.default_timeout", cfg.Dispatch.DefaultTimeout, target.DefaultTimeout)
	if err != nil {
		return dispatchConfig{}, err
	}
	return dispatchConfig{
		mode:         mode,
		syncWorkers:  cfg.Dispatch.Workers,
		asyncWorkers: cfg.Dispatch.AsyncWorkers,
		timeout:      timeout,
	}, nil
}

// buildTargets instantiates every configured target through tbl, in file
// order. Any failure rejects the whole set.
func buildTargets(tbl *registry.Table, cfg *config.Config) ([]target.Target, error) {
	dc, err := mapDispatch(cfg)
	if err != nil {
		return nil, err
	}
	out := make([]target.Target, 0, len(cfg.Targets))
	for i, tc := range cfg.Targets {
		spec, err := mapTarget(tc, dc.timeout)
		if err != nil {
			return nil, fmt.Errorf("targets[%d]: %w", i, err)
		}
		t, err := tbl.Build(tc.Kind, spec)
		if err != nil {
			return nil, fmt.Errorf("targets[%d]: %w", i, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func mapTarget(tc config.TargetConfig, defTimeout time.Duration) (registry.Spec, error) {
	opts := target.DefaultOptions()
	if tc.TitleMaxLen != 0 {
		opts.TitleMaxLen = tc.TitleMaxLen
	}
	if tc.BodyMaxLen > 0 {
		opts.BodyMaxLen = tc.BodyMaxLen
	}
	if strings.TrimSpace(tc.Format) != "" {
		f, err := format.ParseFormat(tc.Format)
		if err != nil {
			return registry.Spec{}, err
		}
		opts.Format = f
	}
	if strings.TrimSpace(tc.Overflow) != "" {
		o, err := format.ParseOverflow(tc.Overflow)
		if err != nil {
			return registry.Spec{}, err
		}
		opts.Overflow = o
	}
	rl, err := config.ParseDurationField("rate_limit", tc.RateLimit)
	if err != nil {
		return registry.Spec{}, err
	}
	opts.RateLimit = rl
	opts.Timeout, err = config.ParseDurationOrDefault("timeout", tc.Timeout, defTimeout)
	if err != nil {
		return registry.Spec{}, err
	}
	opts.TitleFirstChunkOnly = tc.TitleFirstChunkOnly
	opts.NewlineToBR = tc.NewlineToBR

	return registry.Spec{
		URL:     strings.TrimSpace(tc.URL),
		Tags:    tc.Tags,
		Options: opts,
		Params:  tc.Options,
	}, nil
}

// removed lists the targets of old that are not in cur, by Key.
func removed(old, cur []target.Target) []target.Target {
	keep := make(map[string]struct{}, len(cur))
	for _, t := range cur {
		keep[t.Key()] = struct{}{}
	}
	var out []target.Target
	for _, t := range old {
		if _, ok := keep[t.Key()]; !ok {
			out = append(out, t)
		}
	}
	return out
}
