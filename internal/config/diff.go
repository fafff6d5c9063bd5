package config

import (
	"reflect"

	"github.com/caronc/apprise-sub007/pkg/logx"
)

// SummarizeChange lists the sections that differ between two configs and
// safe fields for logging (never the metrics token or target URLs, which may
// carry credentials).
func SummarizeChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}
	var (
		changed []string
		attrs   []logx.Field
	)
	if oldCfg.Logging != newCfg.Logging {
		changed = append(changed, "logging")
		attrs = append(attrs, logx.String("logging.level", newCfg.Logging.Level), logx.Bool("logging.file", newCfg.Logging.File.Enabled))
	}
	if oldCfg.Dispatch != newCfg.Dispatch {
		changed = append(changed, "dispatch")
		attrs = append(attrs,
			logx.String("dispatch.mode", newCfg.Dispatch.Mode),
			logx.Int("dispatch.workers", newCfg.Dispatch.Workers),
			logx.Int("dispatch.async_workers", newCfg.Dispatch.AsyncWorkers),
		)
	}
	if oldCfg.Metrics != newCfg.Metrics {
		changed = append(changed, "metrics")
		attrs = append(attrs, logx.Bool("metrics.enabled", newCfg.Metrics.Enabled), logx.String("metrics.addr", newCfg.Metrics.Addr))
	}
	if !reflect.DeepEqual(oldCfg.Targets, newCfg.Targets) {
		changed = append(changed, "targets")
		attrs = append(attrs, logx.Int("targets.old", len(oldCfg.Targets)), logx.Int("targets.new", len(newCfg.Targets)))
	}
	return changed, attrs
}
