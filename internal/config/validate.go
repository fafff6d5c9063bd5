package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caronc/apprise-sub007/internal/format"
)

// Validate checks everything that can be checked without building targets.
// Errors from all fields are joined.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	var errs []error

	switch strings.ToLower(strings.TrimSpace(cfg.Dispatch.Mode)) {
	case "", "default", "sequential", "serial", "seq", "concurrent", "parallel", "async":
	default:
		errs = append(errs, fmt.Errorf("dispatch.mode: unknown mode %q", cfg.Dispatch.Mode))
	}
	if cfg.Dispatch.Workers < 0 {
		errs = append(errs, errors.New("dispatch.workers must be >= 0"))
	}
	if cfg.Dispatch.AsyncWorkers < 0 {
		errs = append(errs, errors.New("dispatch.async_workers must be >= 0"))
	}
	if _, err := ParseDurationField("dispatch.default_timeout", cfg.Dispatch.DefaultTimeout); err != nil {
		errs = append(errs, err)
	}

	for i, t := range cfg.Targets {
		p := fmt.Sprintf("targets[%d]", i)
		if strings.TrimSpace(t.Kind) == "" {
			errs = append(errs, fmt.Errorf("%s.kind is required", p))
		}
		if _, err := format.ParseFormat(t.Format); err != nil {
			errs = append(errs, fmt.Errorf("%s.format: %w", p, err))
		}
		if _, err := format.ParseOverflow(t.Overflow); err != nil {
			errs = append(errs, fmt.Errorf("%s.overflow: %w", p, err))
		}
		if t.BodyMaxLen < 0 {
			errs = append(errs, fmt.Errorf("%s.body_max_len must be >= 0", p))
		}
		if _, err := ParseDurationField(p+".rate_limit", t.RateLimit); err != nil {
			errs = append(errs, err)
		}
		if _, err := ParseDurationField(p+".timeout", t.Timeout); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
