package config

// Config is the on-disk configuration (JSON or YAML).
//
// All durations are Go duration strings ("500ms", "10s", "1m").
type Config struct {
	Logging  LoggingConfig  `json:"logging"`
	Dispatch DispatchConfig `json:"dispatch"`
	Metrics  MetricsConfig  `json:"metrics,omitempty"`
	Targets  []TargetConfig `json:"targets"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    FileLogging `json:"file"`
}

type FileLogging struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// DispatchConfig holds engine defaults.
//
// Defaults (when omitted/zero):
//   - mode: "sequential"
//   - workers: max(4, NumCPU)
//   - async_workers: 32
//   - default_timeout: "30s" (applies to targets without their own timeout)
type DispatchConfig struct {
	Mode           string `json:"mode,omitempty"`
	Workers        int    `json:"workers,omitempty"`
	AsyncWorkers   int    `json:"async_workers,omitempty"`
	DefaultTimeout string `json:"default_timeout,omitempty"`
}

// MetricsConfig controls the /metrics + /healthz server. A non-loopback addr
// requires a token.
type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"`
	Token   string `json:"token,omitempty"`
}

// TargetConfig declares one notification target.
//
// title_max_len: 0 uses the default, a negative value means the service has
// no title field (the title is folded into the body).
type TargetConfig struct {
	Kind                string            `json:"kind"`
	URL                 string            `json:"url"`
	Tags                []string          `json:"tags,omitempty"`
	Format              string            `json:"format,omitempty"`
	TitleMaxLen         int               `json:"title_max_len,omitempty"`
	BodyMaxLen          int               `json:"body_max_len,omitempty"`
	Overflow            string            `json:"overflow,omitempty"`
	RateLimit           string            `json:"rate_limit,omitempty"`
	Timeout             string            `json:"timeout,omitempty"`
	TitleFirstChunkOnly bool              `json:"title_first_chunk_only,omitempty"`
	NewlineToBR         bool              `json:"newline_to_br,omitempty"`
	Options             map[string]string `json:"options,omitempty"`
}
