package config

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const sampleYAML = `
logging:
  level: debug
  console: true
dispatch:
  mode: concurrent
  workers: 4
  default_timeout: 10s
metrics:
  enabled: true
  addr: 127.0.0.1:0
targets:
  - kind: webhook
    url: https://example.com/hook
    tags: [ops, "Team A"]
    format: html
    body_max_len: 1000
    overflow: split
    rate_limit: 500ms
    options:
      header.X-Token: abc
  - kind: log
    url: log://audit
`

func TestDecodeYAML(t *testing.T) {
	t.Parallel()
	cfg, err := Decode("notify.yaml", []byte(sampleYAML))
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, "concurrent", cfg.Dispatch.Mode)
	require.Len(t, cfg.Targets, 2)
	require.Equal(t, []string{"ops", "Team A"}, cfg.Targets[0].Tags)
	require.Equal(t, "abc", cfg.Targets[0].Options["header.X-Token"])
	require.NoError(t, Validate(cfg))
}

func TestDecodeJSONSniffed(t *testing.T) {
	t.Parallel()
	cfg, err := Decode("notify.conf", []byte(`{"targets":[{"kind":"log","url":"log://"}]}`))
	require.NoError(t, err)
	require.Len(t, cfg.Targets, 1)
}

func TestDecodeIsStrict(t *testing.T) {
	t.Parallel()
	cases := map[string]struct {
		name, data string
	}{
		"unknown field":   {"c.json", `{"targets":[],"telegram":{}}`},
		"unknown yaml":    {"c.yml", "dispatch:\n  retries: 3\n"},
		"trailing data":   {"c.json", `{"targets":[]}{"targets":[]}`},
		"broken yaml":     {"c.yaml", "targets: [\n"},
		"wrong type json": {"c.json", `{"targets":{"kind":"x"}}`},
	}
	for name, tc := range cases {
		_, err := Decode(tc.name, []byte(tc.data))
		require.Error(t, err, name)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	cfg := &Config{
		Dispatch: DispatchConfig{Mode: "sideways", Workers: -1, DefaultTimeout: "soon"},
		Targets: []TargetConfig{
			{URL: "x://", Format: "pdf", Overflow: "wrap", RateLimit: "-1s", Timeout: "nope", BodyMaxLen: -5},
		},
	}
	err := Validate(cfg)
	require.Error(t, err)
	for _, want := range []string{
		"dispatch.mode", "dispatch.workers", "dispatch.default_timeout",
		"targets[0].kind", "targets[0].format", "targets[0].overflow",
		"targets[0].body_max_len", "targets[0].rate_limit", "targets[0].timeout",
	} {
		require.ErrorContains(t, err, want)
	}
	require.Error(t, Validate(nil))
}

func TestDurations(t *testing.T) {
	t.Parallel()
	d, err := ParseDurationField("x", " 2s ")
	require.NoError(t, err)
	require.Equal(t, 2*time.Second, d)

	d, err = ParseDurationOrDefault("x", "", time.Minute)
	require.NoError(t, err)
	require.Equal(t, time.Minute, d)

	_, err = ParseDurationOrDefault("x", "bad", time.Minute)
	require.ErrorContains(t, err, "x: invalid duration")
}

func TestSummarizeChange(t *testing.T) {
	t.Parallel()
	a, err := Decode("a.yaml", []byte(sampleYAML))
	require.NoError(t, err)
	b, err := Decode("b.yaml", []byte(sampleYAML))
	require.NoError(t, err)

	changed, _ := SummarizeChange(a, b)
	require.Empty(t, changed)

	b.Dispatch.Mode = "sequential"
	b.Targets = b.Targets[:1]
	changed, attrs := SummarizeChange(a, b)
	require.Equal(t, []string{"dispatch", "targets"}, changed)
	require.NotEmpty(t, attrs)
}

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
}

func TestManagerLoadAndWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notify.yaml")
	writeFile(t, path, "targets:\n  - kind: log\n    url: log://one\n")

	m := NewConfigManager(path)
	m.debounce = 50 * time.Millisecond
	cfg, err := m.Load()
	require.NoError(t, err)
	require.Equal(t, "log://one", cfg.Targets[0].URL)
	require.Same(t, cfg, m.Get())

	var validated atomic.Int32
	m.SetValidator(func(context.Context, *Config) error {
		validated.Add(1)
		return nil
	})
	ch := m.Subscribe(1)
	defer m.Unsubscribe(ch)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- m.Watch(ctx) }()

	// Give the watcher a moment to register before writing.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, path, "targets:\n  - kind: log\n    url: log://two\n")

	select {
	case got := <-ch:
		require.Equal(t, "log://two", got.Targets[0].URL)
		require.Equal(t, "log://two", m.Get().Targets[0].URL)
	case <-time.After(3 * time.Second):
		t.Fatal("reload not published")
	}

	// An invalid file is rejected and the committed config stays.
	writeFile(t, path, "targets:\n  - url: log://three\n")
	time.Sleep(300 * time.Millisecond)
	require.Equal(t, "log://two", m.Get().Targets[0].URL)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
	require.GreaterOrEqual(t, validated.Load(), int32(1))
}

func TestManagerLoadRejectsInvalid(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "bad.json")
	writeFile(t, path, `{"targets":[{"url":"x://"}]}`)
	_, err := NewConfigManager(path).Load()
	require.ErrorContains(t, err, "kind is required")
}
