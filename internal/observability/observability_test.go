package observability

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/caronc/apprise-sub007/pkg/logx"
)

func TestMetricsRecord(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveDispatch("delivered", "sequential")
	m.ObserveTarget("https://a", "success", "none", 3, 20*time.Millisecond)
	m.ObserveTarget("https://a", "failure", "rejected", 0, time.Millisecond)
	m.ObserveThrottleWait("https://a", 5*time.Millisecond)
	m.SetConfigured(4)

	require.Equal(t, 1.0, testutil.ToFloat64(m.DispatchTotal.WithLabelValues("delivered", "sequential")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.TargetResults.WithLabelValues("https://a", "failure", "rejected")))
	require.Equal(t, 3.0, testutil.ToFloat64(m.ChunksSent.WithLabelValues("https://a")))
	require.Equal(t, 4.0, testutil.ToFloat64(m.ConfiguredTotal))
	require.Equal(t, 1, testutil.CollectAndCount(m.ThrottleWait))
}

func TestNilMetricsIsSafe(t *testing.T) {
	t.Parallel()
	var m *Metrics
	m.ObserveDispatch("failed", "concurrent")
	m.ObserveTarget("x", "failure", "error", 0, 0)
	m.ObserveThrottleWait("x", 0)
	m.SetConfigured(1)
}

func TestHandlerAuthAndHealth(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	NewMetrics(reg).SetConfigured(2)

	var healthy atomic.Bool
	healthy.Store(true)
	s := NewServer(reg, func() error {
		if healthy.Load() {
			return nil
		}
		return errors.New("no targets")
	}, logx.Logger{})
	ts := httptest.NewServer(s.Handler("sekret"))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/metrics?token=sekret")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), "notify_targets_configured 2")

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	req.Header.Set("Authorization", "Bearer sekret")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	healthy.Store(false)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestServerLifecycle(t *testing.T) {
	t.Parallel()
	s := NewServer(prometheus.NewRegistry(), nil, logx.Nop())
	ctx := context.Background()

	s.Reconfigure(ctx, ServerConfig{Enabled: true, Addr: "127.0.0.1:0"})
	require.Eventually(t, func() bool { return s.Addr() != "" }, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Get("http://" + s.Addr() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	stopCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	s.Reconfigure(stopCtx, ServerConfig{Enabled: false})
	require.Empty(t, s.Addr())
}

func TestLoopbackCheck(t *testing.T) {
	t.Parallel()
	require.True(t, isLoopbackAddr("127.0.0.1:9464"))
	require.True(t, isLoopbackAddr("localhost:1"))
	require.False(t, isLoopbackAddr(":9464"))
	require.False(t, isLoopbackAddr("10.0.0.1:9464"))
}
