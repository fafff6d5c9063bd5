package logtarget

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/caronc/apprise-sub007/internal/registry"
	"github.com/caronc/apprise-sub007/internal/target"
	"github.com/caronc/apprise-sub007/pkg/logx"
)

type lockedBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (l *lockedBuffer) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func (l *lockedBuffer) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.String()
}

func TestAsyncNotifyLogs(t *testing.T) {
	var buf lockedBuffer
	tg, err := New(registry.Spec{URL: "log://ops", Params: map[string]string{"name": "ops"}}, logx.NewWriter(&buf, "info"))
	require.NoError(t, err)
	require.Equal(t, target.KindAsync, target.KindOf(tg))

	r := <-tg.AsyncNotify(context.Background(), target.Message{Title: "t", Body: "hello", Type: target.TypeWarning})
	require.True(t, r.OK)
	require.NoError(t, r.Err)
	out := buf.String()
	require.Contains(t, out, `"target":"ops"`)
	require.Contains(t, out, `"body":"hello"`)
	require.Contains(t, out, `"level":"warn"`)
}

func TestTypeFilterSkips(t *testing.T) {
	tg, err := New(registry.Spec{Params: map[string]string{"types": "failure, warning"}}, logx.Nop())
	require.NoError(t, err)
	require.True(t, tg.SkipIsSuccess())

	r := <-tg.AsyncNotify(context.Background(), target.Message{Body: "x", Type: target.TypeInfo})
	require.False(t, r.OK)
	require.True(t, errors.Is(r.Err, target.ErrSkipped))

	r = <-tg.AsyncNotify(context.Background(), target.Message{Body: "x", Type: target.TypeFailure})
	require.True(t, r.OK)
}

func TestCancelledContext(t *testing.T) {
	tg, err := New(registry.Spec{}, logx.Logger{})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := <-tg.AsyncNotify(ctx, target.Message{Body: "x"})
	require.ErrorIs(t, r.Err, context.Canceled)
}

func TestBadTypeParam(t *testing.T) {
	_, err := New(registry.Spec{Params: map[string]string{"types": "loud"}}, logx.Nop())
	require.Error(t, err)
}
