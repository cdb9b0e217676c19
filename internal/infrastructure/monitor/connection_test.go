package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakePinger struct {
	calls atomic.Int32
	err   atomic.Value
}

func (f *fakePinger) Ping(context.Context) error {
	f.calls.Add(1)
	if err, ok := f.err.Load().(error); ok {
		return err
	}
	return nil
}

func TestMonitor_Refresh(t *testing.T) {
	store := &fakePinger{}
	m := New(store, "bolt", time.Minute, nil)

	assert.False(t, m.IsOnline())

	status := m.Refresh()
	assert.True(t, status.Storage)
	assert.Equal(t, "bolt", status.Driver)
	assert.Empty(t, status.Error)
	assert.False(t, status.LastCheck.IsZero())
	assert.True(t, m.IsOnline())

	store.err.Store(errors.New("connection refused"))
	status = m.Refresh()
	assert.False(t, status.Storage)
	assert.Equal(t, "connection refused", status.Error)
	assert.Equal(t, status, m.GetStatus())
}

func TestMonitor_NilStore(t *testing.T) {
	m := New(nil, "dynamodb", 0, nil)
	status := m.Refresh()
	assert.False(t, status.Storage)
	assert.NotEmpty(t, status.Error)
}

func TestMonitor_StartStop(t *testing.T) {
	store := &fakePinger{}
	m := New(store, "redis", 10*time.Millisecond, nil)
	m.Start()

	require.Eventually(t, func() bool { return store.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, m.Stop(ctx))
	require.NoError(t, m.Stop(ctx))

	calls := store.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, store.calls.Load())
}

func TestMonitor_ErrorLoggedNotSerialized(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	store := &fakePinger{}
	store.err.Store(errors.New("dial tcp 10.0.0.5:6379: connection refused"))
	m := New(store, "redis", time.Minute, zap.New(core))

	status := m.Refresh()
	m.Refresh()

	require.Equal(t, 1, logs.FilterMessage("storage unreachable").Len())
	assert.Contains(t, logs.All()[0].ContextMap()["error"], "10.0.0.5")

	body, err := json.Marshal(status)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "10.0.0.5")
	assert.Contains(t, string(body), `"storage":false`)
}
