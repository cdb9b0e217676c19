package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_ShutdownReverseOrder(t *testing.T) {
	m := New(time.Second, nil)

	var order []string
	m.Register("storage", func(context.Context) error {
		order = append(order, "storage")
		return nil
	})
	m.RegisterCloser("monitor", func() error {
		order = append(order, "monitor")
		return nil
	})
	m.Register("http", func(context.Context) error {
		order = append(order, "http")
		return nil
	})
	m.Register("ignored", nil)

	require.NoError(t, m.Shutdown(context.Background()))
	assert.Equal(t, []string{"http", "monitor", "storage"}, order)

	require.NoError(t, m.Shutdown(context.Background()))
	assert.Len(t, order, 3)
}

func TestManager_ShutdownJoinsErrors(t *testing.T) {
	m := New(0, nil)
	first := errors.New("first")
	second := errors.New("second")
	ran := false

	m.Register("a", func(context.Context) error { return first })
	m.Register("b", func(context.Context) error { ran = true; return nil })
	m.Register("c", func(context.Context) error { return second })

	err := m.Shutdown(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, first)
	assert.ErrorIs(t, err, second)
	assert.True(t, ran)
}

func TestManager_ShutdownDeadline(t *testing.T) {
	m := New(20*time.Millisecond, nil)
	m.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	err := m.Shutdown(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestManager_ListenStop(t *testing.T) {
	m := New(time.Second, nil)
	stop := m.Listen(func() {})
	stop()
	stop()
	assert.NotNil(t, m.Listen(nil))
}
