package startup

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGate_ReadyAfterRetries(t *testing.T) {
	t.Parallel()

	g := New(Options{Attempts: 5, Delay: time.Millisecond, Logger: quietLogger()})
	require.Equal(t, Connecting, g.State())
	require.False(t, g.Ready())

	calls := 0
	err := g.Run(context.Background(), "db", func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})

	require.NoError(t, err)
	require.Equal(t, 3, calls)
	require.Equal(t, Ready, g.State())
	require.True(t, g.Ready())
}

func TestGate_FailedAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	g := New(Options{Attempts: 5, Delay: time.Millisecond, Logger: quietLogger()})
	boom := errors.New("connection refused")

	calls := 0
	err := g.Run(context.Background(), "db", func(context.Context) error {
		calls++
		return boom
	})

	require.ErrorIs(t, err, ErrAttemptsExhausted)
	require.ErrorIs(t, err, boom)
	require.Equal(t, 5, calls)
	require.Equal(t, Failed, g.State())
}

func TestGate_AttemptTimeout(t *testing.T) {
	t.Parallel()

	g := New(Options{Attempts: 2, Delay: time.Millisecond, AttemptTimeout: 10 * time.Millisecond, Logger: quietLogger()})

	calls := 0
	err := g.Run(context.Background(), "db", func(ctx context.Context) error {
		calls++
		<-ctx.Done()
		return ctx.Err()
	})

	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, 2, calls)
	require.Equal(t, Failed, g.State())
}

func TestGate_ParentCanceled(t *testing.T) {
	t.Parallel()

	g := New(Options{Attempts: 100, Delay: time.Hour, Logger: quietLogger()})
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := g.Run(ctx, "db", func(context.Context) error {
		calls++
		cancel()
		return errors.New("down")
	})

	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, calls)
	require.Equal(t, Failed, g.State())
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	g := New(Options{})
	require.Equal(t, 1, g.opts.Attempts)
	require.NotNil(t, g.opts.Logger)
	require.Equal(t, "connecting", g.State().String())
	require.Equal(t, "state(9)", State(9).String())
}
