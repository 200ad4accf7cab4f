// startup реализует «ворота» запуска: сервис принимает запросы только после
// успешного подключения к хранилищу.
//
// Состояния: Connecting → Ready | Failed. Подключение повторяется
// ограниченное число раз с фиксированной паузой (cenkalti/backoff);
// каждая попытка ограничена собственным таймаутом.
package startup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// State — состояние ворот.
type State int32

const (
	Connecting State = iota
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// ErrAttemptsExhausted — все попытки подключения исчерпаны.
var ErrAttemptsExhausted = errors.New("connect attempts exhausted")

// Options — параметры повторов.
type Options struct {
	// Attempts — общее число попыток (>= 1).
	Attempts int
	// Delay — пауза между попытками.
	Delay time.Duration
	// AttemptTimeout — дедлайн одной попытки (0 — без отдельного дедлайна).
	AttemptTimeout time.Duration
	Logger         *slog.Logger
}

// Gate отслеживает состояние запуска. Безопасен для конкурентного чтения.
type Gate struct {
	opts  Options
	state atomic.Int32
}

// New создаёт ворота в состоянии Connecting.
func New(opts Options) *Gate {
	if opts.Attempts < 1 {
		opts.Attempts = 1
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Gate{opts: opts}
}

// State возвращает текущее состояние.
func (g *Gate) State() State {
	return State(g.state.Load())
}

// Ready сообщает, можно ли обслуживать запросы.
func (g *Gate) Ready() bool {
	return g.State() == Ready
}

// Run вызывает connect до первого успеха или исчерпания попыток.
// Успех переводит ворота в Ready, неудача — в Failed (терминально).
// Отмена ctx прерывает ожидание между попытками.
func (g *Gate) Run(ctx context.Context, name string, connect func(ctx context.Context) error) error {
	const op = "startup.Run"

	lg := g.opts.Logger.With(slog.String("target", name))
	attempt := 0

	operation := func() error {
		attempt++

		actx := ctx
		if g.opts.AttemptTimeout > 0 {
			var cancel context.CancelFunc
			actx, cancel = context.WithTimeout(ctx, g.opts.AttemptTimeout)
			defer cancel()
		}

		if err := connect(actx); err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}

			return err
		}

		return nil
	}

	notify := func(err error, next time.Duration) {
		lg.Warn("connect_attempt_failed",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", g.opts.Attempts),
			slog.Duration("retry_in", next),
			slog.String("err", err.Error()),
		)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(g.opts.Delay), uint64(g.opts.Attempts-1)),
		ctx,
	)

	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		g.state.Store(int32(Failed))
		lg.Error("connect_failed", slog.Int("attempts", attempt), slog.String("err", err.Error()))

		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w", op, ctx.Err())
		}

		return fmt.Errorf("%s: %w: %w", op, ErrAttemptsExhausted, err)
	}

	g.state.Store(int32(Ready))
	lg.Info("connect_ready", slog.Int("attempts", attempt))

	return nil
}
