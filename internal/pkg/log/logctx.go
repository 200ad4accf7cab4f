// log хранит request-scoped *slog.Logger в context.Context.
//
// Logging кладёт в контекст логгер с request_id, RequireToken дописывает
// user_id после проверки токена. Сервис и хранилища берут логгер через From,
// поэтому все события одного запроса несут одни и те же ключи.
package log

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Ключи атрибутов, общие для всех событий запроса.
const (
	KeyRequestID = "request_id"
	KeyUserID    = "user_id"
)

type ctxKey struct{}

// Into кладёт логгер в контекст.
func Into(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From достаёт логгер из контекста (или возвращает slog.Default()).
func From(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return slog.Default()
	}

	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && l != nil {
		return l
	}

	return slog.Default()
}

// WithRequestID привязывает к логгеру base идентификатор запроса.
// Пустой id не добавляется.
func WithRequestID(ctx context.Context, base *slog.Logger, id string) context.Context {
	if base == nil {
		base = slog.Default()
	}
	if id != "" {
		base = base.With(slog.String(KeyRequestID, id))
	}

	return Into(ctx, base)
}

// WithUserID дописывает к логгеру из контекста владельца сессии.
func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return Into(ctx, From(ctx).With(slog.String(KeyUserID, id.String())))
}
