// cache хранит проекции пользователей (SessionUser) для быстрых ответов
// на /auth/me без похода в хранилище.
//
// Записи не имеют TTL: живут до logout или перезапуска процесса.
// Две реализации: шардированная карта в памяти (по умолчанию) и Redis.
package cache

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pribylovaa/session-auth/internal/models"
)

//go:generate mockgen -source=cache.go -destination=../../mocks/cache.go -package=mocks

// ErrClosed — операция над закрытым кэшем.
var ErrClosed = errors.New("cache closed")

// SessionCache — контракт кэша сессий.
type SessionCache interface {
	// Put сохраняет (или перезаписывает) запись пользователя.
	Put(ctx context.Context, id uuid.UUID, user models.SessionUser) error
	// Get возвращает запись и признак её наличия.
	Get(ctx context.Context, id uuid.UUID) (models.SessionUser, bool, error)
	// Delete удаляет запись; отсутствие ключа ошибкой не считается.
	Delete(ctx context.Context, id uuid.UUID) error
	// Close освобождает ресурсы кэша.
	Close() error
}

// Key возвращает ключ записи пользователя: "user:" + id.
func Key(id uuid.UUID) string {
	return "user:" + id.String()
}
