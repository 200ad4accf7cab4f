package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pribylovaa/session-auth/internal/models"
)

//go:generate mockgen -source=storage.go -destination=../../mocks/storage.go -package=mocks

var (
	// ErrNotFound — пользователь не найден.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (email/id).
	ErrAlreadyExists = errors.New("already exists")
)

// UserStorage выполняет операции над пользователями.
type UserStorage interface {
	// SaveUser создает нового пользователя.
	// При конфликте уникальности возвращает ErrAlreadyExists.
	SaveUser(ctx context.Context, user *models.User) error
	// UserByEmail находит пользователя по email (ErrNotFound, если нет).
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	// UserByID находит пользователя по ID (ErrNotFound, если нет).
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Storage задает контракт работы с хранилищем пользователей.
type Storage interface {
	UserStorage
	// Ping проверяет доступность хранилища (readiness).
	Ping(ctx context.Context) error
	Close()
}
