package models

import "github.com/google/uuid"

// SessionUser — запись кэша сессий: минимальная проекция User.
// Пароль (и его хэш) сюда не попадает никогда.
type SessionUser struct {
	ID    uuid.UUID `json:"_id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}
