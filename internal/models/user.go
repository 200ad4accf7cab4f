package models

import (
	"time"

	"github.com/google/uuid"
)

// User — модель пользователя в системе.
// Email хранится в нижнем регистре; уникальность обеспечивает индекс хранилища.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Session возвращает проекцию пользователя для кэша сессий (без хэша пароля).
func (u *User) Session() SessionUser {
	return SessionUser{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
	}
}
