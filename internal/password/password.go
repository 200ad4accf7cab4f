// password хэширует и проверяет пароли пользователей (bcrypt).
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost — стоимость bcrypt по умолчанию.
const DefaultCost = 12

// MaxBytes — предел длины пароля в байтах: bcrypt не принимает более длинные входы.
const MaxBytes = 72

// Hasher хэширует пароли с фиксированной стоимостью. Безопасен для конкурентного использования.
type Hasher struct {
	cost int
}

// New создаёт Hasher. Стоимость вне [bcrypt.MinCost, bcrypt.MaxCost] — ошибка.
func New(cost int) (*Hasher, error) {
	const op = "password.New"

	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("%s: cost %d out of range [%d, %d]", op, cost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	return &Hasher{cost: cost}, nil
}

// Hash хэширует пароль с помощью bcrypt.
func (h *Hasher) Hash(plain string) (string, error) {
	const op = "password.Hash"

	bytes, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(bytes), nil
}

// Verify сравнивает пароль с хэшем.
func (h *Hasher) Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
