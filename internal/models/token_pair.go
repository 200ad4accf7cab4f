package models

import "time"

// TokenPair — токены, выданные клиенту по итогам операции.
//
// Описание:
//   - AccessToken — короткоживущий JWT для доступа к API;
//   - RefreshToken — долгоживущий JWT, нужен только для выпуска нового access;
//     пустой, если операция его не выпускала (refresh не ротируется);
//   - *ExpiresAt — моменты истечения (UTC), из них считается Max-Age cookie.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}
