// token выпускает и проверяет JWT двух видов: access и refresh.
//
// Виды подписываются независимыми секретами (HS256): токен одного вида
// никогда не проходит проверку как токен другого. На сервере токены
// не хранятся; отзыв не поддерживается.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pribylovaa/session-auth/internal/config"
)

// Kind — вид токена.
type Kind int

const (
	Access Kind = iota
	Refresh
)

func (k Kind) String() string {
	switch k {
	case Access:
		return "access"
	case Refresh:
		return "refresh"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

var (
	// ErrMissingToken — токен не передан. Транспорт: 401.
	ErrMissingToken = errors.New("missing token")

	// ErrInvalidSignature — подпись не сходится, токен повреждён, подписан
	// другим алгоритмом/издателем или не содержит корректного userId. Транспорт: 403.
	ErrInvalidSignature = errors.New("invalid token")

	// ErrTokenExpired — срок действия истёк. Транспорт: 403.
	ErrTokenExpired = errors.New("token expired")

	// ErrVerification — прочие сбои проверки. Транспорт: 500.
	ErrVerification = errors.New("token verification failed")
)

// Claims — полезная нагрузка проверенного токена.
// Name заполнен только у access-токена.
type Claims struct {
	UserID    uuid.UUID
	Name      string
	ExpiresAt time.Time
}

type jwtClaims struct {
	UserID string `json:"userId"`
	Name   string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Manager выпускает и проверяет токены. Безопасен для конкурентного использования.
type Manager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string

	now func() time.Time
}

// New создаёт Manager из конфигурации auth.
func New(cfg config.AuthConfig) (*Manager, error) {
	const op = "token.New"

	if cfg.AccessTokenSecret == "" || cfg.RefreshTokenSecret == "" {
		return nil, fmt.Errorf("%s: empty secret", op)
	}

	if cfg.AccessTokenSecret == cfg.RefreshTokenSecret {
		return nil, fmt.Errorf("%s: access and refresh secrets must differ", op)
	}

	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 {
		return nil, fmt.Errorf("%s: non-positive ttl", op)
	}

	return &Manager{
		accessSecret:  []byte(cfg.AccessTokenSecret),
		refreshSecret: []byte(cfg.RefreshTokenSecret),
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
		issuer:        cfg.Issuer,
		now:           time.Now,
	}, nil
}

// TTL возвращает время жизни токена вида kind.
func (m *Manager) TTL(kind Kind) time.Duration {
	if kind == Refresh {
		return m.refreshTTL
	}

	return m.accessTTL
}

func (m *Manager) secret(kind Kind) ([]byte, error) {
	switch kind {
	case Access:
		return m.accessSecret, nil
	case Refresh:
		return m.refreshSecret, nil
	default:
		return nil, fmt.Errorf("unknown token kind %s", kind)
	}
}

// Issue подписывает токен вида kind. Для refresh поле Name игнорируется.
// Возвращает строку токена и момент его истечения (UTC).
func (m *Manager) Issue(kind Kind, c Claims) (string, time.Time, error) {
	const op = "token.Issue"

	secret, err := m.secret(kind)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	if c.UserID == uuid.Nil {
		return "", time.Time{}, fmt.Errorf("%s: empty user id", op)
	}

	now := m.now().UTC()
	exp := now.Add(m.TTL(kind))

	claims := jwtClaims{
		UserID: c.UserID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.issuer,
			Subject:   c.UserID.String(),
		},
	}
	if kind == Access {
		claims.Name = c.Name
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	return signed, exp, nil
}

// Verify проверяет токен вида kind.
// Ошибки: ErrMissingToken, ErrInvalidSignature, ErrTokenExpired, ErrVerification.
// Часовой допуск не применяется: токен после exp всегда просрочен.
func (m *Manager) Verify(kind Kind, raw string) (*Claims, error) {
	const op = "token.Verify"

	if raw == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingToken)
	}

	secret, err := m.secret(kind)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrVerification, err)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	var claims jwtClaims
	tok, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (interface{}, error) { return secret, nil },
		opts...,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, classify(err))
	}

	if !tok.Valid {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidSignature)
	}

	uid, err := uuid.Parse(claims.UserID)
	if err != nil || uid == uuid.Nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidSignature)
	}

	out := &Claims{UserID: uid, Name: claims.Name}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.UTC()
	}

	return out, nil
}

// classify сводит ошибки jwt к ошибкам пакета. Неизвестное — ErrVerification.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, jwt.ErrTokenInvalidIssuer),
		errors.Is(err, jwt.ErrTokenInvalidClaims),
		errors.Is(err, jwt.ErrTokenNotValidYet),
		errors.Is(err, jwt.ErrTokenUsedBeforeIssued),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return ErrInvalidSignature
	default:
		return fmt.Errorf("%w: %v", ErrVerification, err)
	}
}
