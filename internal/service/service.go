// service содержит бизнес-логику сервиса авторизации:
// регистрацию, вход, чтение состояния сессии, обновление access-токена и выход.
//
// Основные аспекты:
//   - Service не хранит состояние запроса; экземпляр безопасен для
//     конкурентного использования, если безопасны хранилище и кэш.
//   - Хранилище — источник истины. Кэш сессий вспомогательный: ошибки чтения
//     трактуются как промах, ошибки записи только логируются.
//   - Ошибки возвращаются как сентинелы (errors.Is) и далее маппятся
//     транспортом на HTTP-статусы (см. комментарии к переменным ниже).
package service

import (
	"errors"
	"time"

	"github.com/pribylovaa/session-auth/internal/cache"
	"github.com/pribylovaa/session-auth/internal/metrics"
	"github.com/pribylovaa/session-auth/internal/models"
	"github.com/pribylovaa/session-auth/internal/password"
	"github.com/pribylovaa/session-auth/internal/storage"
	"github.com/pribylovaa/session-auth/internal/token"
)

var (
	// ErrEmailTaken — аккаунт с таким e-mail уже есть. HTTP 400.
	ErrEmailTaken = errors.New("email already taken")

	// ErrUserNotFound — пользователя нет в хранилище. HTTP 404.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidCredentials — пароль не совпал. HTTP 400.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrValidation — входные данные не прошли проверку (см. ValidationError). HTTP 400.
	ErrValidation = errors.New("validation error")
)

// Имена операций для метрик и логов.
const (
	opRegister = "register"
	opLogin    = "login"
	opSession  = "session"
	opRefresh  = "refresh"
	opLogout   = "logout"
)

// AuthResult — результат операций, выпускающих токены.
type AuthResult struct {
	User   models.SessionUser
	Tokens models.TokenPair
}

// Service описывает бизнес-логику сервиса авторизации.
type Service struct {
	storage storage.UserStorage
	cache   cache.SessionCache
	tokens  *token.Manager
	hasher  *password.Hasher
	metrics *metrics.Metrics // может быть nil

	now func() time.Time
}

// New создаёт новый экземпляр Service.
func New(st storage.UserStorage, c cache.SessionCache, tm *token.Manager, h *password.Hasher) *Service {
	return &Service{
		storage: st,
		cache:   c,
		tokens:  tm,
		hasher:  h,
		now:     time.Now,
	}
}

// SetMetrics подключает метрики (опционально).
func (s *Service) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// observe учитывает исход операции: доменные отказы — failure, прочее — error.
func (s *Service) observe(op string, err error) {
	switch {
	case err == nil:
		s.metrics.Operation(op, metrics.ResultSuccess)
	case isDomainError(err):
		s.metrics.Operation(op, metrics.ResultFailure)
	default:
		s.metrics.Operation(op, metrics.ResultError)
	}
}

// isDomainError сообщает, что ошибка ожидаемая и будет отдана клиенту как 4xx.
func isDomainError(err error) bool {
	return errors.Is(err, ErrEmailTaken) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrValidation)
}
