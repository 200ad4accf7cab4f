package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/pribylovaa/session-auth/internal/models"
	"github.com/pribylovaa/session-auth/internal/pkg/log"
	"github.com/pribylovaa/session-auth/internal/pkg/redact"
	"github.com/pribylovaa/session-auth/internal/storage"
	"github.com/pribylovaa/session-auth/internal/token"
)

// RegisterInput — данные регистрации.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// LoginInput — данные входа.
type LoginInput struct {
	Email    string
	Password string
}

// Register создаёт аккаунт, выпускает пару токенов и кладёт проекцию в кэш.
func (s *Service) Register(ctx context.Context, in RegisterInput) (res *AuthResult, err error) {
	const op = "service.auth.Register"
	defer func() { s.observe(opRegister, err) }()

	lg := log.From(ctx)

	var v validator
	email := v.email(in.Email)
	plain := v.password(in.Password)
	name := v.name(in.Name)
	if err := v.err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	_, err = s.storage.UserByEmail(ctx, email)
	if err == nil {
		lg.Info("register_email_taken", slog.String("email", redact.Email(email)))
		return nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hash, err := s.hasher.Hash(plain)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now().UTC()
	user := &models.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			lg.Info("register_email_taken", slog.String("email", redact.Email(email)))
			return nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	res, err = s.startSession(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	lg.Info("user_registered", slog.String("user_id", user.ID.String()))

	return res, nil
}

// Login проверяет пароль и выпускает пару токенов.
// Неизвестный e-mail — ErrUserNotFound, неверный пароль — ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, in LoginInput) (res *AuthResult, err error) {
	const op = "service.auth.Login"
	defer func() { s.observe(opLogin, err) }()

	lg := log.From(ctx)

	var v validator
	email := v.email(in.Email)
	plain := v.password(in.Password)
	if err := v.err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.storage.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !s.hasher.Verify(plain, user.PasswordHash) {
		lg.Info("login_bad_credentials", slog.String("email", redact.Email(email)))
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	res, err = s.startSession(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	lg.Info("user_logged_in", slog.String("user_id", user.ID.String()))

	return res, nil
}

// Session возвращает проекцию пользователя: из кэша, а при промахе из хранилища
// (с заполнением кэша). Актуальность записи кэша не перепроверяется.
func (s *Service) Session(ctx context.Context, userID uuid.UUID) (user models.SessionUser, err error) {
	const op = "service.auth.Session"
	defer func() { s.observe(opSession, err) }()

	cached, ok, err := s.cache.Get(ctx, userID)
	if err != nil {
		log.From(ctx).Warn("session_cache_read_failed",
			slog.String("op", op),
			slog.String("user_id", userID.String()),
			slog.String("err", err.Error()),
		)
		ok = false
	}

	s.metrics.CacheLookup(ok)
	if ok {
		return cached, nil
	}

	u, err := s.userByID(ctx, userID)
	if err != nil {
		return models.SessionUser{}, fmt.Errorf("%s: %w", op, err)
	}

	projection := u.Session()
	s.cachePut(ctx, projection)

	return projection, nil
}

// Refresh выпускает новый access-токен для существующего пользователя.
// Refresh-токен не ротируется: Tokens.RefreshToken остаётся пустым.
func (s *Service) Refresh(ctx context.Context, userID uuid.UUID) (res *AuthResult, err error) {
	const op = "service.auth.Refresh"
	defer func() { s.observe(opRefresh, err) }()

	u, err := s.userByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	access, accessExp, err := s.tokens.Issue(token.Access, token.Claims{UserID: u.ID, Name: u.Name})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	projection := u.Session()
	s.cachePut(ctx, projection)

	return &AuthResult{
		User: projection,
		Tokens: models.TokenPair{
			AccessToken:     access,
			AccessExpiresAt: accessExp,
		},
	}, nil
}

// Logout удаляет запись пользователя из кэша. Cookie очищает транспорт.
// Выпущенные токены остаются валидными до истечения срока.
func (s *Service) Logout(ctx context.Context, userID uuid.UUID) (err error) {
	const op = "service.auth.Logout"
	defer func() { s.observe(opLogout, err) }()

	u, err := s.userByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.Delete(ctx, u.ID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("user_logged_out", slog.String("user_id", u.ID.String()))

	return nil
}

func (s *Service) userByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.storage.UserByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUserNotFound
		}

		return nil, err
	}

	return u, nil
}

// startSession выпускает access и refresh и кладёт проекцию пользователя в кэш.
func (s *Service) startSession(ctx context.Context, u *models.User) (*AuthResult, error) {
	const op = "service.auth.startSession"

	access, accessExp, err := s.tokens.Issue(token.Access, token.Claims{UserID: u.ID, Name: u.Name})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	refresh, refreshExp, err := s.tokens.Issue(token.Refresh, token.Claims{UserID: u.ID})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	projection := u.Session()
	s.cachePut(ctx, projection)

	return &AuthResult{
		User: projection,
		Tokens: models.TokenPair{
			AccessToken:      access,
			AccessExpiresAt:  accessExp,
			RefreshToken:     refresh,
			RefreshExpiresAt: refreshExp,
		},
	}, nil
}

// cachePut пишет проекцию в кэш; сбой не прерывает операцию.
func (s *Service) cachePut(ctx context.Context, u models.SessionUser) {
	if err := s.cache.Put(ctx, u.ID, u); err != nil {
		log.From(ctx).Warn("session_cache_write_failed",
			slog.String("user_id", u.ID.String()),
			slog.String("err", err.Error()),
		)
	}
}
