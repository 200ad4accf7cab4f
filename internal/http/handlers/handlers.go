package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/pribylovaa/session-auth/internal/http/cookie"
	"github.com/pribylovaa/session-auth/internal/http/response"
	"github.com/pribylovaa/session-auth/internal/models"
	logctx "github.com/pribylovaa/session-auth/internal/pkg/log"
	"github.com/pribylovaa/session-auth/internal/service"
)

// maxBodyBytes ограничивает размер JSON-тела запроса.
const maxBodyBytes = 1 << 20

// AuthService — use cases, которые обслуживает HTTP-слой (реализует *service.Service).
type AuthService interface {
	Register(ctx context.Context, in service.RegisterInput) (*service.AuthResult, error)
	Login(ctx context.Context, in service.LoginInput) (*service.AuthResult, error)
	Session(ctx context.Context, userID uuid.UUID) (models.SessionUser, error)
	Refresh(ctx context.Context, userID uuid.UUID) (*service.AuthResult, error)
	Logout(ctx context.Context, userID uuid.UUID) error
}

// Handlers агрегирует зависимости HTTP-хендлеров.
type Handlers struct {
	svc     AuthService
	cookies cookie.Settings
}

func New(svc AuthService, cookies cookie.Settings) *Handlers {
	return &Handlers{svc: svc, cookies: cookies}
}

// authData — поле data успешных ответов: {"auth": {"userId", "name"}}.
type authData struct {
	Auth authInfo `json:"auth"`
}

type authInfo struct {
	UserID uuid.UUID `json:"userId"`
	Name   string    `json:"name"`
}

func newAuthData(u models.SessionUser) authData {
	return authData{Auth: authInfo{UserID: u.ID, Name: u.Name}}
}

type validationData struct {
	Errors []service.FieldError `json:"errors"`
}

// decodeJSON читает JSON-тело запроса. Лишние поля игнорируются.
func decodeJSON(w http.ResponseWriter, r *http.Request, value any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return dec.Decode(value)
}

// typeMessages — сообщения для полей, пришедших в теле не строкой.
var typeMessages = map[string]string{
	"email":    "Invalid email address",
	"password": "Password must be a string",
	"name":     "Name must be a string",
}

// form — строковые поля тела запроса. Поле другого JSON-типа остаётся
// пустым и запоминается в mistyped; null равносилен отсутствию поля.
type form struct {
	values   map[string]string
	mistyped map[string]bool
}

func decodeForm(w http.ResponseWriter, r *http.Request, names ...string) (form, error) {
	var raw map[string]json.RawMessage
	if err := decodeJSON(w, r, &raw); err != nil {
		return form{}, err
	}

	f := form{values: make(map[string]string, len(names)), mistyped: make(map[string]bool)}
	for _, name := range names {
		msg, ok := raw[name]
		if !ok || bytes.Equal(msg, []byte("null")) {
			continue
		}

		var s string
		if err := json.Unmarshal(msg, &s); err != nil {
			f.mistyped[name] = true
			continue
		}
		f.values[name] = s
	}

	return f, nil
}

// typeErrors подменяет сообщения валидации для полей неверного типа.
// Пустое значение такого поля всегда даёт ошибку валидации в сервисе,
// так что поле гарантированно присутствует в списке.
func (f form) typeErrors(err error) error {
	var ve *service.ValidationError
	if len(f.mistyped) == 0 || !errors.As(err, &ve) {
		return err
	}

	fields := make([]service.FieldError, len(ve.Fields))
	for i, fe := range ve.Fields {
		if f.mistyped[fe.Field] {
			fe.Message = typeMessages[fe.Field]
		}
		fields[i] = fe
	}

	return &service.ValidationError{Fields: fields}
}

// writeBadBody — ответ на нечитаемое тело запроса.
func writeBadBody(w http.ResponseWriter) {
	response.Fail(w, http.StatusBadRequest, "Invalid request body", "Bad request")
}

// writeError маппит ошибку use case на конверт.
// Неизвестные ошибки логируются целиком и отдаются как 500 с internalMsg.
func writeError(w http.ResponseWriter, r *http.Request, err error, internalMsg string) {
	var ve *service.ValidationError

	switch {
	case errors.As(err, &ve):
		response.Write(w, http.StatusBadRequest, response.Envelope{
			Message: "Validation error",
			Data:    validationData{Errors: ve.Fields},
		})
	case errors.Is(err, service.ErrEmailTaken):
		response.Fail(w, http.StatusBadRequest, "Account already exists, please log in", "")
	case errors.Is(err, service.ErrUserNotFound):
		response.Fail(w, http.StatusNotFound, "Account was not found, please register", "Not found")
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Fail(w, http.StatusBadRequest, "Invalid credentials", "")
	default:
		logctx.From(r.Context()).Error("request_failed",
			slog.String("path", r.URL.Path),
			slog.String("err", err.Error()),
		)
		response.Internal(w, internalMsg)
	}
}
