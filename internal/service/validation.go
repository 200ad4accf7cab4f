package service

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/pribylovaa/session-auth/internal/password"
)

const (
	minPasswordLen = 6
	minNameLen     = 2

	// passwordSpecials — допустимые спецсимволы пароля.
	passwordSpecials = "`!@#$%^&*()_+-=[]{};':\"\\|,.<>/?~"
)

// FieldError — ошибка проверки одного поля.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError — набор ошибок проверки входных данных.
// errors.Is(err, ErrValidation) == true.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}

	return "validation error: " + strings.Join(parts, "; ")
}

// Is позволяет сопоставлять ValidationError с ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

type validator struct {
	fields []FieldError
}

func (v *validator) fail(field, msg string) {
	v.fields = append(v.fields, FieldError{Field: field, Message: msg})
}

func (v *validator) err() error {
	if len(v.fields) == 0 {
		return nil
	}

	return &ValidationError{Fields: v.fields}
}

// email обрезает пробелы, проверяет адрес и возвращает его в нижнем регистре.
func (v *validator) email(raw string) string {
	email := strings.TrimSpace(raw)
	if email == "" {
		v.fail("email", "Email address must be provided")
		return ""
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		v.fail("email", "Invalid email address")
		return ""
	}

	return strings.ToLower(email)
}

// password обрезает пробелы и проверяет длину (в символах снизу, в байтах сверху)
// и наличие спецсимвола.
// Для каждого поля сообщается только первая ошибка.
func (v *validator) password(raw string) string {
	pw := strings.TrimSpace(raw)

	switch {
	case pw == "":
		v.fail("password", "Password must be provided")
	case utf8.RuneCountInString(pw) < minPasswordLen:
		v.fail("password", "Password must be at least 6 characters")
	case len(pw) > password.MaxBytes:
		v.fail("password", fmt.Sprintf("Password must be at most %d bytes", password.MaxBytes))
	case !strings.ContainsAny(pw, passwordSpecials):
		v.fail("password", "Password must contain at least 1 special character")
	}

	return pw
}

func (v *validator) name(raw string) string {
	name := strings.TrimSpace(raw)

	switch {
	case name == "":
		v.fail("name", "Name must be provided")
	case utf8.RuneCountInString(name) < minNameLen:
		v.fail("name", "Name must be at least 2 characters")
	}

	return name
}
