// cookie управляет HttpOnly-cookie с токенами.
package cookie

import (
	"net/http"
	"time"

	"github.com/pribylovaa/session-auth/internal/token"
)

// Имена cookie.
const (
	AccessName  = "accessToken"
	RefreshName = "refreshToken"
)

// Name возвращает имя cookie для вида токена.
func Name(kind token.Kind) string {
	if kind == token.Refresh {
		return RefreshName
	}

	return AccessName
}

// Settings — общие атрибуты cookie.
// Secure включает Secure и SameSite=Strict (production), иначе SameSite=Lax.
type Settings struct {
	Path   string
	Secure bool

	now func() time.Time
}

// NewSettings создаёт настройки cookie.
func NewSettings(path string, secure bool) Settings {
	if path == "" {
		path = "/"
	}

	return Settings{Path: path, Secure: secure, now: time.Now}
}

func (s Settings) sameSite() http.SameSite {
	if s.Secure {
		return http.SameSiteStrictMode
	}

	return http.SameSiteLaxMode
}

func (s Settings) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}

	return s.now()
}

// Set выставляет cookie токена; Max-Age считается до expiresAt.
func (s Settings) Set(w http.ResponseWriter, kind token.Kind, value string, expiresAt time.Time) {
	maxAge := int(expiresAt.Sub(s.clock()) / time.Second)
	if maxAge <= 0 {
		maxAge = -1
	}

	http.SetCookie(w, &http.Cookie{
		Name:     Name(kind),
		Value:    value,
		Path:     s.Path,
		Expires:  expiresAt.UTC(),
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: s.sameSite(),
	})
}

// Clear удаляет cookie токена у клиента.
func (s Settings) Clear(w http.ResponseWriter, kind token.Kind) {
	http.SetCookie(w, &http.Cookie{
		Name:     Name(kind),
		Value:    "",
		Path:     s.Path,
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: s.sameSite(),
	})
}

// Read возвращает значение cookie токена ("" — нет cookie).
func Read(r *http.Request, kind token.Kind) string {
	c, err := r.Cookie(Name(kind))
	if err != nil {
		return ""
	}

	return c.Value
}
