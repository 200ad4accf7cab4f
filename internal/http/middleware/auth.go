package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/pribylovaa/session-auth/internal/http/cookie"
	"github.com/pribylovaa/session-auth/internal/http/response"
	logctx "github.com/pribylovaa/session-auth/internal/pkg/log"
	"github.com/pribylovaa/session-auth/internal/pkg/redact"
	"github.com/pribylovaa/session-auth/internal/token"
)

// TokenVerifier проверяет токены (реализует *token.Manager).
type TokenVerifier interface {
	Verify(kind token.Kind, raw string) (*token.Claims, error)
}

type claimsKey struct{}

// ClaimsFrom достаёт проверенные claims, положенные RequireToken.
func ClaimsFrom(ctx context.Context) (*token.Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*token.Claims)
	return c, ok && c != nil
}

// RequireToken пропускает запрос дальше только с валидным токеном вида kind
// из cookie. Отказы:
//   - нет cookie — 401 Unauthorized;
//   - подпись/формат — 403 Invalid token;
//   - истёк — 403 Token has expired;
//   - прочее — 500.
func RequireToken(v TokenVerifier, kind token.Kind) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := cookie.Read(r, kind)
			claims, err := v.Verify(kind, raw)
			if err != nil {
				writeTokenError(w, r, kind, raw, err)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey{}, claims)
			ctx = logctx.WithUserID(ctx, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeTokenError(w http.ResponseWriter, r *http.Request, kind token.Kind, raw string, err error) {
	lg := logctx.From(r.Context()).With(
		slog.String("kind", kind.String()),
		slog.String("token", redact.Token(raw)),
	)

	switch {
	case errors.Is(err, token.ErrMissingToken):
		response.Fail(w, http.StatusUnauthorized, "Unauthorized", "")
	case errors.Is(err, token.ErrTokenExpired):
		lg.Info("token_expired")
		response.Fail(w, http.StatusForbidden, "Token has expired", "Token expired error")
	case errors.Is(err, token.ErrInvalidSignature):
		lg.Warn("token_invalid")
		response.Fail(w, http.StatusForbidden, "Invalid token", "Token error")
	default:
		lg.Error("token_verify_failed", slog.String("err", err.Error()))
		response.Internal(w, "A server error occurred while trying to verify your token")
	}
}
