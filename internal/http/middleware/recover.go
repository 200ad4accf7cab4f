package middleware

import (
	"log/slog"
	"net/http"

	"github.com/pribylovaa/session-auth/internal/http/response"
	logctx "github.com/pribylovaa/session-auth/internal/pkg/log"
)

// Recover перехватывает panic и отвечает 500 в едином конверте.
// Детали паники не утекают на клиент.
func Recover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}

					logctx.From(r.Context()).
						LogAttrs(r.Context(), slog.LevelError, "panic",
							slog.String("path", r.URL.Path),
							slog.Any("reason", rec),
						)
					response.Internal(w, "A server error occurred")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
