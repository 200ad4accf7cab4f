package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/session-auth/internal/http/cookie"
	"github.com/pribylovaa/session-auth/internal/http/handlers"
	"github.com/pribylovaa/session-auth/internal/http/middleware"
	"github.com/pribylovaa/session-auth/internal/http/response"
	"github.com/pribylovaa/session-auth/internal/metrics"
	"github.com/pribylovaa/session-auth/internal/token"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger  *slog.Logger
	Timeout time.Duration
	// BasePath — префикс API (например, "/api/v1"); он же Path для cookie.
	// Пустой — роуты регистрируются на корне.
	BasePath string
	// SecureCookies включает Secure и SameSite=Strict (production).
	SecureCookies bool
	Metrics       *metrics.Metrics // может быть nil
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(svc handlers.AuthService, tokens middleware.TokenVerifier, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),            // безопасно ловим паники
		middleware.RequestID(),          // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger), // кладём request-scoped логгер в контекст и логируем
		middleware.Metrics(opts.Metrics),
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout)) // общий дедлайн запроса
	}

	root.NotFound(notFound)
	root.MethodNotAllowed(methodNotAllowed)

	cookiePath := opts.BasePath
	if cookiePath == "" {
		cookiePath = "/"
	}
	h := handlers.New(svc, cookie.NewSettings(cookiePath, opts.SecureCookies))

	if opts.BasePath != "" && opts.BasePath != "/" {
		sub := chi.NewRouter()
		sub.NotFound(notFound)
		sub.MethodNotAllowed(methodNotAllowed)
		registerRoutes(sub, h, tokens)
		root.Mount(opts.BasePath, sub)
		return root
	}

	registerRoutes(root, h, tokens)
	return root
}

// registerRoutes — единая точка регистрации всех REST-эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers, tokens middleware.TokenVerifier) {
	requireAccess := middleware.RequireToken(tokens, token.Access)
	requireRefresh := middleware.RequireToken(tokens, token.Refresh)

	r.Post("/auth/register", h.Register)
	r.Post("/auth/login", h.Login)
	r.With(requireAccess).Get("/auth/me", h.Me)
	r.With(requireRefresh).Get("/auth/refresh", h.Refresh)
	r.With(requireAccess).Post("/auth/logout", h.Logout)
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	response.Fail(w, http.StatusNotFound, "Route not found", "Not found")
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	response.Fail(w, http.StatusMethodNotAllowed, "Method not allowed", "Method not allowed")
}
