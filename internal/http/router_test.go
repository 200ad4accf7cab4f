package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pribylovaa/session-auth/internal/cache"
	"github.com/pribylovaa/session-auth/internal/config"
	authhttp "github.com/pribylovaa/session-auth/internal/http"
	"github.com/pribylovaa/session-auth/internal/http/cookie"
	"github.com/pribylovaa/session-auth/internal/models"
	"github.com/pribylovaa/session-auth/internal/password"
	"github.com/pribylovaa/session-auth/internal/service"
	"github.com/pribylovaa/session-auth/internal/storage"
	"github.com/pribylovaa/session-auth/internal/token"
)

// memStore — хранилище пользователей в памяти для сквозных тестов HTTP-слоя.
type memStore struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]models.User
	byEmail map[string]uuid.UUID
}

func newMemStore() *memStore {
	return &memStore{byID: map[uuid.UUID]models.User{}, byEmail: map[string]uuid.UUID{}}
}

func (s *memStore) SaveUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[u.Email]; ok {
		return storage.ErrAlreadyExists
	}
	s.byID[u.ID] = *u
	s.byEmail[u.Email] = u.ID
	return nil
}

func (s *memStore) UserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, storage.ErrNotFound
	}
	u := s.byID[id]
	return &u, nil
}

func (s *memStore) UserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &u, nil
}

func (s *memStore) delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byEmail, s.byID[id].Email)
	delete(s.byID, id)
}

const basePath = "/api/v1"

func authCfg() config.AuthConfig {
	return config.AuthConfig{
		AccessTokenSecret:  "access-http-secret",
		RefreshTokenSecret: "refresh-http-secret",
		AccessTokenTTL:     15 * time.Minute,
		RefreshTokenTTL:    120 * time.Hour,
		Issuer:             "auth-service",
	}
}

type testEnv struct {
	srv   *httptest.Server
	store *memStore
	cache *cache.Memory
}

func newEnv(t *testing.T, secure bool) *testEnv {
	t.Helper()

	tm, err := token.New(authCfg())
	require.NoError(t, err)
	h, err := password.New(bcrypt.MinCost)
	require.NoError(t, err)

	st := newMemStore()
	c := cache.NewMemory(4)
	svc := service.New(st, c, tm, h)

	router := authhttp.NewRouter(svc, tm, authhttp.Options{
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		Timeout:       5 * time.Second,
		BasePath:      basePath,
		SecureCookies: secure,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, store: st, cache: c}
}

type envelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	StatusCode int             `json:"statusCode"`
	Error      string          `json:"error"`
	Data       json.RawMessage `json:"data"`
}

type authPayload struct {
	Auth struct {
		UserID string `json:"userId"`
		Name   string `json:"name"`
	} `json:"auth"`
}

func (e *testEnv) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) (*http.Response, envelope) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, e.srv.URL+path, rdr)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	resp, err := e.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	require.Equal(t, resp.StatusCode, env.StatusCode)
	require.Equal(t, resp.StatusCode < 400, env.Success)

	return resp, env
}

func findCookie(t *testing.T, resp *http.Response, name string) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}

var ada = map[string]string{"name": "Ada", "email": "ada@x.com", "password": "p@ssw0rd"}

func TestAuthFlow_Ada(t *testing.T) {
	t.Parallel()

	e := newEnv(t, false)

	// Регистрация.
	resp, env := e.do(t, http.MethodPost, basePath+"/auth/register", ada)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, "Account successfully created", env.Message)

	var p authPayload
	require.NoError(t, json.Unmarshal(env.Data, &p))
	require.NotEmpty(t, p.Auth.UserID)
	require.Equal(t, "Ada", p.Auth.Name)

	access := findCookie(t, resp, cookie.AccessName)
	refresh := findCookie(t, resp, cookie.RefreshName)
	require.True(t, access.HttpOnly)
	require.Equal(t, basePath, access.Path)
	require.Equal(t, http.SameSiteLaxMode, access.SameSite)
	require.False(t, access.Secure)
	require.InDelta(t, 900, access.MaxAge, 5)
	require.InDelta(t, 432000, refresh.MaxAge, 5)

	// Повторная регистрация — конфликт.
	resp, env = e.do(t, http.MethodPost, basePath+"/auth/register", ada)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, env.Message, "already exists")

	// Вход: верный пароль.
	resp, env = e.do(t, http.MethodPost, basePath+"/auth/login", map[string]string{"email": "ADA@x.com", "password": "p@ssw0rd"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Account successfully logged into", env.Message)
	access = findCookie(t, resp, cookie.AccessName)

	// Вход: неверный пароль — 400 и никаких cookie.
	resp, env = e.do(t, http.MethodPost, basePath+"/auth/login", map[string]string{"email": "ada@x.com", "password": "wr0ng-pass!"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "Invalid credentials", env.Message)
	require.Empty(t, resp.Cookies())

	// /auth/me.
	resp, env = e.do(t, http.MethodGet, basePath+"/auth/me", nil, access)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Successfully fetched auth state", env.Message)
	require.NoError(t, json.Unmarshal(env.Data, &p))
	require.Equal(t, "Ada", p.Auth.Name)

	// /auth/refresh — новый access, refresh не меняется.
	resp, env = e.do(t, http.MethodGet, basePath+"/auth/refresh", nil, refresh)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Token refreshed successfully", env.Message)
	require.NotEmpty(t, findCookie(t, resp, cookie.AccessName).Value)
	for _, c := range resp.Cookies() {
		require.NotEqual(t, cookie.RefreshName, c.Name)
	}

	// Logout — обе cookie удалены, кэш пуст, data нет.
	resp, env = e.do(t, http.MethodPost, basePath+"/auth/logout", nil, access)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Successfully logged out", env.Message)
	require.Empty(t, env.Data)
	require.Equal(t, -1, findCookie(t, resp, cookie.AccessName).MaxAge)
	require.Equal(t, -1, findCookie(t, resp, cookie.RefreshName).MaxAge)
	require.Equal(t, 0, e.cache.Len())
}

func TestRegister_ValidationError(t *testing.T) {
	t.Parallel()

	e := newEnv(t, false)

	resp, env := e.do(t, http.MethodPost, basePath+"/auth/register", map[string]string{"name": "A", "email": "nope", "password": "abc"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "Validation error", env.Message)

	var data struct {
		Errors []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data.Errors, 3)
	require.Equal(t, "email", data.Errors[0].Field)
}

type fieldErrors struct {
	Errors []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

func TestRegister_PasswordOverBcryptLimit_400(t *testing.T) {
	t.Parallel()

	e := newEnv(t, false)
	long := "p@ss" + strings.Repeat("w", 76)

	for _, path := range []string{"/auth/register", "/auth/login"} {
		resp, env := e.do(t, http.MethodPost, basePath+path, map[string]string{"name": "Ada", "email": "long@x.com", "password": long})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode, path)
		require.Equal(t, "Validation error", env.Message)
		require.Empty(t, resp.Cookies())

		var data fieldErrors
		require.NoError(t, json.Unmarshal(env.Data, &data))
		require.Len(t, data.Errors, 1)
		require.Equal(t, "password", data.Errors[0].Field)
		require.Equal(t, "Password must be at most 72 bytes", data.Errors[0].Message)
	}

	// Ровно 72 байта — допустимый пароль.
	resp, _ := e.do(t, http.MethodPost, basePath+"/auth/register", map[string]string{"name": "Ada", "email": "edge@x.com", "password": "p@ss" + strings.Repeat("w", 68)})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestRegister_NonStringFields_FieldErrors(t *testing.T) {
	t.Parallel()

	e := newEnv(t, false)

	resp, env := e.do(t, http.MethodPost, basePath+"/auth/register", map[string]any{"name": 42, "email": true, "password": 123})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "Validation error", env.Message)

	var data fieldErrors
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data.Errors, 3)
	require.Equal(t, "Invalid email address", data.Errors[0].Message)
	require.Equal(t, "Password must be a string", data.Errors[1].Message)
	require.Equal(t, "Name must be a string", data.Errors[2].Message)

	// null трактуется как отсутствующее поле.
	resp, env = e.do(t, http.MethodPost, basePath+"/auth/login", map[string]any{"email": "ada@x.com", "password": nil})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data.Errors, 1)
	require.Equal(t, "Password must be provided", data.Errors[0].Message)
}

func TestRegister_BadBody(t *testing.T) {
	t.Parallel()

	e := newEnv(t, false)

	req, err := http.NewRequest(http.MethodPost, e.srv.URL+basePath+"/auth/register", strings.NewReader("{not json"))
	require.NoError(t, err)
	resp, err := e.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogin_UnknownAccount_404(t *testing.T) {
	t.Parallel()

	e := newEnv(t, false)

	resp, env := e.do(t, http.MethodPost, basePath+"/auth/login", map[string]string{"email": "ghost@x.com", "password": "p@ssw0rd"})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "Account was not found, please register", env.Message)
	require.Equal(t, "Not found", env.Error)
}

func TestProtectedRoutes_TokenErrors(t *testing.T) {
	t.Parallel()

	e := newEnv(t, false)

	resp, env := e.do(t, http.MethodGet, basePath+"/auth/me", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "Unauthorized", env.Message)

	resp, env = e.do(t, http.MethodGet, basePath+"/auth/me", nil, &http.Cookie{Name: cookie.AccessName, Value: "garbage"})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Equal(t, "Invalid token", env.Message)
	require.Equal(t, "Token error", env.Error)

	// Refresh-токен в роли access не принимается.
	resp, _ = e.do(t, http.MethodPost, basePath+"/auth/register", ada)
	rt := findCookie(t, resp, cookie.RefreshName)
	resp, env = e.do(t, http.MethodGet, basePath+"/auth/me", nil, &http.Cookie{Name: cookie.AccessName, Value: rt.Value})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Equal(t, "Invalid token", env.Message)
}

// Просроченный refresh: 403 с сообщением об истечении, новый access не выдаётся.
func TestRefresh_Expired_403(t *testing.T) {
	t.Parallel()

	e := newEnv(t, false)
	uid := uuid.New()
	past := time.Now().Add(-time.Hour)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": uid.String(),
		"iss":    "auth-service",
		"sub":    uid.String(),
		"iat":    past.Add(-120 * time.Hour).Unix(),
		"exp":    past.Unix(),
	}).SignedString([]byte(authCfg().RefreshTokenSecret))
	require.NoError(t, err)

	resp, env := e.do(t, http.MethodGet, basePath+"/auth/refresh", nil, &http.Cookie{Name: cookie.RefreshName, Value: expired})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Equal(t, "Token has expired", env.Message)
	require.Equal(t, "Token expired error", env.Error)
	require.Empty(t, resp.Cookies())
}

// Пользователь удалён из хранилища: me отдаёт кэш (актуальность не перепроверяется),
// refresh и logout — 404.
func TestUserDeleted_CacheServesMe_RefreshAndLogout404(t *testing.T) {
	t.Parallel()

	e := newEnv(t, false)

	resp, env := e.do(t, http.MethodPost, basePath+"/auth/register", ada)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var p authPayload
	require.NoError(t, json.Unmarshal(env.Data, &p))
	access := findCookie(t, resp, cookie.AccessName)
	refresh := findCookie(t, resp, cookie.RefreshName)

	e.store.delete(uuid.MustParse(p.Auth.UserID))

	resp, _ = e.do(t, http.MethodGet, basePath+"/auth/me", nil, access)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = e.do(t, http.MethodGet, basePath+"/auth/refresh", nil, refresh)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = e.do(t, http.MethodPost, basePath+"/auth/logout", nil, access)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProdCookies_SecureStrict(t *testing.T) {
	t.Parallel()

	e := newEnv(t, true)

	resp, _ := e.do(t, http.MethodPost, basePath+"/auth/register", ada)
	c := findCookie(t, resp, cookie.AccessName)
	require.True(t, c.Secure)
	require.Equal(t, http.SameSiteStrictMode, c.SameSite)
}

func TestUnknownRoute_And_WrongMethod_Enveloped(t *testing.T) {
	t.Parallel()

	e := newEnv(t, false)

	resp, env := e.do(t, http.MethodGet, basePath+"/nope", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.False(t, env.Success)

	resp, _ = e.do(t, http.MethodGet, "/elsewhere", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, env = e.do(t, http.MethodGet, basePath+"/auth/login", nil)
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	require.Equal(t, "Method not allowed", env.Message)
}
