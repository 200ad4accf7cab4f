package handlers

import (
	"net/http"

	"github.com/pribylovaa/session-auth/internal/http/middleware"
	"github.com/pribylovaa/session-auth/internal/http/response"
	"github.com/pribylovaa/session-auth/internal/service"
	"github.com/pribylovaa/session-auth/internal/token"
)

// Register — POST /auth/register.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	in, err := decodeForm(w, r, "name", "email", "password")
	if err != nil {
		writeBadBody(w)
		return
	}

	res, err := h.svc.Register(r.Context(), service.RegisterInput{
		Name:     in.values["name"],
		Email:    in.values["email"],
		Password: in.values["password"],
	})
	if err != nil {
		writeError(w, r, in.typeErrors(err), "A server error occurred during registration")
		return
	}

	h.setTokens(w, res)
	response.OK(w, http.StatusCreated, "Account successfully created", newAuthData(res.User))
}

// Login — POST /auth/login.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	in, err := decodeForm(w, r, "email", "password")
	if err != nil {
		writeBadBody(w)
		return
	}

	res, err := h.svc.Login(r.Context(), service.LoginInput{
		Email:    in.values["email"],
		Password: in.values["password"],
	})
	if err != nil {
		writeError(w, r, in.typeErrors(err), "A server error occurred during login process")
		return
	}

	h.setTokens(w, res)
	response.OK(w, http.StatusOK, "Account successfully logged into", newAuthData(res.User))
}

// Me — GET /auth/me (нужен access-токен).
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	const internalMsg = "A server error occurred while trying to fetch your auth state"

	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		response.Internal(w, internalMsg)
		return
	}

	user, err := h.svc.Session(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, r, err, internalMsg)
		return
	}

	response.OK(w, http.StatusOK, "Successfully fetched auth state", newAuthData(user))
}

// Refresh — GET /auth/refresh (нужен refresh-токен). Выдаёт новый access-токен.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	const internalMsg = "A server error occurred while trying to refresh your token"

	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		response.Internal(w, internalMsg)
		return
	}

	res, err := h.svc.Refresh(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, r, err, internalMsg)
		return
	}

	h.cookies.Set(w, token.Access, res.Tokens.AccessToken, res.Tokens.AccessExpiresAt)
	response.OK(w, http.StatusOK, "Token refreshed successfully", newAuthData(res.User))
}

// Logout — POST /auth/logout (нужен access-токен). Очищает обе cookie.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	const internalMsg = "A server error occurred while trying to log you out"

	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		response.Internal(w, internalMsg)
		return
	}

	if err := h.svc.Logout(r.Context(), claims.UserID); err != nil {
		writeError(w, r, err, internalMsg)
		return
	}

	h.cookies.Clear(w, token.Access)
	h.cookies.Clear(w, token.Refresh)
	response.OK(w, http.StatusOK, "Successfully logged out", nil)
}

func (h *Handlers) setTokens(w http.ResponseWriter, res *service.AuthResult) {
	h.cookies.Set(w, token.Access, res.Tokens.AccessToken, res.Tokens.AccessExpiresAt)
	h.cookies.Set(w, token.Refresh, res.Tokens.RefreshToken, res.Tokens.RefreshExpiresAt)
}
