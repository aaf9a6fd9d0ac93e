package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/straintree/straintree-backend/internal/api/httpx"
	"github.com/straintree/straintree-backend/internal/middleware"
	"github.com/straintree/straintree-backend/internal/models"
	"github.com/straintree/straintree-backend/internal/services"
)

type AuthHandler struct {
	auth *services.AuthService
}

func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type registerPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var p registerPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	user, sess, err := h.auth.Register(r.Context(), p.Username, p.Email, p.Password)
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	// A fresh registration replaces any session the browser still holds.
	_ = h.auth.Logout(r.Context(), middleware.SessionID(r.Context()))
	http.SetCookie(w, middleware.NewSessionCookie(sess.ID, sess.ExpiresAt))
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "Registration successful",
		"user":    user,
	})
}

type loginPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var p loginPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	identifier := p.Username
	if identifier == "" {
		identifier = p.Email
	}
	user, sess, err := h.auth.Login(r.Context(), identifier, p.Password)
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	_ = h.auth.Logout(r.Context(), middleware.SessionID(r.Context()))
	http.SetCookie(w, middleware.NewSessionCookie(sess.ID, sess.ExpiresAt))
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"user":    user,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), middleware.SessionID(r.Context())); err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	http.SetCookie(w, middleware.ClearSessionCookie())
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"message": "Logout successful"})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"user": user})
}

// Check reports authentication state without ever returning an error status.
func (h *AuthHandler) Check(w http.ResponseWriter, r *http.Request) {
	if user, ok := middleware.CurrentUser(r.Context()); ok {
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"authenticated": true, "user": user})
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"authenticated": false})
}

// requireUser fetches the authenticated user or writes a 401. Shared by all
// handler types in this package.
func requireUser(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	user, ok := middleware.CurrentUser(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "Authentication required")
	}
	return user, ok
}
