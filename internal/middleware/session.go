package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/straintree/straintree-backend/internal/models"
)

// SessionCookieName is the cookie carrying the server-side session id.
const SessionCookieName = "straintree_session"

type userKey struct{}
type sessionIDKey struct{}

// UserLoader resolves a session id to its user. Implemented by
// services.AuthService; expired or unknown sessions return an error.
type UserLoader interface {
	UserFromSession(ctx context.Context, sessionID string) (models.User, error)
}

// Sessions resolves the session cookie on every request and, when valid,
// attaches the user to the request context. It never rejects: handlers
// decide whether authentication is required.
func Sessions(loader UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), sessionIDKey{}, cookie.Value)
			if user, err := loader.UserFromSession(ctx, cookie.Value); err == nil {
				ctx = context.WithValue(ctx, userKey{}, user)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func CurrentUser(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(userKey{}).(models.User)
	return u, ok
}

func SessionID(ctx context.Context) string {
	if s, ok := ctx.Value(sessionIDKey{}).(string); ok {
		return s
	}
	return ""
}

func NewSessionCookie(id string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    id,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func ClearSessionCookie() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
