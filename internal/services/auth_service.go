package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/straintree/straintree-backend/internal/apperror"
	"github.com/straintree/straintree-backend/internal/api/validate"
	"github.com/straintree/straintree-backend/internal/auth"
	"github.com/straintree/straintree-backend/internal/models"
	repo "github.com/straintree/straintree-backend/internal/repository"
)

type AuthService struct {
	users    repo.Users
	sessions repo.Sessions
	ttl      time.Duration
}

func NewAuthService(users repo.Users, sessions repo.Sessions, ttl time.Duration) *AuthService {
	return &AuthService{users: users, sessions: sessions, ttl: ttl}
}

func (s *AuthService) Register(ctx context.Context, username, email, password string) (models.User, models.Session, error) {
	u := models.User{
		Username: strings.TrimSpace(username),
		Email:    strings.ToLower(strings.TrimSpace(email)),
	}
	if err := u.Validate(); err != nil {
		return models.User{}, models.Session{}, err
	}
	if err := validate.Password(password); err != nil {
		return models.User{}, models.Session{}, err
	}

	if _, err := s.users.GetByUsername(ctx, u.Username); err == nil {
		return models.User{}, models.Session{}, apperror.Validation("Username already exists")
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return models.User{}, models.Session{}, err
	}
	if _, err := s.users.GetByEmail(ctx, u.Email); err == nil {
		return models.User{}, models.Session{}, apperror.Validation("Email already registered")
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return models.User{}, models.Session{}, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, models.Session{}, err
	}
	user, err := s.users.Create(ctx, u.Username, u.Email, hash)
	if err != nil {
		return models.User{}, models.Session{}, err
	}
	return s.startSession(ctx, user)
}

// Login accepts a username or an email (emails match case-insensitively).
// Unknown identifier and wrong password produce the same generic error.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (models.User, models.Session, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return models.User{}, models.Session{}, apperror.Validation("Username/email and password are required")
	}

	user, err := s.users.GetByUsername(ctx, identifier)
	if errors.Is(err, apperror.ErrNotFound) {
		user, err = s.users.GetByEmail(ctx, identifier)
	}
	if errors.Is(err, apperror.ErrNotFound) {
		return models.User{}, models.Session{}, apperror.Unauthorized("Invalid credentials")
	}
	if err != nil {
		return models.User{}, models.Session{}, err
	}
	if auth.VerifyPassword(password, user.PasswordHash) != nil {
		return models.User{}, models.Session{}, apperror.Unauthorized("Invalid credentials")
	}

	// Opportunistic cleanup instead of a background sweeper.
	_, _ = s.sessions.DeleteExpired(ctx, time.Now())

	return s.startSession(ctx, user)
}

func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.sessions.Delete(ctx, sessionID)
}

func (s *AuthService) UserFromSession(ctx context.Context, sessionID string) (models.User, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return models.User{}, err
	}
	if sess.Expired(time.Now()) {
		_ = s.sessions.Delete(ctx, sessionID)
		return models.User{}, apperror.Unauthorized("Not authenticated")
	}
	return s.users.GetByID(ctx, sess.UserID)
}

func (s *AuthService) startSession(ctx context.Context, user models.User) (models.User, models.Session, error) {
	now := time.Now().UTC()
	sess := models.Session{
		ID:        xid.New().String(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return models.User{}, models.Session{}, err
	}
	return user, sess, nil
}
