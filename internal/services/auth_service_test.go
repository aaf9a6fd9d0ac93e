package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/straintree/straintree-backend/internal/apperror"
)

func newAuthService(t *testing.T) *AuthService {
	repos := newTestRepos(t)
	return NewAuthService(repos.Users, repos.Sessions, time.Hour)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	user, sess, err := svc.Register(ctx, "grower", "Grower@Example.com", "Password1")
	require.NoError(t, err)
	assert.Equal(t, "grower", user.Username)
	assert.Equal(t, "grower@example.com", user.Email)
	assert.NotEmpty(t, sess.ID)

	// Login by username, then by email (case-insensitive).
	_, _, err = svc.Login(ctx, "grower", "Password1")
	require.NoError(t, err)
	_, _, err = svc.Login(ctx, "GROWER@example.com", "Password1")
	require.NoError(t, err)
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	svc := newAuthService(t)

	_, _, err := svc.Register(context.Background(), "grower", "grower@example.com", "passwords")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrValidation))
	assert.Equal(t, "Password must contain at least one uppercase letter", err.Error())
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "grower", "grower@example.com", "Password1")
	require.NoError(t, err)

	_, _, err = svc.Register(ctx, "grower", "other@example.com", "Password1")
	require.Error(t, err)
	assert.Equal(t, "Username already exists", err.Error())

	_, _, err = svc.Register(ctx, "other", "grower@example.com", "Password1")
	require.Error(t, err)
	assert.Equal(t, "Email already registered", err.Error())
}

func TestLoginGenericError(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "grower", "grower@example.com", "Password1")
	require.NoError(t, err)

	// Unknown user and wrong password are indistinguishable to the caller.
	_, _, wrongPass := svc.Login(ctx, "grower", "Password2")
	_, _, unknown := svc.Login(ctx, "nobody", "Password1")
	require.Error(t, wrongPass)
	require.Error(t, unknown)
	assert.Equal(t, wrongPass.Error(), unknown.Error())
	assert.True(t, errors.Is(wrongPass, apperror.ErrUnauthorized))
}

func TestSessionLifecycle(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	user, sess, err := svc.Register(ctx, "grower", "grower@example.com", "Password1")
	require.NoError(t, err)

	got, err := svc.UserFromSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	require.NoError(t, svc.Logout(ctx, sess.ID))
	_, err = svc.UserFromSession(ctx, sess.ID)
	require.Error(t, err)
}

func TestExpiredSessionRejected(t *testing.T) {
	repos := newTestRepos(t)
	svc := NewAuthService(repos.Users, repos.Sessions, -time.Minute)
	ctx := context.Background()

	_, sess, err := svc.Register(ctx, "grower", "grower@example.com", "Password1")
	require.NoError(t, err)

	_, err = svc.UserFromSession(ctx, sess.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrUnauthorized))
}
