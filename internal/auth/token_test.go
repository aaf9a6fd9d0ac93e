package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/straintree/straintree-backend/internal/apperror"
)

func TestDownloadTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)

	token, err := tm.SignDownload("/tmp/abc.pdf", "tree-1", "premium")
	require.NoError(t, err)

	claims, err := tm.ParseDownload(token)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/abc.pdf", claims.FilePath)
	assert.Equal(t, "tree-1", claims.FamilyTreeID)
	assert.Equal(t, "premium", claims.PlanType)
}

func TestDownloadTokenExpired(t *testing.T) {
	tm := NewTokenManager("test-secret", -time.Minute)

	token, err := tm.SignDownload("/tmp/abc.pdf", "tree-1", "basic")
	require.NoError(t, err)

	_, err = tm.ParseDownload(token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrGone))
}

func TestDownloadTokenWrongSecret(t *testing.T) {
	token, err := NewTokenManager("secret-a", time.Hour).SignDownload("/tmp/abc.pdf", "tree-1", "basic")
	require.NoError(t, err)

	_, err = NewTokenManager("secret-b", time.Hour).ParseDownload(token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("Password1")
	require.NoError(t, err)
	assert.NoError(t, VerifyPassword("Password1", hash))
	assert.Error(t, VerifyPassword("Password2", hash))
}
