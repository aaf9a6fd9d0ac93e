package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/straintree/straintree-backend/internal/apperror"
)

// TokenManager signs the download tokens handed out after a confirmed PDF
// export. The token carries everything the download endpoint needs, so no
// server-side download state survives the request.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

type DownloadClaims struct {
	FilePath     string `json:"file"`
	FamilyTreeID string `json:"tree_id"`
	PlanType     string `json:"plan"`
	jwt.RegisteredClaims
}

func (tm *TokenManager) SignDownload(filePath, treeID, planType string) (string, error) {
	now := time.Now()
	claims := DownloadClaims{
		FilePath:     filePath,
		FamilyTreeID: treeID,
		PlanType:     planType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
}

// ParseDownload validates a download token. Expired tokens map to ErrGone
// (HTTP 410); anything else invalid maps to ErrNotFound, matching the
// behavior of the original token store.
func (tm *TokenManager) ParseDownload(token string) (*DownloadClaims, error) {
	claims := &DownloadClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return tm.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperror.Gone("Download token has expired")
		}
		return nil, apperror.NotFound("Invalid or expired download token")
	}
	return claims, nil
}

// TTL reports the configured token lifetime, used for the expires_in field.
func (tm *TokenManager) TTL() time.Duration { return tm.ttl }
