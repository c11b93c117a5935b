package service

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/lmsops/lp-reset-api/internal/models"
	appErrors "github.com/lmsops/lp-reset-api/pkg/errors"
)

// AuthService validates access tokens issued by the host's SSO. This
// service never mints tokens; the host owns the credential store.
type AuthService struct {
	secret []byte
}

// NewAuthService constructs the validator with the shared HMAC secret.
func NewAuthService(secret string) *AuthService {
	return &AuthService{secret: []byte(secret)}
}

// ValidateToken parses and verifies an HS256 access token.
func (s *AuthService) ValidateToken(token string) (*models.JWTClaims, error) {
	claims := &models.JWTClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}
	return claims, nil
}
