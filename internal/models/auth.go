package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims are the claims the host SSO places in admin access tokens.
type JWTClaims struct {
	UserID string `json:"uid"`
	Login  string `json:"login"`
	jwt.RegisteredClaims
}
