package utils

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims mirrors the payload the portal backend puts into access tokens.
type Claims struct {
	UserID int64  `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// ParseToken extracts the claims from a stored bearer token without
// verifying the signature (the signing secret is backend-owned; the
// server re-validates every request anyway). An expired token is
// rejected here so the caller can go straight to login.
func ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, err
	}

	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return nil, errors.New("token expired")
	}
	if claims.UserID == 0 {
		// Some backend versions put the id in the subject instead.
		if claims.Subject == "" {
			return nil, errors.New("token has no user id")
		}
		id, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil {
			return nil, errors.New("token has no user id")
		}
		claims.UserID = id
	}
	return claims, nil
}
