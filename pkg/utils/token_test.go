package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, claims Claims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestParseToken(t *testing.T) {
	s := signToken(t, Claims{
		UserID: 42,
		Role:   "EMPLOYER",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := ParseToken(s)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "EMPLOYER", claims.Role)
}

func TestParseTokenExpired(t *testing.T) {
	s := signToken(t, Claims{
		UserID: 42,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})

	_, err := ParseToken(s)
	assert.Error(t, err)
}

func TestParseTokenSubjectFallback(t *testing.T) {
	s := signToken(t, Claims{
		Role: "JOB_SEEKER",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "17",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := ParseToken(s)
	require.NoError(t, err)
	assert.Equal(t, int64(17), claims.UserID)
}

func TestParseTokenNoUserID(t *testing.T) {
	s := signToken(t, Claims{})

	_, err := ParseToken(s)
	assert.Error(t, err)
}

func TestParseTokenGarbage(t *testing.T) {
	_, err := ParseToken("not-a-token")
	assert.Error(t, err)
}
