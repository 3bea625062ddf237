package devserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/czefenglim/bluecollar-chat/pkg/utils"
)

// IssueToken mints a bearer token the stub accepts; tests hand it to the
// client under test.
func (s *Server) IssueToken(userID int64, role string) string {
	claims := &utils.Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "devserver",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		panic(err)
	}
	return signed
}

func (s *Server) validateToken(tokenString string) (int64, bool) {
	claims := &utils.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !token.Valid || claims.UserID == 0 {
		return 0, false
	}
	return claims.UserID, true
}

func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			fail(c, http.StatusUnauthorized, "Authorization header required")
			c.Abort()
			return
		}

		userID, valid := s.validateToken(parts[1])
		if !valid {
			fail(c, http.StatusUnauthorized, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set("userId", userID)
		c.Next()
	}
}
