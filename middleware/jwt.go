package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// NewJWTMiddleware validates the token the gateway attaches to every
// request. The subject claim is the invoking platform user, the admin
// claim gates the migrate/refresh commands.
func NewJWTMiddleware() gin.HandlerFunc {
	secret := []byte(viper.GetString("gateway.jwt_secret"))

	return func(c *gin.Context) {
		requestID := c.MustGet("requestID").(string)

		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "Missing bearer token",
				"requestID": requestID,
			})
			return
		}

		token, err := jwt.Parse(strings.TrimPrefix(auth, "Bearer "), func(t *jwt.Token) (interface{}, error) {
			if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
			}

			return secret, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "token_invalid",
				"requestID": requestID,
			})

			zap.L().Warn("Failed to validate gateway token", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "token_invalid",
				"requestID": requestID,
			})
			return
		}

		if sub, _ := claims["sub"].(string); sub != "" {
			c.Set("userID", sub)
		}

		if admin, _ := claims["admin"].(bool); admin {
			c.Set("isAdmin", true)
		}

		c.Next()
	}
}
