package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pagetrail/api/utils"
)

const (
	ContextUserID    = "user_id"
	ContextUserEmail = "user_email"

	JWTCookieName = "jwt_token"
	APIKeyHeader  = "X-API-KEY"
)

// AuthRequired accepts a dashboard JWT from the jwt_token cookie or a bearer
// Authorization header.
func AuthRequired(jwtManager *utils.JWTManager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := c.Cookie(JWTCookieName)
		if err != nil || tokenString == "" {
			tokenString = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: No token provided"})
			return
		}

		claims, err := jwtManager.Validate(tokenString)
		if err != nil {
			logger.Debug("rejected dashboard token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid or expired token"})
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserEmail, claims.Email)
		c.Next()
	}
}

// APIKeyRequired guards the tracking endpoints with the publishable key
// embedded in client applications.
func APIKeyRequired(apiKey string) gin.HandlerFunc {
	expected := []byte(apiKey)
	return func(c *gin.Context) {
		got := []byte(c.GetHeader(APIKeyHeader))
		if len(expected) == 0 || subtle.ConstantTimeCompare(got, expected) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API key"})
			return
		}
		c.Next()
	}
}
