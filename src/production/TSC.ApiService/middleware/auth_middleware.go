package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	jwt "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.ApiService/implementation/jwt"
)

// Context keys set by Authenticate
const (
	SubjectContextKey = "auth_subject"
	RoleContextKey    = "auth_role"
)

// AuthMiddleware guards the admin HTTP surface with bearer tokens
type AuthMiddleware struct {
	jwtService *jwt.Service
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(jwtService *jwt.Service) *AuthMiddleware {
	return &AuthMiddleware{jwtService: jwtService}
}

// extractToken gets a bearer token from the Authorization header
func extractToken(r *http.Request) string {
	token := r.Header.Get("Authorization")
	if strings.HasPrefix(token, "Bearer ") {
		return strings.TrimPrefix(token, "Bearer ")
	}
	return ""
}

// Authenticate middleware verifies the access token
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		accessToken := extractToken(c.Request)
		if accessToken == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorised"})
			c.Abort()
			return
		}

		claims, err := m.jwtService.ValidateAccessToken(accessToken)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(SubjectContextKey, claims.Subject)
		c.Set(RoleContextKey, claims.Role)
		c.Next()
	}
}

// SubjectFromContext returns the authenticated subject, defaulting to "admin".
func SubjectFromContext(c *gin.Context) string {
	if v, ok := c.Get(SubjectContextKey); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return "admin"
}
