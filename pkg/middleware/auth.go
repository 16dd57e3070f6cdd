package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ClaimsKey is the gin context key holding the verified claims map.
const ClaimsKey = "claims"

// Token is minimal interface for a verified token that can expose claims
type Token interface {
	Claims(v interface{}) error
}

// Verifier is the minimal interface the middleware depends on
type Verifier interface {
	Verify(ctx context.Context, raw string) (Token, error)
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": msg})
}

// AuthMiddleware returns a Gin middleware that verifies Bearer tokens using the provided verifier
func AuthMiddleware(ver Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			unauthorized(c, "missing Authorization header")
			return
		}
		scheme, token, found := strings.Cut(auth, " ")
		token = strings.TrimSpace(token)
		if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
			unauthorized(c, "invalid Authorization header")
			return
		}

		idToken, err := ver.Verify(c.Request.Context(), token)
		if err != nil {
			unauthorized(c, "invalid token: "+err.Error())
			return
		}

		var claims map[string]interface{}
		if err := idToken.Claims(&claims); err != nil {
			unauthorized(c, "failed to parse claims")
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// Claims returns the verified claims stored by AuthMiddleware, or nil.
func Claims(c *gin.Context) map[string]interface{} {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	cm, _ := v.(map[string]interface{})
	return cm
}

// subjectKey picks the rate limit key: the token subject when authenticated,
// otherwise the client IP.
func subjectKey(c *gin.Context) string {
	if cm := Claims(c); cm != nil {
		if sub, ok := cm["sub"].(string); ok && sub != "" {
			return "sub:" + sub
		}
		if email, ok := cm["email"].(string); ok && email != "" {
			return "email:" + strings.ToLower(email)
		}
	}
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}
