package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tuma-app/tuma/backend/internal/sessions"
	"github.com/tuma-app/tuma/backend/pkg/logger"
)

// Context keys set by AuthMiddleware.
const (
	ClaimsKey = "claims"
	UserIDKey = "userID"
	TokenKey  = "accessToken"
)

// Token is minimal interface for a verified token that can expose claims
type Token interface {
	Claims(v interface{}) error
}

// Verifier is the minimal interface the middleware depends on
type Verifier interface {
	Verify(ctx context.Context, raw string) (Token, error)
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg, "code": "UNAUTHORIZED"})
}

// ExtractToken returns the bearer token from the Authorization header, falling back to
// the session cookie. ok is false when a malformed Authorization header was sent.
func ExtractToken(c *gin.Context, cookieName string) (token string, ok bool) {
	if auth := c.GetHeader("Authorization"); auth != "" {
		scheme, rest, found := strings.Cut(auth, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(rest) == "" {
			return "", false
		}
		return strings.TrimSpace(rest), true
	}
	if cookieName != "" {
		if v, err := c.Cookie(cookieName); err == nil {
			return v, true
		}
	}
	return "", true
}

// AuthMiddleware returns a Gin middleware that verifies the session token carried as a
// Bearer header or in the named cookie. Blacklisted tokens and revoked sessions are
// rejected. On success the claims map, the user id (sub) and the raw token are stored
// in the gin context.
func AuthMiddleware(ver Verifier, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := ExtractToken(c, cookieName)
		if !ok {
			unauthorized(c, "invalid Authorization header")
			return
		}
		if token == "" {
			unauthorized(c, "missing credentials")
			return
		}

		ctx := c.Request.Context()
		if black, err := sessions.IsAccessTokenBlacklisted(ctx, token); err != nil {
			logger.Warnf("blacklist lookup failed: %v", err)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "session store unavailable", "code": "UNAVAILABLE"})
			return
		} else if black {
			unauthorized(c, "token revoked")
			return
		}

		idToken, err := ver.Verify(ctx, token)
		if err != nil {
			unauthorized(c, "invalid token")
			return
		}

		// Extract claims
		var claims map[string]interface{}
		if err := idToken.Claims(&claims); err != nil {
			unauthorized(c, "failed to parse claims")
			return
		}
		sub, _ := claims["sub"].(string)
		if sub == "" {
			unauthorized(c, "token has no subject")
			return
		}
		sid, _ := claims["sid"].(string)
		if revoked, err := sessions.IsSessionBlacklisted(ctx, sid); err == nil && revoked {
			unauthorized(c, "session revoked")
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(UserIDKey, sub)
		c.Set(TokenKey, token)
		c.Next()
	}
}

// UserID returns the authenticated user id, or "" outside AuthMiddleware.
func UserID(c *gin.Context) string { return c.GetString(UserIDKey) }

// Claims returns the verified token claims, or nil outside AuthMiddleware.
func Claims(c *gin.Context) map[string]interface{} {
	if v, ok := c.Get(ClaimsKey); ok {
		if m, ok := v.(map[string]interface{}); ok {
			return m
		}
	}
	return nil
}
