package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"jobpilot/internal/auth"
	"jobpilot/internal/session"
)

const identityKey = "sessionIdentity"

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

// AuthMiddleware validates the access token and stores the resolved identity
// on the request. Handlers read it with IdentityFromContext and pass it to
// the store explicitly.
func AuthMiddleware(authService *auth.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := resolveIdentity(c, authService)
		if !ok {
			abortUnauthorized(c)
			return
		}

		c.Set(identityKey, id)
		c.Next()
	}
}

// OptionalAuthMiddleware resolves the identity when a valid token is present
// and otherwise leaves the request anonymous. The agent passthrough uses it:
// requests without a resolvable identity are forwarded, not rejected.
func OptionalAuthMiddleware(authService *auth.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, ok := resolveIdentity(c, authService); ok {
			c.Set(identityKey, id)
		}
		c.Next()
	}
}

func resolveIdentity(c *gin.Context, authService *auth.AuthService) (session.Identity, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return session.Anonymous, false
	}

	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return session.Anonymous, false
	}

	rawToken := strings.TrimSpace(parts[1])
	if rawToken == "" {
		return session.Anonymous, false
	}

	claims, err := authService.ValidateToken(rawToken)
	if err != nil || claims.TokenType != "access" {
		return session.Anonymous, false
	}

	return session.Identity{UserID: claims.UserID}, true
}

// IdentityFromContext returns the resolved caller identity, or Anonymous.
func IdentityFromContext(c *gin.Context) session.Identity {
	if value, ok := c.Get(identityKey); ok {
		if id, ok := value.(session.Identity); ok {
			return id
		}
	}
	return session.Anonymous
}
