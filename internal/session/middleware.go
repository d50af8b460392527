package session

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// HeaderSession carries a freshly minted token back to the client.
	HeaderSession = "X-Bookscout-Session"

	// ContextOwnerID is the key for the session owner in gin context
	ContextOwnerID = "owner_id"
	// ContextUsername is the key for the username in gin context
	ContextUsername = "username"
	// ContextGuest marks whether the session is an anonymous one
	ContextGuest = "guest"
)

// Middleware establishes a session for every request. A valid bearer token
// is honored; anything else gets a fresh guest identity, returned to the
// client in the HeaderSession response header. It never rejects a request.
func Middleware(m *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, err := m.Validate(bearerToken(c)); err == nil {
			c.Set(ContextOwnerID, claims.OwnerID)
			c.Set(ContextUsername, claims.Username)
			c.Set(ContextGuest, claims.Guest)
			c.Next()
			return
		}

		ownerID := uuid.New().String()
		token, err := m.Generate(ownerID, "", true)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to establish session"})
			c.Abort()
			return
		}

		c.Header(HeaderSession, token)
		c.Set(ContextOwnerID, ownerID)
		c.Set(ContextUsername, "")
		c.Set(ContextGuest, true)

		c.Next()
	}
}

// RequireUser aborts with 401 unless the session belongs to a registered
// account. Guests pass Middleware but not this.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsGuest(c) || OwnerID(c) == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Account required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// bearerToken extracts the token from "Bearer <token>", or returns "".
func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return parts[1]
}

// OwnerID retrieves the session owner id from the gin context.
func OwnerID(c *gin.Context) string {
	if ownerID, exists := c.Get(ContextOwnerID); exists {
		return ownerID.(string)
	}
	return ""
}

// Username retrieves the username from the gin context.
func Username(c *gin.Context) string {
	if username, exists := c.Get(ContextUsername); exists {
		return username.(string)
	}
	return ""
}

// IsGuest reports whether the current session is anonymous.
func IsGuest(c *gin.Context) bool {
	if guest, exists := c.Get(ContextGuest); exists {
		return guest.(bool)
	}
	return true
}
