package auth

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jpvargas/guardian/pkg/guardian/response"
)

const (
	// ContextKeyIdentity is the key for the principal identity in gin context
	ContextKeyIdentity = "identity"
	// ContextKeyEmail is the key for email in gin context
	ContextKeyEmail = "email"
	// ContextKeyRole is the key for the role name in gin context
	ContextKeyRole = "role"
	// ContextKeyName is the key for display name in gin context
	ContextKeyName = "name"
	// ContextKeyStatus is the key for principal status in gin context
	ContextKeyStatus = "status"
)

// AdminRoleName is the role claim carried by admin tokens.
const AdminRoleName = "Admin"

// TokenFromHeader extracts the bearer token from the Authorization
// header. Clients send either the raw signed string or a "Bearer "-
// prefixed one; both are accepted.
func TokenFromHeader(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return header
}

// Middleware validates bearer tokens and sets principal info in context
func Middleware(tokens *TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := TokenFromHeader(c)
		if tokenString == "" {
			response.Error(c, http.StatusUnauthorized, "Authorization header required", "AUTH_REQUIRED")
			return
		}

		claims, err := tokens.Validate(tokenString)
		if err != nil {
			if err == ErrExpiredToken {
				response.Error(c, http.StatusUnauthorized, "Token has expired", "TOKEN_EXPIRED")
			} else {
				response.Error(c, http.StatusUnauthorized, "Token not valid", "INVALID_TOKEN")
			}
			return
		}

		c.Set(ContextKeyIdentity, claims.Subject)
		c.Set(ContextKeyEmail, claims.Email)
		c.Set(ContextKeyRole, claims.RolName)
		c.Set(ContextKeyName, claims.Name)
		c.Set(ContextKeyStatus, claims.Status)

		c.Next()
	}
}

// RequireAdmin checks that the validated token carries the admin role
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(ContextKeyRole)
		if !exists {
			response.Error(c, http.StatusUnauthorized, "Authentication required", "AUTH_REQUIRED")
			return
		}
		if role != AdminRoleName {
			response.Error(c, http.StatusForbidden, "Admin access required", "ADMIN_REQUIRED")
			return
		}
		c.Next()
	}
}

// GetIdentity returns the principal identity from the gin context
func GetIdentity(c *gin.Context) (string, bool) {
	id, exists := c.Get(ContextKeyIdentity)
	if !exists {
		return "", false
	}
	return id.(string), true
}

// GetAdminID returns the caller's admin ID from the gin context.
func GetAdminID(c *gin.Context) (uint, bool) {
	id, exists := GetIdentity(c)
	if !exists {
		return 0, false
	}
	parsed, err := strconv.ParseUint(id, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(parsed), true
}

// GetEmail returns the email from the gin context
func GetEmail(c *gin.Context) (string, bool) {
	email, exists := c.Get(ContextKeyEmail)
	if !exists {
		return "", false
	}
	return email.(string), true
}

// GetRole returns the role name from the gin context
func GetRole(c *gin.Context) (string, bool) {
	role, exists := c.Get(ContextKeyRole)
	if !exists {
		return "", false
	}
	return role.(string), true
}
