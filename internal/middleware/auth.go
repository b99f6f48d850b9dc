package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"matka/internal/notify"
)

const (
	claimsKey = "auth.claims"
	// DevSubject is recorded as the caller when auth is disabled.
	DevSubject = "dev"
)

// Auth guards route groups with bearer tokens.
type Auth struct {
	JWT      JWT
	Disabled bool
}

// Require admits tokens whose role is one of roles.
func (a Auth) Require(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if a.Disabled {
			c.Set(notify.SubjectKey, DevSubject)
			c.Next()
			return
		}
		tok := bearerToken(c.GetHeader("Authorization"))
		if tok == "" {
			abort(c, http.StatusUnauthorized, "missing bearer token")
			return
		}
		claims, err := a.JWT.Verify(tok)
		if err != nil {
			abort(c, http.StatusUnauthorized, "invalid token")
			return
		}
		if !hasRole(claims.Role, roles) {
			abort(c, http.StatusForbidden, "forbidden")
			return
		}
		c.Set(claimsKey, claims)
		c.Set(notify.SubjectKey, claims.Subject)
		c.Next()
	}
}

// ClaimsFrom returns the verified claims of the request, if any.
func ClaimsFrom(c *gin.Context) (Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return Claims{}, false
	}
	claims, ok := v.(Claims)
	return claims, ok
}

// SubjectFrom returns the caller identity set by Require.
func SubjectFrom(c *gin.Context) string {
	return c.GetString(notify.SubjectKey)
}

// CanActFor reports whether the caller may act on behalf of customerID.
// Admins and disabled auth may act for anyone.
func CanActFor(c *gin.Context, customerID string) bool {
	claims, ok := ClaimsFrom(c)
	if !ok {
		return SubjectFrom(c) == DevSubject
	}
	return claims.Role == RoleAdmin || claims.Subject == customerID
}

func hasRole(role string, roles []string) bool {
	if len(roles) == 0 {
		return true
	}
	for _, r := range roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"code": status, "message": msg})
}

func bearerToken(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	parts := strings.SplitN(v, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// CORS allows browser clients from any origin.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
