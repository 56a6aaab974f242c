package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"newsdesk/portal/internal/auth"
	"newsdesk/portal/internal/logger"
	"newsdesk/portal/internal/models"
)

// ContextKeyPrincipal holds the verified *auth.Principal in the Gin context.
const ContextKeyPrincipal = "principal"

// TokenFromRequest returns the session token from the cookie, falling back to a
// bearer Authorization header.
func TokenFromRequest(c *gin.Context) string {
	if token, err := c.Cookie(auth.CookieName); err == nil && token != "" {
		return token
	}
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// LoginPath is the login page of a role's page tree.
func LoginPath(role models.Role) string {
	return "/" + string(role) + "/login"
}

// publicPages are reachable inside a role tree without a session.
var publicPages = map[string]bool{"login": true, "signup": true}

// RoleGate protects the /admin, /agent, /customer and /hoker page trees. The role
// is taken from the first path segment; a missing, invalid or foreign token
// redirects to that role's login page. Paths outside the role trees pass through.
func RoleGate(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		segments := strings.SplitN(strings.TrimPrefix(c.Request.URL.Path, "/"), "/", 3)
		role, ok := models.ParseRole(segments[0])
		if !ok {
			c.Next()
			return
		}
		if len(segments) > 1 && publicPages[strings.TrimSuffix(segments[1], "/")] {
			c.Next()
			return
		}

		principal, err := auth.PrincipalFromToken(TokenFromRequest(c), jwtSecret)
		if err != nil || principal.Role != role {
			if err == nil {
				logger.L().Infow("Role mismatch on page request", "path", c.Request.URL.Path, "role", principal.Role)
			}
			c.Redirect(http.StatusFound, LoginPath(role))
			c.Abort()
			return
		}

		c.Set(ContextKeyPrincipal, principal)
		c.Next()
	}
}

// RequireRole authenticates API requests: 401 without a valid token, 403 when the
// token's role is not one of roles.
func RequireRole(jwtSecret string, roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		token := TokenFromRequest(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Authentication required"})
			return
		}
		principal, err := auth.PrincipalFromToken(token, jwtSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid or expired token"})
			return
		}
		if !allowed[principal.Role] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "Forbidden"})
			return
		}
		c.Set(ContextKeyPrincipal, principal)
		c.Next()
	}
}

// PrincipalFrom returns the principal stored by RoleGate or RequireRole.
func PrincipalFrom(c *gin.Context) (*auth.Principal, bool) {
	v, ok := c.Get(ContextKeyPrincipal)
	if !ok {
		return nil, false
	}
	p, ok := v.(*auth.Principal)
	return p, ok
}
