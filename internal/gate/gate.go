// Package gate guards navigable views. Decisions are evaluated fresh on
// every request and never cached; an authorization miss is a silent
// redirect, not an error page.
package gate

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"attenddesk/internal/api"
	"attenddesk/internal/session"
)

// Redirect targets.
const (
	LoginPath   = "/login"
	DefaultPath = "/dashboard"
)

const identityKey = "gate.identity"

// RequireAuth renders the view only for an authenticated session; anyone
// else is sent to the login view.
func RequireAuth(s *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := s.Current()
		if !ok {
			c.Redirect(http.StatusSeeOther, LoginPath)
			c.Abort()
			return
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

// RequireRole additionally demands an exact role match. An authenticated
// session with a different role is sent to the default dashboard, never
// shown the protected content.
func RequireRole(s *session.Store, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := s.Current()
		if !ok {
			c.Redirect(http.StatusSeeOther, LoginPath)
			c.Abort()
			return
		}
		if identity.Role != role {
			c.Redirect(http.StatusSeeOther, DefaultPath)
			c.Abort()
			return
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

// Identity returns the principal the gate admitted for this request.
func Identity(c *gin.Context) (api.Identity, bool) {
	val, ok := c.Get(identityKey)
	if !ok {
		return api.Identity{}, false
	}
	identity, ok := val.(api.Identity)
	return identity, ok
}
