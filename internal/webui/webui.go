// Package webui holds the gin handlers behind every navigable view. The
// handlers are pure request/render: fetch through the API client, hand the
// result to a template, surface failures as inline messages.
package webui

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"attenddesk/internal/api"
	"attenddesk/internal/gate"
	"attenddesk/internal/marker"
	"attenddesk/internal/session"
)

// Handler wires the view layer to the session store, API client and mark
// dispatcher.
type Handler struct {
	store  *session.Store
	api    *api.Client
	marker *marker.Dispatcher
}

// New creates the view handler set.
func New(store *session.Store, client *api.Client, dispatcher *marker.Dispatcher) *Handler {
	return &Handler{store: store, api: client, marker: dispatcher}
}

// Register attaches every route. loginLimit is the tighter rate limit for
// the login form.
func (h *Handler) Register(r *gin.Engine, loginLimit gin.HandlerFunc) {
	r.GET("/", func(c *gin.Context) {
		if h.store.Authenticated() {
			c.Redirect(http.StatusSeeOther, gate.DefaultPath)
			return
		}
		c.Redirect(http.StatusSeeOther, gate.LoginPath)
	})

	r.GET("/login", h.showLogin)
	r.POST("/login", loginLimit, h.handleLogin)
	r.GET("/signup", h.showSignup)
	r.POST("/signup", h.handleSignup)
	r.POST("/logout", h.handleLogout)

	authed := r.Group("/", gate.RequireAuth(h.store))
	authed.GET("/dashboard", h.dashboard)
	authed.GET("/profile", h.showProfile)
	authed.POST("/profile", h.handleProfile)
	authed.GET("/attendance", h.myAttendance)

	admin := r.Group("/admin", gate.RequireRole(h.store, api.RoleAdmin))
	admin.GET("", h.adminDashboard)
	admin.GET("/users", h.adminUsers)
	admin.POST("/users/:id/delete", h.deleteUser)
	admin.GET("/add-user", h.showAddUser)
	admin.POST("/add-user", h.handleAddUser)
	admin.GET("/edit-user/:id", h.showEditUser)
	admin.POST("/edit-user/:id", h.handleEditUser)
	admin.GET("/attendance", h.adminAttendance)
	admin.POST("/attendance/mark", h.markOne)
	admin.POST("/attendance/bulk", h.markBulk)
	admin.GET("/attendance/marking", h.markingStatus)
}

// render injects the current identity so the navbar can route itself.
func (h *Handler) render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if _, ok := data["Identity"]; !ok {
		if identity, ok := h.store.Current(); ok {
			data["Identity"] = identity
		}
	}
	c.HTML(status, name, data)
}

// expired handles a backend 401: the cached token is no longer accepted, so
// the session is discarded and the operator is sent back to login.
func (h *Handler) expired(c *gin.Context, err error) bool {
	if !api.IsUnauthorized(err) {
		return false
	}
	_ = h.store.Logout(c.Request.Context())
	c.Redirect(http.StatusSeeOther, gate.LoginPath)
	c.Abort()
	return true
}
