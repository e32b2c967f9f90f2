package webui

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"attenddesk/internal/api"
	"attenddesk/internal/gate"
)

type loginForm struct {
	Email    string `form:"email" binding:"required,email"`
	Password string `form:"password" binding:"required"`
}

type signupForm struct {
	Name            string `form:"name" binding:"required"`
	Email           string `form:"email" binding:"required,email"`
	Password        string `form:"password" binding:"required,min=6"`
	ConfirmPassword string `form:"confirm_password" binding:"required"`
	Phone           string `form:"phone"`
	Department      string `form:"department"`
}

func (h *Handler) showLogin(c *gin.Context) {
	data := gin.H{"Title": "Sign In"}
	if c.Query("registered") == "1" {
		data["Success"] = "Registration successful! Please sign in."
	}
	h.render(c, http.StatusOK, "login", data)
}

func (h *Handler) handleLogin(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		h.render(c, http.StatusBadRequest, "login", gin.H{
			"Title": "Sign In",
			"Error": "A valid email and password are required.",
			"Email": c.PostForm("email"),
		})
		return
	}

	identity, err := h.store.Login(c.Request.Context(), form.Email, form.Password)
	if err != nil {
		h.render(c, http.StatusUnauthorized, "login", gin.H{
			"Title": "Sign In",
			"Error": api.Reason(err),
			"Email": form.Email,
		})
		return
	}

	// Route by role, matching the login result contract.
	if identity.Role == api.RoleAdmin {
		c.Redirect(http.StatusSeeOther, "/admin")
		return
	}
	c.Redirect(http.StatusSeeOther, gate.DefaultPath)
}

func (h *Handler) showSignup(c *gin.Context) {
	h.render(c, http.StatusOK, "signup", gin.H{"Title": "Create Account"})
}

func (h *Handler) handleSignup(c *gin.Context) {
	var form signupForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderSignupError(c, "Please fill in all required fields (password must be at least 6 characters).")
		return
	}
	// Client-side check before any network call.
	if form.Password != form.ConfirmPassword {
		h.renderSignupError(c, "Passwords do not match")
		return
	}

	_, err := h.api.Register(c.Request.Context(), api.RegisterRequest{
		Name:       form.Name,
		Email:      form.Email,
		Password:   form.Password,
		Phone:      form.Phone,
		Department: form.Department,
		Role:       api.RoleUser,
	})
	if err != nil {
		h.renderSignupError(c, api.Reason(err))
		return
	}
	c.Redirect(http.StatusSeeOther, gate.LoginPath+"?registered=1")
}

func (h *Handler) renderSignupError(c *gin.Context, msg string) {
	h.render(c, http.StatusBadRequest, "signup", gin.H{
		"Title": "Create Account",
		"Error": msg,
		"Form": gin.H{
			"Name":       c.PostForm("name"),
			"Email":      c.PostForm("email"),
			"Phone":      c.PostForm("phone"),
			"Department": c.PostForm("department"),
		},
	})
}

func (h *Handler) handleLogout(c *gin.Context) {
	_ = h.store.Logout(c.Request.Context())
	c.Redirect(http.StatusSeeOther, gate.LoginPath)
}
