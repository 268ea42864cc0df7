package controllers

import (
	"net/http"

	"github.com/shashiranjanraj/storefront/app/state"
	"github.com/shashiranjanraj/storefront/pkg/ctx"
)

type AuthController struct {
	auth *state.Auth
}

func NewAuthController(auth *state.Auth) *AuthController {
	return &AuthController{auth: auth}
}

type loginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login exchanges the admin credentials for a bearer token. A mismatch is
// always the same 401, whichever part was wrong.
func (ac *AuthController) Login(c *ctx.Context) {
	var in loginInput
	if !c.BindJSON(&in) {
		return
	}
	result, ok := ac.auth.Login(c.Context(), in.Username, in.Password)
	if !ok {
		c.Unauthorized("Invalid credentials")
		return
	}
	c.Success(result)
}

// Logout revokes the caller's token.
func (ac *AuthController) Logout(c *ctx.Context) {
	ac.auth.Logout(c.Context(), c.BearerToken())
	c.Status(http.StatusNoContent)
}

// Me returns the signed-in admin.
func (ac *AuthController) Me(c *ctx.Context) {
	claims := c.Claims()
	if claims == nil {
		c.Unauthorized()
		return
	}
	c.Success(map[string]any{
		"user":       state.User{Username: claims.Username, Role: claims.Role},
		"backend":    claims.Backend,
		"expires_at": claims.ExpiresAt,
	})
}
