package middleware

import (
	"context"
	"net/http"

	"github.com/shashiranjanraj/storefront/pkg/auth"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/response"
)

// Authenticator decides whether a bearer token still grants admin access.
type Authenticator interface {
	Authenticated(ctx context.Context, token string) (*auth.Claims, bool)
}

// Guard admits a request only when its bearer token is accepted by a. The
// verified claims are attached to the request context (auth.ClaimsFrom).
func Guard(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.BearerToken(r)
			if token == "" {
				response.Unauthorized(w)
				return
			}

			claims, ok := a.Authenticated(r.Context(), token)
			if !ok {
				logger.WithCtx(r.Context()).Info("admin guard rejected token", "path", r.URL.Path)
				response.Unauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
		})
	}
}

// Guest blocks callers that already hold an accepted token (the login form).
func Guest(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := auth.BearerToken(r); token != "" {
				if _, ok := a.Authenticated(r.Context(), token); ok {
					response.Error(w, http.StatusConflict, "Already authenticated")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
