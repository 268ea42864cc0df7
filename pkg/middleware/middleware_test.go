package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/pkg/auth"
	"github.com/shashiranjanraj/storefront/pkg/middleware"
	"github.com/shashiranjanraj/storefront/pkg/rbac"
)

type tokenSet map[string]string // token → role

func (s tokenSet) Authenticated(_ context.Context, token string) (*auth.Claims, bool) {
	role, ok := s[token]
	if !ok {
		return nil, false
	}
	return &auth.Claims{Username: "admin", Role: role}, true
}

func ok(w http.ResponseWriter, r *http.Request) {
	if c := auth.ClaimsFrom(r.Context()); c != nil {
		w.Header().Set("X-User", c.Username)
	}
	w.WriteHeader(http.StatusOK)
}

func get(h http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGuard(t *testing.T) {
	h := middleware.Guard(tokenSet{"good": "admin"})(http.HandlerFunc(ok))

	assert.Equal(t, http.StatusUnauthorized, get(h, "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(h, "forged").Code)

	rec := get(h, "good")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin", rec.Header().Get("X-User"))
}

func TestGuest(t *testing.T) {
	h := middleware.Guest(tokenSet{"good": "admin"})(http.HandlerFunc(ok))

	assert.Equal(t, http.StatusOK, get(h, "").Code)
	assert.Equal(t, http.StatusOK, get(h, "stale").Code)
	assert.Equal(t, http.StatusConflict, get(h, "good").Code)
}

func TestHasRole(t *testing.T) {
	tokens := tokenSet{"admin": "admin", "viewer": "viewer"}
	h := middleware.Guard(tokens)(rbac.HasRole("admin")(http.HandlerFunc(ok)))

	assert.Equal(t, http.StatusOK, get(h, "admin").Code)
	assert.Equal(t, http.StatusForbidden, get(h, "viewer").Code)

	bare := rbac.HasRole("admin")(http.HandlerFunc(ok))
	assert.Equal(t, http.StatusUnauthorized, get(bare, "").Code)
}

func TestLimiter(t *testing.T) {
	l := middleware.NewLimiter(2, time.Hour)
	h := l.Middleware(http.HandlerFunc(ok))

	assert.Equal(t, http.StatusOK, get(h, "").Code)
	assert.Equal(t, http.StatusOK, get(h, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(h, "").Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, "other clients have their own bucket")

	assert.Equal(t, 0, l.Sweep())
}

func TestRecovery(t *testing.T) {
	h := middleware.Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := get(h, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal Server Error")
}

func TestCORSPreflight(t *testing.T) {
	h := middleware.CORS(middleware.CORSOptions{
		AllowedOrigins: []string{"https://shop.example.com"},
		AllowedMethods: []string{"GET", "DELETE"},
		AllowedHeaders: []string{"Authorization"},
		MaxAge:         60,
	})(http.HandlerFunc(ok))

	req := httptest.NewRequest(http.MethodOptions, "/api/admin/products/1", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://shop.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, DELETE", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "60", rec.Header().Get("Access-Control-Max-Age"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
