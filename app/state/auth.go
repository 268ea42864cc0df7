package state

import (
	"context"
	"sync"
	"time"

	"github.com/shashiranjanraj/storefront/pkg/auth"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/session"
)

// AdminRole is the only role the storefront issues.
const AdminRole = "admin"

// SessionStore opens and closes backend sessions.
type SessionStore interface {
	Create(ctx context.Context, email, role string) (session.Session, error)
	Get(ctx context.Context, id string) (session.Session, bool, error)
	Destroy(ctx context.Context, id string) error
}

// Credentials are the single configured admin account.
type Credentials struct {
	Username string
	Password string
	Email    string
}

// User is the signed-in identity.
type User struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	Token     string    `json:"token"`
	User      User      `json:"user"`
	Backend   bool      `json:"backend"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Auth gates the admin surface. A matching login first tries to open a
// backend session; if that fails it still grants a local-only token.
type Auth struct {
	username string
	hash     string
	email    string
	sessions SessionStore
	issuer   *auth.Issuer

	mu      sync.Mutex
	revoked map[string]time.Time // token id → expiry
}

// NewAuth hashes the configured password once; requests compare against the
// hash, never the plain text.
func NewAuth(creds Credentials, sessions SessionStore, issuer *auth.Issuer) (*Auth, error) {
	hash, err := auth.HashPassword(creds.Password)
	if err != nil {
		return nil, err
	}
	return &Auth{
		username: creds.Username,
		hash:     hash,
		email:    creds.Email,
		sessions: sessions,
		issuer:   issuer,
		revoked:  map[string]time.Time{},
	}, nil
}

// Login reports false, with no detail, unless both username and password
// match the configured admin.
func (a *Auth) Login(ctx context.Context, username, password string) (LoginResult, bool) {
	log := logger.WithCtx(ctx)
	// Always run bcrypt so a wrong username costs as much as a wrong password.
	passwordOK := auth.CheckPassword(a.hash, password)
	if username != a.username || !passwordOK {
		return LoginResult{}, false
	}

	claims := auth.Claims{Username: a.username, Role: AdminRole}
	sess, err := a.sessions.Create(ctx, a.email, AdminRole)
	if err != nil {
		// Local-only grant: the backend never saw this login.
		log.Warn("auth: backend session unavailable, granting local session", "error", err)
	} else {
		claims.SessionID, claims.Backend = sess.ID, true
	}

	token, issued, err := a.issuer.Issue(claims)
	if err != nil {
		log.Error("auth: issue token failed", "error", err)
		return LoginResult{}, false
	}
	return LoginResult{
		Token:     token,
		User:      User{Username: a.username, Role: AdminRole},
		Backend:   claims.Backend,
		ExpiresAt: issued.ExpiresAt.Time,
	}, true
}

// Authenticated is the admin route guard predicate.
func (a *Auth) Authenticated(ctx context.Context, token string) (*auth.Claims, bool) {
	if token == "" {
		return nil, false
	}
	claims, err := a.issuer.Parse(token)
	if err != nil || claims.Role != AdminRole {
		return nil, false
	}
	if a.isRevoked(claims.ID) {
		return nil, false
	}
	if claims.Backend {
		_, found, err := a.sessions.Get(ctx, claims.SessionID)
		if err != nil {
			// Backend unreachable: keep honoring the signed token.
			logger.WithCtx(ctx).Warn("auth: session lookup failed", "error", err)
			return claims, true
		}
		if !found {
			return nil, false
		}
	}
	return claims, true
}

// Logout revokes token and closes its backend session. Backend errors are
// logged only.
func (a *Auth) Logout(ctx context.Context, token string) {
	claims, err := a.issuer.Parse(token)
	if err != nil {
		return
	}

	a.mu.Lock()
	now := time.Now()
	for id, exp := range a.revoked {
		if exp.Before(now) {
			delete(a.revoked, id)
		}
	}
	if claims.ExpiresAt != nil {
		a.revoked[claims.ID] = claims.ExpiresAt.Time
	}
	a.mu.Unlock()

	if claims.Backend {
		if err := a.sessions.Destroy(ctx, claims.SessionID); err != nil {
			logger.WithCtx(ctx).Warn("auth: backend sign-out failed", "error", err)
		}
	}
}

func (a *Auth) isRevoked(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.revoked[id]
	return ok
}
