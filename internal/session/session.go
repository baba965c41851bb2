// Package session loads and issues the signed session token that carries the
// current identity. A request has at most one identity; anything wrong with
// the token reads as "no identity".
package session

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/erazemk/trznica/internal/auth"
	"github.com/erazemk/trznica/internal/model"
)

// CookieName is the session cookie.
const CookieName = "token"

// Revoker records logged-out tokens until they expire.
type Revoker interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Users looks up the account behind a session.
type Users interface {
	User(ctx context.Context, id int64) (*model.User, error)
}

// Manager issues, loads and clears sessions. With Users set, a session only
// holds while its account is active, and the name and role come from the
// account rather than the token.
type Manager struct {
	Secret  string
	TTL     time.Duration
	Revoker Revoker
	Users   Users
}

// Load returns the claims of the request's session, or nil. Missing,
// malformed, expired, badly signed and revoked tokens all read as nil, as do
// tokens of deleted accounts.
func (m *Manager) Load(r *http.Request) *auth.Claims {
	token := tokenFromRequest(r)
	if token == "" {
		return nil
	}

	claims, err := auth.ValidateToken(m.Secret, token)
	if err != nil {
		slog.Debug("ignoring invalid session token", "error", err)
		return nil
	}

	if m.Revoker != nil && claims.ID != "" {
		revoked, err := m.Revoker.IsRevoked(r.Context(), claims.ID)
		if err != nil {
			slog.Warn("failed to check token revocation", "error", err)
			return nil
		}
		if revoked {
			return nil
		}
	}

	if m.Users != nil {
		user, err := m.Users.User(r.Context(), claims.UserID)
		if err != nil {
			slog.Warn("failed to load session user", "error", err)
			return nil
		}
		if user == nil || user.DeletedAt != nil {
			return nil
		}
		claims.Name, claims.StudentID, claims.Role = user.Name, user.StudentID, user.Role
	}

	return claims
}

// Issue signs a session for user and sets the cookie. The token is also
// returned for API clients.
func (m *Manager) Issue(w http.ResponseWriter, user *model.User) (string, error) {
	token, claims, err := auth.GenerateToken(m.Secret, user, m.TTL)
	if err != nil {
		return "", err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  claims.ExpiresAt.Time,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	return token, nil
}

// Clear revokes the request's token, if any, and expires the cookie.
func (m *Manager) Clear(w http.ResponseWriter, r *http.Request) {
	if claims := m.Load(r); claims != nil && m.Revoker != nil && claims.ID != "" {
		if err := m.Revoker.Revoke(r.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
			slog.Error("failed to revoke token", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// Middleware loads the session into the request context. It never rejects a
// request; handlers decide what an absent identity means.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims := m.Load(r); claims != nil {
			r = r.WithContext(WithClaims(r.Context(), claims))
		}
		next.ServeHTTP(w, r)
	})
}

func tokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := r.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}

type contextKey string

const claimsKey contextKey = "claims"

// WithClaims returns ctx carrying claims.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// Claims returns the session claims from ctx, or nil.
func Claims(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}

// Identity returns the session identity from ctx, or nil.
func Identity(ctx context.Context) *model.Identity {
	if claims := Claims(ctx); claims != nil {
		return claims.Identity()
	}
	return nil
}
