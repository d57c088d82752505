package middleware

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"threatconsole/internal/auth"
	"threatconsole/internal/policy"
)

type contextKey string

const (
	IdentityContextKey    contextKey = "identity"
	PermissionsContextKey contextKey = "permissions"
)

type AuthMiddleware struct {
	sessions *auth.SessionManager
	log      *zap.SugaredLogger
}

func NewAuthMiddleware(sessions *auth.SessionManager, log *zap.SugaredLogger) *AuthMiddleware {
	return &AuthMiddleware{
		sessions: sessions,
		log:      log,
	}
}

// RedirectToLogin sends the browser to the login page. HTMX requests get an
// HX-Redirect so the whole page navigates instead of a fragment swap.
func RedirectToLogin(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/login")
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := m.sessions.GetIdentity(r)
		if !ok {
			RedirectToLogin(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), IdentityContextKey, id)
		ctx = context.WithValue(ctx, PermissionsContextKey, policy.Permissions(id.Role))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireTab rejects requests for a tab the caller's role cannot see.
func (m *AuthMiddleware) RequireTab(tab policy.Tab) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !GetPermissions(r).CanView(tab) {
				m.deny(w, r, "tab", string(tab))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAction rejects a command the caller's role may not issue on tab.
func (m *AuthMiddleware) RequireAction(tab policy.Tab, action policy.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !GetPermissions(r).Can(tab, action) {
				m.deny(w, r, "action", string(action))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m *AuthMiddleware) deny(w http.ResponseWriter, r *http.Request, kind, name string) {
	id := GetIdentity(r)
	m.log.Warnw("Permission denied", kind, name, "role", id.Role.String(), "user", id.Email, "path", r.URL.Path)
	http.Error(w, "Forbidden", http.StatusForbidden)
}

func GetIdentity(r *http.Request) auth.Identity {
	id, _ := r.Context().Value(IdentityContextKey).(auth.Identity)
	return id
}

// GetPermissions returns the caller's permission set. Outside RequireAuth it
// is the least-privilege set.
func GetPermissions(r *http.Request) policy.Set {
	if s, ok := r.Context().Value(PermissionsContextKey).(policy.Set); ok {
		return s
	}
	return policy.Permissions(policy.RoleUnknown)
}
