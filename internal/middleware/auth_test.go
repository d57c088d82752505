package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"threatconsole/internal/auth"
	"threatconsole/internal/policy"
)

func newSessions(t *testing.T) *auth.SessionManager {
	t.Helper()
	m, err := auth.NewSessionManager("0123456789abcdef0123456789abcdef", 3600, false)
	require.NoError(t, err)
	return m
}

// loginAs returns a request carrying a session cookie for role.
func loginAs(t *testing.T, m *auth.SessionManager, method, path string, role policy.Role) *http.Request {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, m.SetIdentity(rec, httptest.NewRequest(http.MethodGet, "/", nil), "tok", auth.Identity{
		UserID: "u1", Email: "ann@corp.io", Role: role, SessionID: "s1",
	}))
	req := httptest.NewRequest(method, path, nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func newRouter(t *testing.T, m *auth.SessionManager) chi.Router {
	am := NewAuthMiddleware(m, zap.NewNop().Sugar())
	ok := func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(GetIdentity(r).Role.String()))
	}

	r := chi.NewRouter()
	r.Use(RequestLogger(zap.NewNop().Sugar()))
	r.Group(func(r chi.Router) {
		r.Use(am.RequireAuth)
		r.With(am.RequireTab(policy.TabBehavior)).Get("/behavior", ok)
		r.With(am.RequireTab(policy.TabLogs)).Get("/logs", ok)
		r.With(am.RequireAction(policy.TabUsers, policy.ActionBlockUser)).Post("/users/{id}/block", ok)
	})
	return r
}

func TestRequireAuth_RedirectsAnonymous(t *testing.T) {
	r := newRouter(t, newSessions(t))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/logs", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	req := httptest.NewRequest(http.MethodGet, "/logs", nil)
	req.Header.Set("HX-Request", "true")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("HX-Redirect"))
}

func TestRequireTab(t *testing.T) {
	m := newSessions(t)
	r := newRouter(t, m)

	cases := []struct {
		role   policy.Role
		path   string
		status int
	}{
		{policy.RoleAdmin, "/behavior", http.StatusOK},
		{policy.RoleManager, "/behavior", http.StatusForbidden},
		{policy.RoleIntern, "/logs", http.StatusOK},
		{policy.Role("Superuser"), "/logs", http.StatusOK},
		{policy.Role("Superuser"), "/behavior", http.StatusForbidden},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, loginAs(t, m, http.MethodGet, tc.path, tc.role))
		assert.Equal(t, tc.status, rec.Code, "%s %s", tc.role, tc.path)
	}
}

func TestRequireAction(t *testing.T) {
	m := newSessions(t)
	r := newRouter(t, m)

	for role, want := range map[policy.Role]int{
		policy.RoleAdmin:   http.StatusOK,
		policy.RoleManager: http.StatusOK,
		policy.RoleAnalyst: http.StatusForbidden,
		policy.RoleIntern:  http.StatusForbidden,
	} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, loginAs(t, m, http.MethodPost, "/users/u2/block", role))
		assert.Equal(t, want, rec.Code, role)
	}
}

func TestGetPermissions_DefaultsToLeastPrivilege(t *testing.T) {
	s := GetPermissions(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []policy.Tab{policy.TabLogs, policy.TabDownloads}, s.Tabs)
	assert.Empty(t, s.Actions)
}
