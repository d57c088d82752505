package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"threatconsole/internal/auth"
	"threatconsole/internal/gateway"
	"threatconsole/internal/middleware"
	"threatconsole/internal/policy"
	"threatconsole/internal/services"
	"threatconsole/internal/session"
)

type AuthHandler struct {
	*Base
}

func NewAuthHandler(base *Base) *AuthHandler {
	return &AuthHandler{Base: base}
}

func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	// If already logged in, go to the landing tab
	if id, ok := h.sessions.GetIdentity(r); ok {
		http.Redirect(w, r, landingPath(policy.Permissions(id.Role)), http.StatusSeeOther)
		return
	}

	data := map[string]interface{}{
		"Title": "Login",
	}
	h.render(w, "login.html", data)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderLoginError(w, r, "", "Invalid form data")
		return
	}

	email := r.FormValue("email")
	password := r.FormValue("password")

	conn := h.gateway.Bind(nil, "")
	token, err := conn.Login(r.Context(), email, password)
	if err != nil {
		if !gateway.IsValidation(err) {
			if lerr := h.audit.LogAction(email, services.AuditLoginFailed, loginFailureDetail(err), getClientIP(r)); lerr != nil {
				h.log.Warnw("Failed to record audit log", "error", lerr)
			}
		}
		h.renderLoginError(w, r, email, loginErrorMessage(err))
		return
	}

	// The role comes from the profile, never from the login form. A failed
	// profile fetch leaves the role unknown, which is least privilege.
	profile, err := h.gateway.Bind(session.NewMemory(token), "").Profile(r.Context())
	if err != nil {
		h.log.Warnw("Profile fetch after login failed", "email", email, "error", err)
		if gateway.IsUnauthorized(err) {
			h.renderLoginError(w, r, email, "Your session could not be established. Please sign in again.")
			return
		}
		profile.Email = email
	}

	id := auth.Identity{
		UserID:    profile.ID,
		Name:      profile.Name,
		Email:     profile.Email,
		Role:      policy.ParseRole(profile.Role),
		SessionID: uuid.NewString(),
	}
	if id.Email == "" {
		id.Email = email
	}
	if err := h.sessions.SetIdentity(w, r, token, id); err != nil {
		h.log.Errorw("Session error", "error", err)
		h.renderLoginError(w, r, email, "Failed to create session")
		return
	}

	if err := h.audit.LogAction(id.Email, services.AuditLogin, "role="+id.Role.String(), getClientIP(r)); err != nil {
		h.log.Warnw("Failed to record audit log", "error", err)
	}
	h.log.Infow("User signed in", "user", id.Email, "role", id.Role.String())

	dest := landingPath(policy.Permissions(id.Role))
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", dest)
		return
	}
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r)
	h.logAction(r, services.AuditLogout, "")
	h.tracker.Forget(id.SessionID)

	if err := h.sessions.Clear(w, r); err != nil {
		h.log.Warnw("Failed to clear session", "error", err)
	}

	if isHTMX(r) {
		w.Header().Set("HX-Redirect", "/login")
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Home sends the user to the first tab their role can see.
func (h *AuthHandler) Home(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, landingPath(middleware.GetPermissions(r)), http.StatusSeeOther)
}

func (h *AuthHandler) renderLoginError(w http.ResponseWriter, r *http.Request, email, message string) {
	if isHTMX(r) {
		h.renderAlert(w, "error", message)
		return
	}

	data := map[string]interface{}{
		"Title": "Login",
		"Error": message,
		"Email": email,
	}
	h.render(w, "login.html", data)
}

func loginErrorMessage(err error) string {
	switch gateway.KindOf(err) {
	case gateway.KindValidation:
		return gateway.MessageOf(err)
	case gateway.KindNetwork:
		return "The login service is unreachable. Please try again."
	}
	if msg := gateway.MessageOf(err); msg != "" {
		return msg
	}
	return "Login failed. Please check your credentials."
}

func loginFailureDetail(err error) string {
	return "reason=" + gateway.KindOf(err).String()
}
