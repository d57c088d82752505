package handlers

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"threatconsole/internal/auth"
	"threatconsole/internal/gateway"
	"threatconsole/internal/metrics"
	"threatconsole/internal/middleware"
	"threatconsole/internal/policy"
	"threatconsole/internal/services"
	"threatconsole/internal/session"
	"threatconsole/internal/viewstate"
)

// Base carries what every console handler needs.
type Base struct {
	templates TemplateExecutor
	sessions  *auth.SessionManager
	gateway   *gateway.Gateway
	tracker   *viewstate.Tracker
	audit     *services.AuditService
	log       *zap.SugaredLogger
}

func NewBase(templates TemplateExecutor, sessions *auth.SessionManager, gw *gateway.Gateway, tracker *viewstate.Tracker, audit *services.AuditService, log *zap.SugaredLogger) *Base {
	return &Base{
		templates: templates,
		sessions:  sessions,
		gateway:   gw,
		tracker:   tracker,
		audit:     audit,
		log:       log,
	}
}

// conn binds the gateway to the request's session cookie.
func (b *Base) conn(w http.ResponseWriter, r *http.Request) *gateway.Conn {
	return b.gateway.Bind(b.sessions.Holder(w, r), string(middleware.GetIdentity(r).Role))
}

// fanoutConn is for handlers that call the gateway from several goroutines.
// The credential is copied into a process-local holder; settle must run on
// the request goroutine afterwards to drop the cookie if upstream said 401.
func (b *Base) fanoutConn(r *http.Request) (conn *gateway.Conn, settle func(w http.ResponseWriter)) {
	token, _ := b.sessions.Token(r)
	mem := session.NewMemory(token)
	conn = b.gateway.Bind(mem, string(middleware.GetIdentity(r).Role))
	return conn, func(w http.ResponseWriter) {
		if _, ok := mem.Get(); !ok {
			if err := b.sessions.Clear(w, r); err != nil {
				b.log.Warnw("Failed to clear session", "error", err)
			}
		}
	}
}

func (b *Base) pageData(r *http.Request, title string, tab policy.Tab) map[string]interface{} {
	perms := middleware.GetPermissions(r)
	return map[string]interface{}{
		"Title":      title,
		"ActivePage": string(tab),
		"User":       middleware.GetIdentity(r),
		"Perms":      perms,
		"Nav":        navFor(perms, tab),
	}
}

func (b *Base) render(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := b.templates.ExecuteTemplate(w, name, data); err != nil {
		b.log.Errorw("Template error", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (b *Base) renderAlert(w http.ResponseWriter, alertType, message string) {
	b.render(w, "alert.html", map[string]interface{}{
		"Type":    alertType,
		"Message": message,
	})
}

// begin starts a new request for view and returns its token.
func (b *Base) begin(r *http.Request, view string) string {
	return b.tracker.Begin(middleware.GetIdentity(r).SessionID, view)
}

// stale answers a superseded request with 204 and no swap, so an older
// response never replaces a newer one in the browser.
func (b *Base) stale(w http.ResponseWriter, r *http.Request, view, token string) bool {
	if b.tracker.Current(middleware.GetIdentity(r).SessionID, view, token) {
		return false
	}
	metrics.StaleResponsesTotal.WithLabelValues(view).Inc()
	b.log.Debugw("Discarding superseded response", "view", view, "token", token)
	w.Header().Set("HX-Reswap", "none")
	w.WriteHeader(http.StatusNoContent)
	return true
}

// fail converts a gateway error into what the view shows.
func (b *Base) fail(w http.ResponseWriter, r *http.Request, tab policy.Tab, err error) {
	id := middleware.GetIdentity(r)
	switch gateway.KindOf(err) {
	case gateway.KindUnauthorized:
		b.tracker.Forget(id.SessionID)
		middleware.RedirectToLogin(w, r)
	case gateway.KindForbidden:
		b.renderAlert(w, "warning", forbiddenMessage(id.Role, tab, gateway.MessageOf(err)))
	case gateway.KindNotFound:
		b.render(w, "empty_state.html", map[string]interface{}{
			"Message": "Nothing to show here yet.",
		})
	case gateway.KindValidation:
		b.renderAlert(w, "error", gateway.MessageOf(err))
	default:
		b.log.Warnw("Upstream call failed", "tab", string(tab), "user", id.Email, "error", err)
		b.render(w, "error_retry.html", map[string]interface{}{
			"Message":  retryMessage(err),
			"Method":   strings.ToLower(r.Method),
			"RetryURL": r.URL.RequestURI(),
		})
	}
}

// errorText is the inline message for a view that renders its own error
// state instead of going through fail.
func errorText(tab policy.Tab, r *http.Request, err error) string {
	switch {
	case err == nil:
		return ""
	case gateway.IsForbidden(err):
		return forbiddenMessage(middleware.GetIdentity(r).Role, tab, gateway.MessageOf(err))
	case gateway.IsNotFound(err):
		return "Nothing to show here yet."
	default:
		return retryMessage(err)
	}
}

func forbiddenMessage(role policy.Role, tab policy.Tab, upstream string) string {
	msg := fmt.Sprintf("Your role (%s) is not allowed to %s.", role, tabInfos[tab].Denied)
	if upstream != "" {
		msg += " " + upstream
	}
	return msg
}

func retryMessage(err error) string {
	if gateway.KindOf(err) == gateway.KindNetwork {
		return "The server could not be reached. Please try again."
	}
	if msg := gateway.MessageOf(err); msg != "" {
		return msg
	}
	return "Something went wrong while loading data. Please try again."
}

func (b *Base) logAction(r *http.Request, action, details string) {
	actor := middleware.GetIdentity(r).Email
	if err := b.audit.LogAction(actor, action, details, getClientIP(r)); err != nil {
		b.log.Warnw("Failed to record audit log", "action", action, "error", err)
	}
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// getClientIP trusts only RemoteAddr; proxy headers are folded into it by
// chi's RealIP middleware before any handler runs.
func getClientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
