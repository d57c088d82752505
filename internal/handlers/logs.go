package handlers

import (
	"net/http"
	"strings"

	"threatconsole/internal/gateway"
	"threatconsole/internal/listing"
	"threatconsole/internal/middleware"
	"threatconsole/internal/models"
	"threatconsole/internal/policy"
	"threatconsole/internal/risk"
)

const viewLogs = "logs"

type LogScope string

const (
	ScopeMine LogScope = "mine"
	ScopeUser LogScope = "user"
	ScopeAll  LogScope = "all"
)

var scopeActions = map[LogScope]policy.Action{
	ScopeMine: policy.ActionViewOwnLogs,
	ScopeUser: policy.ActionViewOtherUserLogs,
	ScopeAll:  policy.ActionViewAllLogs,
}

type ScopeOption struct {
	Value LogScope
	Label string
}

// scopesFor lists the log scopes the role may select, narrowest first.
func scopesFor(perms policy.Set) []ScopeOption {
	var out []ScopeOption
	for _, o := range []ScopeOption{
		{ScopeMine, "My Logs"},
		{ScopeUser, "User Logs"},
		{ScopeAll, "All Logs"},
	} {
		if perms.Can(policy.TabLogs, scopeActions[o.Value]) {
			out = append(out, o)
		}
	}
	return out
}

var logSortKeys = map[string]func(models.ActivityLog) string{
	"timestamp": func(l models.ActivityLog) string { return l.Timestamp },
	"action":    func(l models.ActivityLog) string { return l.Action },
	"ipAddress": func(l models.ActivityLog) string { return l.IPAddress },
}

func logSearchFields() []func(models.ActivityLog) string {
	return []func(models.ActivityLog) string{
		logSortKeys["action"],
		logSortKeys["ipAddress"],
		func(l models.ActivityLog) string {
			if l.Subject.Summary == nil {
				return ""
			}
			return l.Subject.Summary.Name + " " + l.Subject.Summary.Email
		},
	}
}

type LogRow struct {
	models.ActivityLog
	Level    risk.Level
	Category risk.Category
}

type LogsHandler struct {
	*Base
	collation listing.Collation
}

func NewLogsHandler(base *Base, collation listing.Collation) *LogsHandler {
	return &LogsHandler{Base: base, collation: collation}
}

func (h *LogsHandler) List(w http.ResponseWriter, r *http.Request) {
	data := h.pageData(r, "Activity Logs", policy.TabLogs)
	data["Scopes"] = scopesFor(middleware.GetPermissions(r))
	h.render(w, "logs.html", data)
}

// Rows loads logs for the requested scope and applies search, risk filter
// and sort.
func (h *LogsHandler) Rows(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	scope := LogScope(q.Get("scope"))
	if scope == "" {
		scope = ScopeMine
	}
	action, ok := scopeActions[scope]
	if !ok {
		h.renderAlert(w, "error", "Unknown log scope")
		return
	}
	if !middleware.GetPermissions(r).Can(policy.TabLogs, action) {
		h.renderAlert(w, "warning", forbiddenMessage(middleware.GetIdentity(r).Role, policy.TabLogs, ""))
		return
	}

	token := h.begin(r, viewLogs)
	logs, err := h.fetch(w, r, scope, q.Get("user_id"))
	if gateway.IsValidation(err) {
		h.renderAlert(w, "error", gateway.MessageOf(err))
		return
	}
	if h.stale(w, r, viewLogs, token) {
		return
	}
	if err != nil {
		h.fail(w, r, policy.TabLogs, err)
		return
	}

	term := strings.TrimSpace(q.Get("q"))
	filter := listing.ParseFilter(q.Get("filter"))
	state := sortStateFromQuery(q.Get("sort"), q.Get("order"), q.Get("toggle"), logSortKeys)

	suspicious, normal := listing.Tally(logs, models.ActivityLog.Score)
	shown := listing.Search(logs, term, logSearchFields()...)
	shown = listing.ByRisk(shown, filter, models.ActivityLog.Score)
	if key, ok := logSortKeys[state.Field]; ok {
		shown = listing.Sort(h.collation, shown, key, state.Order)
	}

	rows := make([]LogRow, 0, len(shown))
	for _, l := range shown {
		rows = append(rows, LogRow{
			ActivityLog: l,
			Level:       risk.Bucket(l.Score()),
			Category:    risk.ClassifyAction(l.Action),
		})
	}

	h.render(w, "logs_list.html", map[string]interface{}{
		"Logs":       rows,
		"Total":      len(logs),
		"Suspicious": suspicious,
		"Normal":     normal,
		"Scope":      scope,
		"UserID":     q.Get("user_id"),
		"Search":     term,
		"Filter":     filter,
		"Sort":       state,
	})
}

func (h *LogsHandler) fetch(w http.ResponseWriter, r *http.Request, scope LogScope, userID string) ([]models.ActivityLog, error) {
	conn := h.conn(w, r)
	switch scope {
	case ScopeUser:
		return conn.UserLogs(r.Context(), userID)
	case ScopeAll:
		return conn.AllLogs(r.Context())
	default:
		return conn.MyLogs(r.Context())
	}
}
