package handlers

import (
	"net/http"

	"golang.org/x/sync/errgroup"

	"threatconsole/internal/gateway"
	"threatconsole/internal/middleware"
	"threatconsole/internal/models"
	"threatconsole/internal/policy"
	"threatconsole/internal/risk"
	"threatconsole/internal/services"
	"threatconsole/internal/viewstate"
)

const topRiskUsers = 6

type AIHandler struct {
	*Base
}

func NewAIHandler(base *Base) *AIHandler {
	return &AIHandler{Base: base}
}

// Dashboard loads engine status, insights and, for roles that may analyze,
// the user picker, all at once.
func (h *AIHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	perms := middleware.GetPermissions(r)
	conn, settle := h.fanoutConn(r)

	var (
		status    viewstate.View[models.AIStatus]
		insights  viewstate.View[models.AIInsights]
		users     []models.User
		statusErr error
		insErr    error
	)

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		res, err := conn.Status(ctx)
		status, statusErr = toView(res, err)
		return authOnly(err)
	})
	g.Go(func() error {
		res, err := conn.Insights(ctx)
		insights, insErr = toView(res, err)
		return authOnly(err)
	})
	if perms.Can(policy.TabAIAnalysis, policy.ActionAnalyzeUser) {
		g.Go(func() error {
			list, err := conn.AllUsers(ctx)
			if err != nil {
				h.log.Debugw("User picker unavailable", "error", err)
			}
			users = list
			return authOnly(err)
		})
	}
	err := g.Wait()
	settle(w)
	if err != nil {
		h.fail(w, r, policy.TabAIAnalysis, err)
		return
	}

	data := h.pageData(r, "AI Analysis", policy.TabAIAnalysis)
	data["Status"] = status
	data["StatusError"] = errorText(policy.TabAIAnalysis, r, statusErr)
	data["Insights"] = insights
	data["InsightsError"] = errorText(policy.TabAIAnalysis, r, insErr)
	data["TopUsers"] = insights.Data.TopUsers(topRiskUsers)
	data["Users"] = users
	h.render(w, "ai.html", data)
}

func (h *AIHandler) TriggerWeekly(w http.ResponseWriter, r *http.Request) {
	msg, err := h.conn(w, r).TriggerWeekly(r.Context())
	if err != nil {
		h.fail(w, r, policy.TabAIAnalysis, err)
		return
	}
	if msg == "" {
		msg = "Weekly analysis triggered successfully!"
	}

	h.logAction(r, services.AuditTriggerWeekly, "")
	h.renderAlert(w, "success", msg)
}

func (h *AIHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderAlert(w, "error", "Invalid form data")
		return
	}
	userID := r.FormValue("user_id")

	analysis, err := h.conn(w, r).AnalyzeUser(r.Context(), userID)
	if err != nil {
		h.fail(w, r, policy.TabAIAnalysis, err)
		return
	}

	h.logAction(r, services.AuditAnalyzeUser, "user="+userID)
	h.render(w, "analysis_result.html", map[string]interface{}{
		"Analysis": analysis,
		"Level":    risk.Bucket(analysis.RiskScore),
	})
}

func toView[T any](res gateway.Result[T], err error) (viewstate.View[T], error) {
	if err != nil {
		return viewstate.Failed[T](err, ""), err
	}
	return viewstate.Succeeded(res.Value, res.Provenance, ""), nil
}

// authOnly lets only a 401 abort a fan-out; other failures are shown per
// panel.
func authOnly(err error) error {
	if gateway.IsUnauthorized(err) {
		return err
	}
	return nil
}

