package handlers

import (
	"context"
	"net/http"

	"golang.org/x/sync/errgroup"

	"threatconsole/internal/gateway"
	"threatconsole/internal/middleware"
	"threatconsole/internal/policy"
)

type DashboardHandler struct {
	*Base
}

func NewDashboardHandler(base *Base) *DashboardHandler {
	return &DashboardHandler{Base: base}
}

// StatCard is one header counter. Value is nil when the role may not see it
// or the upstream call failed.
type StatCard struct {
	Label string
	Icon  string
	Tone  string
	Value *int
}

type DashboardStats struct {
	TotalUsers   StatCard
	FlaggedUsers StatCard
	TotalLogs    StatCard
}

// Stats renders the header stat cards. The counters are fetched
// concurrently; one failing leaves only that card blank.
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	perms := middleware.GetPermissions(r)
	conn, settle := h.fanoutConn(r)

	stats := DashboardStats{
		TotalUsers:   StatCard{Label: "Total Users", Icon: "👥"},
		FlaggedUsers: StatCard{Label: "Flagged Users", Icon: "🚨", Tone: "warning"},
		TotalLogs:    StatCard{Label: "Total Logs", Icon: "📊", Tone: "info"},
	}

	g, ctx := errgroup.WithContext(r.Context())
	count := func(card *StatCard, fetch func(context.Context) (int, error)) {
		g.Go(func() error {
			n, err := fetch(ctx)
			if err != nil {
				if gateway.IsUnauthorized(err) {
					return err
				}
				h.log.Debugw("Stat card unavailable", "card", card.Label, "error", err)
				return nil
			}
			card.Value = &n
			return nil
		})
	}

	if perms.CanView(policy.TabUsers) {
		count(&stats.TotalUsers, func(ctx context.Context) (int, error) {
			users, err := conn.AllUsers(ctx)
			return len(users), err
		})
	}
	if perms.CanView(policy.TabFlagged) {
		count(&stats.FlaggedUsers, func(ctx context.Context) (int, error) {
			users, err := conn.FlaggedUsers(ctx)
			return len(users), err
		})
	}
	if perms.Can(policy.TabLogs, policy.ActionViewAllLogs) {
		count(&stats.TotalLogs, conn.TotalLogsCount)
	} else {
		stats.TotalLogs.Label = "My Logs"
		count(&stats.TotalLogs, func(ctx context.Context) (int, error) {
			logs, err := conn.MyLogs(ctx)
			return len(logs), err
		})
	}

	err := g.Wait()
	settle(w)
	if err != nil {
		h.fail(w, r, policy.TabUsers, err)
		return
	}

	h.render(w, "stats.html", map[string]interface{}{
		"Stats": stats,
	})
}
