package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"threatconsole/internal/middleware"
	"threatconsole/internal/models"
	"threatconsole/internal/policy"
	"threatconsole/internal/risk"
	"threatconsole/internal/services"
)

const viewFlagged = "flagged"

type FlaggedHandler struct {
	*Base
}

func NewFlaggedHandler(base *Base) *FlaggedHandler {
	return &FlaggedHandler{Base: base}
}

type FlaggedCard struct {
	models.User
	Level      risk.Level
	CanUnblock bool
}

func (h *FlaggedHandler) List(w http.ResponseWriter, r *http.Request) {
	h.render(w, "flagged.html", h.pageData(r, "Flagged Users", policy.TabFlagged))
}

func (h *FlaggedHandler) Cards(w http.ResponseWriter, r *http.Request) {
	token := h.begin(r, viewFlagged)
	users, err := h.conn(w, r).FlaggedUsers(r.Context())
	if h.stale(w, r, viewFlagged, token) {
		return
	}
	if err != nil {
		h.fail(w, r, policy.TabFlagged, err)
		return
	}

	canUnblock := middleware.GetPermissions(r).Can(policy.TabFlagged, policy.ActionUnblockUser)
	cards := make([]FlaggedCard, 0, len(users))
	for _, u := range users {
		cards = append(cards, FlaggedCard{
			User:       u,
			Level:      risk.FlagLevel(len(u.RiskNotes)),
			CanUnblock: canUnblock,
		})
	}

	h.render(w, "flagged_list.html", map[string]interface{}{
		"Cards": cards,
	})
}

func (h *FlaggedHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.conn(w, r).Unblock(r.Context(), id); err != nil {
		h.fail(w, r, policy.TabFlagged, err)
		return
	}

	h.logAction(r, services.AuditUnblockUser, "user="+id)
	w.Header().Set("HX-Trigger", "flagged-changed")
	h.renderAlert(w, "success", "User has been unblocked")
}
