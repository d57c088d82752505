package handlers

import (
	"bytes"
	"net/http"

	"threatconsole/internal/gateway"
	"threatconsole/internal/models"
	"threatconsole/internal/policy"
	"threatconsole/internal/services"
	"threatconsole/internal/viewstate"
)

const auditPageSize = 50

type BehaviorHandler struct {
	*Base
	export *services.ExportService
}

func NewBehaviorHandler(base *Base, export *services.ExportService) *BehaviorHandler {
	return &BehaviorHandler{Base: base, export: export}
}

func (h *BehaviorHandler) Monitor(w http.ResponseWriter, r *http.Request) {
	summary, err := h.conn(w, r).BehaviorSummary(r.Context())
	if gateway.IsUnauthorized(err) {
		h.fail(w, r, policy.TabBehavior, err)
		return
	}

	var view viewstate.View[models.BehaviorSummary]
	if err != nil {
		h.log.Warnw("Failed to load behavior summary", "error", err)
		view = viewstate.Failed[models.BehaviorSummary](err, "")
	} else {
		view = viewstate.Succeeded(summary, gateway.ProvenancePrimary, "")
	}

	audit, aerr := h.audit.GetAuditLogs(auditPageSize)
	if aerr != nil {
		h.log.Errorw("Failed to list audit logs", "error", aerr)
	}

	data := h.pageData(r, "Behavior Monitor", policy.TabBehavior)
	data["Summary"] = view
	data["SummaryError"] = errorText(policy.TabBehavior, r, err)
	data["AuditLogs"] = audit
	h.render(w, "behavior.html", data)
}

func (h *BehaviorHandler) SendWeeklySummary(w http.ResponseWriter, r *http.Request) {
	sent, err := h.conn(w, r).SendWeeklySummary(r.Context())
	if err != nil {
		h.fail(w, r, policy.TabBehavior, err)
		return
	}
	if !sent {
		h.renderAlert(w, "error", "Failed to send weekly summary email.")
		return
	}

	h.logAction(r, services.AuditWeeklySummary, "")
	h.renderAlert(w, "success", "Weekly summary email sent successfully!")
}

// ExportAudit streams the console's audit trail and download history.
func (h *BehaviorHandler) ExportAudit(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.export.Export(&buf, 10000); err != nil {
		h.log.Errorw("Audit export failed", "error", err)
		http.Error(w, "Failed to export audit logs", http.StatusInternalServerError)
		return
	}
	h.logAction(r, services.AuditExport, "")

	w.Header().Set("Content-Type", "application/gzip")
	w.Header().Set("Content-Disposition", "attachment; filename="+h.export.FileName())
	w.Write(buf.Bytes())
}
