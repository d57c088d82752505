package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"threatconsole/internal/gateway"
	"threatconsole/internal/listing"
	"threatconsole/internal/middleware"
	"threatconsole/internal/models"
	"threatconsole/internal/policy"
	"threatconsole/internal/risk"
	"threatconsole/internal/services"
)

// CatalogFile is a file offered on the downloads tab.
type CatalogFile struct {
	Name string
	Size string
}

var downloadCatalog = []CatalogFile{
	{Name: "security_report.pdf", Size: "2.5 MB"},
	{Name: "user_activity_logs.csv", Size: "1.8 MB"},
	{Name: "threat_analysis.xlsx", Size: "3.2 MB"},
	{Name: "employee_directory.pdf", Size: "1.0 MB"},
}

func catalogFile(name string) (CatalogFile, bool) {
	for _, f := range downloadCatalog {
		if f.Name == name {
			return f, true
		}
	}
	return CatalogFile{}, false
}

type DownloadRow struct {
	models.Download
	Level risk.Level
}

type DownloadsHandler struct {
	*Base
	downloads *services.DownloadService
}

func NewDownloadsHandler(base *Base, downloads *services.DownloadService) *DownloadsHandler {
	return &DownloadsHandler{Base: base, downloads: downloads}
}

func (h *DownloadsHandler) List(w http.ResponseWriter, r *http.Request) {
	data := h.pageData(r, "File Downloads", policy.TabDownloads)
	data["Catalog"] = downloadCatalog
	h.render(w, "downloads.html", data)
}

// History renders the caller's own download history.
func (h *DownloadsHandler) History(w http.ResponseWriter, r *http.Request) {
	items, err := h.downloads.ListByActor(middleware.GetIdentity(r).Email)
	if err != nil {
		h.log.Errorw("Failed to list downloads", "error", err)
		h.renderAlert(w, "error", "Failed to load download history. Please try again.")
		return
	}

	q := r.URL.Query()
	term := strings.TrimSpace(q.Get("q"))
	filter := listing.ParseFilter(q.Get("filter"))
	score := func(d models.Download) float64 { return d.RiskScore }

	shown := listing.Search(items, term, func(d models.Download) string { return d.FileName })
	shown = listing.ByRisk(shown, filter, score)

	rows := make([]DownloadRow, 0, len(shown))
	for _, d := range shown {
		rows = append(rows, DownloadRow{Download: d, Level: risk.Bucket(d.RiskScore)})
	}

	h.render(w, "downloads_list.html", map[string]interface{}{
		"Downloads": rows,
		"Total":     len(items),
		"Search":    term,
		"Filter":    filter,
	})
}

// Create asks the user API whether the caller may download now and records
// the outcome either way.
func (h *DownloadsHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderAlert(w, "error", "Invalid form data")
		return
	}
	file, ok := catalogFile(r.FormValue("file_name"))
	if !ok {
		h.renderAlert(w, "error", "Unknown file")
		return
	}
	actor := middleware.GetIdentity(r).Email

	check, err := h.conn(w, r).CheckDownload(r.Context())
	if gateway.IsForbidden(err) {
		h.record(w, r, actor, file, check.RiskScore, models.DownloadBlocked)
		h.renderAlert(w, "error", "Download blocked due to suspicious behavior. Please try again later.")
		return
	}
	if err != nil {
		h.fail(w, r, policy.TabDownloads, err)
		return
	}

	if risk.Suspicious(check.RiskScore) {
		h.record(w, r, actor, file, check.RiskScore, models.DownloadBlocked)
		h.renderAlert(w, "error", "Download blocked due to high risk score. Please contact administrator.")
		return
	}

	d := h.record(w, r, actor, file, check.RiskScore, models.DownloadCompleted)
	if d == nil {
		h.renderAlert(w, "error", "Failed to download file. Please try again.")
		return
	}
	h.render(w, "alert.html", map[string]interface{}{
		"Type":     "success",
		"Message":  file.Name + " is ready.",
		"Link":     fmt.Sprintf("/downloads/%d/file", d.ID),
		"LinkText": "Save file",
	})
}

func (h *DownloadsHandler) record(w http.ResponseWriter, r *http.Request, actor string, file CatalogFile, score float64, status string) *models.Download {
	d, err := h.downloads.Record(actor, file.Name, file.Size, score, status)
	if err != nil {
		h.log.Errorw("Failed to record download", "file", file.Name, "error", err)
		return nil
	}
	w.Header().Set("HX-Trigger", "downloads-changed")

	action := services.AuditDownload
	if status == models.DownloadBlocked {
		action = services.AuditDownloadDenied
	}
	h.logAction(r, action, fmt.Sprintf("file=%s risk=%s", file.Name, risk.Percent(score)))
	return d
}

// File serves the generated content of a completed download.
func (h *DownloadsHandler) File(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	d, err := h.downloads.Get(middleware.GetIdentity(r).Email, id)
	if err != nil {
		if !errors.Is(err, services.ErrDownloadNotFound) {
			h.log.Errorw("Failed to get download", "id", id, "error", err)
		}
		http.NotFound(w, r)
		return
	}
	if d.Status != models.DownloadCompleted {
		http.Error(w, "Download was blocked", http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", d.FileName))
	fmt.Fprintf(w, "This is a sample file content for %s\n", d.FileName)
}
