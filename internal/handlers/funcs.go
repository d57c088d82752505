package handlers

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"threatconsole/internal/listing"
	"threatconsole/internal/models"
	"threatconsole/internal/policy"
	"threatconsole/internal/risk"
)

// FuncMap is the helper set available to every console template.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"riskLevel":     risk.Bucket,
		"riskPercent":   risk.Percent,
		"suspicious":    risk.Suspicious,
		"actionKind":    risk.ClassifyAction,
		"formatTime":    formatTime,
		"formatDate":    formatDate,
		"can":           can,
		"roleClass":     roleClass,
		"join":          strings.Join,
		"dict":          dict,
		"derefInt":      derefInt,
		"add":           func(a, b int) int { return a + b },
		"sortIndicator": sortIndicator,
	}
}

// formatTime renders an upstream timestamp in the console's format.
func formatTime(ts string) string {
	t, ok := models.ParseTimestamp(ts)
	if !ok {
		if ts == "" {
			return "Unknown"
		}
		return "Invalid date"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "Unknown"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func can(perms policy.Set, tab, action string) bool {
	return perms.Can(policy.Tab(tab), policy.Action(action))
}

func roleClass(role string) string {
	return "role-" + strings.ToLower(policy.ParseRole(role).String())
}

func derefInt(p *int) string {
	if p == nil {
		return "–"
	}
	return fmt.Sprint(*p)
}

// sortIndicator is the arrow shown next to a column header.
func sortIndicator(field string, state listing.SortState) string {
	switch {
	case state.Field != field:
		return "↕"
	case state.Order == listing.Desc:
		return "▼"
	default:
		return "▲"
	}
}

func dict(values ...interface{}) map[string]interface{} {
	if len(values)%2 != 0 {
		return nil
	}
	d := make(map[string]interface{}, len(values)/2)
	for i := 0; i < len(values); i += 2 {
		key, ok := values[i].(string)
		if !ok {
			return nil
		}
		d[key] = values[i+1]
	}
	return d
}
