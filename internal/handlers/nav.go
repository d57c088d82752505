package handlers

import "threatconsole/internal/policy"

type tabInfo struct {
	Label string
	Icon  string
	Path  string
	// Denied completes "Your role (X) is not allowed to ...".
	Denied string
}

var tabInfos = map[policy.Tab]tabInfo{
	policy.TabUsers:      {Label: "Users", Icon: "👥", Path: "/users", Denied: "manage users"},
	policy.TabFlagged:    {Label: "Flagged Users", Icon: "🚨", Path: "/flagged", Denied: "review flagged users"},
	policy.TabLogs:       {Label: "Activity Logs", Icon: "📊", Path: "/logs", Denied: "view these activity logs"},
	policy.TabDownloads:  {Label: "File Downloads", Icon: "📁", Path: "/downloads", Denied: "download files"},
	policy.TabBehavior:   {Label: "Behavior Monitor", Icon: "🔍", Path: "/behavior", Denied: "monitor user behavior"},
	policy.TabAIAnalysis: {Label: "AI Analysis", Icon: "🤖", Path: "/ai", Denied: "use AI analysis"},
	policy.TabRegister:   {Label: "Register User", Icon: "➕", Path: "/register", Denied: "register users"},
}

type NavTab struct {
	ID     string
	Label  string
	Icon   string
	Path   string
	Active bool
}

func navFor(perms policy.Set, active policy.Tab) []NavTab {
	tabs := make([]NavTab, 0, len(perms.Tabs))
	for _, t := range perms.Tabs {
		info := tabInfos[t]
		tabs = append(tabs, NavTab{
			ID:     string(t),
			Label:  info.Label,
			Icon:   info.Icon,
			Path:   info.Path,
			Active: t == active,
		})
	}
	return tabs
}

// landingPath is where a freshly signed-in user is sent.
func landingPath(perms policy.Set) string {
	if t := perms.Landing(); t != "" {
		return tabInfos[t].Path
	}
	return "/logs"
}
