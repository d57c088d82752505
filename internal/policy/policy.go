// Package policy decides which console tabs and actions a role may use.
//
// The mapping is held in two tables (tab → roles, action → roles) so it can
// be checked exhaustively; handlers and templates only ever ask this package.
package policy

import "strings"

type Role string

const (
	RoleIntern  Role = "Intern"
	RoleAnalyst Role = "Analyst"
	RoleManager Role = "Manager"
	RoleAdmin   Role = "Admin"
	// RoleUnknown is what any unrecognised or missing role resolves to.
	RoleUnknown Role = ""
)

// Roles lists the known roles from least to most privileged.
var Roles = []Role{RoleIntern, RoleAnalyst, RoleManager, RoleAdmin}

// ParseRole maps a role string from the user API onto a known role.
func ParseRole(s string) Role {
	s = strings.TrimSpace(s)
	for _, r := range Roles {
		if strings.EqualFold(s, string(r)) {
			return r
		}
	}
	return RoleUnknown
}

// Known reports whether r is one of Roles.
func (r Role) Known() bool {
	for _, k := range Roles {
		if r == k {
			return true
		}
	}
	return false
}

func (r Role) String() string {
	if !r.Known() {
		return "Unknown"
	}
	return string(r)
}

type Tab string

const (
	TabUsers      Tab = "users"
	TabFlagged    Tab = "flagged"
	TabLogs       Tab = "logs"
	TabDownloads  Tab = "downloads"
	TabBehavior   Tab = "behavior"
	TabAIAnalysis Tab = "ai-analysis"
	TabRegister   Tab = "register"
)

// Tabs is the fixed tab universe in display order.
var Tabs = []Tab{TabUsers, TabFlagged, TabLogs, TabDownloads, TabBehavior, TabAIAnalysis, TabRegister}

type Action string

const (
	ActionBlockUser             Action = "block-user"
	ActionUnblockUser           Action = "unblock-user"
	ActionViewOwnLogs           Action = "view-own-logs"
	ActionViewOtherUserLogs     Action = "view-other-user-logs"
	ActionViewAllLogs           Action = "view-all-logs"
	ActionDownloadFile          Action = "download-file"
	ActionBehaviorMonitor       Action = "behavior-monitor"
	ActionSendWeeklySummary     Action = "send-weekly-summary"
	ActionTriggerWeeklyAnalysis Action = "trigger-weekly-analysis"
	ActionAnalyzeUser           Action = "analyze-user"
	ActionRegisterUser          Action = "register-user"
)

type roleSet map[Role]struct{}

func roles(rs ...Role) roleSet {
	s := make(roleSet, len(rs))
	for _, r := range rs {
		s[r] = struct{}{}
	}
	return s
}

func (s roleSet) has(r Role) bool {
	_, ok := s[r]
	return ok
}

var (
	everyone    = roles(RoleIntern, RoleAnalyst, RoleManager, RoleAdmin)
	staff       = roles(RoleAnalyst, RoleManager, RoleAdmin)
	supervisors = roles(RoleManager, RoleAdmin)
	adminsOnly  = roles(RoleAdmin)
)

var tabRoles = map[Tab]roleSet{
	TabUsers:      staff,
	TabFlagged:    supervisors,
	TabLogs:       everyone,
	TabDownloads:  everyone,
	TabBehavior:   adminsOnly,
	TabAIAnalysis: staff,
	TabRegister:   supervisors,
}

// selfScoped tabs stay visible when the role could not be established.
var selfScoped = map[Tab]bool{
	TabLogs:      true,
	TabDownloads: true,
}

type actionRule struct {
	tabs  []Tab
	roles roleSet
}

var actionRules = map[Action]actionRule{
	ActionBlockUser:             {tabs: []Tab{TabUsers}, roles: supervisors},
	ActionUnblockUser:           {tabs: []Tab{TabUsers, TabFlagged}, roles: supervisors},
	ActionViewOwnLogs:           {tabs: []Tab{TabLogs}, roles: everyone},
	ActionViewOtherUserLogs:     {tabs: []Tab{TabLogs}, roles: supervisors},
	ActionViewAllLogs:           {tabs: []Tab{TabLogs}, roles: adminsOnly},
	ActionDownloadFile:          {tabs: []Tab{TabDownloads}, roles: everyone},
	ActionBehaviorMonitor:       {tabs: []Tab{TabBehavior}, roles: adminsOnly},
	ActionSendWeeklySummary:     {tabs: []Tab{TabBehavior}, roles: adminsOnly},
	ActionTriggerWeeklyAnalysis: {tabs: []Tab{TabAIAnalysis}, roles: adminsOnly},
	ActionAnalyzeUser:           {tabs: []Tab{TabAIAnalysis}, roles: supervisors},
	ActionRegisterUser:          {tabs: []Tab{TabRegister}, roles: supervisors},
}

// Actions lists every defined action in a stable order.
var Actions = []Action{
	ActionBlockUser,
	ActionUnblockUser,
	ActionViewOwnLogs,
	ActionViewOtherUserLogs,
	ActionViewAllLogs,
	ActionDownloadFile,
	ActionBehaviorMonitor,
	ActionSendWeeklySummary,
	ActionTriggerWeeklyAnalysis,
	ActionAnalyzeUser,
	ActionRegisterUser,
}

// CanView reports whether the tab is visible to the role.
func CanView(r Role, t Tab) bool {
	if !r.Known() {
		return selfScoped[t]
	}
	allowed, ok := tabRoles[t]
	return ok && allowed.has(r)
}

// Can reports whether the role may perform the action. Unknown roles get
// no actions at all.
func Can(r Role, a Action) bool {
	rule, ok := actionRules[a]
	if !ok || !r.Known() {
		return false
	}
	return rule.roles.has(r)
}

// VisibleTabs returns the tabs the role may open, in display order.
func VisibleTabs(r Role) []Tab {
	var out []Tab
	for _, t := range Tabs {
		if CanView(r, t) {
			out = append(out, t)
		}
	}
	return out
}

// ActionsFor returns the actions permitted to the role inside one tab.
func ActionsFor(r Role, t Tab) []Action {
	if !CanView(r, t) {
		return nil
	}
	var out []Action
	for _, a := range Actions {
		if !Can(r, a) {
			continue
		}
		for _, owner := range actionRules[a].tabs {
			if owner == t {
				out = append(out, a)
				break
			}
		}
	}
	return out
}

// Set is the full permission picture for one role, handed to templates.
type Set struct {
	Role    Role
	Tabs    []Tab
	Actions map[Tab][]Action
}

// Permissions derives the role's Set. It is recomputed whenever the role
// changes; nothing caches it across sessions.
func Permissions(r Role) Set {
	s := Set{Role: r, Tabs: VisibleTabs(r), Actions: make(map[Tab][]Action)}
	for _, t := range s.Tabs {
		if acts := ActionsFor(r, t); len(acts) > 0 {
			s.Actions[t] = acts
		}
	}
	return s
}

func (s Set) CanView(t Tab) bool {
	for _, v := range s.Tabs {
		if v == t {
			return true
		}
	}
	return false
}

func (s Set) Can(t Tab, a Action) bool {
	for _, v := range s.Actions[t] {
		if v == a {
			return true
		}
	}
	return false
}

// Landing is the first tab the role should see, or "" if none.
func (s Set) Landing() Tab {
	if len(s.Tabs) == 0 {
		return ""
	}
	return s.Tabs[0]
}

// CanBlockTarget reports whether actor may block a user holding target.
// Admins are never blockable.
func CanBlockTarget(actor, target Role) bool {
	return Can(actor, ActionBlockUser) && target != RoleAdmin
}

// AssignableRoles lists the roles actor may give to a newly registered user.
func AssignableRoles(actor Role) []Role {
	if !Can(actor, ActionRegisterUser) {
		return nil
	}
	if actor == RoleAdmin {
		return append([]Role(nil), Roles...)
	}
	var out []Role
	for _, r := range Roles {
		if r != RoleAdmin {
			out = append(out, r)
		}
	}
	return out
}

// CanAssign reports whether actor may register a user with role target.
func CanAssign(actor, target Role) bool {
	for _, r := range AssignableRoles(actor) {
		if r == target {
			return true
		}
	}
	return false
}
