package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"threatconsole/internal/listing"
	"threatconsole/internal/middleware"
	"threatconsole/internal/models"
	"threatconsole/internal/policy"
	"threatconsole/internal/services"
)

const viewUsers = "users"

type UsersHandler struct {
	*Base
	collation listing.Collation
}

func NewUsersHandler(base *Base, collation listing.Collation) *UsersHandler {
	return &UsersHandler{Base: base, collation: collation}
}

// userSortKeys are the sortable columns of the users table.
var userSortKeys = map[string]func(models.User) string{
	"name":   func(u models.User) string { return u.Name },
	"email":  func(u models.User) string { return u.Email },
	"role":   func(u models.User) string { return u.Role },
	"status": func(u models.User) string { return u.Status() },
}

func userSearchFields() []func(models.User) string {
	return []func(models.User) string{userSortKeys["name"], userSortKeys["email"], userSortKeys["role"]}
}

type UserRow struct {
	models.User
	CanBlock   bool
	CanUnblock bool
}

func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	data := h.pageData(r, "Users", policy.TabUsers)
	data["Sort"] = listing.SortState{Field: "name", Order: listing.Asc}
	h.render(w, "users.html", data)
}

// Table renders the searchable, sortable users table.
func (h *UsersHandler) Table(w http.ResponseWriter, r *http.Request) {
	token := h.begin(r, viewUsers)
	users, err := h.conn(w, r).AllUsers(r.Context())
	if h.stale(w, r, viewUsers, token) {
		return
	}
	if err != nil {
		h.fail(w, r, policy.TabUsers, err)
		return
	}

	q := r.URL.Query()
	term := strings.TrimSpace(q.Get("q"))
	state := sortStateFromQuery(q.Get("sort"), q.Get("order"), q.Get("toggle"), userSortKeys)

	shown := listing.Search(users, term, userSearchFields()...)
	if key, ok := userSortKeys[state.Field]; ok {
		shown = listing.Sort(h.collation, shown, key, state.Order)
	}

	actor := middleware.GetIdentity(r).Role
	perms := middleware.GetPermissions(r)
	rows := make([]UserRow, 0, len(shown))
	for _, u := range shown {
		rows = append(rows, UserRow{
			User:       u,
			CanBlock:   !u.IsBlocked && policy.CanBlockTarget(actor, policy.ParseRole(u.Role)),
			CanUnblock: u.IsBlocked && perms.Can(policy.TabUsers, policy.ActionUnblockUser),
		})
	}

	h.render(w, "users_table.html", map[string]interface{}{
		"Users":  rows,
		"Total":  len(users),
		"Search": term,
		"Sort":   state,
	})
}

func (h *UsersHandler) Block(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	conn := h.conn(w, r)

	// The target's role decides whether blocking is allowed at all, so look
	// it up instead of trusting the form.
	users, err := conn.AllUsers(r.Context())
	if err != nil {
		h.fail(w, r, policy.TabUsers, err)
		return
	}
	target, ok := findUser(users, id)
	if !ok {
		h.renderAlert(w, "error", "User not found")
		return
	}
	if !policy.CanBlockTarget(middleware.GetIdentity(r).Role, policy.ParseRole(target.Role)) {
		h.renderAlert(w, "error", "Admin users cannot be blocked")
		return
	}

	if err := conn.Block(r.Context(), id); err != nil {
		h.fail(w, r, policy.TabUsers, err)
		return
	}

	h.logAction(r, services.AuditBlockUser, "user="+target.Email)
	w.Header().Set("HX-Trigger", "users-changed")
	h.renderAlert(w, "success", target.Name+" has been blocked")
}

func (h *UsersHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.conn(w, r).Unblock(r.Context(), id); err != nil {
		h.fail(w, r, policy.TabUsers, err)
		return
	}

	h.logAction(r, services.AuditUnblockUser, "user="+id)
	w.Header().Set("HX-Trigger", "users-changed")
	h.renderAlert(w, "success", "User has been unblocked")
}

func findUser(users []models.User, id string) (models.User, bool) {
	for _, u := range users {
		if u.ID == id {
			return u, true
		}
	}
	return models.User{}, false
}

// sortStateFromQuery rebuilds the table's sort state. toggle names the
// column header that was clicked; unknown fields are ignored.
func sortStateFromQuery[T any](field, order, toggle string, keys map[string]func(T) string) listing.SortState {
	state := listing.SortState{Order: listing.ParseOrder(order)}
	if _, ok := keys[field]; ok {
		state.Field = field
	}
	if _, ok := keys[toggle]; ok {
		state = state.Toggle(toggle)
	}
	return state
}
