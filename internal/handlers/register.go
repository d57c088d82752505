package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"threatconsole/internal/gateway"
	"threatconsole/internal/middleware"
	"threatconsole/internal/policy"
	"threatconsole/internal/services"
)

type RegisterForm struct {
	Name            string `validate:"required,max=100"`
	Email           string `validate:"required,email"`
	Password        string `validate:"required,min=6"`
	ConfirmPassword string `validate:"required,eqfield=Password"`
	Role            string `validate:"required"`
}

var registerMessages = map[string]string{
	"Name.required":            "Name is required",
	"Name.max":                 "Name is too long",
	"Email.required":           "Email is required",
	"Email.email":              "Please enter a valid email address",
	"Password.required":        "Password is required",
	"Password.min":             "Password must be at least 6 characters long",
	"ConfirmPassword.required": "Please confirm the password",
	"ConfirmPassword.eqfield":  "Passwords do not match",
	"Role.required":            "Role is required",
}

type RegisterHandler struct {
	*Base
	validate *validator.Validate
}

func NewRegisterHandler(base *Base) *RegisterHandler {
	return &RegisterHandler{Base: base, validate: validator.New()}
}

func (h *RegisterHandler) Form(w http.ResponseWriter, r *http.Request) {
	data := h.pageData(r, "Register User", policy.TabRegister)
	data["Roles"] = policy.AssignableRoles(middleware.GetIdentity(r).Role)
	h.render(w, "register.html", data)
}

func (h *RegisterHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderAlert(w, "error", "Invalid form data")
		return
	}

	form := RegisterForm{
		Name:            strings.TrimSpace(r.FormValue("name")),
		Email:           strings.TrimSpace(r.FormValue("email")),
		Password:        r.FormValue("password"),
		ConfirmPassword: r.FormValue("confirm_password"),
		Role:            r.FormValue("role"),
	}
	if msg := h.check(r, form); msg != "" {
		h.renderAlert(w, "error", msg)
		return
	}

	err := h.conn(w, r).Register(r.Context(), gateway.RegisterRequest{
		Name:     form.Name,
		Email:    form.Email,
		Password: form.Password,
		Role:     string(policy.ParseRole(form.Role)),
	})
	if err != nil {
		h.fail(w, r, policy.TabRegister, err)
		return
	}

	h.logAction(r, services.AuditRegisterUser, "user="+form.Email+" role="+form.Role)
	w.Header().Set("HX-Trigger", "users-changed")
	h.renderAlert(w, "success", "User registered successfully!")
}

// check validates the form before anything is sent upstream. It returns the
// first problem found.
func (h *RegisterHandler) check(r *http.Request, form RegisterForm) string {
	if err := h.validate.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			if msg, ok := registerMessages[verrs[0].Field()+"."+verrs[0].Tag()]; ok {
				return msg
			}
			return verrs[0].Error()
		}
		return "Invalid form data"
	}

	role := policy.ParseRole(form.Role)
	if !role.Known() || !policy.CanAssign(middleware.GetIdentity(r).Role, role) {
		return "You are not allowed to assign the " + form.Role + " role"
	}
	return ""
}
