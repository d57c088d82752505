package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"threatconsole/internal/models"
)

// Login exchanges credentials for a bearer token. The token is returned,
// not stored; the caller decides where it lives.
func (c *Conn) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return "", Validation("Please enter both email and password")
	}

	var out struct {
		Token string `json:"token"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.g.users.do(ctx, nil, http.MethodPost, "login", "/login", body, &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", &Error{Kind: KindDecode, Endpoint: "login", Message: "login response carried no token"}
	}
	return out.Token, nil
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (c *Conn) Register(ctx context.Context, req RegisterRequest) error {
	return c.g.users.do(ctx, c.holder, http.MethodPost, "register", "/register", req, nil)
}

// Profile returns the caller's account. Both a bare user object and one
// wrapped in {"user": ...} are accepted.
func (c *Conn) Profile(ctx context.Context) (models.Profile, error) {
	var raw json.RawMessage
	if err := c.g.users.do(ctx, c.holder, http.MethodGet, "profile", "/profile", nil, &raw); err != nil {
		return models.Profile{}, err
	}

	var wrapped struct {
		User *models.Profile `json:"user"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.User != nil {
		return *wrapped.User, nil
	}
	var p models.Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return models.Profile{}, &Error{Kind: KindDecode, Endpoint: "profile", Err: err}
	}
	return p, nil
}

func (c *Conn) AllUsers(ctx context.Context) ([]models.User, error) {
	var out []models.User
	err := c.g.users.do(ctx, c.holder, http.MethodGet, "all-users", "/all-users", nil, &out)
	return out, err
}

func (c *Conn) FlaggedUsers(ctx context.Context) ([]models.User, error) {
	var out []models.User
	err := c.g.users.do(ctx, c.holder, http.MethodGet, "flagged-users", "/flagged-users", nil, &out)
	return out, err
}

func (c *Conn) Block(ctx context.Context, userID string) error {
	if userID == "" {
		return Validation("user id is required")
	}
	return c.g.users.do(ctx, c.holder, http.MethodPost, "block", escaped("/block/", userID), nil, nil)
}

func (c *Conn) Unblock(ctx context.Context, userID string) error {
	if userID == "" {
		return Validation("user id is required")
	}
	return c.g.users.do(ctx, c.holder, http.MethodPost, "unblock", escaped("/unblock/", userID), nil, nil)
}

func (c *Conn) UserLogs(ctx context.Context, userID string) ([]models.ActivityLog, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, Validation("Please enter a user ID")
	}
	var out []models.ActivityLog
	err := c.g.users.do(ctx, c.holder, http.MethodGet, "logs", escaped("/logs/", strings.TrimSpace(userID)), nil, &out)
	return out, err
}

func (c *Conn) MyLogs(ctx context.Context) ([]models.ActivityLog, error) {
	var out []models.ActivityLog
	err := c.g.users.do(ctx, c.holder, http.MethodGet, "my-logs", "/my-logs", nil, &out)
	return out, err
}

func (c *Conn) AllLogs(ctx context.Context) ([]models.ActivityLog, error) {
	var out []models.ActivityLog
	err := c.g.users.do(ctx, c.holder, http.MethodGet, "all-logs", "/all-logs", nil, &out)
	return out, err
}

// TotalLogsCount accepts a bare number or an object carrying count, total
// or totalLogs.
func (c *Conn) TotalLogsCount(ctx context.Context) (int, error) {
	var raw json.RawMessage
	if err := c.g.users.do(ctx, c.holder, http.MethodGet, "total-logs-count", "/total-logs-count", nil, &raw); err != nil {
		return 0, err
	}

	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err == nil {
		for _, key := range []string{"count", "total", "totalLogs"} {
			if v, ok := obj[key]; ok {
				if err := json.Unmarshal(v, &n); err == nil {
					return n, nil
				}
			}
		}
	}
	return 0, &Error{Kind: KindDecode, Endpoint: "total-logs-count", Message: "unrecognised count payload"}
}

func (c *Conn) BehaviorSummary(ctx context.Context) (models.BehaviorSummary, error) {
	var out models.BehaviorSummary
	err := c.g.users.do(ctx, c.holder, http.MethodGet, "behavior-summary", "/behavior-summary", nil, &out)
	return out, err
}

// SendWeeklySummary asks the user API to e-mail the weekly digest. It
// reports whether the API says the mail went out.
func (c *Conn) SendWeeklySummary(ctx context.Context) (bool, error) {
	var out struct {
		EmailSent bool `json:"emailSent"`
	}
	err := c.g.users.do(ctx, c.holder, http.MethodPost, "send-weekly-summary", "/send-weekly-summary", nil, &out)
	return out.EmailSent, err
}

func (c *Conn) CheckDownload(ctx context.Context) (models.DownloadCheck, error) {
	var out models.DownloadCheck
	err := c.g.users.do(ctx, c.holder, http.MethodGet, "download-files", "/download-files", nil, &out)
	return out, err
}
