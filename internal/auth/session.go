package auth

import (
	"net/http"

	"github.com/gorilla/sessions"

	"threatconsole/internal/policy"
	"threatconsole/internal/session"
)

const (
	SessionName      = "threatconsole-session"
	SessionToken     = "token"
	SessionUserID    = "user_id"
	SessionUserName  = "name"
	SessionUserEmail = "email"
	SessionRole      = "role"
	SessionID        = "sid"
)

// Identity is what the console remembers about the signed-in user. It is
// captured from the profile right after login.
type Identity struct {
	UserID    string
	Name      string
	Email     string
	Role      policy.Role
	SessionID string
}

func (i Identity) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	if i.Email != "" {
		return i.Email
	}
	return "Unknown"
}

type SessionManager struct {
	store *sessions.CookieStore
}

func NewSessionManager(secret string, maxAge int, secure bool) (*SessionManager, error) {
	hashKey, blockKey, err := deriveKeys(secret)
	if err != nil {
		return nil, err
	}
	store := sessions.NewCookieStore(hashKey, blockKey)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	store.MaxAge(maxAge)
	return &SessionManager{store: store}, nil
}

func (m *SessionManager) Get(r *http.Request) (*sessions.Session, error) {
	return m.store.Get(r, SessionName)
}

// SetIdentity replaces whatever the session held with a fresh login.
func (m *SessionManager) SetIdentity(w http.ResponseWriter, r *http.Request, token string, id Identity) error {
	s, err := m.Get(r)
	if s == nil {
		return err
	}

	s.Values = map[interface{}]interface{}{
		SessionToken:     token,
		SessionUserID:    id.UserID,
		SessionUserName:  id.Name,
		SessionUserEmail: id.Email,
		SessionRole:      string(id.Role),
		SessionID:        id.SessionID,
	}
	s.Options.MaxAge = m.store.Options.MaxAge

	return s.Save(r, w)
}

func (m *SessionManager) Token(r *http.Request) (string, bool) {
	s, err := m.Get(r)
	if err != nil {
		return "", false
	}
	tok, ok := s.Values[SessionToken].(string)
	return tok, ok && tok != ""
}

// GetIdentity returns the signed-in user. ok is false without a credential.
func (m *SessionManager) GetIdentity(r *http.Request) (Identity, bool) {
	s, err := m.Get(r)
	if err != nil {
		return Identity{}, false
	}
	if tok, _ := s.Values[SessionToken].(string); tok == "" {
		return Identity{}, false
	}

	str := func(key string) string {
		v, _ := s.Values[key].(string)
		return v
	}
	return Identity{
		UserID:    str(SessionUserID),
		Name:      str(SessionUserName),
		Email:     str(SessionUserEmail),
		Role:      policy.ParseRole(str(SessionRole)),
		SessionID: str(SessionID),
	}, true
}

func (m *SessionManager) Clear(w http.ResponseWriter, r *http.Request) error {
	s, err := m.Get(r)
	if s == nil {
		return err
	}

	s.Values = make(map[interface{}]interface{})
	s.Options.MaxAge = -1

	return s.Save(r, w)
}

// Holder exposes the request's cookie session as a session.Holder so the
// gateway can attach the credential and drop it on a 401.
func (m *SessionManager) Holder(w http.ResponseWriter, r *http.Request) session.Holder {
	return &cookieHolder{m: m, w: w, r: r}
}

type cookieHolder struct {
	m *SessionManager
	w http.ResponseWriter
	r *http.Request
}

func (h *cookieHolder) Get() (string, bool) {
	return h.m.Token(h.r)
}

func (h *cookieHolder) Set(token string) error {
	if token == "" {
		return session.ErrEmptyToken
	}
	s, err := h.m.Get(h.r)
	if s == nil {
		return err
	}
	s.Values[SessionToken] = token
	return s.Save(h.r, h.w)
}

func (h *cookieHolder) Clear() error {
	return h.m.Clear(h.w, h.r)
}
