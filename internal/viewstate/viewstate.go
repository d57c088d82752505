// Package viewstate tracks the load cycle of each console view and which
// request for a view is the newest one.
package viewstate

import (
	"strings"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"threatconsole/internal/gateway"
)

type Phase int

const (
	Idle Phase = iota
	Loading
	Success
	Error
)

func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return "idle"
	}
}

// View is what a template renders for one view.
type View[T any] struct {
	Phase      Phase
	Data       T
	Err        error
	Provenance gateway.Provenance
	Token      string
}

func Succeeded[T any](data T, p gateway.Provenance, token string) View[T] {
	return View[T]{Phase: Success, Data: data, Provenance: p, Token: token}
}

func Failed[T any](err error, token string) View[T] {
	return View[T]{Phase: Error, Err: err, Token: token}
}

func (v View[T]) Loaded() bool { return v.Phase == Success }
func (v View[T]) Failed() bool { return v.Phase == Error }
func (v View[T]) FromDemo() bool { return v.Phase == Success && v.Provenance == gateway.ProvenanceFallback }

const DefaultCapacity = 4096

// Tracker remembers the newest request token per session and view. Entries
// beyond capacity are evicted least recently used first; an evicted view
// accepts any token again.
type Tracker struct {
	mu     sync.Mutex
	latest *lru.Cache[string, string]
}

func NewTracker(capacity int) *Tracker {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	cache, err := lru.New[string, string](capacity)
	if err != nil {
		panic(err)
	}
	return &Tracker{latest: cache}
}

func key(sessionID, view string) string {
	return sessionID + "\x00" + view
}

// Begin records a new request for view and returns its token. Any earlier
// token for the same session and view is superseded.
func (t *Tracker) Begin(sessionID, view string) string {
	token := uuid.NewString()
	t.mu.Lock()
	t.latest.Add(key(sessionID, view), token)
	t.mu.Unlock()
	return token
}

// Current reports whether token is still the newest for the view.
func (t *Tracker) Current(sessionID, view, token string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	latest, ok := t.latest.Peek(key(sessionID, view))
	if !ok {
		return true
	}
	return latest == token
}

// Forget drops every view of a session, on logout.
func (t *Tracker) Forget(sessionID string) {
	prefix := sessionID + "\x00"
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, k := range t.latest.Keys() {
		if strings.HasPrefix(k, prefix) {
			t.latest.Remove(k)
		}
	}
}

func (t *Tracker) Len() int {
	return t.latest.Len()
}
