// Package session defines where the bearer credential for the upstream
// APIs lives between requests.
package session

import (
	"errors"
	"sync"
)

var ErrEmptyToken = errors.New("session: empty token")

// Holder stores a single bearer credential. Implementations must make Clear
// idempotent.
type Holder interface {
	Get() (string, bool)
	Set(token string) error
	Clear() error
}

// Memory is a process-local Holder.
type Memory struct {
	mu    sync.RWMutex
	token string
}

func NewMemory(token string) *Memory {
	return &Memory{token: token}
}

func (m *Memory) Get() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, m.token != ""
}

func (m *Memory) Set(token string) error {
	if token == "" {
		return ErrEmptyToken
	}
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

func (m *Memory) Clear() error {
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()
	return nil
}
