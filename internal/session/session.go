// Package session tracks who is logged in and which view they are on.
//
// The controller is a two-state machine per client: Anonymous until a
// successful login, Authenticated(userID) after it, back to Anonymous on
// logout. Registration does not log the user in. Sessions are opaque
// server-side tokens; there is no expiry.
package session

import (
	"sync"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

// View names the screen an authenticated session is on. Selecting a view
// maps directly to invoking one component; there is no other transition
// logic.
type View string

const (
	ViewHome             View = "Home"
	ViewAddTransaction   View = "AddTransaction"
	ViewViewTransactions View = "ViewTransactions"
	ViewAnalytics        View = "Analytics"
	ViewExportData       View = "ExportData"
)

// Session is the per-client controller state.
type Session struct {
	Token  string
	UserID int64
	View   View
}

// Manager holds all live sessions keyed by token.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// Login transitions a client from Anonymous to Authenticated(userID) and
// returns the new session. Each login issues a fresh token.
func (m *Manager) Login(userID int64) *Session {
	s := &Session{
		Token:  uuid.NewString(),
		UserID: userID,
		View:   ViewHome,
	}
	m.mu.Lock()
	m.sessions[s.Token] = s
	m.mu.Unlock()
	return s
}

// Get returns the session for a token, or false for unknown tokens
// (Anonymous state).
func (m *Manager) Get(token string) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// SetView records the session's current view. Unknown tokens are a
// no-op: the client is Anonymous and has no view.
func (m *Manager) SetView(token string, v View) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[token]; ok {
		s.View = v
	}
}

// Logout transitions the client back to Anonymous. Logging out an
// unknown token is harmless.
func (m *Manager) Logout(token string) {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
}

// Anonymous returns the fixed session of the single-session memory
// variant: permanently authenticated as the anonymous owner.
func Anonymous() Session {
	return Session{UserID: core.AnonymousOwner, View: ViewHome}
}
