package http

import (
	"log/slog"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/session"
)

// sessionCookie carries the opaque session token.
const sessionCookie = "fintrack_session"

// currentSession resolves the request's session. The memory variant is
// permanently authenticated as the anonymous owner; the persisted
// variant looks the cookie token up in the session manager.
func (s *Server) currentSession(r *http.Request) (sessionState, bool) {
	if s.singleSession {
		return sessionState{owner: core.AnonymousOwner, singleSession: true}, true
	}
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return sessionState{}, false
	}
	sess, ok := s.sessions.Get(c.Value)
	if !ok {
		return sessionState{}, false
	}
	return sessionState{owner: sess.UserID, token: sess.Token}, true
}

// sessionState is the resolved controller state for one request.
type sessionState struct {
	owner         int64
	token         string
	singleSession bool
}

// setView records the session's current view. The memory variant's
// implicit session has no server-side state to update.
func (s *Server) setView(sess sessionState, v session.View) {
	if !sess.singleSession {
		s.sessions.SetView(sess.token, v)
	}
}

// requireSession guards the authenticated views. Anonymous requests get
// 401 without distinguishing why.
func (s *Server) requireSession(next func(http.ResponseWriter, *http.Request, sessionState)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.currentSession(r)
		if !ok {
			respondError(w, http.StatusUnauthorized, "login required")
			return
		}
		next(w, r, sess)
	}
}

// handleRegister creates an account. Registration does not log the user
// in: the client stays anonymous and must call login.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	username := p.Get("username")
	password := p.Get("password")
	if username == "" || password == "" {
		respondError(w, http.StatusBadRequest, "username and password required")
		return
	}

	id, err := s.creds.Register(r.Context(), username, password)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "Registration completed", "user_id", id, "username", username)
	respondJSON(w, http.StatusCreated, map[string]any{"id": id, "username": username})
}

// handleLogin authenticates and transitions the client to
// Authenticated(userID) with a fresh session cookie.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	username := p.Get("username")
	password := p.Get("password")
	if username == "" || password == "" {
		respondError(w, http.StatusBadRequest, "username and password required")
		return
	}

	id, err := s.creds.Authenticate(r.Context(), username, password)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	sess := s.sessions.Login(id)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.Token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	slog.InfoContext(r.Context(), "Login completed", "user_id", id)
	respondJSON(w, http.StatusOK, map[string]any{"id": id, "view": sess.View})
}

// handleLogout transitions the client back to Anonymous.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	if c, err := r.Cookie(sessionCookie); err == nil {
		s.sessions.Logout(c.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}
