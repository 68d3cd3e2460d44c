package server

import (
	"sync"

	"github.com/portside/battleship/internal/model"
	"github.com/portside/battleship/internal/services/session"
)

// Registry is the process-wide map from usernames to live connections and
// sessions. It is populated on connect and pairing, and cleared on
// disconnect and session end; a username maps to at most one live
// connection at a time.
type Registry struct {
	mu       sync.Mutex
	conns    map[string]*Conn
	sessions map[string]*session.Session
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		conns:    make(map[string]*Conn),
		sessions: make(map[string]*session.Session),
	}
}

// BindConn claims the username for the connection. A username already bound
// to another live connection is rejected.
func (r *Registry) BindConn(username string, c *Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[username]; ok {
		return model.ErrUsernameInUse
	}
	r.conns[username] = c
	return nil
}

// ReleaseConn clears the username binding, but only if it still points at
// this connection; a reconnect may already have claimed it
func (r *Registry) ReleaseConn(username string, c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conns[username] == c {
		delete(r.conns, username)
	}
}

// BindSession records the session for each of its participants
func (r *Registry) BindSession(sess *session.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, username := range sess.Usernames() {
		r.sessions[username] = sess
	}
}

// SessionFor returns the live session a username belongs to, or nil
func (r *Registry) SessionFor(username string) *session.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[username]
}

// ReleaseSession clears the username entries still pointing at the session
func (r *Registry) ReleaseSession(sess *session.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, username := range sess.Usernames() {
		if r.sessions[username] == sess {
			delete(r.sessions, username)
		}
	}
}

// Sessions returns the distinct live sessions
func (r *Registry) Sessions() []*session.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[model.SessionID]bool)
	var sessions []*session.Session
	for _, sess := range r.sessions {
		if !seen[sess.ID()] {
			seen[sess.ID()] = true
			sessions = append(sessions, sess)
		}
	}
	return sessions
}

// Conns returns the live connections
func (r *Registry) Conns() []*Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	conns := make([]*Conn, 0, len(r.conns))
	for _, c := range r.conns {
		conns = append(conns, c)
	}
	return conns
}
