// Package session keeps the server-side login sessions of the HTTP API.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// CookieName is the HTTP cookie carrying the session token.
const CookieName = "ontrack_session"

// Session is one authenticated login.
type Session struct {
	Token     string
	UserID    string
	Username  string
	ExpiresAt time.Time
}

// Store is an in-memory session table. Sessions do not survive a restart.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewStore creates a session store whose sessions live for ttl.
func NewStore(ttl time.Duration, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      now,
	}
}

// TTL returns the session lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Create starts a session for a user and returns it.
func (s *Store) Create(userID, username string) *Session {
	sess := &Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		Username:  username,
		ExpiresAt: s.now().Add(s.ttl),
	}
	s.mu.Lock()
	s.sessions[sess.Token] = sess
	s.mu.Unlock()
	return sess
}

// Lookup returns the live session for token.
func (s *Store) Lookup(token string) (*Session, bool) {
	if token == "" {
		return nil, false
	}
	s.mu.RLock()
	sess, ok := s.sessions[token]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !s.now().Before(sess.ExpiresAt) {
		s.Delete(token)
		return nil, false
	}
	c := *sess
	return &c, true
}

// Delete ends a session. Unknown tokens are ignored.
func (s *Store) Delete(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// Sweep drops expired sessions and returns how many were removed.
func (s *Store) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for token, sess := range s.sessions {
		if !now.Before(sess.ExpiresAt) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored sessions, expired or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
