package supabase

import (
	"context"
	"sync"
)

// Session implements sounds.Identity for one signed-in backend user.
// The surrounding app signs in and out; the engine only ever asks who
// the current user is.
type Session struct {
	mu     sync.RWMutex
	userID string
}

// NewSession creates a signed-out session.
func NewSession() *Session {
	return &Session{}
}

// SignIn records the authenticated user.
func (s *Session) SignIn(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
}

// SignOut clears the session. Callers are expected to also reset the
// repository caches and the active snapshot so nothing leaks into the
// next user's session.
func (s *Session) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = ""
}

// CurrentUserID returns the signed-in user's id, or ok=false.
func (s *Session) CurrentUserID(_ context.Context) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID, s.userID != ""
}
