package services

import "sync"

// UserSession holds the identity the cart engine operates for. It is the
// engine's view of the external identity provider: either a current user id
// or none. One session is constructed per signed-in user and cleared on
// sign-out; operations invoked after the clear fail with ErrNotAuthenticated.
type UserSession struct {
	mu     sync.RWMutex
	userID string
}

// NewUserSession creates a signed-out session.
func NewUserSession() *UserSession {
	return &UserSession{}
}

// Set records the signed-in user id.
func (s *UserSession) Set(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
}

// Clear signs the session out.
func (s *UserSession) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = ""
}

// CurrentUserID returns the signed-in user id, or false when signed out.
func (s *UserSession) CurrentUserID() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.userID == "" {
		return "", false
	}
	return s.userID, true
}
