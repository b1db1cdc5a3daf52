package auth

import (
	"fmt"
	"sync"
	"time"

	"fan-insights/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

// SessionStore issues and resolves opaque session tokens. Sessions replace
// the ambient logged-in flag of the original dashboard: every handler
// receives an explicit Session resolved from the request token.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
	ttl      time.Duration
	logger   zerolog.Logger
}

func NewSessionStore(ttl time.Duration, logger zerolog.Logger) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]domain.Session),
		ttl:      ttl,
		logger:   logger,
	}
}

// Create issues a new session for username.
func (s *SessionStore) Create(username string) (domain.Session, error) {
	token, err := gonanoid.New()
	if err != nil {
		return domain.Session{}, fmt.Errorf("failed to generate session token: %w", err)
	}

	now := time.Now()
	session := domain.Session{
		Token:     token,
		Username:  username,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	s.mu.Lock()
	s.sessions[token] = session
	s.mu.Unlock()

	s.logger.Info().Str("username", username).Msg("session created")
	return session, nil
}

// Resolve returns the live session for token. Expired sessions are treated
// as absent and removed lazily.
func (s *SessionStore) Resolve(token string) (domain.Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return domain.Session{}, ErrNoSession
	}
	if time.Now().After(session.ExpiresAt) {
		s.Delete(token)
		return domain.Session{}, ErrNoSession
	}
	return session, nil
}

func (s *SessionStore) Delete(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// Sweep removes expired sessions and reports how many were dropped.
func (s *SessionStore) Sweep() int {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for token, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed
}
