package storage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lehigh-university-libraries/museetour/internal/navigation"
	"github.com/lehigh-university-libraries/museetour/internal/scan"
	"github.com/lehigh-university-libraries/museetour/internal/session"
)

// DefaultTTL is how long an idle scan session is kept
const DefaultTTL = 10 * time.Minute

// SessionStore keeps the live scan sessions and expires idle ones
type SessionStore struct {
	sessions map[string]*session.Session
	mu       sync.RWMutex

	resolver  *scan.Resolver
	navigator *navigation.Navigator
	ttl       time.Duration
	now       func() time.Time
}

// New creates a store whose sessions resolve and navigate with the given collaborators
func New(resolver *scan.Resolver, navigator *navigation.Navigator, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &SessionStore{
		sessions:  make(map[string]*session.Session),
		resolver:  resolver,
		navigator: navigator,
		ttl:       ttl,
		now:       time.Now,
	}
}

// Create opens a new session. Closing the session removes it from the store.
func (s *SessionStore) Create() *session.Session {
	id := uuid.NewString()
	sess := session.New(id, s.resolver, s.navigator, session.Hooks{
		Closed: func() {
			s.mu.Lock()
			delete(s.sessions, id)
			s.mu.Unlock()
			slog.Debug("Unregistered scan session", "session_id", id)
		},
	})

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()
	return sess
}

func (s *SessionStore) Get(sessionID string) (*session.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, exists := s.sessions[sessionID]
	return sess, exists
}

func (s *SessionStore) GetAll() map[string]*session.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*session.Session, len(s.sessions))
	for k, v := range s.sessions {
		result[k] = v
	}
	return result
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Delete closes the session, which releases and unregisters it
func (s *SessionStore) Delete(sessionID string) bool {
	sess, ok := s.Get(sessionID)
	if !ok {
		return false
	}
	sess.Close()
	return true
}

// Expire closes every session idle for longer than the TTL and returns how many were closed
func (s *SessionStore) Expire() int {
	cutoff := s.now().Add(-s.ttl)
	expired := 0
	for id, sess := range s.GetAll() {
		if sess.LastActivity().Before(cutoff) {
			slog.Info("Expiring idle scan session", "session_id", id, "state", sess.State())
			sess.Close()
			expired++
		}
	}
	return expired
}

// CloseAll closes every session, used on shutdown
func (s *SessionStore) CloseAll() {
	for _, sess := range s.GetAll() {
		sess.Close()
	}
}

// Run expires idle sessions every interval until ctx is done, then closes the rest
func (s *SessionStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer s.CloseAll()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Expire(); n > 0 {
				slog.Debug("Expired scan sessions", "count", n, "remaining", s.Len())
			}
		}
	}
}
