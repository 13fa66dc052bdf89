// Package webserver provides session management for the web frontend
package webserver

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/alchemorsel/recipeclient/internal/domain/client"
	"github.com/alchemorsel/recipeclient/internal/infrastructure/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CleanupInterval is how often expired browser sessions are dropped.
const CleanupInterval = time.Hour

// Session is one browser's view of the recipe client.
type Session struct {
	ID        string
	State     *client.State
	CreatedAt time.Time
	ExpiresAt time.Time
}

// SessionStore keeps browser sessions in memory.
type SessionStore struct {
	sessions   map[string]*Session
	mu         sync.RWMutex
	cookieName string
	maxAge     time.Duration
	secure     bool
	logger     *zap.Logger
	now        func() time.Time

	stop chan struct{}
	once sync.Once
}

// NewSessionStore creates a new session store
func NewSessionStore(cfg *config.Config, logger *zap.Logger) *SessionStore {
	maxAge := cfg.Session.MaxAge
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}

	return &SessionStore{
		sessions:   make(map[string]*Session),
		cookieName: cfg.Session.CookieName,
		maxAge:     maxAge,
		secure:     cfg.IsProduction(),
		logger:     logger.Named("sessions"),
		now:        time.Now,
		stop:       make(chan struct{}),
	}
}

// Get retrieves the session named by the request cookie
func (s *SessionStore) Get(r *http.Request) (*Session, bool) {
	cookie, err := r.Cookie(s.cookieName)
	if err != nil {
		return nil, false
	}

	s.mu.RLock()
	session, exists := s.sessions[cookie.Value]
	s.mu.RUnlock()

	if !exists {
		return nil, false
	}

	if s.now().After(session.ExpiresAt) {
		s.Delete(cookie.Value)
		return nil, false
	}

	return session, true
}

// New creates a new signed-out session
func (s *SessionStore) New() *Session {
	now := s.now()
	session := &Session{
		ID:        uuid.New().String(),
		State:     client.NewState(),
		CreatedAt: now,
		ExpiresAt: now.Add(s.maxAge),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	return session
}

// Save sets the session cookie
func (s *SessionStore) Save(w http.ResponseWriter, session *Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    session.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  session.ExpiresAt,
		MaxAge:   int(session.ExpiresAt.Sub(s.now()).Seconds()),
	})
}

// Delete removes a session
func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// StartCleanup removes expired sessions every interval until Stop is called.
func (s *SessionStore) StartCleanup(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.cleanupExpired()
			}
		}
	}()
}

// Stop ends the cleanup loop.
func (s *SessionStore) Stop() {
	s.once.Do(func() { close(s.stop) })
}

func (s *SessionStore) cleanupExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, id)
			s.logger.Debug("Cleaned up expired session", zap.String("session_id", id))
		}
	}
}

type sessionKey struct{}

// Middleware attaches the browser's session to the request context,
// creating one and setting its cookie when none is found.
func (s *SessionStore) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := s.Get(r)
		if !ok {
			session = s.New()
			s.Save(w, session)
		}

		ctx := context.WithValue(r.Context(), sessionKey{}, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionFrom returns the session attached by Middleware.
func SessionFrom(ctx context.Context) (*Session, bool) {
	session, ok := ctx.Value(sessionKey{}).(*Session)
	return session, ok
}
