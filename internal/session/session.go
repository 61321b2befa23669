// Package session holds the signed-in user's bearer token and cached profile.
// A Session is created once per process and handed to whatever needs
// credentials; there is no package-level state.
package session

import (
	"sync"

	"go.uber.org/zap"

	"memeshare/internal/models"
)

// Store persists session changes so they survive the process.
type Store interface {
	SaveSession(token string, user *models.User) error
}

type Session struct {
	mu     sync.RWMutex
	token  string
	user   *models.User
	store  Store
	logger *zap.Logger
}

// New returns a session seeded with previously persisted credentials. store
// may be nil for an in-memory session.
func New(token string, user *models.User, store Store, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{token: token, user: cloneUser(user), store: store, logger: logger}
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneUser(s.user)
}

func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// Begin installs the credentials returned by a login or register call.
func (s *Session) Begin(token string, user *models.User) error {
	s.mu.Lock()
	s.token = token
	s.user = cloneUser(user)
	s.mu.Unlock()
	if user != nil {
		s.logger.Debug("session started", zap.String("user", user.Username))
	}
	return s.persist()
}

// Clear ends the session: token and cached user are dropped and the cleared
// state is persisted.
func (s *Session) Clear() error {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()
	s.logger.Debug("session cleared")
	return s.persist()
}

// Invalidate is called by the transport when the server rejects the token.
func (s *Session) Invalidate() {
	if err := s.Clear(); err != nil {
		s.logger.Warn("persist cleared session", zap.Error(err))
	}
}

func (s *Session) persist() error {
	if s.store == nil {
		return nil
	}
	s.mu.RLock()
	token, user := s.token, cloneUser(s.user)
	s.mu.RUnlock()
	return s.store.SaveSession(token, user)
}

func cloneUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}
