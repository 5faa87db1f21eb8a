package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hassan123789/mathbot/internal/metrics"
)

// Greeting is the first assistant message of every new session.
const Greeting = "Hi, I'm a Math chatbot ready to solve your puzzles! 👾"

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("session not found")

// Session is one chat conversation.
type Session struct {
	ID        string
	CreatedAt time.Time
	History   *BufferMemory

	apiKey string

	turn       sync.Mutex
	mu         sync.Mutex
	lastActive time.Time
}

// APIKey returns the model credential supplied with the session, if any.
func (s *Session) APIKey() string {
	return s.apiKey
}

// BeginTurn serialises question/answer turns within the session and returns
// the function that ends the turn.
func (s *Session) BeginTurn() (end func()) {
	s.turn.Lock()
	s.touch()
	return func() {
		s.touch()
		s.turn.Unlock()
	}
}

// LastActive returns the time the session was last used.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}

// SessionStore keeps sessions in memory and forgets them after a period of
// inactivity.
type SessionStore struct {
	sessions    map[string]*Session
	ttl         time.Duration
	historySize int
	logger      *zap.Logger
	mu          sync.RWMutex
}

// SessionConfig configures a SessionStore.
type SessionConfig struct {
	// TTL is how long an idle session is kept. Zero keeps sessions forever.
	TTL time.Duration

	// HistorySize caps the messages kept per session.
	HistorySize int
}

// NewSessionStore creates an empty store.
func NewSessionStore(cfg SessionConfig, logger *zap.Logger) *SessionStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionStore{
		sessions:    make(map[string]*Session),
		ttl:         cfg.TTL,
		historySize: cfg.HistorySize,
		logger:      logger,
	}
}

// Create starts a new session seeded with the greeting. apiKey may be empty
// when the server has its own credential.
func (s *SessionStore) Create(ctx context.Context, apiKey string) (*Session, error) {
	now := time.Now()
	session := &Session{
		ID:         uuid.NewString(),
		CreatedAt:  now,
		History:    NewBufferMemory(s.historySize),
		apiKey:     apiKey,
		lastActive: now,
	}
	if err := session.History.Add(ctx, NewMessage(RoleAssistant, Greeting)); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	n := len(s.sessions)
	s.mu.Unlock()

	metrics.ActiveSessions.Set(float64(n))
	s.logger.Debug("session created", zap.String("session_id", session.ID))
	return session, nil
}

// Get returns the session with the given id.
func (s *SessionStore) Get(id string) (*Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok || s.expired(session, time.Now()) {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Delete removes a session.
func (s *SessionStore) Delete(id string) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	n := len(s.sessions)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	metrics.ActiveSessions.Set(float64(n))
	return nil
}

// Count returns the number of sessions held, expired or not.
func (s *SessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Expire drops sessions that have been idle longer than the TTL and returns
// how many were removed.
func (s *SessionStore) Expire(now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}

	s.mu.Lock()
	removed := 0
	for id, session := range s.sessions {
		if s.expired(session, now) {
			delete(s.sessions, id)
			removed++
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()

	if removed > 0 {
		metrics.ActiveSessions.Set(float64(n))
		s.logger.Info("expired idle sessions", zap.Int("removed", removed), zap.Int("remaining", n))
	}
	return removed
}

// Sweep calls Expire every interval until ctx is done.
func (s *SessionStore) Sweep(ctx context.Context, interval time.Duration) error {
	if s.ttl <= 0 {
		<-ctx.Done()
		return nil
	}
	if interval <= 0 {
		interval = s.ttl / 2
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			s.Expire(now)
		}
	}
}

func (s *SessionStore) expired(session *Session, now time.Time) bool {
	return s.ttl > 0 && now.Sub(session.LastActive()) > s.ttl
}
