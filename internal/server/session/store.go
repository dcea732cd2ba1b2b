// Package session хранит админ-сессии в памяти: непрозрачный токен ->
// сессия со скользящим сроком жизни и парным CSRF токеном.
// Сессии не переживают рестарт процесса - после перезапуска требуется
// повторный вход, что приемлемо для админ-поверхности.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/iudanet/ristopoint/internal/models"

	"github.com/iudanet/ristopoint/internal/server/auth"
)

const (
	// DefaultTTL - срок жизни сессии, продлевается при каждом обращении
	DefaultTTL = 12 * time.Hour
	// DefaultSweepInterval - период фоновой чистки истекших сессий
	DefaultSweepInterval = 5 * time.Minute

	sessionTokenBytes = 48
	csrfTokenBytes    = 32
)

// Meta - клиентские атрибуты, фиксируемые в момент входа.
type Meta struct {
	ClientIP  string
	UserAgent string
}

// Store - in-memory таблица сессий.
type Store struct {
	sessions map[string]*models.Session
	logger   *slog.Logger
	now      func() time.Time
	ttl      time.Duration
	mu       sync.Mutex
}

// NewStore создает Store с заданным TTL.
func NewStore(ttl time.Duration, logger *slog.Logger) *Store {
	return &Store{
		sessions: make(map[string]*models.Session),
		logger:   logger,
		now:      time.Now,
		ttl:      ttl,
	}
}

// TTL возвращает срок жизни сессии (для Max-Age cookie).
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Create выпускает новую сессию с двумя независимыми случайными
// токенами: id сессии и CSRF токеном.
func (s *Store) Create(login string, meta Meta) (*models.Session, error) {
	id, err := auth.RandomToken(sessionTokenBytes)
	if err != nil {
		return nil, err
	}
	csrfToken, err := auth.RandomToken(csrfTokenBytes)
	if err != nil {
		return nil, err
	}

	now := s.now()
	session := &models.Session{
		ID:        id,
		Login:     login,
		CSRFToken: csrfToken,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
		ClientIP:  meta.ClientIP,
		UserAgent: meta.UserAgent,
	}

	s.mu.Lock()
	s.sessions[id] = session
	s.mu.Unlock()

	return copySession(session), nil
}

// Resolve возвращает живую сессию по id, продлевая срок жизни
// (скользящее истечение). Истекшая сессия удаляется, возвращается nil.
func (s *Store) Resolve(id string) *models.Session {
	if id == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil
	}

	now := s.now()
	if !session.ExpiresAt.After(now) {
		delete(s.sessions, id)
		return nil
	}

	session.ExpiresAt = now.Add(s.ttl)
	return copySession(session)
}

// Destroy удаляет сессию (logout).
func (s *Store) Destroy(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Sweep удаляет все истекшие сессии независимо от обращений к ним.
// Ограничивает рост памяти от брошенных сессий.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, session := range s.sessions {
		if !session.ExpiresAt.After(now) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Len возвращает число живых записей (включая еще не сметенные истекшие).
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Run запускает периодический Sweep до отмены контекста.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if removed := s.Sweep(); removed > 0 {
				s.logger.Debug("swept expired sessions", "removed", removed)
			}
		case <-ctx.Done():
			return
		}
	}
}

// copySession отдает вызывающему копию, чтобы внутреннее состояние
// нельзя было изменить снаружи.
func copySession(session *models.Session) *models.Session {
	out := *session
	return &out
}
