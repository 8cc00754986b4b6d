package session

import (
	"sync"

	"calbot/app/service/booking"

	"github.com/google/uuid"
	"github.com/samber/do"
)

// Service keeps one booking session per conversation. Sessions live for the
// lifetime of the process; the calendar itself is the only durable store.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*booking.Session
}

func New(_ *do.Injector) (*Service, error) {
	return &Service{
		sessions: make(map[string]*booking.Session),
	}, nil
}

// Acquire returns the session with the given ID, creating a fresh one when
// the ID is empty or unknown.
func (s *Service) Acquire(id string) *booking.Session {
	s.mu.RLock()
	existing, ok := s.sessions[id]
	s.mu.RUnlock()

	if ok {
		return existing
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok = s.sessions[id]; ok {
		return existing
	}

	if id == "" {
		id = uuid.NewString()
	}

	created := &booking.Session{ID: id}
	s.sessions[id] = created

	return created
}

func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}
