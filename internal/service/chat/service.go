package chat

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nexa-ai/nexa-chat/internal/model/chat"
	"github.com/nexa-ai/nexa-chat/internal/service/ai"
)

var (
	ErrSessionNotFound = errors.New("session not found")
)

// Service holds one Controller per page-load session.
type Service struct {
	completer ai.Completer

	mu       sync.RWMutex
	sessions map[string]*Controller
}

// NewService bootstraps the in-memory session registry.
func NewService(completer ai.Completer) *Service {
	return &Service{
		completer: completer,
		sessions:  make(map[string]*Controller),
	}
}

// CreateSession provisions an idle session with an empty transcript.
func (s *Service) CreateSession(_ context.Context) (chat.Session, error) {
	controller := NewController(uuid.NewString(), s.completer)

	s.mu.Lock()
	s.sessions[controller.ID()] = controller
	s.mu.Unlock()

	return controller.Snapshot(), nil
}

// Controller returns the controller owning sessionID.
func (s *Service) Controller(sessionID string) (*Controller, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	controller, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return controller, nil
}

// GetSession retrieves a snapshot by identifier and counts as activity.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	controller, err := s.Controller(sessionID)
	if err != nil {
		return chat.Session{}, err
	}
	controller.Touch()
	return controller.Snapshot(), nil
}

// Submit runs one cycle on the session's controller.
func (s *Service) Submit(ctx context.Context, sessionID, input string) (Cycle, error) {
	controller, err := s.Controller(sessionID)
	if err != nil {
		return Cycle{}, err
	}
	return controller.Submit(ctx, input)
}

// Evict drops sessions idle for longer than ttl. Sessions with a cycle in
// flight or with an open event stream are kept.
func (s *Service) Evict(ttl time.Duration) int {
	cutoff := time.Now().UTC().Add(-ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, controller := range s.sessions {
		if !controller.retireIfIdle(cutoff) {
			continue
		}
		delete(s.sessions, id)
		controller.close()
		evicted++
	}
	return evicted
}

// RunEviction calls Evict every interval until ctx is done.
func (s *Service) RunEviction(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Evict(ttl); n > 0 {
				log.Printf("[session] evicted %d idle sessions", n)
			}
		}
	}
}
