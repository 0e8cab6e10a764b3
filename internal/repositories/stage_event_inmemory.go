package repositories

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/vehicletag/registration-node/internal/core/domain"
	"github.com/vehicletag/registration-node/internal/core/ports"
)

// StageEventsInMemory is an in memory append-only event log for tests.
type StageEventsInMemory struct {
	mu     sync.RWMutex
	events map[uuid.UUID][]ports.StageEvent
}

// NewStageEventsInMemory returns an empty in memory event log
func NewStageEventsInMemory() *StageEventsInMemory {
	return &StageEventsInMemory{events: make(map[uuid.UUID][]ports.StageEvent)}
}

// Append adds one event row, never merging or deduplicating
func (s *StageEventsInMemory) Append(_ context.Context, registrationID uuid.UUID, rec domain.StageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[registrationID] = append(s.events[registrationID], ports.StageEvent{
		ID:             uuid.New(),
		RegistrationID: registrationID,
		Record:         rec,
	})
	return nil
}

// ListByRegistration returns the events of one registration in write order
func (s *StageEventsInMemory) ListByRegistration(_ context.Context, registrationID uuid.UUID) ([]ports.StageEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ports.StageEvent{}, s.events[registrationID]...), nil
}

var _ ports.StageEventRepository = (*StageEventsInMemory)(nil)
