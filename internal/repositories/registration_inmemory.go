package repositories

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/vehicletag/registration-node/internal/core/domain"
	"github.com/vehicletag/registration-node/internal/core/ports"
)

// RegistrationInMemory is an in memory registration repository used in tests
// and local runs without a database. Values are copied on the way in and out
// so callers cannot mutate stored state behind the repository's back, the
// same way a real row round trip would behave.
type RegistrationInMemory struct {
	mu            sync.RWMutex
	registrations map[uuid.UUID]domain.Registration
}

// NewRegistrationInMemory returns an empty in memory registration repository
func NewRegistrationInMemory() *RegistrationInMemory {
	return &RegistrationInMemory{registrations: make(map[uuid.UUID]domain.Registration)}
}

// Save stores a deep copy of the aggregate
func (r *RegistrationInMemory) Save(_ context.Context, reg *domain.Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registrations[reg.ID] = cloneRegistration(reg)
	return nil
}

// GetByID returns a copy of one aggregate or ErrRegistrationNotFound
func (r *RegistrationInMemory) GetByID(_ context.Context, id uuid.UUID) (*domain.Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.registrations[id]
	if !ok {
		return nil, ErrRegistrationNotFound
	}
	out := cloneRegistration(&reg)
	return &out, nil
}

// GetByMobile returns the aggregates for a mobile number, most recent first
func (r *RegistrationInMemory) GetByMobile(_ context.Context, mobileNo string) ([]*domain.Registration, error) {
	return r.filter(func(reg *domain.Registration) bool { return reg.MobileNo == mobileNo }), nil
}

// GetByUser returns the aggregates of an agent, most recent first
func (r *RegistrationInMemory) GetByUser(_ context.Context, userID string) ([]*domain.Registration, error) {
	return r.filter(func(reg *domain.Registration) bool { return reg.UserID == userID }), nil
}

func (r *RegistrationInMemory) filter(keep func(*domain.Registration) bool) []*domain.Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Registration
	for id := range r.registrations {
		reg := r.registrations[id]
		if keep(&reg) {
			c := cloneRegistration(&reg)
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out
}

func cloneRegistration(reg *domain.Registration) domain.Registration {
	out := *reg
	out.Stages = make(map[domain.Stage]domain.StageRecord, len(reg.Stages))
	for k, v := range reg.Stages {
		out.Stages[k] = v
	}
	out.Uploads = make(domain.UploadSet, len(reg.Uploads))
	for k, v := range reg.Uploads {
		out.Uploads[k] = v
	}
	return out
}

var _ ports.RegistrationRepository = (*RegistrationInMemory)(nil)
