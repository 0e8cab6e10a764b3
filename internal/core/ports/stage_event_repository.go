package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/vehicletag/registration-node/internal/core/domain"
)

// StageEvent is one row of the append-only stage event log.
type StageEvent struct {
	ID             uuid.UUID
	RegistrationID uuid.UUID
	Record         domain.StageRecord
}

// StageEventRepository defines the append-only stage event log. Every call to
// Append produces one row; there is no merge and no dedup.
type StageEventRepository interface {
	Append(ctx context.Context, registrationID uuid.UUID, record domain.StageRecord) error
	ListByRegistration(ctx context.Context, registrationID uuid.UUID) ([]StageEvent, error)
}
