package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/vehicletag/registration-node/internal/core/domain"
)

// RecordStageRequest is the input of one stage write. RegistrationID is nil
// for the first stage of an attempt.
type RecordStageRequest struct {
	Stage          domain.Stage
	Status         domain.StageStatus
	Data           map[string]string
	RegistrationID *uuid.UUID
	SessionID      string
}

// RecordStageResult reports the authoritative registration id after a stage
// write. When the supplied id was stale the returned id is a fresh one and
// the caller must discard the id it held.
type RecordStageResult struct {
	RegistrationID uuid.UUID
	Created        bool
}

// RegistrationService is the interface implemented by the registration
// aggregate store service
type RegistrationService interface {
	RecordStage(ctx context.Context, req RecordStageRequest) (*RecordStageResult, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Registration, error)
	GetByMobile(ctx context.Context, mobileNo string) ([]*domain.Registration, error)
	GetByUser(ctx context.Context, userID string) ([]*domain.Registration, error)
}
