package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/vehicletag/registration-node/internal/core/domain"
)

// RegistrationRepository defines the available methods for the registration aggregate repository
type RegistrationRepository interface {
	Save(ctx context.Context, registration *domain.Registration) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Registration, error)
	GetByMobile(ctx context.Context, mobileNo string) ([]*domain.Registration, error)
	GetByUser(ctx context.Context, userID string) ([]*domain.Registration, error)
}
