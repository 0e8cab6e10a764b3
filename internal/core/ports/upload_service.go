package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/vehicletag/registration-node/internal/core/domain"
)

// UploadOutcome is the per slot result of an UploadAll pass.
type UploadOutcome struct {
	Kind     domain.UploadKind
	Uploaded bool
	Err      error
}

// UploadAllResult aggregates one UploadAll pass. Success is true only when
// every required slot ends uploaded.
type UploadAllResult struct {
	Success  bool
	Outcomes []UploadOutcome
}

// UploadService coordinates the five required document uploads of one
// registration, allowing independent retry of failed items only.
type UploadService interface {
	SetLocalImage(ctx context.Context, registrationID uuid.UUID, kind domain.UploadKind, image []byte) error
	RemoveLocalImage(ctx context.Context, registrationID uuid.UUID, kind domain.UploadKind) error
	Upload(ctx context.Context, registrationID uuid.UUID, kind domain.UploadKind) error
	UploadAll(ctx context.Context, registrationID uuid.UUID) (*UploadAllResult, error)
	AllUploaded(ctx context.Context, registrationID uuid.UUID) (bool, error)
}
