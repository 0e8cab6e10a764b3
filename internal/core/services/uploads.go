package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/vehicletag/registration-node/internal/core/domain"
	"github.com/vehicletag/registration-node/internal/core/ports"
	"github.com/vehicletag/registration-node/internal/log"
)

var (
	// ErrUnknownUploadKind the kind is not one of the required five
	ErrUnknownUploadKind = errors.New("unknown upload kind")
	// ErrNoLocalImage the slot has no local image to send
	ErrNoLocalImage = errors.New("no local image for this slot")
	// ErrUploadsIncomplete one or more required uploads are still missing
	ErrUploadsIncomplete = errors.New("required uploads incomplete")
)

type uploads struct {
	repo     ports.RegistrationRepository
	sessions ports.SessionRepository
	gateway  ports.IssuerGateway

	mu     sync.Mutex
	images map[string][]byte // local images held until uploaded, keyed by regID/kind
}

// NewUploads returns the upload coordinator service
func NewUploads(repo ports.RegistrationRepository, sessions ports.SessionRepository, gateway ports.IssuerGateway) ports.UploadService {
	return &uploads{
		repo:     repo,
		sessions: sessions,
		gateway:  gateway,
		images:   make(map[string][]byte),
	}
}

// SetLocalImage stores a freshly captured image for a slot. Replacing the
// image of an already uploaded slot clears its uploaded flag, so the new
// image will be sent on the next upload pass.
func (u *uploads) SetLocalImage(ctx context.Context, registrationID uuid.UUID, kind domain.UploadKind, image []byte) error {
	if !domain.KnownUploadKind(kind) {
		return ErrUnknownUploadKind
	}
	if len(image) == 0 {
		return ErrNoLocalImage
	}
	reg, err := u.repo.GetByID(ctx, registrationID)
	if err != nil {
		return fmt.Errorf("loading registration %s: %w", registrationID, err)
	}
	reg.Uploads.SetLocalImage(kind, true)
	if err := u.repo.Save(ctx, reg); err != nil {
		return fmt.Errorf("saving registration %s: %w", registrationID, err)
	}
	u.mu.Lock()
	u.images[imageKey(registrationID, kind)] = image
	u.mu.Unlock()
	return nil
}

// RemoveLocalImage drops the local image of a slot. A previously successful
// upload for the slot is invalidated first, per the sticky-uploaded rule.
func (u *uploads) RemoveLocalImage(ctx context.Context, registrationID uuid.UUID, kind domain.UploadKind) error {
	if !domain.KnownUploadKind(kind) {
		return ErrUnknownUploadKind
	}
	reg, err := u.repo.GetByID(ctx, registrationID)
	if err != nil {
		return fmt.Errorf("loading registration %s: %w", registrationID, err)
	}
	reg.Uploads.SetLocalImage(kind, false)
	if err := u.repo.Save(ctx, reg); err != nil {
		return fmt.Errorf("saving registration %s: %w", registrationID, err)
	}
	u.mu.Lock()
	delete(u.images, imageKey(registrationID, kind))
	u.mu.Unlock()
	return nil
}

// Upload sends one slot to the issuer. A slot already uploaded is a no-op:
// re-sending multi-hundred-KB images over a flaky mobile network is wasteful,
// so per slot idempotency wins over atomicity across the set. On failure the
// slot is left unchanged and retry is caller initiated.
func (u *uploads) Upload(ctx context.Context, registrationID uuid.UUID, kind domain.UploadKind) error {
	if !domain.KnownUploadKind(kind) {
		return ErrUnknownUploadKind
	}
	reg, err := u.repo.GetByID(ctx, registrationID)
	if err != nil {
		return fmt.Errorf("loading registration %s: %w", registrationID, err)
	}
	return u.uploadSlot(ctx, reg, kind)
}

// UploadAll walks the five slots sequentially and uploads those not yet
// uploaded. Individual failures do not short-circuit the pass, so one flaky
// document does not block the other four. The result reports every slot; the
// pass succeeds only when all five end uploaded.
func (u *uploads) UploadAll(ctx context.Context, registrationID uuid.UUID) (*ports.UploadAllResult, error) {
	reg, err := u.repo.GetByID(ctx, registrationID)
	if err != nil {
		return nil, fmt.Errorf("loading registration %s: %w", registrationID, err)
	}
	result := &ports.UploadAllResult{Success: true}
	for _, kind := range domain.UploadKinds() {
		outcome := ports.UploadOutcome{Kind: kind}
		if err := u.uploadSlot(ctx, reg, kind); err != nil {
			log.Warn(ctx, "upload failed, continuing with remaining slots", "err", err, "kind", kind, "registrationID", registrationID.String())
			outcome.Err = err
			result.Success = false
		} else {
			outcome.Uploaded = true
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}
	return result, nil
}

// AllUploaded is the predicate gating the transition past the document stage.
func (u *uploads) AllUploaded(ctx context.Context, registrationID uuid.UUID) (bool, error) {
	reg, err := u.repo.GetByID(ctx, registrationID)
	if err != nil {
		return false, fmt.Errorf("loading registration %s: %w", registrationID, err)
	}
	return reg.Uploads.AllUploaded(), nil
}

func (u *uploads) uploadSlot(ctx context.Context, reg *domain.Registration, kind domain.UploadKind) error {
	slot := reg.Uploads.Slot(kind)
	if slot.Uploaded {
		return nil
	}
	u.mu.Lock()
	image, ok := u.images[imageKey(reg.ID, kind)]
	u.mu.Unlock()
	if !ok {
		return ErrNoLocalImage
	}
	token, err := u.sessions.Get(ctx, reg.ID.String())
	if err != nil {
		return fmt.Errorf("no live session for registration %s: %w", reg.ID, err)
	}
	if err := u.gateway.UploadDocument(ctx, token, kind, image); err != nil {
		return err
	}
	reg.Uploads.MarkUploaded(kind)
	if err := u.repo.Save(ctx, reg); err != nil {
		return fmt.Errorf("saving registration %s: %w", reg.ID, err)
	}
	u.mu.Lock()
	delete(u.images, imageKey(reg.ID, kind))
	u.mu.Unlock()
	return nil
}

func imageKey(registrationID uuid.UUID, kind domain.UploadKind) string {
	return registrationID.String() + "/" + string(kind)
}
