package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vehicletag/registration-node/internal/core/domain"
	"github.com/vehicletag/registration-node/internal/core/event"
	"github.com/vehicletag/registration-node/internal/core/ports"
	"github.com/vehicletag/registration-node/internal/log"
	"github.com/vehicletag/registration-node/internal/pubsub"
	"github.com/vehicletag/registration-node/internal/repositories"
)

// ErrEmptyStage a stage name is required on every stage write
var ErrEmptyStage = errors.New("stage name is required")

// auditQueueSize bounds the backlog of pending audit writes. When the queue
// is full new entries are dropped with an error log rather than blocking the
// stage write.
const auditQueueSize = 256

type registration struct {
	repo      ports.RegistrationRepository
	events    ports.StageEventRepository
	publisher pubsub.Publisher
	identity  ports.IdentityProvider
	auditc    chan auditEntry
}

type auditEntry struct {
	ctx            context.Context
	registrationID uuid.UUID
	rec            domain.StageRecord
}

// NewRegistration returns the registration aggregate store service. It starts
// a single audit worker so event log writes and published events keep the
// order the stage writes happened in.
func NewRegistration(repo ports.RegistrationRepository, events ports.StageEventRepository, publisher pubsub.Publisher, identity ports.IdentityProvider) ports.RegistrationService {
	r := &registration{
		repo:      repo,
		events:    events,
		publisher: publisher,
		identity:  identity,
		auditc:    make(chan auditEntry, auditQueueSize),
	}
	go r.auditWorker()
	return r
}

// RecordStage merges one stage write into the aggregate for the attempt. With
// no registration id a new aggregate is created. An id that no longer exists
// in the store, typically held over from a crashed session, also takes the
// create path: the caller gets a fresh id back and must discard the stale one.
func (r *registration) RecordStage(ctx context.Context, req ports.RecordStageRequest) (*ports.RecordStageResult, error) {
	if req.Stage == "" {
		return nil, ErrEmptyStage
	}
	if req.Status == "" {
		req.Status = domain.StageStatusCompleted
	}
	now := time.Now()
	rec := domain.StageRecord{
		Stage:     req.Stage,
		Status:    req.Status,
		Data:      req.Data,
		SessionID: req.SessionID,
		Timestamp: now,
	}

	var reg *domain.Registration
	if req.RegistrationID != nil {
		existing, err := r.repo.GetByID(ctx, *req.RegistrationID)
		switch {
		case err == nil:
			reg = existing
		case errors.Is(err, repositories.ErrRegistrationNotFound):
			log.Warn(ctx, "stale registration id, creating a new aggregate", "staleID", req.RegistrationID.String())
		default:
			return nil, fmt.Errorf("loading registration %s: %w", req.RegistrationID, err)
		}
	}

	created := false
	if reg == nil {
		reg = domain.NewRegistration(rec, now)
		created = true
	} else {
		reg.MergeStage(rec, now)
	}
	if user, ok := r.identity.CurrentUser(ctx); ok {
		reg.AttachUser(user)
	}

	if err := r.repo.Save(ctx, reg); err != nil {
		return nil, fmt.Errorf("saving registration %s: %w", reg.ID, err)
	}

	r.audit(ctx, reg.ID, rec)

	return &ports.RecordStageResult{RegistrationID: reg.ID, Created: created}, nil
}

// GetByID returns one aggregate
func (r *registration) GetByID(ctx context.Context, id uuid.UUID) (*domain.Registration, error) {
	return r.repo.GetByID(ctx, id)
}

// GetByMobile returns the aggregates indexed by mobile number, most recent first
func (r *registration) GetByMobile(ctx context.Context, mobileNo string) ([]*domain.Registration, error) {
	return r.repo.GetByMobile(ctx, mobileNo)
}

// GetByUser returns the aggregates recorded by an authenticated agent, most recent first
func (r *registration) GetByUser(ctx context.Context, userID string) ([]*domain.Registration, error) {
	return r.repo.GetByUser(ctx, userID)
}

// audit queues the stage write for the audit worker. It runs detached from
// the request: audit latency or failure must never delay or fail the user
// facing transition, so a full queue drops the entry with an error log
// instead of blocking.
func (r *registration) audit(ctx context.Context, registrationID uuid.UUID, rec domain.StageRecord) {
	entry := auditEntry{
		ctx:            log.CopyFromContext(ctx, context.Background()),
		registrationID: registrationID,
		rec:            rec,
	}
	select {
	case r.auditc <- entry:
	default:
		log.Error(entry.ctx, "audit queue full, dropping stage event", "registrationID", registrationID.String(), "stage", rec.Stage)
	}
}

// auditWorker drains the audit queue one entry at a time, so the event log
// and the published stream see stage writes in submission order.
func (r *registration) auditWorker() {
	for entry := range r.auditc {
		r.writeAudit(entry)
	}
}

func (r *registration) writeAudit(entry auditEntry) {
	defer func() {
		if p := recover(); p != nil {
			log.Error(entry.ctx, "stage audit panicked", "panic", p, "registrationID", entry.registrationID.String())
		}
	}()
	if err := r.events.Append(entry.ctx, entry.registrationID, entry.rec); err != nil {
		log.Error(entry.ctx, "appending stage event", "err", err, "registrationID", entry.registrationID.String(), "stage", entry.rec.Stage)
	}
	ev := &event.StageRecorded{
		RegistrationID: entry.registrationID.String(),
		Stage:          string(entry.rec.Stage),
		Status:         string(entry.rec.Status),
		SessionID:      entry.rec.SessionID,
		Data:           entry.rec.Data,
		Timestamp:      entry.rec.Timestamp,
	}
	if err := r.publisher.Publish(entry.ctx, event.StageRecordedEvent, ev); err != nil {
		log.Error(entry.ctx, "publishing stage event", "err", err, "registrationID", entry.registrationID.String(), "stage", entry.rec.Stage)
	}
}
