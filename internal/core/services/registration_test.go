package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vehicletag/registration-node/internal/core/domain"
	"github.com/vehicletag/registration-node/internal/core/event"
	"github.com/vehicletag/registration-node/internal/core/ports"
	"github.com/vehicletag/registration-node/internal/providers"
	"github.com/vehicletag/registration-node/internal/pubsub"
	"github.com/vehicletag/registration-node/internal/repositories"
)

// brokenEvents fails every append, standing in for an unreachable event store.
type brokenEvents struct{}

func (brokenEvents) Append(context.Context, uuid.UUID, domain.StageRecord) error {
	return errors.New("event store down")
}

func (brokenEvents) ListByRegistration(context.Context, uuid.UUID) ([]ports.StageEvent, error) {
	return nil, errors.New("event store down")
}

func TestRecordStageCreatesAndMerges(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewRegistrationInMemory()
	events := repositories.NewStageEventsInMemory()
	service := NewRegistration(repo, events, pubsub.NewMock(), providers.NewContextIdentity())

	_, err := service.RecordStage(ctx, ports.RecordStageRequest{})
	require.ErrorIs(t, err, ErrEmptyStage)

	first, err := service.RecordStage(ctx, ports.RecordStageRequest{
		Stage:  domain.StageValidateCustomer,
		Status: domain.StageStatusInProgress,
		Data:   map[string]string{domain.DataKeyMobileNo: "9876543210"},
	})
	require.NoError(t, err)
	assert.True(t, first.Created)

	second, err := service.RecordStage(ctx, ports.RecordStageRequest{
		Stage:          domain.StageValidateOTP,
		RegistrationID: &first.RegistrationID,
		Data:           map[string]string{domain.DataKeyVehicleNo: "KA01AB1234"},
	})
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.RegistrationID, second.RegistrationID)

	reg, err := service.GetByID(ctx, first.RegistrationID)
	require.NoError(t, err)
	assert.Len(t, reg.Stages, 2)
	assert.Equal(t, domain.StageValidateOTP, reg.CurrentStage)
	// status defaults to completed when the caller sends none
	assert.Equal(t, domain.StageStatusCompleted, reg.Stages[domain.StageValidateOTP].Status)
	assert.Equal(t, "9876543210", reg.MobileNo)
	assert.Equal(t, "KA01AB1234", reg.VehicleNo)
}

func TestRecordStageStaleIDStartsFreshAggregate(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewRegistrationInMemory()
	service := NewRegistration(repo, repositories.NewStageEventsInMemory(), pubsub.NewMock(), providers.NewContextIdentity())

	staleID := uuid.New()
	result, err := service.RecordStage(ctx, ports.RecordStageRequest{
		Stage:          domain.StageCreateCustomer,
		RegistrationID: &staleID,
	})
	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.NotEqual(t, staleID, result.RegistrationID)

	_, err = service.GetByID(ctx, staleID)
	require.ErrorIs(t, err, repositories.ErrRegistrationNotFound)

	reg, err := service.GetByID(ctx, result.RegistrationID)
	require.NoError(t, err)
	assert.Equal(t, domain.StageCreateCustomer, reg.CurrentStage)
}

func TestRecordStageFirstWriteWinsOnDenormalizedFields(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewRegistrationInMemory()
	service := NewRegistration(repo, repositories.NewStageEventsInMemory(), pubsub.NewMock(), providers.NewContextIdentity())

	first, err := service.RecordStage(ctx, ports.RecordStageRequest{
		Stage: domain.StageValidateCustomer,
		Data:  map[string]string{domain.DataKeyMobileNo: "9876543210"},
	})
	require.NoError(t, err)

	_, err = service.RecordStage(ctx, ports.RecordStageRequest{
		Stage:          domain.StageValidateOTP,
		RegistrationID: &first.RegistrationID,
		Data:           map[string]string{domain.DataKeyMobileNo: "0000000000"},
	})
	require.NoError(t, err)

	byMobile, err := service.GetByMobile(ctx, "9876543210")
	require.NoError(t, err)
	require.Len(t, byMobile, 1)
	assert.Equal(t, first.RegistrationID, byMobile[0].ID)
}

func TestRecordStageAttachesAuthenticatedUser(t *testing.T) {
	repo := repositories.NewRegistrationInMemory()
	service := NewRegistration(repo, repositories.NewStageEventsInMemory(), pubsub.NewMock(), providers.NewContextIdentity())

	ctx := providers.WithUser(context.Background(), domain.User{ID: "agent-7", DisplayName: "Agent Seven"})
	result, err := service.RecordStage(ctx, ports.RecordStageRequest{Stage: domain.StageValidateCustomer})
	require.NoError(t, err)

	regs, err := service.GetByUser(context.Background(), "agent-7")
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, result.RegistrationID, regs[0].ID)
	assert.True(t, regs[0].IsAuthenticated)
}

func TestRecordStageAuditsAsynchronously(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewRegistrationInMemory()
	events := repositories.NewStageEventsInMemory()
	publisher := pubsub.NewMock()
	service := NewRegistration(repo, events, publisher, providers.NewContextIdentity())

	result, err := service.RecordStage(ctx, ports.RecordStageRequest{
		Stage:     domain.StageActivateTag,
		SessionID: "sess-1",
	})
	require.NoError(t, err)

	// a second write to the same stage produces a second log row, the log is
	// append-only even though the aggregate merges
	_, err = service.RecordStage(ctx, ports.RecordStageRequest{
		Stage:          domain.StageActivateTag,
		RegistrationID: &result.RegistrationID,
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		rows, err := events.ListByRegistration(ctx, result.RegistrationID)
		return err == nil && len(rows) == 2
	}, time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		return len(publisher.Published(event.StageRecordedEvent)) == 2
	}, time.Second, 10*time.Millisecond)

	// the audit worker serializes writes, so events come out in the order the
	// stage writes went in
	published := publisher.Published(event.StageRecordedEvent)
	var first, second event.StageRecorded
	require.NoError(t, first.Unmarshal(published[0]))
	require.NoError(t, second.Unmarshal(published[1]))
	assert.Equal(t, result.RegistrationID.String(), first.RegistrationID)
	assert.Equal(t, string(domain.StageActivateTag), first.Stage)
	assert.Equal(t, "sess-1", first.SessionID)
	assert.Empty(t, second.SessionID)
}

func TestRecordStageSucceedsWhenEventLogIsDown(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewRegistrationInMemory()
	service := NewRegistration(repo, brokenEvents{}, pubsub.NewMock(), providers.NewContextIdentity())

	result, err := service.RecordStage(ctx, ports.RecordStageRequest{Stage: domain.StageRegisterTag})
	require.NoError(t, err)

	reg, err := service.GetByID(ctx, result.RegistrationID)
	require.NoError(t, err)
	assert.Equal(t, domain.StageRegisterTag, reg.CurrentStage)
}
