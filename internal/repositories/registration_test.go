package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vehicletag/registration-node/internal/cache"
	"github.com/vehicletag/registration-node/internal/core/domain"
)

func TestRegistrationSaveAndGet(t *testing.T) {
	s := requireStorage(t)
	ctx := context.Background()
	repo := NewRegistration(s, cache.NewMemoryCache())

	now := time.Now().UTC().Truncate(time.Millisecond)
	reg := domain.NewRegistration(domain.StageRecord{
		Stage:     domain.StageValidateCustomer,
		Status:    domain.StageStatusInProgress,
		Data:      map[string]string{domain.DataKeyMobileNo: "9876543210", domain.DataKeyVehicleNo: "KA01AB1234"},
		SessionID: "sess-1",
		Timestamp: now,
	}, now)
	reg.AttachUser(domain.User{ID: "agent-1", DisplayName: "Agent One", Email: "one@example.com"})
	require.NoError(t, repo.Save(ctx, reg))

	got, err := repo.GetByID(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, reg.ID, got.ID)
	assert.Equal(t, domain.StageValidateCustomer, got.CurrentStage)
	assert.Equal(t, "9876543210", got.MobileNo)
	assert.Equal(t, "KA01AB1234", got.VehicleNo)
	assert.True(t, got.IsAuthenticated)
	assert.Equal(t, "agent-1", got.UserID)
	require.Len(t, got.Stages, 1)
	assert.Equal(t, "sess-1", got.Stages[domain.StageValidateCustomer].SessionID)
	require.Len(t, got.Uploads, 5)
	assert.False(t, got.Uploads.AllUploaded())
}

func TestRegistrationUpsertReplacesRow(t *testing.T) {
	s := requireStorage(t)
	ctx := context.Background()
	repo := NewRegistration(s, cache.NewMemoryCache())

	now := time.Now().UTC()
	reg := domain.NewRegistration(domain.StageRecord{
		Stage:  domain.StageValidateCustomer,
		Status: domain.StageStatusInProgress,
		Data:   map[string]string{domain.DataKeyMobileNo: "9876543210"},
	}, now)
	require.NoError(t, repo.Save(ctx, reg))

	reg.MergeStage(domain.StageRecord{
		Stage:  domain.StageValidateOTP,
		Status: domain.StageStatusCompleted,
	}, now.Add(time.Second))
	reg.Uploads.SetLocalImage(domain.UploadDocFront, true)
	reg.Uploads.MarkUploaded(domain.UploadDocFront)
	require.NoError(t, repo.Save(ctx, reg))

	got, err := repo.GetByID(ctx, reg.ID)
	require.NoError(t, err)
	assert.Len(t, got.Stages, 2)
	assert.Equal(t, domain.StageValidateOTP, got.CurrentStage)
	assert.True(t, got.Uploads.Slot(domain.UploadDocFront).Uploaded)
}

func TestRegistrationCacheHitReturnsDetachedCopy(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache()
	repo := &registration{cache: c}

	now := time.Now().UTC()
	reg := domain.NewRegistration(domain.StageRecord{
		Stage:  domain.StageValidateCustomer,
		Status: domain.StageStatusInProgress,
		Data:   map[string]string{domain.DataKeyMobileNo: "9876543210"},
	}, now)
	require.NoError(t, c.Set(ctx, registrationCacheKey(reg.ID), cloneRegistration(reg), registrationCacheTTL))

	got, err := repo.GetByID(ctx, reg.ID)
	require.NoError(t, err)

	// a merge on the returned aggregate must not leak into the cached entry,
	// otherwise a write that never reaches Save would still be readable
	got.MergeStage(domain.StageRecord{
		Stage:  domain.StageValidateOTP,
		Status: domain.StageStatusCompleted,
	}, now.Add(time.Second))
	got.Uploads.SetLocalImage(domain.UploadDocFront, true)

	again, err := repo.GetByID(ctx, reg.ID)
	require.NoError(t, err)
	assert.NotContains(t, again.Stages, domain.StageValidateOTP)
	assert.Equal(t, domain.StageValidateCustomer, again.CurrentStage)
	assert.False(t, again.Uploads.Slot(domain.UploadDocFront).HasLocalImage)
}

func TestRegistrationGetByIDNotFound(t *testing.T) {
	s := requireStorage(t)
	repo := NewRegistration(s, cache.NewMemoryCache())

	_, err := repo.GetByID(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrRegistrationNotFound)
}

func TestRegistrationQueriesOrderMostRecentFirst(t *testing.T) {
	s := requireStorage(t)
	ctx := context.Background()
	repo := NewRegistration(s, cache.NewMemoryCache())

	now := time.Now().UTC()
	older := domain.NewRegistration(domain.StageRecord{
		Stage: domain.StageValidateCustomer,
		Data:  map[string]string{domain.DataKeyMobileNo: "5550001111"},
	}, now.Add(-time.Hour))
	older.AttachUser(domain.User{ID: "agent-9"})
	newer := domain.NewRegistration(domain.StageRecord{
		Stage: domain.StageValidateCustomer,
		Data:  map[string]string{domain.DataKeyMobileNo: "5550001111"},
	}, now)
	newer.AttachUser(domain.User{ID: "agent-9"})
	require.NoError(t, repo.Save(ctx, older))
	require.NoError(t, repo.Save(ctx, newer))

	byMobile, err := repo.GetByMobile(ctx, "5550001111")
	require.NoError(t, err)
	require.Len(t, byMobile, 2)
	assert.Equal(t, newer.ID, byMobile[0].ID)
	assert.Equal(t, older.ID, byMobile[1].ID)

	byUser, err := repo.GetByUser(ctx, "agent-9")
	require.NoError(t, err)
	require.Len(t, byUser, 2)
	assert.Equal(t, newer.ID, byUser[0].ID)
}
