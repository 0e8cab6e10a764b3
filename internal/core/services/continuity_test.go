package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vehicletag/registration-node/internal/cache"
	"github.com/vehicletag/registration-node/internal/core/domain"
	"github.com/vehicletag/registration-node/internal/core/ports"
	"github.com/vehicletag/registration-node/internal/gateways"
	"github.com/vehicletag/registration-node/internal/repositories"
)

type continuityFixture struct {
	gateway  *gateways.IssuerMock
	sessions ports.SessionRepository
	repo     *repositories.RegistrationInMemory
	service  ports.ContinuityService
}

func newContinuityFixture() *continuityFixture {
	gateway := gateways.NewIssuerMock()
	sessions := repositories.NewSessionCached(cache.NewMemoryCache(), time.Minute)
	repo := repositories.NewRegistrationInMemory()
	return &continuityFixture{
		gateway:  gateway,
		sessions: sessions,
		repo:     repo,
		service:  NewContinuity(gateway, sessions, repo),
	}
}

func TestContinuityHappyPath(t *testing.T) {
	ctx := context.Background()
	f := newContinuityFixture()

	flow := domain.NewFlow(map[string]string{
		domain.DataKeyMobileNo:  "9876543210",
		domain.DataKeyVehicleNo: "KA01AB1234",
	})

	require.NoError(t, f.service.StartValidation(ctx, flow))
	assert.Equal(t, domain.FlowAwaitingOTP, flow.State)
	assert.Equal(t, []string{"9876543210"}, f.gateway.Validated())

	details, err := f.service.VerifyOTP(ctx, flow, "123456")
	require.NoError(t, err)
	assert.Equal(t, domain.FlowTokenLive, flow.State)
	assert.Equal(t, "CUST-1", details.CustomerID)

	err = f.service.Execute(ctx, flow, func(ctx context.Context, token domain.SessionToken) error {
		return f.gateway.ActivateTag(ctx, token, "TAG-001")
	})
	require.NoError(t, err)
}

func TestVerifyOTPRequiresAwaitingState(t *testing.T) {
	ctx := context.Background()
	f := newContinuityFixture()

	flow := domain.NewFlow(nil)
	_, err := f.service.VerifyOTP(ctx, flow, "123456")
	require.ErrorIs(t, err, ErrNotAwaitingOTP)
}

func TestExecuteWithoutSession(t *testing.T) {
	ctx := context.Background()
	f := newContinuityFixture()

	flow := domain.NewFlow(nil)
	err := f.service.Execute(ctx, flow, func(context.Context, domain.SessionToken) error {
		t.Fatal("call must not run without a token")
		return nil
	})
	require.ErrorIs(t, err, ErrNoLiveSession)
}

func TestExecuteRecoversFromDeadSession(t *testing.T) {
	ctx := context.Background()
	f := newContinuityFixture()

	flow := domain.NewFlow(map[string]string{
		domain.DataKeyMobileNo:  "9876543210",
		domain.DataKeyVehicleNo: "KA01AB1234",
		"planId":                "basic",
	})
	require.NoError(t, f.service.StartValidation(ctx, flow))
	_, err := f.service.VerifyOTP(ctx, flow, "123456")
	require.NoError(t, err)

	// the issuer expires the session behind our back
	firstToken, err := f.sessions.Get(ctx, flow.SessionKey())
	require.NoError(t, err)
	f.gateway.ExpireSession(firstToken)

	err = f.service.Execute(ctx, flow, func(ctx context.Context, token domain.SessionToken) error {
		return f.gateway.ActivateTag(ctx, token, "TAG-001")
	})

	var reauth *ReauthRequired
	require.ErrorAs(t, err, &reauth)
	assert.Equal(t, domain.CodeInvalidSession, reauth.Cause.Code)
	assert.Equal(t, domain.FlowAwaitingOTP, flow.State)

	// captured form data survives the recovery untouched
	assert.Equal(t, "basic", flow.Captured["planId"])
	assert.Equal(t, "9876543210", flow.Captured[domain.DataKeyMobileNo])

	// a fresh token is already in place, the flow resumes at OTP entry
	newToken, err := f.sessions.Get(ctx, flow.SessionKey())
	require.NoError(t, err)
	assert.NotEqual(t, firstToken.SessionID, newToken.SessionID)

	_, err = f.service.VerifyOTP(ctx, flow, "654321")
	require.NoError(t, err)
	assert.Equal(t, domain.FlowTokenLive, flow.State)
}

func TestExecutePassesThroughBusinessErrors(t *testing.T) {
	ctx := context.Background()
	f := newContinuityFixture()

	flow := domain.NewFlow(map[string]string{domain.DataKeyMobileNo: "9876543210"})
	require.NoError(t, f.service.StartValidation(ctx, flow))

	businessErr := &domain.IssuerError{Code: "A001", Description: "kyc incomplete"}
	err := f.service.Execute(ctx, flow, func(context.Context, domain.SessionToken) error {
		return businessErr
	})
	require.ErrorIs(t, err, businessErr)
	// no recovery attempt for non session errors
	assert.Equal(t, []string{"9876543210"}, f.gateway.Validated())
}

func TestBindMovesSessionToRegistrationKey(t *testing.T) {
	ctx := context.Background()
	f := newContinuityFixture()

	flow := domain.NewFlow(map[string]string{domain.DataKeyMobileNo: "9876543210"})
	require.NoError(t, f.service.StartValidation(ctx, flow))
	oldKey := flow.SessionKey()

	regID := "9cb2b72e-b4cd-4cb8-97d1-d48bd2b0e3a6"
	require.NoError(t, f.service.Bind(ctx, flow, regID))
	assert.Equal(t, regID, flow.SessionKey())

	_, err := f.sessions.Get(ctx, regID)
	require.NoError(t, err)
	_, err = f.sessions.Get(ctx, oldKey)
	require.ErrorIs(t, err, repositories.ErrSessionNotFound)
}

func TestFinalizeGatesOnUploads(t *testing.T) {
	ctx := context.Background()
	f := newContinuityFixture()

	reg := domain.NewRegistration(domain.StageRecord{
		Stage:  domain.StageActivateTag,
		Status: domain.StageStatusCompleted,
	}, time.Now())
	require.NoError(t, f.repo.Save(ctx, reg))

	flow := domain.NewFlow(map[string]string{domain.DataKeyMobileNo: "9876543210"})
	require.NoError(t, f.service.StartValidation(ctx, flow))
	require.NoError(t, f.service.Bind(ctx, flow, reg.ID.String()))

	req := ports.RegisterTagRequest{CustomerID: "CUST-1", VehicleNo: "KA01AB1234", TagSerial: "TAG-001"}
	err := f.service.Finalize(ctx, flow, req)
	require.ErrorIs(t, err, ErrUploadsRequired)
	assert.NotEqual(t, domain.FlowRegistered, flow.State)

	for _, kind := range domain.UploadKinds() {
		reg.Uploads.MarkUploaded(kind)
	}
	require.NoError(t, f.repo.Save(ctx, reg))

	require.NoError(t, f.service.Finalize(ctx, flow, req))
	assert.Equal(t, domain.FlowRegistered, flow.State)
}
