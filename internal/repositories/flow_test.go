package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vehicletag/registration-node/internal/core/domain"
)

func TestFlowRoundTrip(t *testing.T) {
	ctx := context.Background()
	flows := NewFlowCached(testCache(t), time.Minute)

	_, err := flows.Get(ctx, "nope")
	require.ErrorIs(t, err, ErrFlowNotFound)

	flow := domain.NewFlow(map[string]string{
		domain.DataKeyMobileNo: "9876543210",
		"planId":               "basic",
	})
	flow.State = domain.FlowAwaitingOTP
	require.NoError(t, flows.Save(ctx, flow))

	got, err := flows.Get(ctx, flow.FlowID)
	require.NoError(t, err)
	assert.Equal(t, flow.FlowID, got.FlowID)
	assert.Equal(t, domain.FlowAwaitingOTP, got.State)
	assert.Equal(t, "basic", got.Captured["planId"])

	// saving again overwrites in place
	got.RegistrationID = "9cb2b72e-b4cd-4cb8-97d1-d48bd2b0e3a6"
	got.State = domain.FlowTokenLive
	require.NoError(t, flows.Save(ctx, got))

	again, err := flows.Get(ctx, flow.FlowID)
	require.NoError(t, err)
	assert.Equal(t, domain.FlowTokenLive, again.State)
	assert.Equal(t, got.RegistrationID, again.RegistrationID)

	require.NoError(t, flows.Delete(ctx, flow.FlowID))
	_, err = flows.Get(ctx, flow.FlowID)
	require.ErrorIs(t, err, ErrFlowNotFound)
}
