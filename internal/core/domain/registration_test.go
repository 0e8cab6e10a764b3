package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeStageReplacesOnlyItsOwnRecord(t *testing.T) {
	now := time.Now()
	reg := NewRegistration(StageRecord{
		Stage:     StageValidateCustomer,
		Status:    StageStatusCompleted,
		Data:      map[string]string{DataKeyMobileNo: "9876543210", DataKeyVehicleNo: "KA01AB1234"},
		Timestamp: now,
	}, now)

	reg.MergeStage(StageRecord{
		Stage:     StageValidateOTP,
		Status:    StageStatusCompleted,
		Timestamp: now.Add(time.Minute),
	}, now.Add(time.Minute))

	require.Len(t, reg.Stages, 2)
	assert.Equal(t, StageValidateOTP, reg.CurrentStage)
	assert.Equal(t, StageStatusCompleted, reg.Stages[StageValidateCustomer].Status)

	// a later write to an existing stage replaces that record in full
	reg.MergeStage(StageRecord{
		Stage:     StageValidateOTP,
		Status:    StageStatusRejected,
		Data:      map[string]string{"reason": "expired"},
		Timestamp: now.Add(2 * time.Minute),
	}, now.Add(2*time.Minute))

	require.Len(t, reg.Stages, 2)
	assert.Equal(t, StageStatusRejected, reg.Stages[StageValidateOTP].Status)
	assert.Equal(t, "expired", reg.Stages[StageValidateOTP].Data["reason"])
	assert.Equal(t, StageStatusCompleted, reg.Stages[StageValidateCustomer].Status)
}

func TestBackfillFirstWriteWins(t *testing.T) {
	now := time.Now()
	reg := NewRegistration(StageRecord{
		Stage:  StageValidateCustomer,
		Status: StageStatusCompleted,
		Data:   map[string]string{DataKeyMobileNo: "9876543210"},
	}, now)

	assert.Equal(t, "9876543210", reg.MobileNo)
	assert.Empty(t, reg.VehicleNo)

	reg.MergeStage(StageRecord{
		Stage:  StageValidateOTP,
		Status: StageStatusCompleted,
		Data:   map[string]string{DataKeyMobileNo: "1112223334", DataKeyVehicleNo: "KA01AB1234"},
	}, now)

	// mobile keeps its first value, vehicle fills in from the later write
	assert.Equal(t, "9876543210", reg.MobileNo)
	assert.Equal(t, "KA01AB1234", reg.VehicleNo)
}

func TestAttachUserNeverDowngrades(t *testing.T) {
	now := time.Now()
	reg := NewRegistration(StageRecord{Stage: StageValidateCustomer, Status: StageStatusStarted}, now)

	reg.AttachUser(User{})
	assert.False(t, reg.IsAuthenticated)

	reg.AttachUser(User{ID: "agent-1", DisplayName: "Agent One", Email: "one@example.com"})
	assert.True(t, reg.IsAuthenticated)
	assert.Equal(t, "agent-1", reg.UserID)

	reg.AttachUser(User{ID: "agent-2", DisplayName: "Agent Two"})
	assert.Equal(t, "agent-1", reg.UserID)
	assert.Equal(t, "Agent One", reg.UserName)

	reg.AttachUser(User{})
	assert.True(t, reg.IsAuthenticated)
	assert.Equal(t, "agent-1", reg.UserID)
}
