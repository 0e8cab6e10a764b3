package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlowSessionKeyFollowsRegistrationID(t *testing.T) {
	flow := NewFlow(nil)
	assert.Equal(t, flow.FlowID, flow.SessionKey())

	flow.RegistrationID = "9cb2b72e-b4cd-4cb8-97d1-d48bd2b0e3a6"
	assert.Equal(t, flow.RegistrationID, flow.SessionKey())
}

func TestFlowCaptureKeepsEarlierValues(t *testing.T) {
	flow := NewFlow(map[string]string{DataKeyMobileNo: "9876543210"})
	flow.Capture(map[string]string{DataKeyVehicleNo: "KA01AB1234", "planId": "basic"})

	assert.Equal(t, "9876543210", flow.Captured[DataKeyMobileNo])
	assert.Equal(t, "KA01AB1234", flow.Captured[DataKeyVehicleNo])
	assert.Equal(t, "basic", flow.Captured["planId"])
}

func TestIsSessionInvalid(t *testing.T) {
	type testConfig struct {
		name string
		err  error
		want bool
	}
	for _, tc := range []testConfig{
		{
			name: "invalid session code",
			err:  &IssuerError{Code: CodeInvalidSession, Description: "session expired"},
			want: true,
		},
		{
			name: "duplicate registration also kills the session",
			err:  &IssuerError{Code: CodeDuplicateRegistration, Description: "vehicle already registered"},
			want: true,
		},
		{
			name: "other issuer code",
			err:  &IssuerError{Code: "A001", Description: "kyc incomplete"},
			want: false,
		},
		{
			name: "wrapped issuer error",
			err:  fmt.Errorf("verifying otp: %w", &IssuerError{Code: CodeInvalidSession}),
			want: true,
		},
		{
			name: "plain error",
			err:  fmt.Errorf("connection refused"),
			want: false,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsSessionInvalid(tc.err))
		})
	}
}
