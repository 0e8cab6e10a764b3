package ports

import (
	"context"

	"github.com/vehicletag/registration-node/internal/core/domain"
)

// ContinuityCall is the external mutation to issue under session continuity.
type ContinuityCall func(ctx context.Context, token domain.SessionToken) error

// ContinuityService wraps every external mutation. When the issuer rejects a
// session it transparently obtains fresh credentials, preserving the flow's
// captured form data, and reports that the caller must resume at OTP
// verification.
type ContinuityService interface {
	StartValidation(ctx context.Context, flow *domain.Flow) error
	VerifyOTP(ctx context.Context, flow *domain.Flow, otp string) (*CustomerDetails, error)
	Bind(ctx context.Context, flow *domain.Flow, registrationID string) error
	Execute(ctx context.Context, flow *domain.Flow, call ContinuityCall) error
	Finalize(ctx context.Context, flow *domain.Flow, req RegisterTagRequest) error
}
