package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/vehicletag/registration-node/internal/core/domain"
	"github.com/vehicletag/registration-node/internal/core/ports"
	"github.com/vehicletag/registration-node/internal/log"
)

var (
	// ErrNoLiveSession the flow has no usable session token
	ErrNoLiveSession = errors.New("no live session for this flow")
	// ErrNotAwaitingOTP the flow is not in the OTP verification step
	ErrNotAwaitingOTP = errors.New("flow is not awaiting OTP verification")
	// ErrUploadsRequired the final registration needs all documents uploaded
	ErrUploadsRequired = errors.New("all required documents must be uploaded before registration")
)

// ReauthRequired reports that the issuer rejected the flow's session and a
// fresh validation has already been started. The flow carries the previously
// captured form data untouched; the caller resumes at OTP verification
// without the user re-entering anything.
type ReauthRequired struct {
	Flow  *domain.Flow
	Cause *domain.IssuerError
}

// Error implements the error interface
func (e *ReauthRequired) Error() string {
	return fmt.Sprintf("session rejected (%s), re-validation started, resume at OTP verification", e.Cause.Code)
}

type continuity struct {
	gateway  ports.IssuerGateway
	sessions ports.SessionRepository
	repo     ports.RegistrationRepository
}

// NewContinuity returns the session continuity manager
func NewContinuity(gateway ports.IssuerGateway, sessions ports.SessionRepository, repo ports.RegistrationRepository) ports.ContinuityService {
	return &continuity{
		gateway:  gateway,
		sessions: sessions,
		repo:     repo,
	}
}

// StartValidation obtains fresh session credentials for the flow from the
// issuer's customer validation endpoint and moves the flow to AWAITING_OTP.
func (c *continuity) StartValidation(ctx context.Context, flow *domain.Flow) error {
	mobile := flow.Captured[domain.DataKeyMobileNo]
	vehicle := flow.Captured[domain.DataKeyVehicleNo]
	token, err := c.gateway.ValidateCustomer(ctx, mobile, vehicle)
	if err != nil {
		return fmt.Errorf("validating customer: %w", err)
	}
	if err := c.sessions.Set(ctx, flow.SessionKey(), *token); err != nil {
		return fmt.Errorf("storing session: %w", err)
	}
	flow.State = domain.FlowAwaitingOTP
	return nil
}

// VerifyOTP confirms the one time code and moves the flow to TOKEN_LIVE.
func (c *continuity) VerifyOTP(ctx context.Context, flow *domain.Flow, otp string) (*ports.CustomerDetails, error) {
	if flow.State != domain.FlowAwaitingOTP {
		return nil, ErrNotAwaitingOTP
	}
	token, err := c.sessions.Get(ctx, flow.SessionKey())
	if err != nil {
		return nil, ErrNoLiveSession
	}
	details, err := c.gateway.VerifyOTP(ctx, otp, token)
	if err != nil {
		return nil, c.classify(ctx, flow, err)
	}
	flow.State = domain.FlowTokenLive
	return details, nil
}

// Bind attaches a freshly assigned registration id to the flow and moves the
// session token under the new key, so later screens holding only the
// registration id still find the live session.
func (c *continuity) Bind(ctx context.Context, flow *domain.Flow, registrationID string) error {
	if flow.RegistrationID == registrationID {
		return nil
	}
	oldKey := flow.SessionKey()
	flow.RegistrationID = registrationID
	if token, err := c.sessions.Get(ctx, oldKey); err == nil {
		if err := c.sessions.Set(ctx, flow.SessionKey(), token); err != nil {
			return fmt.Errorf("rebinding session: %w", err)
		}
		if err := c.sessions.Delete(ctx, oldKey); err != nil {
			log.Warn(ctx, "deleting old session key", "err", err, "key", oldKey)
		}
	}
	return nil
}

// Execute issues an external mutation under the flow's current token. When
// the issuer signals a session level failure the token is marked dead, a
// fresh validation is started with the captured form data and the caller
// receives *ReauthRequired. Any other structured error is surfaced unchanged.
func (c *continuity) Execute(ctx context.Context, flow *domain.Flow, call ports.ContinuityCall) error {
	token, err := c.sessions.Get(ctx, flow.SessionKey())
	if err != nil {
		return ErrNoLiveSession
	}
	if err := call(ctx, token); err != nil {
		return c.classify(ctx, flow, err)
	}
	return nil
}

// Finalize issues the final tag registration. The terminal REGISTERED state
// is reached only when the issuer accepts the registration and every required
// document upload has succeeded.
func (c *continuity) Finalize(ctx context.Context, flow *domain.Flow, req ports.RegisterTagRequest) error {
	if flow.RegistrationID != "" {
		regID, err := uuid.Parse(flow.RegistrationID)
		if err != nil {
			return fmt.Errorf("invalid registration id %q: %w", flow.RegistrationID, err)
		}
		reg, err := c.repo.GetByID(ctx, regID)
		if err != nil {
			return fmt.Errorf("loading registration %s: %w", regID, err)
		}
		if !reg.Uploads.AllUploaded() {
			return ErrUploadsRequired
		}
	}
	if err := c.Execute(ctx, flow, func(ctx context.Context, token domain.SessionToken) error {
		return c.gateway.RegisterTag(ctx, token, req)
	}); err != nil {
		return err
	}
	flow.State = domain.FlowRegistered
	return nil
}

// classify turns a session level issuer error into a recovery: the dead token
// is dropped, validation restarts with the captured data intact, and the
// caller is told to resume at OTP verification. Everything else passes
// through untouched for the screen to handle.
func (c *continuity) classify(ctx context.Context, flow *domain.Flow, err error) error {
	if !domain.IsSessionInvalid(err) {
		return err
	}
	var cause *domain.IssuerError
	errors.As(err, &cause)
	log.Warn(ctx, "issuer rejected session, re-validating", "code", cause.Code, "flowID", flow.FlowID)

	flow.State = domain.FlowTokenDead
	if derr := c.sessions.Delete(ctx, flow.SessionKey()); derr != nil {
		log.Warn(ctx, "dropping dead session", "err", derr, "key", flow.SessionKey())
	}
	flow.State = domain.FlowNoToken
	if verr := c.StartValidation(ctx, flow); verr != nil {
		return fmt.Errorf("session rejected and re-validation failed: %w", verr)
	}
	return &ReauthRequired{Flow: flow, Cause: cause}
}
