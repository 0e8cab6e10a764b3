package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// SessionToken is the short lived requestId/sessionId pair issued by the
// issuer service. A token may be rejected at any call; once the issuer
// reports it invalid it must never be reused.
type SessionToken struct {
	RequestID string `json:"requestId"`
	SessionID string `json:"sessionId"`
}

// FlowState is the session state of one registration attempt.
type FlowState string

// Session continuity states
const (
	FlowNoToken     FlowState = "NO_TOKEN"
	FlowAwaitingOTP FlowState = "AWAITING_OTP"
	FlowTokenLive   FlowState = "TOKEN_LIVE"
	FlowTokenDead   FlowState = "TOKEN_DEAD"
	FlowRegistered  FlowState = "REGISTERED"
)

// Flow is the explicit resumable workflow value object handed between
// workflow steps: the registration id, the flow key under which the session
// token is held, and the form fields captured so far. It replaces implicit
// screen-transition parameters, so an expired session can be recovered
// without the user re-entering anything.
type Flow struct {
	FlowID         string            `json:"flowId"`
	RegistrationID string            `json:"registrationId,omitempty"`
	State          FlowState         `json:"state"`
	Captured       map[string]string `json:"captured,omitempty"`
}

// NewFlow starts a flow with the given captured form fields.
func NewFlow(captured map[string]string) *Flow {
	if captured == nil {
		captured = make(map[string]string)
	}
	return &Flow{
		FlowID:   uuid.NewString(),
		State:    FlowNoToken,
		Captured: captured,
	}
}

// SessionKey is the key the flow's session token is held under. Once a
// registration id has been assigned the token follows it, so later screens
// can find the session with only the registration id in hand.
func (f *Flow) SessionKey() string {
	if f.RegistrationID != "" {
		return f.RegistrationID
	}
	return f.FlowID
}

// Capture merges form fields into the flow, keeping earlier values for keys
// the new data does not supply.
func (f *Flow) Capture(data map[string]string) {
	for k, v := range data {
		f.Captured[k] = v
	}
}

// Issuer error codes with special meaning to the continuity layer.
const (
	CodeInvalidSession        = "A011"
	CodeDuplicateRegistration = "A023"
)

// IssuerError is the structured error returned by the issuer service.
type IssuerError struct {
	Code        string
	Description string
}

// Error implements the error interface
func (e *IssuerError) Error() string {
	return fmt.Sprintf("issuer error %s: %s", e.Code, e.Description)
}

// IsSessionInvalid tells whether the error means the session can no longer be
// used and a fresh token must be obtained.
func IsSessionInvalid(err error) bool {
	var ie *IssuerError
	if !errors.As(err, &ie) {
		return false
	}
	return ie.Code == CodeInvalidSession || ie.Code == CodeDuplicateRegistration
}

// IsDuplicateRegistration tells whether the issuer already has a registration
// for the vehicle.
func IsDuplicateRegistration(err error) bool {
	var ie *IssuerError
	if !errors.As(err, &ie) {
		return false
	}
	return ie.Code == CodeDuplicateRegistration
}
