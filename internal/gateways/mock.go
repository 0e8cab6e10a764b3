package gateways

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/vehicletag/registration-node/internal/core/domain"
	"github.com/vehicletag/registration-node/internal/core/ports"
)

// IssuerMock is an in memory issuer used in tests. Each operation can be
// scripted to fail; by default everything succeeds and tokens are fabricated.
type IssuerMock struct {
	mu sync.Mutex

	// ValidateErr..RegisterErr, when set, are returned by the matching call.
	ValidateErr error
	VerifyErr   error
	CreateErr   error
	UploadErr   error
	ActivateErr error
	RegisterErr error

	// FailUploads holds upload kinds that should fail, checked before UploadErr.
	FailUploads map[domain.UploadKind]error

	validated []string
	uploaded  []domain.UploadKind
	tokens    map[string]bool
}

// NewIssuerMock returns a mock issuer gateway with no scripted failures.
func NewIssuerMock() *IssuerMock {
	return &IssuerMock{
		FailUploads: make(map[domain.UploadKind]error),
		tokens:      make(map[string]bool),
	}
}

// ValidateCustomer fabricates a fresh session token.
func (m *IssuerMock) ValidateCustomer(_ context.Context, mobileNo, _ string) (*domain.SessionToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ValidateErr != nil {
		return nil, m.ValidateErr
	}
	token := domain.SessionToken{RequestID: uuid.NewString(), SessionID: uuid.NewString()}
	m.tokens[token.SessionID] = true
	m.validated = append(m.validated, mobileNo)
	return &token, nil
}

// VerifyOTP succeeds for any OTP unless scripted otherwise.
func (m *IssuerMock) VerifyOTP(_ context.Context, _ string, token domain.SessionToken) (*ports.CustomerDetails, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.VerifyErr != nil {
		return nil, m.VerifyErr
	}
	if err := m.checkToken(token); err != nil {
		return nil, err
	}
	return &ports.CustomerDetails{CustomerID: "CUST-1", KYCStatus: "FULL"}, nil
}

// CreateCustomer returns a fabricated customer id.
func (m *IssuerMock) CreateCustomer(_ context.Context, token domain.SessionToken, _ ports.CreateCustomerRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return "", m.CreateErr
	}
	if err := m.checkToken(token); err != nil {
		return "", err
	}
	return "CUST-1", nil
}

// UploadDocument records the uploaded kind.
func (m *IssuerMock) UploadDocument(_ context.Context, token domain.SessionToken, kind domain.UploadKind, _ []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.FailUploads[kind]; ok {
		return err
	}
	if m.UploadErr != nil {
		return m.UploadErr
	}
	if err := m.checkToken(token); err != nil {
		return err
	}
	m.uploaded = append(m.uploaded, kind)
	return nil
}

// ActivateTag succeeds unless scripted otherwise.
func (m *IssuerMock) ActivateTag(_ context.Context, token domain.SessionToken, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ActivateErr != nil {
		return m.ActivateErr
	}
	return m.checkToken(token)
}

// RegisterTag succeeds unless scripted otherwise.
func (m *IssuerMock) RegisterTag(_ context.Context, token domain.SessionToken, _ ports.RegisterTagRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RegisterErr != nil {
		return m.RegisterErr
	}
	return m.checkToken(token)
}

// ExpireSession marks an issued token invalid, so the next call carrying it
// fails with the invalid session code.
func (m *IssuerMock) ExpireSession(token domain.SessionToken) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token.SessionID] = false
}

// Uploaded returns the kinds uploaded so far, in call order.
func (m *IssuerMock) Uploaded() []domain.UploadKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.UploadKind, len(m.uploaded))
	copy(out, m.uploaded)
	return out
}

// Validated returns the mobile numbers validation was requested for.
func (m *IssuerMock) Validated() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.validated))
	copy(out, m.validated)
	return out
}

func (m *IssuerMock) checkToken(token domain.SessionToken) error {
	live, known := m.tokens[token.SessionID]
	if !known || !live {
		return &domain.IssuerError{
			Code:        domain.CodeInvalidSession,
			Description: fmt.Sprintf("session %s is not valid", token.SessionID),
		}
	}
	return nil
}

var _ ports.IssuerGateway = (*IssuerMock)(nil)
