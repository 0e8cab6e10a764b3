package ports

import (
	"context"

	"github.com/vehicletag/registration-node/internal/core/domain"
)

// CustomerDetails is the customer record the issuer returns after OTP
// verification.
type CustomerDetails struct {
	CustomerID string
	Name       string
	MobileNo   string
	VehicleNo  string
	KYCStatus  string
}

// CreateCustomerRequest is the payload of the account and wallet creation call.
type CreateCustomerRequest struct {
	Name        string
	DocumentNo  string
	DateOfBirth string
	MobileNo    string
}

// RegisterTagRequest is the payload of the final tag registration call.
type RegisterTagRequest struct {
	CustomerID string
	VehicleNo  string
	TagSerial  string
	PlanID     string
}

// IssuerGateway wraps the external validation/registration service. Errors of
// type *domain.IssuerError carry the structured code the continuity layer
// inspects; anything else is a transport failure.
type IssuerGateway interface {
	ValidateCustomer(ctx context.Context, mobileNo, vehicleNo string) (*domain.SessionToken, error)
	VerifyOTP(ctx context.Context, otp string, token domain.SessionToken) (*CustomerDetails, error)
	CreateCustomer(ctx context.Context, token domain.SessionToken, req CreateCustomerRequest) (string, error)
	UploadDocument(ctx context.Context, token domain.SessionToken, kind domain.UploadKind, image []byte) error
	ActivateTag(ctx context.Context, token domain.SessionToken, tagSerial string) error
	RegisterTag(ctx context.Context, token domain.SessionToken, req RegisterTagRequest) error
}

// IdentityProvider supplies the currently authenticated agent, or false when
// the caller is anonymous.
type IdentityProvider interface {
	CurrentUser(ctx context.Context) (domain.User, bool)
}
