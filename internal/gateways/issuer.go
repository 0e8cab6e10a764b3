package gateways

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/vehicletag/registration-node/internal/core/domain"
	"github.com/vehicletag/registration-node/internal/core/ports"
	"github.com/vehicletag/registration-node/pkg/http"
)

const (
	headerAPIKey    = "X-Api-Key"
	headerRequestID = "X-Issuer-Request-Id"
	headerSessionID = "X-Issuer-Session-Id"
)

// envelope is the common response wrapper of the issuer API. Business
// failures arrive with HTTP 200 and Success=false; Code carries the
// structured error the continuity layer inspects.
type envelope struct {
	Success bool            `json:"success"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// IssuerClient talks to the tag issuer's validation and registration API.
type IssuerClient struct {
	conn    *http.Client
	baseURL string
	agentID string
	apiKey  string
}

// NewIssuerClient creates an issuer API client.
func NewIssuerClient(conn *http.Client, baseURL, agentID, apiKey string) ports.IssuerGateway {
	return &IssuerClient{
		conn:    conn,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		agentID: agentID,
		apiKey:  apiKey,
	}
}

// ValidateCustomer triggers customer validation and OTP delivery. The returned
// token identifies the issuer session all later calls run under.
func (c *IssuerClient) ValidateCustomer(ctx context.Context, mobileNo, vehicleNo string) (*domain.SessionToken, error) {
	reqBody := map[string]string{
		"agentId":   c.agentID,
		"mobileNo":  mobileNo,
		"vehicleNo": vehicleNo,
	}
	var result domain.SessionToken
	if err := c.call(ctx, "/customer/validate", nil, reqBody, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// VerifyOTP confirms the OTP for the session and returns the customer record
// the issuer holds.
func (c *IssuerClient) VerifyOTP(ctx context.Context, otp string, token domain.SessionToken) (*ports.CustomerDetails, error) {
	reqBody := map[string]string{
		"agentId": c.agentID,
		"otp":     otp,
	}
	var result struct {
		CustomerID string `json:"custId"`
		Name       string `json:"name"`
		MobileNo   string `json:"mobileNo"`
		VehicleNo  string `json:"vehicleNo"`
		KYCStatus  string `json:"kycStatus"`
	}
	if err := c.call(ctx, "/customer/verify-otp", &token, reqBody, &result); err != nil {
		return nil, err
	}
	return &ports.CustomerDetails{
		CustomerID: result.CustomerID,
		Name:       result.Name,
		MobileNo:   result.MobileNo,
		VehicleNo:  result.VehicleNo,
		KYCStatus:  result.KYCStatus,
	}, nil
}

// CreateCustomer creates the customer account and wallet, returning the
// issuer's customer id.
func (c *IssuerClient) CreateCustomer(ctx context.Context, token domain.SessionToken, req ports.CreateCustomerRequest) (string, error) {
	reqBody := map[string]string{
		"agentId":     c.agentID,
		"name":        req.Name,
		"documentNo":  req.DocumentNo,
		"dateOfBirth": req.DateOfBirth,
		"mobileNo":    req.MobileNo,
	}
	var result struct {
		CustomerID string `json:"custId"`
	}
	if err := c.call(ctx, "/customer/create", &token, reqBody, &result); err != nil {
		return "", err
	}
	return result.CustomerID, nil
}

// UploadDocument sends one captured image to the issuer.
func (c *IssuerClient) UploadDocument(ctx context.Context, token domain.SessionToken, kind domain.UploadKind, image []byte) error {
	reqBody := map[string]any{
		"agentId":   c.agentID,
		"imageType": string(kind),
		"image":     image, // base64 encoded on the wire
	}
	return c.call(ctx, "/document/upload", &token, reqBody, nil)
}

// ActivateTag activates the physical tag for the session's customer.
func (c *IssuerClient) ActivateTag(ctx context.Context, token domain.SessionToken, tagSerial string) error {
	reqBody := map[string]string{
		"agentId":  c.agentID,
		"serialNo": tagSerial,
	}
	return c.call(ctx, "/tag/activate", &token, reqBody, nil)
}

// RegisterTag performs the final registration of the tag against the vehicle.
func (c *IssuerClient) RegisterTag(ctx context.Context, token domain.SessionToken, req ports.RegisterTagRequest) error {
	reqBody := map[string]string{
		"agentId":   c.agentID,
		"custId":    req.CustomerID,
		"vehicleNo": req.VehicleNo,
		"serialNo":  req.TagSerial,
		"planId":    req.PlanID,
	}
	return c.call(ctx, "/tag/register", &token, reqBody, nil)
}

// call posts body to path and decodes the envelope's result into out. A
// Success=false envelope becomes a *domain.IssuerError.
func (c *IssuerClient) call(ctx context.Context, path string, token *domain.SessionToken, body any, out any) error {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return errors.WithStack(err)
	}

	headers := map[string]string{headerAPIKey: c.apiKey}
	if token != nil {
		headers[headerRequestID] = token.RequestID
		headers[headerSessionID] = token.SessionID
	}

	resp, err := c.conn.Post(ctx, fmt.Sprintf("%s%s", c.baseURL, path), reqBody, headers)
	if err != nil {
		return errors.WithStack(err)
	}

	var env envelope
	if err := json.Unmarshal(resp, &env); err != nil {
		return errors.WithStack(err)
	}
	if !env.Success {
		return &domain.IssuerError{Code: env.Code, Description: env.Message}
	}
	if out != nil && len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}
