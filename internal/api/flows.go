package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vehicletag/registration-node/internal/core/domain"
	"github.com/vehicletag/registration-node/internal/core/ports"
	"github.com/vehicletag/registration-node/internal/core/services"
	"github.com/vehicletag/registration-node/internal/log"
)

// StartFlowRequest opens a registration attempt and triggers customer
// validation with the issuer.
type StartFlowRequest struct {
	MobileNo  string            `json:"mobileNo"`
	VehicleNo string            `json:"vehicleNo"`
	Data      map[string]string `json:"data,omitempty"`
}

// VerifyOTPRequest carries the one time code the customer received.
type VerifyOTPRequest struct {
	OTP string `json:"otp"`
}

// CreateCustomerFlowRequest is the account creation form.
type CreateCustomerFlowRequest struct {
	Name        string `json:"name"`
	DocumentNo  string `json:"documentNo"`
	DateOfBirth string `json:"dateOfBirth"`
}

// ActivateTagRequest carries the scanned tag serial.
type ActivateTagRequest struct {
	TagSerial string `json:"tagSerial"`
}

// RegisterTagFlowRequest is the final registration form.
type RegisterTagFlowRequest struct {
	CustomerID string `json:"custId"`
	TagSerial  string `json:"tagSerial"`
	PlanID     string `json:"planId"`
}

// FlowResponse is the resumable flow view returned by every flow endpoint.
type FlowResponse struct {
	FlowID         string            `json:"flowId"`
	RegistrationID string            `json:"registrationId,omitempty"`
	State          domain.FlowState  `json:"state"`
	Captured       map[string]string `json:"captured,omitempty"`
}

// CustomerResponse is the customer record returned after OTP verification.
type CustomerResponse struct {
	CustomerID string       `json:"custId"`
	Name       string       `json:"name,omitempty"`
	KYCStatus  string       `json:"kycStatus,omitempty"`
	Flow       FlowResponse `json:"flow"`
}

func toFlowResponse(flow *domain.Flow) FlowResponse {
	return FlowResponse{
		FlowID:         flow.FlowID,
		RegistrationID: flow.RegistrationID,
		State:          flow.State,
		Captured:       flow.Captured,
	}
}

func (s *Server) startFlow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body StartFlowRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.MobileNo == "" || body.VehicleNo == "" {
		writeError(ctx, w, http.StatusBadRequest, "mobileNo and vehicleNo are required")
		return
	}

	captured := make(map[string]string, len(body.Data)+2)
	for k, v := range body.Data {
		captured[k] = v
	}
	captured[domain.DataKeyMobileNo] = body.MobileNo
	captured[domain.DataKeyVehicleNo] = body.VehicleNo

	flow := domain.NewFlow(captured)
	if err := s.continuity.StartValidation(ctx, flow); err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	result, err := s.registrations.RecordStage(ctx, ports.RecordStageRequest{
		Stage:  domain.StageValidateCustomer,
		Status: domain.StageStatusInProgress,
		Data: map[string]string{
			domain.DataKeyMobileNo:  body.MobileNo,
			domain.DataKeyVehicleNo: body.VehicleNo,
		},
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	if err := s.continuity.Bind(ctx, flow, result.RegistrationID.String()); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	s.saveFlow(ctx, flow)

	writeJSON(ctx, w, http.StatusCreated, toFlowResponse(flow))
}

func (s *Server) getFlow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	flow, ok := s.loadFlow(ctx, w, chi.URLParam(r, "flowID"))
	if !ok {
		return
	}
	writeJSON(ctx, w, http.StatusOK, toFlowResponse(flow))
}

func (s *Server) verifyOTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	flow, ok := s.loadFlow(ctx, w, chi.URLParam(r, "flowID"))
	if !ok {
		return
	}

	var body VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.OTP == "" {
		writeError(ctx, w, http.StatusBadRequest, "otp is required")
		return
	}

	details, err := s.continuity.VerifyOTP(ctx, flow, body.OTP)
	if err != nil {
		s.saveFlow(ctx, flow)
		writeServiceError(ctx, w, err)
		return
	}

	s.recordFlowStage(ctx, flow, domain.StageValidateOTP, domain.StageStatusCompleted, map[string]string{
		"custId":    details.CustomerID,
		"kycStatus": details.KYCStatus,
	})
	s.saveFlow(ctx, flow)

	writeJSON(ctx, w, http.StatusOK, CustomerResponse{
		CustomerID: details.CustomerID,
		Name:       details.Name,
		KYCStatus:  details.KYCStatus,
		Flow:       toFlowResponse(flow),
	})
}

func (s *Server) createCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	flow, ok := s.loadFlow(ctx, w, chi.URLParam(r, "flowID"))
	if !ok {
		return
	}

	var body CreateCustomerFlowRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	var custID string
	err := s.guard.Do(services.ActionCreateCustomer+":"+flow.FlowID, func() error {
		return s.continuity.Execute(ctx, flow, func(ctx context.Context, token domain.SessionToken) error {
			id, err := s.gateway.CreateCustomer(ctx, token, ports.CreateCustomerRequest{
				Name:        body.Name,
				DocumentNo:  body.DocumentNo,
				DateOfBirth: body.DateOfBirth,
				MobileNo:    flow.Captured[domain.DataKeyMobileNo],
			})
			if err != nil {
				return err
			}
			custID = id
			return nil
		})
	})
	if err != nil {
		s.saveFlow(ctx, flow)
		writeServiceError(ctx, w, err)
		return
	}

	flow.Capture(map[string]string{"custId": custID})
	s.recordFlowStage(ctx, flow, domain.StageCreateCustomer, domain.StageStatusCompleted, map[string]string{
		"custId": custID,
	})
	s.saveFlow(ctx, flow)

	writeJSON(ctx, w, http.StatusOK, CustomerResponse{CustomerID: custID, Flow: toFlowResponse(flow)})
}

func (s *Server) activateTag(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	flow, ok := s.loadFlow(ctx, w, chi.URLParam(r, "flowID"))
	if !ok {
		return
	}

	var body ActivateTagRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.TagSerial == "" {
		writeError(ctx, w, http.StatusBadRequest, "tagSerial is required")
		return
	}

	err := s.continuity.Execute(ctx, flow, func(ctx context.Context, token domain.SessionToken) error {
		return s.gateway.ActivateTag(ctx, token, body.TagSerial)
	})
	if err != nil {
		s.saveFlow(ctx, flow)
		writeServiceError(ctx, w, err)
		return
	}

	flow.Capture(map[string]string{"tagSerial": body.TagSerial})
	s.recordFlowStage(ctx, flow, domain.StageActivateTag, domain.StageStatusCompleted, map[string]string{
		"serialNo": body.TagSerial,
	})
	s.saveFlow(ctx, flow)

	writeJSON(ctx, w, http.StatusOK, toFlowResponse(flow))
}

func (s *Server) registerTag(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	flow, ok := s.loadFlow(ctx, w, chi.URLParam(r, "flowID"))
	if !ok {
		return
	}

	var body RegisterTagFlowRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req := ports.RegisterTagRequest{
		CustomerID: firstNonEmpty(body.CustomerID, flow.Captured["custId"]),
		VehicleNo:  flow.Captured[domain.DataKeyVehicleNo],
		TagSerial:  firstNonEmpty(body.TagSerial, flow.Captured["tagSerial"]),
		PlanID:     body.PlanID,
	}

	err := s.guard.Do(services.ActionRegisterTag+":"+flow.FlowID, func() error {
		return s.continuity.Finalize(ctx, flow, req)
	})
	if err != nil {
		s.saveFlow(ctx, flow)
		writeServiceError(ctx, w, err)
		return
	}

	s.recordFlowStage(ctx, flow, domain.StageRegisterTag, domain.StageStatusCompleted, map[string]string{
		"custId":   req.CustomerID,
		"serialNo": req.TagSerial,
		"planId":   req.PlanID,
	})
	s.saveFlow(ctx, flow)

	writeJSON(ctx, w, http.StatusOK, toFlowResponse(flow))
}

// loadFlow fetches the flow or writes the error response itself.
func (s *Server) loadFlow(ctx context.Context, w http.ResponseWriter, flowID string) (*domain.Flow, bool) {
	flow, err := s.flows.Get(ctx, flowID)
	if err != nil {
		writeServiceError(ctx, w, err)
		return nil, false
	}
	return flow, true
}

// saveFlow persists flow state changes. A failed save is logged, not
// surfaced: the in flight response already reflects the new state and the
// flow store is a continuity aid, not the system of record.
func (s *Server) saveFlow(ctx context.Context, flow *domain.Flow) {
	if err := s.flows.Save(ctx, flow); err != nil {
		log.Error(ctx, "saving flow", "err", err, "flowID", flow.FlowID)
	}
}

// recordFlowStage writes a stage record under the flow's registration id.
// Recording failures are logged and swallowed: an already executed external
// mutation must not look failed because tracking lagged.
func (s *Server) recordFlowStage(ctx context.Context, flow *domain.Flow, stage domain.Stage, status domain.StageStatus, data map[string]string) {
	req := ports.RecordStageRequest{Stage: stage, Status: status, Data: data}
	if flow.RegistrationID != "" {
		if id, err := uuid.Parse(flow.RegistrationID); err == nil {
			req.RegistrationID = &id
		}
	}
	result, err := s.registrations.RecordStage(ctx, req)
	if err != nil {
		log.Error(ctx, "recording stage", "err", err, "stage", stage, "flowID", flow.FlowID)
		return
	}
	if flow.RegistrationID == "" || result.Created {
		if err := s.continuity.Bind(ctx, flow, result.RegistrationID.String()); err != nil {
			log.Warn(ctx, "rebinding flow", "err", err, "flowID", flow.FlowID)
		}
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
