package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/vehicletag/registration-node/internal/core/domain"
	"github.com/vehicletag/registration-node/internal/core/services"
	"github.com/vehicletag/registration-node/internal/log"
	"github.com/vehicletag/registration-node/internal/repositories"
)

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ReauthResponse tells the client its session was rejected mid flow and a
// fresh OTP is on its way. The flow keeps the captured form data, the client
// resumes at OTP entry instead of starting over.
type ReauthResponse struct {
	Message        string           `json:"message"`
	Code           string           `json:"code"`
	FlowID         string           `json:"flowId"`
	State          domain.FlowState `json:"state"`
	RegistrationID string           `json:"registrationId,omitempty"`
}

// StageResponse is one stage record of an aggregate.
type StageResponse struct {
	Stage     domain.Stage       `json:"stage"`
	Label     string             `json:"label"`
	Order     int                `json:"order"`
	Status    domain.StageStatus `json:"status"`
	Data      map[string]string  `json:"data,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// UploadSlotResponse is one document slot of an aggregate.
type UploadSlotResponse struct {
	Kind          domain.UploadKind `json:"kind"`
	HasLocalImage bool              `json:"hasLocalImage"`
	Uploaded      bool              `json:"uploaded"`
}

// RegistrationResponse is the full aggregate view.
type RegistrationResponse struct {
	ID              string               `json:"id"`
	CurrentStage    domain.Stage         `json:"currentStage"`
	MobileNo        string               `json:"mobileNo,omitempty"`
	VehicleNo       string               `json:"vehicleNo,omitempty"`
	IsAuthenticated bool                 `json:"isAuthenticated"`
	UserID          string               `json:"uid,omitempty"`
	UserName        string               `json:"userName,omitempty"`
	Stages          []StageResponse      `json:"stages"`
	Uploads         []UploadSlotResponse `json:"uploads"`
	StartedAt       time.Time            `json:"startedAt"`
	UpdatedAt       time.Time            `json:"updatedAt"`
}

func toRegistrationResponse(reg *domain.Registration) RegistrationResponse {
	resp := RegistrationResponse{
		ID:              reg.ID.String(),
		CurrentStage:    reg.CurrentStage,
		MobileNo:        reg.MobileNo,
		VehicleNo:       reg.VehicleNo,
		IsAuthenticated: reg.IsAuthenticated,
		UserID:          reg.UserID,
		UserName:        reg.UserName,
		StartedAt:       reg.StartedAt,
		UpdatedAt:       reg.UpdatedAt,
	}
	for _, stage := range domain.Stages() {
		rec, ok := reg.Stages[stage]
		if !ok {
			continue
		}
		info := domain.StageLookup(stage)
		resp.Stages = append(resp.Stages, StageResponse{
			Stage:     rec.Stage,
			Label:     info.Label,
			Order:     info.Order,
			Status:    rec.Status,
			Data:      rec.Data,
			Timestamp: rec.Timestamp,
		})
	}
	for _, kind := range domain.UploadKinds() {
		slot := reg.Uploads.Slot(kind)
		resp.Uploads = append(resp.Uploads, UploadSlotResponse{
			Kind:          slot.Kind,
			HasLocalImage: slot.HasLocalImage,
			Uploaded:      slot.Uploaded,
		})
	}
	return resp
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error(ctx, "encoding response", "err", err)
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, msg string) {
	writeJSON(ctx, w, status, ErrorResponse{Message: msg})
}

// writeServiceError maps domain and service errors onto HTTP statuses. A
// session rejection that already restarted validation becomes a 409 carrying
// the flow to resume, so clients do not treat it as a dead end.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	var reauth *services.ReauthRequired
	if errors.As(err, &reauth) {
		writeJSON(ctx, w, http.StatusConflict, ReauthResponse{
			Message:        reauth.Error(),
			Code:           reauth.Cause.Code,
			FlowID:         reauth.Flow.FlowID,
			State:          reauth.Flow.State,
			RegistrationID: reauth.Flow.RegistrationID,
		})
		return
	}

	var issuerErr *domain.IssuerError
	switch {
	case errors.Is(err, repositories.ErrRegistrationNotFound),
		errors.Is(err, repositories.ErrFlowNotFound):
		writeError(ctx, w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrInFlight):
		writeError(ctx, w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrEmptyStage),
		errors.Is(err, services.ErrUnknownUploadKind),
		errors.Is(err, services.ErrNoLocalImage),
		errors.Is(err, services.ErrNotAwaitingOTP):
		writeError(ctx, w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrUploadsIncomplete),
		errors.Is(err, services.ErrUploadsRequired):
		writeError(ctx, w, http.StatusPreconditionFailed, err.Error())
	case errors.Is(err, services.ErrNoLiveSession):
		writeError(ctx, w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &issuerErr):
		writeJSON(ctx, w, http.StatusBadGateway, ErrorResponse{Message: issuerErr.Description, Code: issuerErr.Code})
	default:
		log.Error(ctx, "unhandled service error", "err", err)
		writeError(ctx, w, http.StatusInternalServerError, "internal error")
	}
}
