package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vehicletag/registration-node/internal/core/domain"
	"github.com/vehicletag/registration-node/internal/core/ports"
	"github.com/vehicletag/registration-node/internal/log"
)

// RecordStageRequest is the body of a stage write.
type RecordStageRequest struct {
	Stage          string            `json:"stage"`
	Status         string            `json:"status,omitempty"`
	Data           map[string]string `json:"data,omitempty"`
	RegistrationID string            `json:"registrationId,omitempty"`
	SessionID      string            `json:"sessionId,omitempty"`
}

// RecordStageResponse returns the authoritative registration id. Created is
// true when the write opened a fresh aggregate, including the case where the
// supplied id was stale.
type RecordStageResponse struct {
	RegistrationID string `json:"registrationId"`
	Created        bool   `json:"created"`
}

// StageEventResponse is one entry of the append only stage event log.
type StageEventResponse struct {
	ID        string             `json:"id"`
	Stage     domain.Stage       `json:"stage"`
	Status    domain.StageStatus `json:"status"`
	SessionID string             `json:"sessionId,omitempty"`
	Data      map[string]string  `json:"data,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

func (s *Server) recordStage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body RecordStageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req := ports.RecordStageRequest{
		Stage:     domain.Stage(body.Stage),
		Status:    domain.StageStatus(body.Status),
		Data:      body.Data,
		SessionID: body.SessionID,
	}
	if body.RegistrationID != "" {
		id, err := uuid.Parse(body.RegistrationID)
		if err != nil {
			writeError(ctx, w, http.StatusBadRequest, "invalid registration id")
			return
		}
		req.RegistrationID = &id
	}

	result, err := s.registrations.RecordStage(ctx, req)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	writeJSON(ctx, w, status, RecordStageResponse{
		RegistrationID: result.RegistrationID.String(),
		Created:        result.Created,
	})
}

func (s *Server) getRegistration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, "invalid registration id")
		return
	}

	reg, err := s.registrations.GetByID(ctx, id)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, toRegistrationResponse(reg))
}

func (s *Server) searchRegistrations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	mobile := r.URL.Query().Get("mobile")
	uid := r.URL.Query().Get("uid")

	var (
		regs []*domain.Registration
		err  error
	)
	switch {
	case mobile != "":
		regs, err = s.registrations.GetByMobile(ctx, mobile)
	case uid != "":
		regs, err = s.registrations.GetByUser(ctx, uid)
	default:
		writeError(ctx, w, http.StatusBadRequest, "either mobile or uid query parameter is required")
		return
	}
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	resp := make([]RegistrationResponse, 0, len(regs))
	for _, reg := range regs {
		resp = append(resp, toRegistrationResponse(reg))
	}
	writeJSON(ctx, w, http.StatusOK, resp)
}

func (s *Server) listStageEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, "invalid registration id")
		return
	}

	events, err := s.events.ListByRegistration(ctx, id)
	if err != nil {
		log.Error(ctx, "listing stage events", "err", err, "registrationID", id)
		writeError(ctx, w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := make([]StageEventResponse, 0, len(events))
	for _, ev := range events {
		resp = append(resp, StageEventResponse{
			ID:        ev.ID.String(),
			Stage:     ev.Record.Stage,
			Status:    ev.Record.Status,
			SessionID: ev.Record.SessionID,
			Data:      ev.Record.Data,
			Timestamp: ev.Record.Timestamp,
		})
	}
	writeJSON(ctx, w, http.StatusOK, resp)
}
