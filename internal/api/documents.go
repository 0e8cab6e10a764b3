package api

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vehicletag/registration-node/internal/core/domain"
)

// maxImageSize caps document uploads at 8MiB, well above any phone capture.
const maxImageSize = 8 << 20

// UploadOutcomeResponse is the per document result of an upload-all pass.
type UploadOutcomeResponse struct {
	Kind     domain.UploadKind `json:"kind"`
	Uploaded bool              `json:"uploaded"`
	Error    string            `json:"error,omitempty"`
}

// UploadAllResponse aggregates one upload-all pass.
type UploadAllResponse struct {
	Success  bool                    `json:"success"`
	Outcomes []UploadOutcomeResponse `json:"outcomes"`
}

func (s *Server) uploadDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, "invalid registration id")
		return
	}
	kind := domain.UploadKind(chi.URLParam(r, "kind"))

	image, err := io.ReadAll(io.LimitReader(r.Body, maxImageSize))
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, "cannot read image")
		return
	}
	if len(image) == 0 {
		writeError(ctx, w, http.StatusBadRequest, "empty image")
		return
	}

	if err := s.uploads.SetLocalImage(ctx, id, kind, image); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	if err := s.uploads.Upload(ctx, id, kind); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) removeDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, "invalid registration id")
		return
	}
	kind := domain.UploadKind(chi.URLParam(r, "kind"))

	if err := s.uploads.RemoveLocalImage(ctx, id, kind); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) uploadAllDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, "invalid registration id")
		return
	}

	result, err := s.uploads.UploadAll(ctx, id)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	resp := UploadAllResponse{Success: result.Success}
	for _, outcome := range result.Outcomes {
		item := UploadOutcomeResponse{Kind: outcome.Kind, Uploaded: outcome.Uploaded}
		if outcome.Err != nil {
			item.Error = outcome.Err.Error()
		}
		resp.Outcomes = append(resp.Outcomes, item)
	}
	status := http.StatusOK
	if !result.Success {
		status = http.StatusMultiStatus
	}
	writeJSON(ctx, w, status, resp)
}
