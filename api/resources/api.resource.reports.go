// FilePath: api/resources/api.resource.reports.go
package resources

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sensormagics/telemetry-hub/api/middleware"
	"github.com/sensormagics/telemetry-hub/internal/errors"
	"github.com/sensormagics/telemetry-hub/internal/report"
	"github.com/sensormagics/telemetry-hub/internal/repository"
	nuts "github.com/vaudience/go-nuts"
)

// ReportHandlers encapsulates the report-job HTTP handlers
type ReportHandlers struct {
	runner *report.Runner
}

// createReportRequest is the submission body.
type createReportRequest struct {
	DeviceID string    `json:"device_id"`
	Email    string    `json:"email,omitempty"`
	From     time.Time `json:"from"`
	To       time.Time `json:"to"`
}

// CreateReport submits a new export job and returns it in STARTED state.
// The caller polls GetReport until the job reaches a terminal status.
func (h *ReportHandlers) CreateReport(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var req createReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}

	job, err := h.runner.Submit(r.Context(), report.Request{
		DeviceID:    req.DeviceID,
		RequestedBy: middleware.Subject(r.Context(), middleware.ContextUser),
		Email:       req.Email,
		From:        req.From,
		To:          req.To,
	})
	if err != nil {
		if err == repository.ErrInvalidInput {
			respondWithError(w, errors.NewValidationError("device_id and a non-empty from/to range are required", nil).WithRequestID(requestID))
			return
		}
		respondWithError(w, errors.NewInternalError("failed to submit report job", err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusAccepted, "report job accepted", job)
}

// GetReport returns the current state of a job, including the inline result
// once a download job completes.
func (h *ReportHandlers) GetReport(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	id := mux.Vars(r)["id"]

	job, err := h.runner.Get(r.Context(), id)
	if err != nil {
		if err == repository.ErrNotFound {
			respondWithError(w, errors.NewNotFoundError("report job not found", nil).WithRequestID(requestID))
			return
		}
		respondWithError(w, errors.NewInternalError("failed to load report job", err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, "report job retrieved", job)
}
