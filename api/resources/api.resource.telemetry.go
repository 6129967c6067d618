// FilePath: api/resources/api.resource.telemetry.go
package resources

import (
	"io"
	"net/http"
	"reflect"
	"time"

	"github.com/gorilla/schema"
	"github.com/sensormagics/telemetry-hub/api/middleware"
	"github.com/sensormagics/telemetry-hub/internal/errors"
	"github.com/sensormagics/telemetry-hub/internal/ingest"
	"github.com/sensormagics/telemetry-hub/internal/models"
	"github.com/sensormagics/telemetry-hub/internal/service"
	nuts "github.com/vaudience/go-nuts"
)

const maxPayloadBytes = 64 * 1024

var queryDecoder = newQueryDecoder()

func newQueryDecoder() *schema.Decoder {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	decoder.RegisterConverter(time.Time{}, func(value string) reflect.Value {
		parsed, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return reflect.Value{}
		}
		return reflect.ValueOf(parsed)
	})
	return decoder
}

// TelemetryHandlers encapsulates the reading-related HTTP handlers
type TelemetryHandlers struct {
	service   *service.Service
	pipeline  *ingest.Pipeline
	publisher Publisher
}

// IngestReading accepts one reading payload over HTTP. The payload takes the
// same path as broker traffic: decode, device gate, persist, broadcast.
func (h *TelemetryHandlers) IngestReading(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	deviceID := middleware.Subject(r.Context(), middleware.ContextDevice)

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		respondWithError(w, errors.NewValidationError("failed to read request body", err).WithRequestID(requestID))
		return
	}

	reading, err := h.pipeline.Process(r.Context(), ingest.SourceHTTP, deviceID, raw)
	if err != nil {
		respondWithError(w, asAPIError(err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusAccepted, "reading accepted", reading)
}

// PublishReading relays a payload onto the broker topic for the
// authenticated device. Useful for devices behind firewalls that cannot
// speak MQTT outbound.
func (h *TelemetryHandlers) PublishReading(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	deviceID := middleware.Subject(r.Context(), middleware.ContextDevice)

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		respondWithError(w, errors.NewValidationError("failed to read request body", err).WithRequestID(requestID))
		return
	}

	if err := h.publisher.Publish(deviceID, raw); err != nil {
		respondWithError(w, errors.NewInternalError("failed to publish payload", err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusAccepted, "payload published", nil)
}

// GetReadings serves the range query. Query parameters: device_id, from, to
// (RFC3339), metrics (repeatable), limit.
func (h *TelemetryHandlers) GetReadings(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var filter models.RangeFilter
	if err := queryDecoder.Decode(&filter, r.URL.Query()); err != nil {
		respondWithError(w, errors.NewValidationError("invalid query parameters", err).WithRequestID(requestID))
		return
	}

	readings, err := h.service.GetReadings(r.Context(), filter)
	if err != nil {
		respondWithError(w, asAPIError(err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, "readings retrieved", readings)
}

// GetLatest serves the newest reading for a device.
func (h *TelemetryHandlers) GetLatest(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	deviceID := r.URL.Query().Get("device_id")

	reading, err := h.service.GetLatest(r.Context(), deviceID)
	if err != nil {
		respondWithError(w, asAPIError(err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, "latest reading retrieved", reading)
}

// asAPIError passes structured errors through and wraps everything else.
func asAPIError(err error) *errors.APIError {
	if apiErr, ok := err.(*errors.APIError); ok {
		return apiErr
	}
	return errors.NewInternalError("unexpected error", err)
}
