// FilePath: api/resources/resources.go
package resources

import (
	"encoding/json"
	"net/http"

	"github.com/sensormagics/telemetry-hub/internal/errors"
	"github.com/sensormagics/telemetry-hub/internal/ingest"
	"github.com/sensormagics/telemetry-hub/internal/report"
	"github.com/sensormagics/telemetry-hub/internal/service"
	nuts "github.com/vaudience/go-nuts"
)

// Publisher relays a payload onto the broker topic. Satisfied by
// *ingest.Consumer.
type Publisher interface {
	Publish(deviceID string, payload []byte) error
}

// Resources holds all HTTP resource handlers
type Resources struct {
	Telemetry   *TelemetryHandlers
	Reports     *ReportHandlers
	HealthCheck func(w http.ResponseWriter, r *http.Request)
	Metrics     http.Handler
}

// NewResources creates a new Resources instance
func NewResources(svc *service.Service, pipeline *ingest.Pipeline, publisher Publisher, runner *report.Runner) *Resources {
	return &Resources{
		Telemetry: &TelemetryHandlers{service: svc, pipeline: pipeline, publisher: publisher},
		Reports:   &ReportHandlers{runner: runner},
	}
}

// SetHealthCheck sets the health check handler
func (r *Resources) SetHealthCheck(h func(w http.ResponseWriter, r *http.Request)) {
	r.HealthCheck = h
}

// SetMetrics sets the metrics handler
func (r *Resources) SetMetrics(h http.Handler) {
	r.Metrics = h
}

// envelope is the success response shape: {message, data}.
type envelope struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func respondWithError(w http.ResponseWriter, err *errors.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Code)
	json.NewEncoder(w).Encode(err)
	nuts.L.Errorf("[API] %s", err.Error())
}

func respondWithJSON(w http.ResponseWriter, code int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(envelope{Message: message, Data: data})
}
