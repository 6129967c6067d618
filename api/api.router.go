// FilePath: api/api.router.go
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sensormagics/telemetry-hub/api/middleware"
	"github.com/sensormagics/telemetry-hub/api/resources"
	"github.com/sensormagics/telemetry-hub/internal/ingest"
	"github.com/sensormagics/telemetry-hub/internal/report"
	"github.com/sensormagics/telemetry-hub/internal/service"
)

type Router struct {
	router    *mux.Router
	auth      *middleware.JWTMiddleware
	resources *resources.Resources
}

func NewRouter(svc *service.Service, pipeline *ingest.Pipeline, publisher resources.Publisher, runner *report.Runner, jwtConfig middleware.JWTConfig) *Router {
	r := &Router{
		router:    mux.NewRouter(),
		auth:      middleware.NewJWTMiddleware(jwtConfig),
		resources: resources.NewResources(svc, pipeline, publisher, runner),
	}
	return r
}

// Resources exposes the handler set so the server can attach the health and
// metrics handlers before SetupRoutes.
func (r *Router) Resources() *resources.Resources {
	return r.resources
}

func (r *Router) SetupRoutes() {
	// API version prefix
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Public routes
	api.HandleFunc("/health", r.resources.HealthCheck).Methods(http.MethodGet)
	if r.resources.Metrics != nil {
		r.router.Handle("/metrics", r.resources.Metrics).Methods(http.MethodGet)
	}

	// Device routes: payload ingestion
	device := api.PathPrefix("/weather").Subrouter()
	device.Use(r.auth.AuthenticateDevice)
	device.HandleFunc("/data", r.resources.Telemetry.IngestReading).Methods(http.MethodPost)
	device.HandleFunc("/publish", r.resources.Telemetry.PublishReading).Methods(http.MethodPost)

	// User routes: queries and reports
	user := api.PathPrefix("").Subrouter()
	user.Use(r.auth.AuthenticateUser)
	user.HandleFunc("/weather/data", r.resources.Telemetry.GetReadings).Methods(http.MethodGet)
	user.HandleFunc("/weather/latest", r.resources.Telemetry.GetLatest).Methods(http.MethodGet)
	user.HandleFunc("/reports", r.resources.Reports.CreateReport).Methods(http.MethodPost)
	user.HandleFunc("/reports/{id}", r.resources.Reports.GetReport).Methods(http.MethodGet)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}
