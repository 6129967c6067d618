// FilePath: internal/server/server.go
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sensormagics/telemetry-hub/api"
	"github.com/sensormagics/telemetry-hub/api/middleware"
	"github.com/sensormagics/telemetry-hub/internal/codec"
	"github.com/sensormagics/telemetry-hub/internal/config"
	"github.com/sensormagics/telemetry-hub/internal/database"
	"github.com/sensormagics/telemetry-hub/internal/hub"
	"github.com/sensormagics/telemetry-hub/internal/ingest"
	"github.com/sensormagics/telemetry-hub/internal/monitoring"
	"github.com/sensormagics/telemetry-hub/internal/report"
	"github.com/sensormagics/telemetry-hub/internal/repository"
	"github.com/sensormagics/telemetry-hub/internal/repository/postgres"
	redisrepo "github.com/sensormagics/telemetry-hub/internal/repository/redis"
	"github.com/sensormagics/telemetry-hub/internal/repository/timescale"
	"github.com/sensormagics/telemetry-hub/internal/service"
	nuts "github.com/vaudience/go-nuts"
)

// Server owns the HTTP API listener, the WebSocket fanout listener, the
// broker consumer and the shared application wiring.
type Server struct {
	config *config.Config

	apiSrv *http.Server
	wsSrv  *http.Server

	hub      *hub.Hub
	consumer *ingest.Consumer
	runner   *report.Runner

	tsdb  database.DB
	appDB database.DB
}

// New creates a new server instance
func New(cfg *config.Config) *Server {
	return &Server{config: cfg}
}

// Start wires all components and begins listening. It blocks until an
// interrupt signal arrives, then shuts everything down gracefully.
func (s *Server) Start() error {
	s.tsdb = initTimescaleDB(s.config.Database.TimescaleDB)
	s.appDB = initAppDB(s.config.Database.AppDB)

	readings, err := timescale.NewReadingRepository(s.tsdb)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to initialize reading repository: %v", err)
	}
	devices := postgres.NewDeviceRepository(s.appDB)
	jobs, err := postgres.NewReportJobRepository(s.appDB)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to initialize report job repository: %v", err)
	}
	cache := initLatestCache(s.config.Redis)

	s.hub = hub.New()
	s.hub.Run()
	monitoring.Init(s.hub.Count)

	pipeline := ingest.NewPipeline(
		codec.New(s.config.Ingest.TimestampOffset),
		devices, readings, cache, s.hub,
	)
	s.consumer = ingest.NewConsumer(s.config.Broker, pipeline)

	s.runner = report.NewRunner(jobs, readings, initMailer(s.config.Report), s.config.Query.MaxResults)
	s.setupReportHandlers()

	svc := service.New(devices, readings, cache, s.config.Query.MaxResults)
	if err := svc.Validate(); err != nil {
		nuts.L.Fatalf("[Server] Invalid service wiring: %v", err)
	}

	router := api.NewRouter(svc, pipeline, s.consumer, s.runner, middleware.JWTConfig{
		UserSecret:   s.config.Auth.UserSecret,
		DeviceSecret: s.config.Auth.DeviceSecret,
	})
	router.Resources().SetHealthCheck(s.handleHealth())
	router.Resources().SetMetrics(promhttp.Handler())
	router.SetupRoutes()

	s.apiSrv = &http.Server{
		Addr: fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port),
		Handler: handlers.RecoveryHandler()(handlers.CORS(
			handlers.AllowedOrigins([]string{"*"}),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost}),
			handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
		)(router)),
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
	}
	s.wsSrv = s.buildWSServer()

	if err := s.consumer.Start(); err != nil {
		nuts.L.Fatalf("[Server] Failed to start broker consumer: %v", err)
	}

	go func() {
		nuts.L.Infof("[Server] API listening on %s", s.apiSrv.Addr)
		if err := s.apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			nuts.L.Errorf("[Server] API listener error: %v", err)
			os.Exit(1)
		}
	}()
	go func() {
		nuts.L.Infof("[Server] WebSocket fanout listening on %s (%s mode)", s.wsSrv.Addr, s.config.WebSocket.Mode)
		var err error
		if s.config.WebSocket.Mode == "production" {
			err = s.wsSrv.ListenAndServeTLS(s.config.WebSocket.CertFile, s.config.WebSocket.KeyFile)
		} else {
			err = s.wsSrv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			nuts.L.Errorf("[Server] WebSocket listener error: %v", err)
			os.Exit(1)
		}
	}()

	return s.waitForShutdown()
}

// buildWSServer serves the viewer fanout on its own port so dashboard
// traffic never competes with API timeouts.
func (s *Server) buildWSServer() *http.Server {
	wsMux := http.NewServeMux()
	wsMux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(s.hub, w, r)
	})
	return &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.WebSocket.Port),
		Handler: wsMux,
	}
}

// waitForShutdown waits for interrupt signal and gracefully shuts down
func (s *Server) waitForShutdown() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	nuts.L.Infof("[Server] Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	s.consumer.Stop()

	if err := s.apiSrv.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down API listener: %w", err)
	}
	if err := s.wsSrv.Shutdown(ctx); err != nil {
		nuts.L.Warnf("[Server] Error shutting down WebSocket listener: %v", err)
	}

	s.hub.Stop()

	if err := s.tsdb.Close(); err != nil {
		nuts.L.Warnf("[Server] Error closing TimescaleDB: %v", err)
	}
	if err := s.appDB.Close(); err != nil {
		nuts.L.Warnf("[Server] Error closing AppDB: %v", err)
	}

	nuts.L.Infof("[Server] Shut down successfully")
	return nil
}

// handleHealth returns a simple health check handler
func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","version":"` + nuts.GetVersion() + `"}`))
	}
}

// setupReportHandlers attaches logging to the report job lifecycle events.
func (s *Server) setupReportHandlers() {
	s.runner.Events().On(report.EventJobStarted, "report_log_handler", func(args ...interface{}) {
		nuts.L.Infof("[Report] Job accepted: %v", args)
	})
	s.runner.Events().On(report.EventJobCompleted, "report_log_handler", func(args ...interface{}) {
		nuts.L.Infof("[Report] Job completed: %v", args)
	})
	s.runner.Events().On(report.EventJobFailed, "report_log_handler", func(args ...interface{}) {
		nuts.L.Warnf("[Report] Job failed: %v", args)
	})
}

// initLatestCache connects the redis hot cache. A missing host disables it;
// latest lookups then always hit TimescaleDB.
func initLatestCache(cfg config.RedisConfig) repository.LatestCache {
	if cfg.Host == "" {
		nuts.L.Infof("[Server] Redis not configured, latest-reading cache disabled")
		return nil
	}
	cache, err := redisrepo.NewLatestCache(cfg)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to connect to Redis: %v", err)
	}
	return cache
}

// initMailer builds the SMTP mailer when delivery is configured.
func initMailer(cfg config.ReportConfig) report.Mailer {
	if cfg.SMTPHost == "" {
		nuts.L.Infof("[Server] SMTP not configured, report email delivery disabled")
		return nil
	}
	return report.NewSMTPMailer(cfg)
}

func initTimescaleDB(cfg config.PostgresConfig) database.DB {
	db, err := database.NewTimescaleDB(cfg)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to connect to TimescaleDB: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.Ping(ctx); err != nil {
		nuts.L.Fatalf("[Server] Failed to ping TimescaleDB: %v", err)
	}
	return db
}

func initAppDB(cfg config.PostgresConfig) database.DB {
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to connect to AppDB: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.Ping(ctx); err != nil {
		nuts.L.Fatalf("[Server] Failed to ping AppDB: %v", err)
	}
	return db
}
