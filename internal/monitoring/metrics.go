// FilePath: internal/monitoring/metrics.go
// Package monitoring exposes the service's prometheus metrics.
package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricPrefix = "telemetry_hub_"

const (
	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	registerOnce sync.Once

	ingestReadings *prometheus.CounterVec
	ingestErrors   *prometheus.CounterVec
	ingestLatency  *prometheus.HistogramVec

	broadcastSessions prometheus.GaugeFunc
	reportJobs        *prometheus.CounterVec
)

// Init registers all metrics. sessionCount feeds the live-viewer gauge.
func Init(sessionCount func() int) {
	registerOnce.Do(func() {
		ingestReadings = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_readings_total",
				Help: "Total ingested readings by result",
			},
			[]string{"result", "source"},
		)
		ingestErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_errors_total",
				Help: "Total ingest errors by reason",
			},
			[]string{"reason"},
		)
		ingestLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "ingest_latency_seconds",
				Help:    "Ingest processing latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		broadcastSessions = prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: metricPrefix + "broadcast_sessions",
				Help: "Currently connected viewer sessions",
			},
			func() float64 {
				if sessionCount == nil {
					return 0
				}
				return float64(sessionCount())
			},
		)
		reportJobs = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_jobs_total",
				Help: "Report job phase transitions by status",
			},
			[]string{"status"},
		)

		prometheus.MustRegister(
			ingestReadings,
			ingestErrors,
			ingestLatency,
			broadcastSessions,
			reportJobs,
		)
	})
}

// ObserveIngest records one processed message.
func ObserveIngest(result, source string, elapsed time.Duration) {
	if ingestReadings == nil {
		return
	}
	ingestReadings.WithLabelValues(result, source).Inc()
	ingestLatency.WithLabelValues(result).Observe(elapsed.Seconds())
}

// IncIngestError counts one ingest error by reason.
func IncIngestError(reason string) {
	if ingestErrors == nil {
		return
	}
	ingestErrors.WithLabelValues(reason).Inc()
}

// IncReportJob counts one report job phase transition.
func IncReportJob(status string) {
	if reportJobs == nil {
		return
	}
	reportJobs.WithLabelValues(status).Inc()
}
