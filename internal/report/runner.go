// FilePath: internal/report/runner.go
package report

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/sensormagics/telemetry-hub/internal/models"
	"github.com/sensormagics/telemetry-hub/internal/monitoring"
	"github.com/sensormagics/telemetry-hub/internal/repository"
	nuts "github.com/vaudience/go-nuts"
)

// Lifecycle events emitted per job transition. The server attaches logging
// handlers on boot.
const (
	EventJobStarted   = "report.started"
	EventJobCompleted = "report.completed"
	EventJobFailed    = "report.failed"
)

const jobTimeout = 5 * time.Minute

// Request describes one report submission.
type Request struct {
	DeviceID    string
	RequestedBy string
	Email       string
	From        time.Time
	To          time.Time
}

// Runner executes report jobs in the background. Submit returns immediately
// with the persisted job record; callers poll the job until it reaches a
// terminal status.
type Runner struct {
	jobs     repository.ReportJobRepository
	readings repository.ReadingRepository
	mailer   Mailer
	events   *nuts.EventEmitter
	maxRows  int
}

// NewRunner wires the job executor. mailer may be nil; jobs that request
// email delivery then fail instead of silently inlining.
func NewRunner(jobs repository.ReportJobRepository, readings repository.ReadingRepository, mailer Mailer, maxRows int) *Runner {
	return &Runner{
		jobs:     jobs,
		readings: readings,
		mailer:   mailer,
		events:   nuts.NewEventEmitter(),
		maxRows:  maxRows,
	}
}

// Events exposes the emitter so the server can attach lifecycle handlers.
func (r *Runner) Events() *nuts.EventEmitter {
	return r.events
}

// Submit validates the request, persists a STARTED job and launches the
// export in the background.
func (r *Runner) Submit(ctx context.Context, req Request) (*models.ReportJob, error) {
	if req.DeviceID == "" {
		return nil, repository.ErrInvalidInput
	}
	if !req.To.After(req.From) {
		return nil, repository.ErrInvalidInput
	}

	now := time.Now().UTC()
	job := &models.ReportJob{
		ID:          nuts.NID("rpt", 16),
		DeviceID:    req.DeviceID,
		RequestedBy: req.RequestedBy,
		Email:       req.Email,
		From:        req.From,
		To:          req.To,
		Status:      models.ReportStarted,
		Note:        "report job accepted",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := r.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create report job: %w", err)
	}

	monitoring.IncReportJob(string(models.ReportStarted))
	r.events.Emit(EventJobStarted, job.ID, job.DeviceID)

	go r.run(job.ID)
	return job, nil
}

// Get returns the current state of a job.
func (r *Runner) Get(ctx context.Context, id string) (*models.ReportJob, error) {
	return r.jobs.Get(ctx, id)
}

func (r *Runner) run(jobID string) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	job, err := r.jobs.Get(ctx, jobID)
	if err != nil {
		nuts.L.Errorf("[Report] Job %s vanished before execution: %v", jobID, err)
		return
	}

	if err := r.transition(ctx, jobID, models.ReportInProgress, "collecting readings", ""); err != nil {
		nuts.L.Errorf("[Report] Job %s failed to start: %v", jobID, err)
		return
	}

	result, note, err := r.execute(ctx, job)
	if err != nil {
		nuts.L.Errorf("[Report] Job %s failed: %v", jobID, err)
		r.fail(ctx, jobID, err)
		return
	}

	if err := r.transition(ctx, jobID, models.ReportCompleted, note, result); err != nil {
		nuts.L.Errorf("[Report] Job %s could not be marked completed: %v", jobID, err)
		return
	}
	r.events.Emit(EventJobCompleted, jobID, job.DeviceID)
	nuts.L.Infof("[Report] Job %s completed for device %s", jobID, job.DeviceID)
}

// execute collects the readings, renders the workbook and delivers it.
// The returned result is empty for email delivery and the base64 workbook
// for inline delivery.
func (r *Runner) execute(ctx context.Context, job *models.ReportJob) (result, note string, err error) {
	readings, err := r.readings.QueryRange(ctx, job.DeviceID, job.From, job.To, nil, r.maxRows)
	if err != nil {
		return "", "", fmt.Errorf("failed to query readings: %w", err)
	}

	workbook, err := buildWorkbook(job, readings)
	if err != nil {
		return "", "", fmt.Errorf("failed to build workbook: %w", err)
	}

	if job.Email != "" {
		if r.mailer == nil {
			return "", "", fmt.Errorf("email delivery requested but no mailer configured")
		}
		subject := fmt.Sprintf("Readings report for device %s", job.DeviceID)
		body := fmt.Sprintf("Attached: %d readings for device %s between %s and %s.",
			len(readings), job.DeviceID,
			job.From.UTC().Format(time.RFC3339), job.To.UTC().Format(time.RFC3339))
		if err := r.mailer.Send(job.Email, subject, body, reportFilename(job), workbook); err != nil {
			return "", "", err
		}
		return "", fmt.Sprintf("report with %d readings mailed to %s", len(readings), job.Email), nil
	}

	return base64.StdEncoding.EncodeToString(workbook),
		fmt.Sprintf("report with %d readings ready for download", len(readings)), nil
}

func (r *Runner) transition(ctx context.Context, jobID string, status models.ReportJobStatus, note, result string) error {
	if err := r.jobs.UpdateStatus(ctx, jobID, status, note, result); err != nil {
		return err
	}
	monitoring.IncReportJob(string(status))
	return nil
}

func (r *Runner) fail(ctx context.Context, jobID string, cause error) {
	note := fmt.Sprintf("report failed: %v", cause)
	if err := r.transition(ctx, jobID, models.ReportFailed, note, ""); err != nil {
		nuts.L.Errorf("[Report] Job %s could not be marked failed: %v", jobID, err)
		return
	}
	r.events.Emit(EventJobFailed, jobID, note)
}
