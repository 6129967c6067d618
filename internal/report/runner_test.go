// FilePath: internal/report/runner_test.go
package report

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sensormagics/telemetry-hub/internal/models"
	"github.com/sensormagics/telemetry-hub/internal/repository"
	"github.com/sensormagics/telemetry-hub/internal/repository/memory"
	"github.com/xuri/excelize/v2"
)

// spyMailer records deliveries and optionally fails them.
type spyMailer struct {
	mu         sync.Mutex
	sent       int
	to         string
	filename   string
	attachment []byte
	err        error
}

func (m *spyMailer) Send(to, subject, body, filename string, attachment []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent++
	m.to = to
	m.filename = filename
	m.attachment = attachment
	return nil
}

func floatPtr(v float64) *float64 { return &v }

func seedReadings(t *testing.T, readings *memory.ReadingRepo, deviceID string, timestamps ...time.Time) {
	t.Helper()
	for i, ts := range timestamps {
		reading := &models.Reading{
			ID:          string(rune('a'+i)) + "-reading",
			DeviceID:    deviceID,
			Timestamp:   ts,
			Temperature: floatPtr(20.0 + float64(i)),
		}
		if err := readings.Append(context.Background(), reading); err != nil {
			t.Fatalf("failed to seed reading: %v", err)
		}
	}
}

func waitForTerminal(t *testing.T, runner *Runner, jobID string) *models.ReportJob {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		job, err := runner.Get(context.Background(), jobID)
		if err != nil {
			t.Fatalf("failed to poll job: %v", err)
		}
		if job.Status.Terminal() {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job never reached a terminal status")
	return nil
}

func TestSubmit_Validation(t *testing.T) {
	runner := NewRunner(memory.NewReportJobRepository(), memory.NewReadingRepository(), nil, 10000)
	base := time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		name string
		req  Request
	}{
		{"missing device", Request{From: base, To: base.Add(time.Hour)}},
		{"empty range", Request{DeviceID: "dev-1", From: base, To: base}},
		{"inverted range", Request{DeviceID: "dev-1", From: base.Add(time.Hour), To: base}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := runner.Submit(context.Background(), tc.req); err != repository.ErrInvalidInput {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestRunner_InlineReportContainsOnlyRangeRows(t *testing.T) {
	readings := memory.NewReadingRepository()
	base := time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC)
	seedReadings(t, readings, "dev-1",
		base.Add(-2*time.Hour), // before range
		base.Add(-time.Hour),   // before range
		base.Add(time.Hour),    // inside
		base.Add(90*time.Minute),
		base.Add(2*time.Hour),
	)

	runner := NewRunner(memory.NewReportJobRepository(), readings, nil, 10000)
	job, err := runner.Submit(context.Background(), Request{
		DeviceID: "dev-1",
		From:     base,
		To:       base.Add(3 * time.Hour),
	})
	if err != nil {
		t.Fatalf("unexpected submit error: %v", err)
	}
	if job.Status != models.ReportStarted {
		t.Errorf("expected STARTED on submission, got %s", job.Status)
	}

	done := waitForTerminal(t, runner, job.ID)
	if done.Status != models.ReportCompleted {
		t.Fatalf("expected COMPLETED, got %s (%s)", done.Status, done.Note)
	}
	if done.Result == "" {
		t.Fatal("expected inline base64 result")
	}

	workbook, err := base64.StdEncoding.DecodeString(done.Result)
	if err != nil {
		t.Fatalf("result is not valid base64: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(workbook))
	if err != nil {
		t.Fatalf("result is not a valid workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("failed to read sheet: %v", err)
	}
	// Title, header, and one row per in-range reading.
	if len(rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(rows))
	}
	if rows[1][0] != "timestamp" || rows[1][1] != "temperature" {
		t.Errorf("unexpected header row: %v", rows[1])
	}
	if rows[2][0] != "2023-06-01 01:00:00" {
		t.Errorf("unexpected first data timestamp: %q", rows[2][0])
	}
}

func TestRunner_EmailDelivery(t *testing.T) {
	readings := memory.NewReadingRepository()
	base := time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC)
	seedReadings(t, readings, "dev-1", base.Add(time.Hour))

	mailer := &spyMailer{}
	runner := NewRunner(memory.NewReportJobRepository(), readings, mailer, 10000)
	job, err := runner.Submit(context.Background(), Request{
		DeviceID: "dev-1",
		Email:    "ops@example.com",
		From:     base,
		To:       base.Add(2 * time.Hour),
	})
	if err != nil {
		t.Fatalf("unexpected submit error: %v", err)
	}

	done := waitForTerminal(t, runner, job.ID)
	if done.Status != models.ReportCompleted {
		t.Fatalf("expected COMPLETED, got %s (%s)", done.Status, done.Note)
	}
	if done.Result != "" {
		t.Error("mailed reports must not inline the workbook")
	}
	mailer.mu.Lock()
	defer mailer.mu.Unlock()
	if mailer.sent != 1 {
		t.Fatalf("expected 1 mail, got %d", mailer.sent)
	}
	if mailer.to != "ops@example.com" {
		t.Errorf("unexpected recipient %s", mailer.to)
	}
	if len(mailer.attachment) == 0 {
		t.Error("expected a workbook attachment")
	}
}

func TestRunner_DeliveryFailureMarksJobFailed(t *testing.T) {
	readings := memory.NewReadingRepository()
	base := time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC)
	seedReadings(t, readings, "dev-1", base.Add(time.Hour))

	mailer := &spyMailer{err: errors.New("smtp unreachable")}
	runner := NewRunner(memory.NewReportJobRepository(), readings, mailer, 10000)
	job, err := runner.Submit(context.Background(), Request{
		DeviceID: "dev-1",
		Email:    "ops@example.com",
		From:     base,
		To:       base.Add(2 * time.Hour),
	})
	if err != nil {
		t.Fatalf("unexpected submit error: %v", err)
	}

	done := waitForTerminal(t, runner, job.ID)
	if done.Status != models.ReportFailed {
		t.Fatalf("expected FAILED, got %s", done.Status)
	}
	if done.Note == "" {
		t.Error("expected a failure note")
	}
}

func TestRunner_TerminalJobsStayTerminal(t *testing.T) {
	jobs := memory.NewReportJobRepository()
	readings := memory.NewReadingRepository()
	base := time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC)
	seedReadings(t, readings, "dev-1", base.Add(time.Hour))

	runner := NewRunner(jobs, readings, nil, 10000)
	job, err := runner.Submit(context.Background(), Request{
		DeviceID: "dev-1",
		From:     base,
		To:       base.Add(2 * time.Hour),
	})
	if err != nil {
		t.Fatalf("unexpected submit error: %v", err)
	}
	waitForTerminal(t, runner, job.ID)

	err = jobs.UpdateStatus(context.Background(), job.ID, models.ReportInProgress, "resurrection attempt", "")
	if err != repository.ErrTerminalState {
		t.Fatalf("expected ErrTerminalState, got %v", err)
	}
}

func TestReportJobStatus_Transitions(t *testing.T) {
	if !models.ReportStarted.CanTransitionTo(models.ReportInProgress) {
		t.Error("STARTED must transition to IN_PROGRESS")
	}
	if !models.ReportInProgress.CanTransitionTo(models.ReportCompleted) {
		t.Error("IN_PROGRESS must transition to COMPLETED")
	}
	if models.ReportCompleted.CanTransitionTo(models.ReportInProgress) {
		t.Error("COMPLETED must not transition backwards")
	}
	if models.ReportFailed.CanTransitionTo(models.ReportCompleted) {
		t.Error("FAILED must not transition")
	}
}
