// FilePath: internal/repository/memory/memory_test.go
package memory

import (
	"context"
	"testing"
	"time"

	"github.com/sensormagics/telemetry-hub/internal/models"
	"github.com/sensormagics/telemetry-hub/internal/repository"
)

func floatPtr(v float64) *float64 { return &v }

func TestReadingRepo_QueryRangeInclusiveAndOrdered(t *testing.T) {
	repo := NewReadingRepository()
	base := time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC)

	// Appended out of order on purpose.
	for _, offset := range []int{4, 0, 2, 1, 3} {
		reading := &models.Reading{
			ID:          "r" + string(rune('0'+offset)),
			DeviceID:    "dev-1",
			Timestamp:   base.Add(time.Duration(offset) * time.Hour),
			Temperature: floatPtr(float64(offset)),
		}
		if err := repo.Append(context.Background(), reading); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	// Bounds land exactly on the second and fourth readings.
	got, err := repo.QueryRange(context.Background(), "dev-1",
		base.Add(1*time.Hour), base.Add(3*time.Hour), nil, 0)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 readings in inclusive range, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Timestamp.Before(got[i-1].Timestamp) {
			t.Fatalf("results out of order at index %d", i)
		}
	}
	if !got[0].Timestamp.Equal(base.Add(1 * time.Hour)) {
		t.Errorf("lower bound must be inclusive, first timestamp %v", got[0].Timestamp)
	}
	if !got[2].Timestamp.Equal(base.Add(3 * time.Hour)) {
		t.Errorf("upper bound must be inclusive, last timestamp %v", got[2].Timestamp)
	}
}

func TestReadingRepo_QueryRangeProjection(t *testing.T) {
	repo := NewReadingRepository()
	base := time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC)
	reading := &models.Reading{
		ID:          "r1",
		DeviceID:    "dev-1",
		Timestamp:   base,
		Temperature: floatPtr(21.0),
		Humidity:    floatPtr(40.0),
	}
	if err := repo.Append(context.Background(), reading); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	got, err := repo.QueryRange(context.Background(), "dev-1", base, base, []string{"humidity"}, 0)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 reading, got %d", len(got))
	}
	if got[0].Humidity == nil || *got[0].Humidity != 40.0 {
		t.Error("projected metric missing")
	}
	if got[0].Temperature != nil {
		t.Error("unrequested metric leaked through projection")
	}
}

func TestReadingRepo_LatestAndNotFound(t *testing.T) {
	repo := NewReadingRepository()
	if _, err := repo.Latest(context.Background(), "dev-1"); err != repository.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	base := time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		reading := &models.Reading{
			ID:        "r" + string(rune('0'+i)),
			DeviceID:  "dev-1",
			Timestamp: base.Add(time.Duration(i) * time.Hour),
		}
		if err := repo.Append(context.Background(), reading); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	latest, err := repo.Latest(context.Background(), "dev-1")
	if err != nil {
		t.Fatalf("latest failed: %v", err)
	}
	if latest.ID != "r2" {
		t.Errorf("expected newest reading r2, got %s", latest.ID)
	}
}

func TestReportJobRepo_TerminalGuard(t *testing.T) {
	repo := NewReportJobRepository()
	job := &models.ReportJob{ID: "job-1", DeviceID: "dev-1", Status: models.ReportStarted}
	if err := repo.Create(context.Background(), job); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	steps := []models.ReportJobStatus{models.ReportInProgress, models.ReportCompleted}
	for _, status := range steps {
		if err := repo.UpdateStatus(context.Background(), "job-1", status, "", ""); err != nil {
			t.Fatalf("transition to %s failed: %v", status, err)
		}
	}

	err := repo.UpdateStatus(context.Background(), "job-1", models.ReportInProgress, "", "")
	if err != repository.ErrTerminalState {
		t.Fatalf("expected ErrTerminalState, got %v", err)
	}

	if err := repo.UpdateStatus(context.Background(), "missing", models.ReportFailed, "", ""); err != repository.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
