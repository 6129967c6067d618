// FilePath: internal/repository/repository.go
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sensormagics/telemetry-hub/internal/models"
)

var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("resource not found")
	// ErrTerminalState indicates an attempt to move a report job out of a
	// completed or failed state
	ErrTerminalState = errors.New("report job is in a terminal state")
	// ErrInvalidInput indicates that the input data is invalid
	ErrInvalidInput = errors.New("invalid input")
)

// ReadingRepository is the persistence sink for readings.
type ReadingRepository interface {
	// Append stores one reading. Appending a reading whose ID already
	// exists is a no-op, which makes broker redelivery harmless.
	Append(ctx context.Context, reading *models.Reading) error
	// QueryRange returns readings for a device with timestamps in
	// [from, to] inclusive, ascending by timestamp, projected to the
	// requested metrics (all metrics when the slice is empty), at most
	// limit rows.
	QueryRange(ctx context.Context, deviceID string, from, to time.Time, metrics []string, limit int) ([]models.Reading, error)
	// Latest returns the single most recent reading for a device.
	Latest(ctx context.Context, deviceID string) (*models.Reading, error)
}

// DeviceRepository resolves device identities. Device records are owned by
// the external device-management service; only reads happen here.
type DeviceRepository interface {
	Get(ctx context.Context, id string) (*models.Device, error)
}

// ReportJobRepository tracks asynchronous report exports.
type ReportJobRepository interface {
	Create(ctx context.Context, job *models.ReportJob) error
	Get(ctx context.Context, id string) (*models.ReportJob, error)
	// UpdateStatus moves a job forward. Transitions out of terminal states
	// are rejected with ErrTerminalState.
	UpdateStatus(ctx context.Context, id string, status models.ReportJobStatus, note, result string) error
}

// LatestCache is the hot-path store for each device's newest reading.
type LatestCache interface {
	Set(ctx context.Context, reading *models.Reading) error
	Get(ctx context.Context, deviceID string) (*models.Reading, error)
}
