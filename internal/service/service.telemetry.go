// FilePath: internal/service/service.telemetry.go
package service

import (
	"context"

	"github.com/sensormagics/telemetry-hub/internal/errors"
	"github.com/sensormagics/telemetry-hub/internal/models"
	"github.com/sensormagics/telemetry-hub/internal/repository"
	nuts "github.com/vaudience/go-nuts"
)

// TelemetryService exposes the read side of the stored readings.
type TelemetryService interface {
	GetReadings(ctx context.Context, filter models.RangeFilter) ([]models.Reading, error)
	GetLatest(ctx context.Context, deviceID string) (*models.Reading, error)
}

// GetReadings returns readings matching the filter, capped at the configured
// maximum row count. Unknown metric names reject the query.
func (s *Service) GetReadings(ctx context.Context, filter models.RangeFilter) ([]models.Reading, error) {
	if filter.DeviceID == "" {
		return nil, errors.NewValidationError("device_id is required", nil)
	}
	if filter.From.IsZero() || filter.To.IsZero() {
		return nil, errors.NewValidationError("from and to are required", nil)
	}
	if filter.To.Before(filter.From) {
		return nil, errors.NewValidationError("to must not be before from", nil)
	}
	for _, name := range filter.Metrics {
		if !models.IsMetricName(name) {
			return nil, errors.NewValidationError("unknown metric: "+name, nil)
		}
	}

	if _, err := s.devices.Get(ctx, filter.DeviceID); err != nil {
		if err == repository.ErrNotFound {
			return nil, errors.NewNotFoundError("device not found", nil)
		}
		return nil, errors.NewDatabaseError("failed to resolve device", err)
	}

	limit := filter.Limit
	if limit <= 0 || limit > s.maxResults {
		limit = s.maxResults
	}

	readings, err := s.readings.QueryRange(ctx, filter.DeviceID, filter.From, filter.To, filter.Metrics, limit)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to query readings", err)
	}
	return readings, nil
}

// GetLatest returns the newest reading for a device, served from the hot
// cache when possible.
func (s *Service) GetLatest(ctx context.Context, deviceID string) (*models.Reading, error) {
	if deviceID == "" {
		return nil, errors.NewValidationError("device_id is required", nil)
	}

	if s.cache != nil {
		if reading, err := s.cache.Get(ctx, deviceID); err == nil {
			return reading, nil
		} else if err != repository.ErrNotFound {
			nuts.L.Warnf("[Telemetry] Latest cache lookup failed for device %s: %v", deviceID, err)
		}
	}

	reading, err := s.readings.Latest(ctx, deviceID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, errors.NewNotFoundError("no readings for device", nil)
		}
		return nil, errors.NewDatabaseError("failed to load latest reading", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, reading); err != nil {
			nuts.L.Warnf("[Telemetry] Failed to refill latest cache for device %s: %v", deviceID, err)
		}
	}
	return reading, nil
}
