// FilePath: internal/service/service.go
package service

import (
	"github.com/sensormagics/telemetry-hub/internal/errors"
	"github.com/sensormagics/telemetry-hub/internal/repository"
)

// Service contains all repositories and service-wide dependencies
type Service struct {
	devices  repository.DeviceRepository
	readings repository.ReadingRepository
	cache    repository.LatestCache

	maxResults int
}

// New creates a new service instance. cache may be nil; latest lookups then
// always hit the store.
func New(devices repository.DeviceRepository, readings repository.ReadingRepository, cache repository.LatestCache, maxResults int) *Service {
	return &Service{
		devices:    devices,
		readings:   readings,
		cache:      cache,
		maxResults: maxResults,
	}
}

// Validate checks if all required repositories are initialized
func (s *Service) Validate() error {
	if s.devices == nil {
		return ErrMissingRepository("devices")
	}
	if s.readings == nil {
		return ErrMissingRepository("readings")
	}
	if s.maxResults <= 0 {
		return errors.NewInternalError("query result cap must be positive", nil)
	}
	return nil
}

func ErrMissingRepository(name string) error {
	return errors.NewInternalError("missing repository: "+name, nil)
}
