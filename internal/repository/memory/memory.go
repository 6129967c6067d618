// FilePath: internal/repository/memory/memory.go
// Package memory provides in-memory implementations of the repository
// interfaces. They back unit tests and local development without a database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sensormagics/telemetry-hub/internal/models"
	"github.com/sensormagics/telemetry-hub/internal/repository"
)

// ReadingRepo stores readings per device, ordered by timestamp on read.
type ReadingRepo struct {
	mu       sync.RWMutex
	byDevice map[string][]models.Reading
	ids      map[string]struct{}

	// FailAppends makes every Append return a write error. Tests use it to
	// verify the pipeline keeps broadcasting when persistence is down.
	FailAppends bool
	failErr     error
}

func NewReadingRepository() *ReadingRepo {
	return &ReadingRepo{
		byDevice: make(map[string][]models.Reading),
		ids:      make(map[string]struct{}),
	}
}

// FailWith arms FailAppends with a specific error.
func (r *ReadingRepo) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.FailAppends = true
	r.failErr = err
}

func (r *ReadingRepo) Append(_ context.Context, reading *models.Reading) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailAppends {
		return r.failErr
	}
	if _, dup := r.ids[reading.ID]; dup {
		return nil
	}
	r.ids[reading.ID] = struct{}{}
	r.byDevice[reading.DeviceID] = append(r.byDevice[reading.DeviceID], *reading)
	return nil
}

func (r *ReadingRepo) QueryRange(_ context.Context, deviceID string, from, to time.Time, metrics []string, limit int) ([]models.Reading, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []models.Reading{}
	for _, reading := range r.byDevice[deviceID] {
		ts := reading.Timestamp
		if ts.Before(from) || ts.After(to) {
			continue
		}
		if len(metrics) > 0 {
			out = append(out, reading.Project(metrics))
		} else {
			out = append(out, reading)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *ReadingRepo) Latest(_ context.Context, deviceID string) (*models.Reading, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	readings := r.byDevice[deviceID]
	if len(readings) == 0 {
		return nil, repository.ErrNotFound
	}
	latest := readings[0]
	for _, reading := range readings[1:] {
		if reading.Timestamp.After(latest.Timestamp) {
			latest = reading
		}
	}
	return &latest, nil
}

// Count returns the number of stored readings for a device.
func (r *ReadingRepo) Count(deviceID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byDevice[deviceID])
}

// DeviceRepo is a fixed set of devices keyed by ID.
type DeviceRepo struct {
	mu      sync.RWMutex
	devices map[string]models.Device
}

func NewDeviceRepository(devices ...models.Device) *DeviceRepo {
	repo := &DeviceRepo{devices: make(map[string]models.Device)}
	for _, device := range devices {
		repo.devices[device.ID] = device
	}
	return repo
}

func (r *DeviceRepo) Put(device models.Device) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices[device.ID] = device
}

func (r *DeviceRepo) Get(_ context.Context, id string) (*models.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	device, ok := r.devices[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &device, nil
}

// ReportJobRepo keeps report jobs in a map and enforces the forward-only
// status lifecycle the same way the postgres implementation does.
type ReportJobRepo struct {
	mu   sync.RWMutex
	jobs map[string]models.ReportJob
}

func NewReportJobRepository() *ReportJobRepo {
	return &ReportJobRepo{jobs: make(map[string]models.ReportJob)}
}

func (r *ReportJobRepo) Create(_ context.Context, job *models.ReportJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = *job
	return nil
}

func (r *ReportJobRepo) Get(_ context.Context, id string) (*models.ReportJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &job, nil
}

func (r *ReportJobRepo) UpdateStatus(_ context.Context, id string, status models.ReportJobStatus, note, result string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return repository.ErrNotFound
	}
	if job.Status.Terminal() {
		return repository.ErrTerminalState
	}
	job.Status = status
	job.Note = note
	job.Result = result
	job.UpdatedAt = time.Now().UTC()
	r.jobs[id] = job
	return nil
}

// LatestCache mirrors the redis hot cache for tests.
type LatestCache struct {
	mu     sync.RWMutex
	latest map[string]models.Reading
}

func NewLatestCache() *LatestCache {
	return &LatestCache{latest: make(map[string]models.Reading)}
}

func (c *LatestCache) Set(_ context.Context, reading *models.Reading) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latest[reading.DeviceID] = *reading
	return nil
}

func (c *LatestCache) Get(_ context.Context, deviceID string) (*models.Reading, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	reading, ok := c.latest[deviceID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &reading, nil
}
