// FilePath: internal/ingest/pipeline.go
// Package ingest is the path a raw device payload takes from arrival to
// persistence and live fanout.
package ingest

import (
	"context"
	"time"

	"github.com/sensormagics/telemetry-hub/internal/codec"
	"github.com/sensormagics/telemetry-hub/internal/errors"
	"github.com/sensormagics/telemetry-hub/internal/models"
	"github.com/sensormagics/telemetry-hub/internal/monitoring"
	"github.com/sensormagics/telemetry-hub/internal/repository"
	nuts "github.com/vaudience/go-nuts"
)

// Payload sources, used as a metric label.
const (
	SourceBroker = "broker"
	SourceHTTP   = "http"
)

// Broadcaster pushes an accepted reading to live viewers. Satisfied by
// *hub.Hub; tests inject a spy.
type Broadcaster interface {
	Broadcast(v interface{})
}

// Pipeline processes raw payloads: decode, resolve the device, persist,
// fan out. Persistence and fanout are independent; a storage failure never
// silences the live feed.
type Pipeline struct {
	codec    *codec.Codec
	devices  repository.DeviceRepository
	readings repository.ReadingRepository
	cache    repository.LatestCache
	hub      Broadcaster
}

// NewPipeline wires the ingest path. cache may be nil when no hot cache is
// configured.
func NewPipeline(c *codec.Codec, devices repository.DeviceRepository, readings repository.ReadingRepository, cache repository.LatestCache, hub Broadcaster) *Pipeline {
	return &Pipeline{
		codec:    c,
		devices:  devices,
		readings: readings,
		cache:    cache,
		hub:      hub,
	}
}

// Process handles one payload from the given source. It returns the decoded
// reading on acceptance. A malformed payload or unknown/blocked device
// rejects the message; a persistence failure does not, the reading is still
// broadcast and the error only logged and counted.
func (p *Pipeline) Process(ctx context.Context, source, deviceID string, raw []byte) (*models.Reading, error) {
	started := time.Now()

	reading, err := p.codec.Decode(raw, deviceID)
	if err != nil {
		nuts.L.Warnf("[Ingest] Dropping payload from %q: %v", deviceID, err)
		monitoring.IncIngestError(string(errors.ErrorTypeMalformedPayload))
		monitoring.ObserveIngest(monitoring.ResultError, source, time.Since(started))
		return nil, err
	}

	if err := p.gateDevice(ctx, reading.DeviceID); err != nil {
		nuts.L.Warnf("[Ingest] Rejecting reading for device %q: %v", reading.DeviceID, err)
		monitoring.IncIngestError(string(errors.ErrorTypeUnknownDevice))
		monitoring.ObserveIngest(monitoring.ResultError, source, time.Since(started))
		return nil, err
	}

	if err := p.readings.Append(ctx, reading); err != nil {
		// The live feed stays up while storage is down. Redelivered
		// messages reuse their ID, so a later retry cannot duplicate.
		nuts.L.Errorf("[Ingest] Failed to persist reading %s for device %s: %v", reading.ID, reading.DeviceID, err)
		monitoring.IncIngestError(string(errors.ErrorTypeWrite))
	}

	p.hub.Broadcast(reading)

	if p.cache != nil {
		if err := p.cache.Set(ctx, reading); err != nil {
			nuts.L.Warnf("[Ingest] Failed to cache latest reading for device %s: %v", reading.DeviceID, err)
		}
	}

	monitoring.ObserveIngest(monitoring.ResultSuccess, source, time.Since(started))
	return reading, nil
}

// gateDevice verifies the device exists and its status admits readings.
func (p *Pipeline) gateDevice(ctx context.Context, deviceID string) error {
	device, err := p.devices.Get(ctx, deviceID)
	if err != nil {
		if err == repository.ErrNotFound {
			return errors.NewUnknownDeviceError("device is not registered", nil)
		}
		return errors.NewDatabaseError("failed to resolve device", err)
	}
	if !device.Status.IngestAllowed() {
		return errors.NewUnknownDeviceError("device status forbids ingestion", nil)
	}
	return nil
}
