// FilePath: internal/repository/postgres/postgres.devices.go
package postgres

import (
	"context"
	"database/sql"

	"github.com/sensormagics/telemetry-hub/internal/database"
	"github.com/sensormagics/telemetry-hub/internal/errors"
	"github.com/sensormagics/telemetry-hub/internal/models"
	"github.com/sensormagics/telemetry-hub/internal/repository"
)

// DeviceRepo reads device identities from the application database. The
// devices table is owned by the device-management service; nothing here
// writes to it.
type DeviceRepo struct {
	db database.DB
}

func NewDeviceRepository(db database.DB) *DeviceRepo {
	return &DeviceRepo{db: db}
}

func (r *DeviceRepo) Get(ctx context.Context, id string) (*models.Device, error) {
	device := &models.Device{}
	query := `
		SELECT id, name, identifier, status, location, model_type, client_id, created_at, updated_at
		FROM devices
		WHERE id = $1`

	err := r.db.GetDB().GetContext(ctx, device, query, id)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, errors.NewDatabaseError("failed to get device", err)
	}
	return device, nil
}
