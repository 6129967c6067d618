// FilePath: internal/repository/timescale/timescale.readings.go
package timescale

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sensormagics/telemetry-hub/internal/database"
	"github.com/sensormagics/telemetry-hub/internal/errors"
	"github.com/sensormagics/telemetry-hub/internal/models"
	"github.com/sensormagics/telemetry-hub/internal/repository"
	nuts "github.com/vaudience/go-nuts"
)

type ReadingRepo struct {
	db database.DB
}

func NewReadingRepository(db database.DB) (*ReadingRepo, error) {
	repo := &ReadingRepo{db: db}
	err := repo.initializeSchema()
	if err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *ReadingRepo) initializeSchema() error {
	// Create hypertable for weather readings
	queries := []string{
		`CREATE TABLE IF NOT EXISTS weather_readings (
			id TEXT NOT NULL,
			device_id TEXT NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL,
			temperature DOUBLE PRECISION,
			humidity DOUBLE PRECISION,
			pressure DOUBLE PRECISION,
			co2 DOUBLE PRECISION,
			vocs DOUBLE PRECISION,
			light DOUBLE PRECISION,
			noise DOUBLE PRECISION,
			pm1 DOUBLE PRECISION,
			pm25 DOUBLE PRECISION,
			pm4 DOUBLE PRECISION,
			pm10 DOUBLE PRECISION,
			aiq DOUBLE PRECISION,
			gas1 DOUBLE PRECISION,
			gas2 DOUBLE PRECISION,
			gas3 DOUBLE PRECISION,
			gas4 DOUBLE PRECISION,
			gas5 DOUBLE PRECISION,
			gas6 DOUBLE PRECISION,
			PRIMARY KEY (id, timestamp)
		)`,
		`SELECT create_hypertable('weather_readings', 'timestamp',
			chunk_time_interval => INTERVAL '1 day',
			if_not_exists => TRUE
		)`,
		// Index for range and latest queries
		`CREATE INDEX IF NOT EXISTS idx_weather_readings_device_timestamp
         ON weather_readings(device_id, timestamp DESC)`,
	}

	for _, query := range queries {
		_, err := r.db.GetDB().Exec(query)
		if err != nil {
			return errors.NewDatabaseError("failed to initialize schema", err)
		}
	}

	// Set up retention policies
	r.setupRetentionPolicies()
	return nil
}

func (r *ReadingRepo) setupRetentionPolicies() {
	query := `
		SELECT add_retention_policy('weather_readings',
			INTERVAL '13 months',
			if_not_exists => TRUE
		)`

	_, err := r.db.GetDB().Exec(query)
	if err != nil {
		nuts.L.Errorf("[TimescaleDB] Failed to set up retention policy: %v", err)
	}
}

// Append inserts one reading. The conflict clause makes redelivered broker
// messages (same id) a no-op instead of a duplicate row.
func (r *ReadingRepo) Append(ctx context.Context, reading *models.Reading) error {
	query := `
		INSERT INTO weather_readings (
			id, device_id, timestamp,
			temperature, humidity, pressure, co2, vocs, light, noise,
			pm1, pm25, pm4, pm10, aiq,
			gas1, gas2, gas3, gas4, gas5, gas6
		) VALUES (
			:id, :device_id, :timestamp,
			:temperature, :humidity, :pressure, :co2, :vocs, :light, :noise,
			:pm1, :pm25, :pm4, :pm10, :aiq,
			:gas1, :gas2, :gas3, :gas4, :gas5, :gas6
		) ON CONFLICT (id, timestamp) DO NOTHING`

	_, err := r.db.GetDB().NamedExecContext(ctx, query, reading)
	if err != nil {
		return errors.NewWriteError("failed to insert reading", err)
	}
	return nil
}

// QueryRange returns readings in [from, to] inclusive, ascending by
// timestamp, projected to the requested metric columns.
func (r *ReadingRepo) QueryRange(ctx context.Context, deviceID string, from, to time.Time, metrics []string, limit int) ([]models.Reading, error) {
	columns, err := projectedColumns(metrics)
	if err != nil {
		return nil, err
	}

	readings := []models.Reading{}
	query := fmt.Sprintf(`
		SELECT %s
		FROM weather_readings
		WHERE device_id = $1 AND timestamp BETWEEN $2 AND $3
		ORDER BY timestamp ASC
		LIMIT $4`, columns)

	err = r.db.GetDB().SelectContext(ctx, &readings, query, deviceID, from, to, limit)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to query readings", err)
	}
	return readings, nil
}

// Latest returns the most recent reading for a device by timestamp.
func (r *ReadingRepo) Latest(ctx context.Context, deviceID string) (*models.Reading, error) {
	reading := &models.Reading{}
	query := `
        SELECT *
        FROM weather_readings
        WHERE device_id = $1
        ORDER BY timestamp DESC
        LIMIT 1`

	err := r.db.GetDB().GetContext(ctx, reading, query, deviceID)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, errors.NewDatabaseError("failed to get latest reading", err)
	}
	return reading, nil
}

// projectedColumns builds the SELECT column list for a metric selection.
// Metric names come from a closed set, so the list is safe to interpolate.
func projectedColumns(metrics []string) (string, error) {
	if len(metrics) == 0 {
		return "*", nil
	}
	columns := []string{"id", "device_id", "timestamp"}
	for _, name := range metrics {
		if !models.IsMetricName(name) {
			return "", errors.NewValidationError(fmt.Sprintf("unknown metric %q", name), nil)
		}
		columns = append(columns, name)
	}
	return strings.Join(columns, ", "), nil
}
