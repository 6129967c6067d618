// FilePath: internal/repository/postgres/postgres.reportjobs.go
package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/sensormagics/telemetry-hub/internal/database"
	"github.com/sensormagics/telemetry-hub/internal/errors"
	"github.com/sensormagics/telemetry-hub/internal/models"
	"github.com/sensormagics/telemetry-hub/internal/repository"
)

type ReportJobRepo struct {
	db database.DB
}

func NewReportJobRepository(db database.DB) (*ReportJobRepo, error) {
	repo := &ReportJobRepo{db: db}
	if err := repo.initializeSchema(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *ReportJobRepo) initializeSchema() error {
	query := `
		CREATE TABLE IF NOT EXISTS report_jobs (
			id TEXT PRIMARY KEY,
			device_id TEXT NOT NULL,
			requested_by TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			range_from TIMESTAMPTZ NOT NULL,
			range_to TIMESTAMPTZ NOT NULL,
			status TEXT NOT NULL,
			note TEXT NOT NULL DEFAULT '',
			result TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`

	if _, err := r.db.GetDB().Exec(query); err != nil {
		return errors.NewDatabaseError("failed to initialize report_jobs schema", err)
	}
	return nil
}

func (r *ReportJobRepo) Create(ctx context.Context, job *models.ReportJob) error {
	query := `
		INSERT INTO report_jobs (id, device_id, requested_by, email, range_from, range_to, status, note, created_at, updated_at)
		VALUES (:id, :device_id, :requested_by, :email, :range_from, :range_to, :status, :note, :created_at, :updated_at)`

	_, err := r.db.GetDB().NamedExecContext(ctx, query, job)
	if err != nil {
		return errors.NewDatabaseError("failed to create report job", err)
	}
	return nil
}

func (r *ReportJobRepo) Get(ctx context.Context, id string) (*models.ReportJob, error) {
	job := &models.ReportJob{}
	query := `
		SELECT id, device_id, requested_by, email, range_from, range_to, status, note, result, created_at, updated_at
		FROM report_jobs
		WHERE id = $1`

	err := r.db.GetDB().GetContext(ctx, job, query, id)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, errors.NewDatabaseError("failed to get report job", err)
	}
	return job, nil
}

// UpdateStatus advances a job. The WHERE clause refuses transitions out of
// terminal states so a crashed runner can never resurrect a finished job.
func (r *ReportJobRepo) UpdateStatus(ctx context.Context, id string, status models.ReportJobStatus, note, result string) error {
	query := `
		UPDATE report_jobs
		SET status = $2, note = $3, result = $4, updated_at = $5
		WHERE id = $1 AND status NOT IN ($6, $7)`

	res, err := r.db.GetDB().ExecContext(ctx, query, id, status, note, result,
		time.Now().UTC(), models.ReportCompleted, models.ReportFailed)
	if err != nil {
		return errors.NewDatabaseError("failed to update report job", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}
	if rows == 0 {
		if _, getErr := r.Get(ctx, id); getErr != nil {
			return getErr
		}
		return repository.ErrTerminalState
	}
	return nil
}
