// FilePath: internal/models/models.report.go
package models

import "time"

type ReportJobStatus string

const (
	ReportStarted    ReportJobStatus = "STARTED"
	ReportInProgress ReportJobStatus = "IN_PROGRESS"
	ReportCompleted  ReportJobStatus = "COMPLETED"
	ReportFailed     ReportJobStatus = "FAILED"
)

// Terminal reports whether the status is final. Completed and failed jobs
// never transition again.
func (s ReportJobStatus) Terminal() bool {
	return s == ReportCompleted || s == ReportFailed
}

// CanTransitionTo enforces the forward-only job lifecycle:
// STARTED -> IN_PROGRESS -> COMPLETED | FAILED.
func (s ReportJobStatus) CanTransitionTo(next ReportJobStatus) bool {
	if s.Terminal() {
		return false
	}
	switch s {
	case ReportStarted:
		return next == ReportInProgress || next == ReportFailed
	case ReportInProgress:
		return next == ReportCompleted || next == ReportFailed
	}
	return false
}

// ReportJob tracks one asynchronous spreadsheet export.
type ReportJob struct {
	ID          string          `json:"id" db:"id"`
	DeviceID    string          `json:"device_id" db:"device_id"`
	RequestedBy string          `json:"requested_by" db:"requested_by"`
	Email       string          `json:"email,omitempty" db:"email"`
	From        time.Time       `json:"from" db:"range_from"`
	To          time.Time       `json:"to" db:"range_to"`
	Status      ReportJobStatus `json:"status" db:"status"`
	Note        string          `json:"note" db:"note"`
	Result      string          `json:"result,omitempty" db:"result"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}
