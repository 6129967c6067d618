// FilePath: internal/models/models.device.go
package models

import "time"

type DeviceStatus string

const (
	StatusRegistered   DeviceStatus = "REGISTERED"
	StatusConnected    DeviceStatus = "CONNECTED"
	StatusActivated    DeviceStatus = "ACTIVATED"
	StatusDeactivated  DeviceStatus = "DEACTIVATED"
	StatusBlocked      DeviceStatus = "BLOCKED"
	StatusUnregistered DeviceStatus = "UNREGISTERED"
	StatusTerminated   DeviceStatus = "TERMINATED"
)

// IngestAllowed reports whether readings from a device in this status are
// accepted. Unregistered and terminated devices are rejected; everything
// else is honored.
func (s DeviceStatus) IngestAllowed() bool {
	return s != StatusUnregistered && s != StatusTerminated
}

// Device is the identity anchor for readings. Device records are managed by
// the external device-management service; this module only reads them.
type Device struct {
	ID         string       `json:"id" db:"id"`
	Name       string       `json:"name" db:"name"`
	Identifier string       `json:"identifier" db:"identifier"`
	Status     DeviceStatus `json:"status" db:"status"`
	Location   string       `json:"location" db:"location"`
	ModelType  string       `json:"model_type" db:"model_type"`
	ClientID   *string      `json:"client_id" db:"client_id"`
	CreatedAt  time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at" db:"updated_at"`
}
