// FilePath: internal/models/api.models.filters.go
package models

import "time"

// RangeFilter carries the query parameters of a range query. Decoded from
// the URL query string with gorilla/schema.
type RangeFilter struct {
	DeviceID string    `schema:"device_id"`
	From     time.Time `schema:"from"`
	To       time.Time `schema:"to"`
	Metrics  []string  `schema:"metrics"`
	Limit    int       `schema:"limit"`
}
