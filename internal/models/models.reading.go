// FilePath: internal/models/models.reading.go
package models

import "time"

// Reading represents a single environmental sample reported by a device.
// Metrics a device did not report stay nil; they are "not recorded", not zero.
type Reading struct {
	ID        string    `json:"id" db:"id"`
	DeviceID  string    `json:"deviceId" db:"device_id"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`

	Temperature *float64 `json:"temperature,omitempty" db:"temperature"`
	Humidity    *float64 `json:"humidity,omitempty" db:"humidity"`
	Pressure    *float64 `json:"pressure,omitempty" db:"pressure"`
	CO2         *float64 `json:"co2,omitempty" db:"co2"`
	VOCs        *float64 `json:"vocs,omitempty" db:"vocs"`
	Light       *float64 `json:"light,omitempty" db:"light"`
	Noise       *float64 `json:"noise,omitempty" db:"noise"`
	PM1         *float64 `json:"pm1,omitempty" db:"pm1"`
	PM25        *float64 `json:"pm25,omitempty" db:"pm25"`
	PM4         *float64 `json:"pm4,omitempty" db:"pm4"`
	PM10        *float64 `json:"pm10,omitempty" db:"pm10"`
	AIQ         *float64 `json:"aiq,omitempty" db:"aiq"`
	Gas1        *float64 `json:"gas1,omitempty" db:"gas1"`
	Gas2        *float64 `json:"gas2,omitempty" db:"gas2"`
	Gas3        *float64 `json:"gas3,omitempty" db:"gas3"`
	Gas4        *float64 `json:"gas4,omitempty" db:"gas4"`
	Gas5        *float64 `json:"gas5,omitempty" db:"gas5"`
	Gas6        *float64 `json:"gas6,omitempty" db:"gas6"`
}

// MetricNames lists every reading metric in canonical (report column) order.
// Names double as JSON field names and database column names.
var MetricNames = []string{
	"temperature", "humidity", "pressure", "co2", "vocs", "light", "noise",
	"pm1", "pm25", "pm4", "pm10", "aiq",
	"gas1", "gas2", "gas3", "gas4", "gas5", "gas6",
}

// IsMetricName reports whether name is one of the known reading metrics.
func IsMetricName(name string) bool {
	for _, m := range MetricNames {
		if m == name {
			return true
		}
	}
	return false
}

// Metric returns the value recorded for the named metric, or nil.
func (r *Reading) Metric(name string) *float64 {
	switch name {
	case "temperature":
		return r.Temperature
	case "humidity":
		return r.Humidity
	case "pressure":
		return r.Pressure
	case "co2":
		return r.CO2
	case "vocs":
		return r.VOCs
	case "light":
		return r.Light
	case "noise":
		return r.Noise
	case "pm1":
		return r.PM1
	case "pm25":
		return r.PM25
	case "pm4":
		return r.PM4
	case "pm10":
		return r.PM10
	case "aiq":
		return r.AIQ
	case "gas1":
		return r.Gas1
	case "gas2":
		return r.Gas2
	case "gas3":
		return r.Gas3
	case "gas4":
		return r.Gas4
	case "gas5":
		return r.Gas5
	case "gas6":
		return r.Gas6
	}
	return nil
}

// SetMetric records a value for the named metric. It returns false for
// unknown metric names.
func (r *Reading) SetMetric(name string, value float64) bool {
	v := value
	switch name {
	case "temperature":
		r.Temperature = &v
	case "humidity":
		r.Humidity = &v
	case "pressure":
		r.Pressure = &v
	case "co2":
		r.CO2 = &v
	case "vocs":
		r.VOCs = &v
	case "light":
		r.Light = &v
	case "noise":
		r.Noise = &v
	case "pm1":
		r.PM1 = &v
	case "pm25":
		r.PM25 = &v
	case "pm4":
		r.PM4 = &v
	case "pm10":
		r.PM10 = &v
	case "aiq":
		r.AIQ = &v
	case "gas1":
		r.Gas1 = &v
	case "gas2":
		r.Gas2 = &v
	case "gas3":
		r.Gas3 = &v
	case "gas4":
		r.Gas4 = &v
	case "gas5":
		r.Gas5 = &v
	case "gas6":
		r.Gas6 = &v
	default:
		return false
	}
	return true
}

// Project returns a copy of the reading carrying only the requested metrics.
// Identity and timestamp are always kept.
func (r *Reading) Project(metrics []string) Reading {
	out := Reading{ID: r.ID, DeviceID: r.DeviceID, Timestamp: r.Timestamp}
	for _, name := range metrics {
		if v := r.Metric(name); v != nil {
			out.SetMetric(name, *v)
		}
	}
	return out
}
