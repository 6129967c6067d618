// FilePath: internal/codec/codec.go
// Package codec turns raw device payloads into typed readings.
package codec

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/sensormagics/telemetry-hub/internal/errors"
	"github.com/sensormagics/telemetry-hub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// Timestamp layouts devices are known to send. The first is the JS
// `toDateString() + toTimeString()` shape the firmware emits.
var dateStringLayouts = []string{
	"Mon Jan 02 2006 15:04:05",
	time.RFC3339,
}

// Codec decodes loosely-typed sensor payloads into Readings.
type Codec struct {
	// offset is added to the arrival-time fallback when the payload
	// carries no dateString.
	offset time.Duration
	now    func() time.Time
}

func New(offset time.Duration) *Codec {
	return &Codec{offset: offset, now: time.Now}
}

// NewWithClock is used by tests to pin the arrival-time fallback.
func NewWithClock(offset time.Duration, now func() time.Time) *Codec {
	return &Codec{offset: offset, now: now}
}

// payload is the wire shape shared by the broker body and the HTTP body.
// Every metric is optional; simpler devices report only a subset.
type payload struct {
	MessageID  string `json:"messageId"`
	DateString string `json:"dateString"`

	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	Pressure    *float64 `json:"pressure"`
	CO2         *float64 `json:"co2"`
	VOCs        *float64 `json:"vocs"`
	Light       *float64 `json:"light"`
	Noise       *float64 `json:"noise"`
	PM1         *float64 `json:"pm1"`
	PM25        *float64 `json:"pm25"`
	PM4         *float64 `json:"pm4"`
	PM10        *float64 `json:"pm10"`
	AIQ         *float64 `json:"aiq"`
	Gas1        *float64 `json:"gas1"`
	Gas2        *float64 `json:"gas2"`
	Gas3        *float64 `json:"gas3"`
	Gas4        *float64 `json:"gas4"`
	Gas5        *float64 `json:"gas5"`
	Gas6        *float64 `json:"gas6"`
}

// Decode parses raw into a Reading for the given device. Metrics absent
// from the payload stay unset on the result. The reading ID is the
// payload's messageId when present, so broker redelivery stays idempotent.
func (c *Codec) Decode(raw []byte, deviceID string) (*models.Reading, error) {
	if deviceID == "" {
		return nil, errors.NewUnknownDeviceError("missing device id", nil)
	}

	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, errors.NewMalformedPayloadError("invalid payload shape", err)
	}

	timestamp, err := c.resolveTimestamp(p.DateString)
	if err != nil {
		return nil, err
	}

	id := p.MessageID
	if id == "" {
		id = nuts.NID("wd", 16)
	}

	reading := &models.Reading{
		ID:        id,
		DeviceID:  deviceID,
		Timestamp: timestamp,

		Temperature: p.Temperature,
		Humidity:    p.Humidity,
		Pressure:    p.Pressure,
		CO2:         p.CO2,
		VOCs:        p.VOCs,
		Light:       p.Light,
		Noise:       p.Noise,
		PM1:         p.PM1,
		PM25:        p.PM25,
		PM4:         p.PM4,
		PM10:        p.PM10,
		AIQ:         p.AIQ,
		Gas1:        p.Gas1,
		Gas2:        p.Gas2,
		Gas3:        p.Gas3,
		Gas4:        p.Gas4,
		Gas5:        p.Gas5,
		Gas6:        p.Gas6,
	}

	if err := validateFinite(reading); err != nil {
		return nil, err
	}
	return reading, nil
}

func (c *Codec) resolveTimestamp(dateString string) (time.Time, error) {
	if dateString == "" {
		return c.now().UTC().Add(c.offset), nil
	}
	for _, layout := range dateStringLayouts {
		if ts, err := time.Parse(layout, dateString); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, errors.NewMalformedPayloadError(
		fmt.Sprintf("unparseable dateString %q", dateString), nil)
}

// validateFinite rejects NaN/Inf values. JSON numbers are finite, but the
// codec is also fed from in-process callers.
func validateFinite(reading *models.Reading) error {
	for _, name := range models.MetricNames {
		value := reading.Metric(name)
		if value == nil {
			continue
		}
		if math.IsNaN(*value) || math.IsInf(*value, 0) {
			return errors.NewMalformedPayloadError(
				fmt.Sprintf("metric %s is not a finite number", name), nil)
		}
	}
	return nil
}
