// FilePath: internal/codec/codec_test.go
package codec

import (
	"strings"
	"testing"
	"time"

	"github.com/sensormagics/telemetry-hub/internal/errors"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestDecode_FullPayload(t *testing.T) {
	c := New(0)
	raw := []byte(`{
		"messageId": "msg-001",
		"dateString": "Mon Jan 02 2023 15:04:05",
		"temperature": 21.5,
		"humidity": 48.2,
		"pressure": 1013.25,
		"co2": 412,
		"pm25": 8.1,
		"gas3": 0.33
	}`)

	reading, err := c.Decode(raw, "dev-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reading.ID != "msg-001" {
		t.Errorf("expected ID msg-001, got %s", reading.ID)
	}
	if reading.DeviceID != "dev-1" {
		t.Errorf("expected device dev-1, got %s", reading.DeviceID)
	}
	want := time.Date(2023, time.January, 2, 15, 4, 5, 0, time.UTC)
	if !reading.Timestamp.Equal(want) {
		t.Errorf("expected timestamp %v, got %v", want, reading.Timestamp)
	}
	if reading.Temperature == nil || *reading.Temperature != 21.5 {
		t.Errorf("expected temperature 21.5, got %v", reading.Temperature)
	}
	if reading.Gas3 == nil || *reading.Gas3 != 0.33 {
		t.Errorf("expected gas3 0.33, got %v", reading.Gas3)
	}
	if reading.Light != nil {
		t.Errorf("expected unreported light to stay nil, got %v", *reading.Light)
	}
}

func TestDecode_Rejections(t *testing.T) {
	c := New(0)
	testCases := []struct {
		name     string
		raw      string
		deviceID string
		check    func(error) bool
	}{
		{
			name:     "non-numeric metric",
			raw:      `{"temperature": "abc"}`,
			deviceID: "dev-1",
			check:    errors.IsMalformedPayload,
		},
		{
			name:     "invalid json",
			raw:      `{not json`,
			deviceID: "dev-1",
			check:    errors.IsMalformedPayload,
		},
		{
			name:     "unparseable dateString",
			raw:      `{"dateString": "yesterday-ish"}`,
			deviceID: "dev-1",
			check:    errors.IsMalformedPayload,
		},
		{
			name:     "missing device id",
			raw:      `{"temperature": 20}`,
			deviceID: "",
			check:    errors.IsUnknownDevice,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			reading, err := c.Decode([]byte(tc.raw), tc.deviceID)
			if err == nil {
				t.Fatalf("expected error, got reading %+v", reading)
			}
			if !tc.check(err) {
				t.Errorf("unexpected error type: %v", err)
			}
		})
	}
}

func TestDecode_ArrivalTimeFallback(t *testing.T) {
	arrival := time.Date(2023, time.June, 1, 12, 0, 0, 0, time.UTC)
	offset := 5*time.Hour + 30*time.Minute
	c := NewWithClock(offset, fixedClock(arrival))

	reading, err := c.Decode([]byte(`{"temperature": 19.0}`), "dev-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := arrival.Add(offset)
	if !reading.Timestamp.Equal(want) {
		t.Errorf("expected fallback timestamp %v, got %v", want, reading.Timestamp)
	}
}

func TestDecode_RFC3339DateString(t *testing.T) {
	c := New(0)
	reading, err := c.Decode([]byte(`{"dateString": "2023-06-01T08:30:00Z"}`), "dev-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2023, time.June, 1, 8, 30, 0, 0, time.UTC)
	if !reading.Timestamp.Equal(want) {
		t.Errorf("expected timestamp %v, got %v", want, reading.Timestamp)
	}
}

func TestDecode_GeneratesIDWhenMissing(t *testing.T) {
	c := New(0)
	reading, err := c.Decode([]byte(`{"temperature": 20}`), "dev-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reading.ID == "" {
		t.Fatal("expected a generated ID")
	}
	if !strings.HasPrefix(reading.ID, "wd") {
		t.Errorf("expected generated ID with wd prefix, got %s", reading.ID)
	}

	other, err := c.Decode([]byte(`{"temperature": 20}`), "dev-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if other.ID == reading.ID {
		t.Error("expected distinct generated IDs")
	}
}
