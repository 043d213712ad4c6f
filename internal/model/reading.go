package model

import (
	"bytes"
	"encoding/json"
	"strings"
)

// EmptySensorLabel stands in for a blank sensor id in errors and logs.
const EmptySensorLabel = "(empty)"

// SensorReading is one measurement submitted for validation.
type SensorReading struct {
	SensorID     string   `json:"sensor_id"`
	Type         string   `json:"type"`
	Value        Value    `json:"value"`
	Unit         string   `json:"unit"`
	Timestamp    string   `json:"timestamp"`
	PumpStatus   *string  `json:"pump_status,omitempty"`
	IrrigationMM *float64 `json:"irrigation_mm,omitempty"`
}

// Label is the sensor id, or EmptySensorLabel when blank.
func (r SensorReading) Label() string {
	if strings.TrimSpace(r.SensorID) == "" {
		return EmptySensorLabel
	}
	return r.SensorID
}

// UnmarshalJSON never fails: anything that is not an object decodes to the
// all-default reading, and mistyped fields keep their defaults.
func (r *SensorReading) UnmarshalJSON(data []byte) error {
	*r = SensorReading{}
	fields, ok := objectFields(data)
	if !ok {
		return nil
	}
	r.SensorID = stringField(fields["sensor_id"])
	r.Type = stringField(fields["type"])
	r.Value = RawValue(fields["value"])
	r.Unit = stringField(fields["unit"])
	r.Timestamp = stringField(fields["timestamp"])
	if raw, ok := fields["pump_status"]; ok {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && !isNull(raw) {
			r.PumpStatus = &s
		}
	}
	if raw, ok := fields["irrigation_mm"]; ok {
		if v := RawValue(raw); v.IsNumber() {
			f, _ := v.Float()
			r.IrrigationMM = &f
		}
	}
	return nil
}

func objectFields(data []byte) (map[string]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, false
	}
	return fields, true
}

func stringField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
