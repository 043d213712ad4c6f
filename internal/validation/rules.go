// Package validation applies the per-reading business rules and partitions
// a batch into accepted readings and validation errors.
package validation

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/model"
)

// Field names reported in validation errors.
const (
	FieldSensorID   = "sensor_id"
	FieldValue      = "value"
	FieldTimestamp  = "timestamp"
	FieldPumpStatus = "pump_status"
)

const PumpOff = "OFF"

// Range is an inclusive acceptable interval.
type Range struct {
	Min float64
	Max float64
}

func (r Range) Contains(v float64) bool {
	return r.Min <= v && v <= r.Max
}

var ranges = map[string]Range{
	"temperature": {Min: -50, Max: 60},
	"humidity":    {Min: 0, Max: 100},
	"rainfall":    {Min: 0, Max: 500},
	"irrigation":  {Min: 0, Max: 200},
	"wind_speed":  {Min: 0, Max: 300},
}

// RangeFor reports the acceptable range of a sensor type. Unknown types are unconstrained.
func RangeFor(sensorType string) (Range, bool) {
	r, ok := ranges[sensorType]
	return r, ok
}

// Reading returns every rule violation of r, in rule order.
func Reading(r model.SensorReading) []model.ValidationError {
	var errs []model.ValidationError
	sid := r.Label()
	add := func(field, msg string) {
		errs = append(errs, model.ValidationError{SensorID: sid, Field: field, Message: msg})
	}

	if strings.TrimSpace(r.SensorID) == "" {
		add(FieldSensorID, "sensor_id is required and cannot be blank")
	}

	if v, ok := r.Value.Float(); !ok {
		add(FieldValue, fmt.Sprintf("non-numeric value: %s (type=%s)", r.Value.String(), r.Value.Kind()))
	} else if rng, known := RangeFor(r.Type); known && !rng.Contains(v) {
		add(FieldValue, fmt.Sprintf("value %s out of range [%s, %s] for type=%s",
			formatFloat(v), formatFloat(rng.Min), formatFloat(rng.Max), r.Type))
	}

	if _, err := ParseTimestamp(r.Timestamp); err != nil {
		add(FieldTimestamp, fmt.Sprintf("invalid timestamp: %q", r.Timestamp))
	}

	if r.PumpStatus != nil && *r.PumpStatus == PumpOff && r.IrrigationMM != nil && *r.IrrigationMM > 0 {
		add(FieldPumpStatus, fmt.Sprintf("pump_status=OFF but irrigation_mm=%s > 0", formatFloat(*r.IrrigationMM)))
	}
	return errs
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
